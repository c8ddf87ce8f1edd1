// Command seed loads users and issues from a YAML fixture file into MongoDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"civicportal-be/config"
	"civicportal-be/gateway"
	"civicportal-be/models"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
)

type fixtures struct {
	Users  []userFixture  `yaml:"users"`
	Issues []issueFixture `yaml:"issues"`
}

type userFixture struct {
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type issueFixture struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category"`
	Priority       string   `yaml:"priority"`
	Status         string   `yaml:"status"`
	Location       string   `yaml:"location"`
	Latitude       *float64 `yaml:"latitude"`
	Longitude      *float64 `yaml:"longitude"`
	Upvotes        int      `yaml:"upvotes"`
	Department     string   `yaml:"department"`
	ResolutionNote string   `yaml:"resolution_note"`
	CreatedBy      string   `yaml:"created_by"`
}

func main() {
	file := flag.String("file", "cmd/seed/fixtures.yaml", "fixture file to load")
	flag.Parse()

	if err := run(*file); err != nil {
		color.Red("seed failed: %v", err)
		os.Exit(1)
	}
}

func run(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixtures: %w", err)
	}
	var fx fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("parsing fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return err
	}

	mongoCfg, err := config.LoadMongo()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, db, err := config.ConnectDB(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := gateway.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	for _, u := range fx.Users {
		now := time.Now()
		user := models.User{
			FullName:  u.FullName,
			Email:     u.Email,
			Role:      u.Role,
			Password:  u.Password,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if user.Role == "" {
			user.Role = models.RoleCitizen
		}
		if err := user.HashPassword(); err != nil {
			return fmt.Errorf("hashing password for %s: %w", u.Email, err)
		}
		if err := gateway.UpsertUser(ctx, db, user); err != nil {
			return err
		}
		color.Green("user   %-32s %s", u.Email, user.Role)
	}

	gw := gateway.NewMongo(db)
	for _, is := range fx.Issues {
		issue, err := gw.Issues.Create(ctx, models.IssuePayload{
			Title:       is.Title,
			Description: is.Description,
			Category:    models.IssueCategory(is.Category),
			Priority:    models.IssuePriority(is.Priority),
			Status:      models.Pending,
			Location:    is.Location,
			Latitude:    is.Latitude,
			Longitude:   is.Longitude,
			CreatedBy:   is.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("creating issue %q: %w", is.Title, err)
		}

		patch := is.patch()
		if !patch.Empty() {
			if _, err := gw.Issues.Update(ctx, issue.ID.Hex(), patch); err != nil {
				return fmt.Errorf("updating issue %q: %w", is.Title, err)
			}
		}
		color.Cyan("issue  %-32s %s", issue.ID.Hex(), is.Title)
	}

	color.Green("seeded %d users and %d issues", len(fx.Users), len(fx.Issues))
	return nil
}

func (f fixtures) validate() error {
	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("user fixture %q needs email and password", u.FullName)
		}
		if u.Role != "" && u.Role != models.RoleCitizen && u.Role != models.RoleAdmin {
			return fmt.Errorf("user fixture %s: unknown role %q", u.Email, u.Role)
		}
	}
	for _, is := range f.Issues {
		if !models.IssueCategory(is.Category).Valid() {
			return fmt.Errorf("issue fixture %q: unknown category %q", is.Title, is.Category)
		}
		if is.Priority != "" && !models.IssuePriority(is.Priority).Valid() {
			return fmt.Errorf("issue fixture %q: unknown priority %q", is.Title, is.Priority)
		}
		if is.Status != "" && !models.IssueStatus(is.Status).Valid() {
			return fmt.Errorf("issue fixture %q: unknown status %q", is.Title, is.Status)
		}
		if (is.Latitude == nil) != (is.Longitude == nil) {
			return fmt.Errorf("issue fixture %q: latitude and longitude go together", is.Title)
		}
	}
	return nil
}

func (is issueFixture) patch() models.IssuePatch {
	var patch models.IssuePatch
	if is.Status != "" && is.Status != string(models.Pending) {
		status := models.IssueStatus(is.Status)
		patch.Status = &status
	}
	if is.Department != "" {
		patch.Department = &is.Department
	}
	if is.ResolutionNote != "" {
		patch.ResolutionNote = &is.ResolutionNote
	}
	if is.Upvotes > 0 {
		patch.Upvotes = &is.Upvotes
	}
	return patch
}

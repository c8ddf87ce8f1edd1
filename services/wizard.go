package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"civicportal-be/gateway"
	"civicportal-be/geocoding"
	"civicportal-be/logger"
	"civicportal-be/models"
	"civicportal-be/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	FirstStep = 1
	LastStep  = 4
)

// IssueForm is the wizard's working copy of an issue. Coordinates stay as typed text until submit.
type IssueForm struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Category    models.IssueCategory `json:"category" validate:"required,issue_category"`
	Location    string               `json:"location" validate:"required,max=200"`
	Latitude    string               `json:"latitude" validate:"omitempty,latitude"`
	Longitude   string               `json:"longitude" validate:"omitempty,longitude"`
	ImageURL    string               `json:"image_url"`
	Description string               `json:"description" validate:"max=2000"`
	Priority    models.IssuePriority `json:"priority" validate:"required,issue_priority"`
}

// FormFields is a partial form update. Nil fields are left untouched.
type FormFields struct {
	Title       *string               `json:"title"`
	Category    *models.IssueCategory `json:"category"`
	Location    *string               `json:"location"`
	Latitude    *string               `json:"latitude"`
	Longitude   *string               `json:"longitude"`
	Description *string               `json:"description"`
	Priority    *models.IssuePriority `json:"priority"`
}

// Draft is the state of one run through the wizard.
type Draft struct {
	ID        string      `json:"id"`
	Step      int         `json:"step"`
	Submitted bool        `json:"submitted"`
	Form      IssueForm   `json:"form"`
	Uploading bool        `json:"uploading"`
	Locating  bool        `json:"locating"`
	IssueID   string      `json:"issue_id,omitempty"`
	CreatedBy string      `json:"created_by"`
	Hints     []Violation `json:"hints,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// LocateRequest carries either device coordinates or an address to geocode.
type LocateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

var stepFields = map[int][]string{
	1: {"Title", "Category"},
	2: {"Location", "Latitude", "Longitude"},
	3: {"Description", "Priority"},
	4: {"Title", "Category", "Location", "Latitude", "Longitude", "Description", "Priority"},
}

type WizardConfig struct {
	EnforceSteps []int
	MaxPhotoSize int64
}

type WizardService struct {
	drafts   DraftStore
	issues   gateway.IssueGateway
	uploader gateway.Uploader
	geocoder Geocoder
	validate *validator.Validate
	cfg      WizardConfig
	now      func() time.Time
}

// NewWizardService wires the wizard. geocoder may be nil, in which case only device coordinates can be located.
func NewWizardService(drafts DraftStore, issues gateway.IssueGateway, uploader gateway.Uploader, geocoder Geocoder, cfg WizardConfig) (*WizardService, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &WizardService{
		drafts:   drafts,
		issues:   issues,
		uploader: uploader,
		geocoder: geocoder,
		validate: v,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// NewValidator returns a validator that knows the issue enums and reports json field names.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := models.RegisterValidations(v); err != nil {
		return nil, fmt.Errorf("registering validations: %w", err)
	}
	return v, nil
}

func (s *WizardService) Start(ctx context.Context) (*Draft, error) {
	draft := &Draft{
		ID:        uuid.NewString(),
		CreatedBy: creatorOf(ctx),
	}
	draft.reset(s.now())
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "wizard draft started", "draft_id", draft.ID)
	return draft, nil
}

func (s *WizardService) Get(ctx context.Context, id string) (*Draft, error) {
	return s.drafts.Get(ctx, id)
}

// Save merges the fields owned by the current step into the form.
func (s *WizardService) Save(ctx context.Context, id string, fields FormFields) (*Draft, error) {
	draft, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Step == LastStep {
		return nil, fmt.Errorf("%w: review step is read-only", ErrFieldNotOnStep)
	}

	owned := stepFields[draft.Step]
	apply := func(name string, set bool, fn func()) error {
		if !set {
			return nil
		}
		if !slices.Contains(owned, name) {
			return fmt.Errorf("%w: %s on step %d", ErrFieldNotOnStep, name, draft.Step)
		}
		fn()
		return nil
	}

	f := &draft.Form
	steps := []error{
		apply("Title", fields.Title != nil, func() { f.Title = strings.TrimSpace(*fields.Title) }),
		apply("Category", fields.Category != nil, func() { f.Category = *fields.Category }),
		apply("Location", fields.Location != nil, func() { f.Location = strings.TrimSpace(*fields.Location) }),
		apply("Latitude", fields.Latitude != nil, func() { f.Latitude = strings.TrimSpace(*fields.Latitude) }),
		apply("Longitude", fields.Longitude != nil, func() { f.Longitude = strings.TrimSpace(*fields.Longitude) }),
		apply("Description", fields.Description != nil, func() { f.Description = *fields.Description }),
		apply("Priority", fields.Priority != nil, func() { f.Priority = *fields.Priority }),
	}
	if err := errors.Join(steps...); err != nil {
		return nil, err
	}

	draft.Hints = nil
	return draft, s.save(ctx, draft)
}

// Next advances from steps 1-3. An enforced step with violations does not advance.
func (s *WizardService) Next(ctx context.Context, id string) (*Draft, error) {
	draft, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Step >= LastStep {
		return nil, fmt.Errorf("%w: next from step %d", ErrInvalidTransition, draft.Step)
	}

	violations := s.CheckStep(draft.Form, draft.Step)
	if len(violations) > 0 && s.enforced(draft.Step) {
		return nil, &ValidationError{Step: draft.Step, Violations: violations}
	}

	draft.Hints = violations
	draft.Step++
	return draft, s.save(ctx, draft)
}

// Back steps back from steps 2-4. It never validates.
func (s *WizardService) Back(ctx context.Context, id string) (*Draft, error) {
	draft, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Step <= FirstStep {
		return nil, fmt.Errorf("%w: back from step %d", ErrInvalidTransition, draft.Step)
	}
	draft.Hints = nil
	draft.Step--
	return draft, s.save(ctx, draft)
}

// Locate fills the step 2 coordinates from the device position or a geocoded address.
// On failure the form is left as it was so the citizen can type the location by hand.
func (s *WizardService) Locate(ctx context.Context, id string, req LocateRequest) (*Draft, error) {
	draft, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Step != 2 {
		return nil, fmt.Errorf("%w: locate on step %d", ErrInvalidTransition, draft.Step)
	}

	draft.Locating = true
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	lat, lng, label, locateErr := s.resolve(ctx, req)

	// Edits saved while the lookup ran must survive, so reload before applying.
	draft, err = s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	draft.Locating = false
	if locateErr == nil {
		draft.Form.Latitude = strconv.FormatFloat(lat, 'f', -1, 64)
		draft.Form.Longitude = strconv.FormatFloat(lng, 'f', -1, 64)
		draft.Form.Location = label
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	if locateErr != nil {
		slog.WarnContext(ctx, "locate failed", "draft_id", id, "error", locateErr)
		return draft, locateErr
	}
	return draft, nil
}

func (s *WizardService) resolve(ctx context.Context, req LocateRequest) (float64, float64, string, error) {
	if req.Latitude != nil && req.Longitude != nil {
		lat, lng := *req.Latitude, *req.Longitude
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return 0, 0, "", fmt.Errorf("%w: coordinates out of range", ErrLocate)
		}
		return lat, lng, fmt.Sprintf("Acquired GPS: %.4f, %.4f", lat, lng), nil
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return 0, 0, "", fmt.Errorf("%w: no coordinates or address given", ErrLocate)
	}
	if s.geocoder == nil {
		return 0, 0, "", fmt.Errorf("%w: address lookup is not available", ErrLocate)
	}
	result, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrLocate, err)
	}
	label := result.Formatted
	if label == "" {
		label = address
	}
	return result.Lat, result.Lng, label, nil
}

// UploadPhoto stores an image for the step 2 form. Failures leave image_url unset.
func (s *WizardService) UploadPhoto(ctx context.Context, id, filename string, r io.Reader) (*Draft, error) {
	draft, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Step != 2 {
		return nil, fmt.Errorf("%w: upload on step %d", ErrInvalidTransition, draft.Step)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading file: %v", ErrUpload, err)
	}
	if int64(len(data)) > s.cfg.MaxPhotoSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrUpload, s.cfg.MaxPhotoSize)
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is not an image", ErrUpload, mtype.String())
	}

	draft.Uploading = true
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	url, uploadErr := s.uploader.Upload(ctx, filename, mtype.String(), bytes.NewReader(data))

	draft, err = s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	draft.Uploading = false
	if uploadErr == nil {
		draft.Form.ImageURL = url
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	if uploadErr != nil {
		slog.ErrorContext(ctx, "photo upload failed", "draft_id", id, "error", uploadErr)
		return draft, fmt.Errorf("%w: %v", ErrUpload, uploadErr)
	}
	return draft, nil
}

// Submit creates the issue exactly once from the review step.
func (s *WizardService) Submit(ctx context.Context, id string) (*Draft, error) {
	draft, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Step != LastStep {
		return nil, fmt.Errorf("%w: submit on step %d", ErrInvalidTransition, draft.Step)
	}
	if violations := s.CheckStep(draft.Form, LastStep); len(violations) > 0 && s.enforced(LastStep) {
		return nil, &ValidationError{Step: LastStep, Violations: violations}
	}

	claimed, err := s.drafts.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadySubmitted
	}

	issue, err := s.issues.Create(ctx, BuildPayload(draft.Form, draft.CreatedBy))
	if err != nil {
		if relErr := s.drafts.Release(ctx, id); relErr != nil {
			slog.ErrorContext(ctx, "failed to release draft claim", "draft_id", id, "error", relErr)
		}
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	draft.Submitted = true
	draft.IssueID = issue.ID.Hex()
	draft.Hints = nil
	ctx = logger.WithLogFields(ctx, logger.LogFields{IssueID: draft.IssueID})
	slog.InfoContext(ctx, "issue submitted", "draft_id", id)
	return draft, s.save(ctx, draft)
}

// Reset returns the draft to its initial state under the same id.
func (s *WizardService) Reset(ctx context.Context, id string) (*Draft, error) {
	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Release(ctx, id); err != nil {
		return nil, err
	}
	draft.reset(s.now())
	return draft, s.drafts.Save(ctx, draft)
}

// CheckStep runs the rules of one step against the form.
func (s *WizardService) CheckStep(form IssueForm, step int) []Violation {
	fields, ok := stepFields[step]
	if !ok {
		return nil
	}

	var violations []Violation
	if err := s.validate.StructPartial(form, fields...); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []Violation{{Field: "form", Rule: "invalid", Message: err.Error()}}
		}
		for _, fe := range verrs {
			violations = append(violations, Violation{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: violationMessage(fe),
			})
		}
	}

	if slices.Contains(fields, "Latitude") && (form.Latitude == "") != (form.Longitude == "") {
		missing := "latitude"
		if form.Longitude == "" {
			missing = "longitude"
		}
		violations = append(violations, Violation{
			Field:   missing,
			Rule:    "pair",
			Message: "latitude and longitude must be given together",
		})
	}
	return violations
}

// BuildPayload turns a finished form into an Issue.create payload.
// A coordinate that does not parse, is out of range, or has no partner, is dropped together with its pair.
func BuildPayload(form IssueForm, createdBy string) models.IssuePayload {
	payload := models.IssuePayload{
		Title:         form.Title,
		Description:   form.Description,
		Category:      form.Category,
		Priority:      form.Priority,
		Status:        models.Pending,
		Location:      form.Location,
		ImageURL:      form.ImageURL,
		Upvotes:       0,
		CommentsCount: 0,
		CreatedBy:     createdBy,
	}
	if payload.Priority == "" {
		payload.Priority = models.Medium
	}

	lat, latErr := strconv.ParseFloat(form.Latitude, 64)
	lng, lngErr := strconv.ParseFloat(form.Longitude, 64)
	if latErr == nil && lngErr == nil && models.ValidCoordinates(lat, lng) {
		payload.Latitude = &lat
		payload.Longitude = &lng
	}
	return payload
}

func (s *WizardService) open(ctx context.Context, id string) (*Draft, error) {
	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Submitted {
		return nil, ErrAlreadySubmitted
	}
	return draft, nil
}

func (s *WizardService) save(ctx context.Context, draft *Draft) error {
	draft.UpdatedAt = s.now()
	return s.drafts.Save(ctx, draft)
}

func (s *WizardService) enforced(step int) bool {
	return slices.Contains(s.cfg.EnforceSteps, step)
}

func (d *Draft) reset(now time.Time) {
	d.Step = FirstStep
	d.Submitted = false
	d.Form = IssueForm{Priority: models.Medium}
	d.Uploading = false
	d.Locating = false
	d.IssueID = ""
	d.Hints = nil
	d.UpdatedAt = now
}

func creatorOf(ctx context.Context) string {
	if user := utils.CurrentUser(ctx); user != nil {
		return user.Email
	}
	return "anonymous"
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "latitude", "longitude":
		return fe.Field() + " must be a valid coordinate"
	case "issue_category", "issue_priority":
		return fmt.Sprintf("%s %q is not a recognised value", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

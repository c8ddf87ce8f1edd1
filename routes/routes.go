package routes

import (
	"fmt"
	"net/http"
	"time"

	"civicportal-be/config"
	"civicportal-be/controllers"
	"civicportal-be/gateway"
	"civicportal-be/middlewares"
	"civicportal-be/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// Deps is everything the router needs from main.
type Deps struct {
	Config    config.Config
	Users     gateway.UserGateway
	Redis     redis.Cmdable
	Auth      *controllers.AuthController
	Wizard    *controllers.WizardController
	Community *controllers.CommunityController
	Dashboard *controllers.DashboardController
	Views     *controllers.ViewController
	Files     *controllers.FileController
}

// RegisterValidators teaches gin's binding validator the issue enums.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return models.RegisterValidations(v)
}

func Setup(r *gin.Engine, deps Deps) error {
	if err := RegisterValidators(); err != nil {
		return err
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middlewares.LoadSession(deps.Config.Auth.JWTSecret, deps.Users))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	AuthRoutes(api, deps)
	WizardRoutes(api, deps)
	CommunityRoutes(api, deps)
	DashboardRoutes(api, deps)

	api.GET("/home", deps.Views.Home)
	api.GET("/map", deps.Views.Map)
	api.GET("/analytics", deps.Views.Analytics)
	api.GET("/files/:id", deps.Files.Serve)
	return nil
}

// AuthRoutes sets up the authentication routes
func AuthRoutes(api *gin.RouterGroup, deps Deps) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/logout", deps.Auth.Logout)
		auth.GET("/me", middlewares.RequireAuth(), deps.Auth.Me)
	}
	api.GET("/portal/access", deps.Auth.Access)
}

// WizardRoutes sets up the issue submission routes
func WizardRoutes(api *gin.RouterGroup, deps Deps) {
	wizard := api.Group("/wizard")

	start := []gin.HandlerFunc{}
	if deps.Redis != nil {
		rl := deps.Config.RateLimit
		start = append(start, middlewares.IssueRateLimiter(deps.Redis, rl.IssueQueuePrefix, rl.IssuesPerDay, 24*time.Hour))
	}
	start = append(start, deps.Wizard.Start)
	wizard.POST("", start...)

	draft := wizard.Group("/:id")
	{
		draft.GET("", deps.Wizard.Get)
		draft.PUT("", deps.Wizard.Save)
		draft.POST("/next", deps.Wizard.Next)
		draft.POST("/back", deps.Wizard.Back)
		draft.POST("/reset", deps.Wizard.Reset)
		draft.POST("/submit", deps.Wizard.Submit)
		draft.POST("/locate", deps.Wizard.Locate)
		draft.POST("/photo", deps.Wizard.UploadPhoto)
	}
}

// CommunityRoutes sets up the public issue list, upvotes and comments
func CommunityRoutes(api *gin.RouterGroup, deps Deps) {
	upvotes := middlewares.NewUpvoteLimiter(deps.Config.RateLimit.UpvotesPerMinute)

	community := api.Group("/community")
	{
		community.GET("", deps.Community.List)
		community.POST("/issues/:id/upvote", upvotes.Middleware(), deps.Community.Upvote)
		community.GET("/issues/:id/comments", deps.Community.Comments)
		community.POST("/issues/:id/comments", deps.Community.AddComment)
	}
}

// DashboardRoutes sets up the staff-only triage routes
func DashboardRoutes(api *gin.RouterGroup, deps Deps) {
	dashboard := api.Group("/dashboard", middlewares.RequireAdmin())
	{
		dashboard.GET("", deps.Dashboard.List)
		dashboard.GET("/issues/:id", deps.Dashboard.Detail)
		dashboard.PATCH("/issues/:id", deps.Dashboard.Triage)
	}
}

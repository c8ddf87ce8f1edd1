package controllers

import (
	"context"
	"net/http"
	"time"

	"civicportal-be/config"
	"civicportal-be/gateway"
	"civicportal-be/middlewares"
	"civicportal-be/models"
	"civicportal-be/services"
	"civicportal-be/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	users gateway.UserGateway
	cfg   config.AuthConfig
	prod  bool
}

func NewAuthController(users gateway.UserGateway, cfg config.AuthConfig, production bool) *AuthController {
	return &AuthController{users: users, cfg: cfg, prod: production}
}

type userResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_date"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.Hex(),
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Register handles user registration
func (a *AuthController) Register(c *gin.Context) {
	var input struct {
		FullName string `json:"full_name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := a.users.Register(ctx, input.FullName, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login checks credentials and sets the auth cookie. The token is also returned for bearer use.
func (a *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := a.users.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := utils.GenerateToken(a.cfg.JWTSecret, user.ID.Hex(), a.cfg.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	// cross-origin cookies in production need an empty domain
	domain := a.cfg.CookieDomain
	if a.prod {
		domain = ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookieName,
		Value:    token,
		MaxAge:   int(a.cfg.TokenTTL.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   a.prod,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// Me returns the session user resolved by LoadSession.
func (a *AuthController) Me(c *gin.Context) {
	user := utils.CurrentUser(c.Request.Context())
	if user == nil {
		respondError(c, gateway.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout clears the auth cookie
func (a *AuthController) Logout(c *gin.Context) {
	c.SetCookie(middlewares.AuthCookieName, "", -1, "/", a.cfg.CookieDomain, a.prod, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Access reports the government portal gate state for the caller.
func (a *AuthController) Access(c *gin.Context) {
	c.JSON(http.StatusOK, services.EvaluateSession(c.Request.Context()))
}

package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"civicportal-be/gateway"
	"civicportal-be/logger"
	"civicportal-be/utils"

	"github.com/gin-gonic/gin"
)

const AuthCookieName = "auth_token"

// LoadSession resolves the caller once per request from the bearer token or auth cookie.
// Requests without a valid session continue anonymously.
func LoadSession(secret string, users gateway.UserGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			slog.DebugContext(ctx, "token validation failed", "error", err)
			c.Next()
			return
		}

		user, err := users.Me(ctx, userID)
		if err != nil {
			if !errors.Is(err, gateway.ErrUnauthenticated) {
				slog.WarnContext(ctx, "session lookup failed", "error", err)
			}
			c.Next()
			return
		}

		ctx = utils.WithUserID(ctx, userID)
		ctx = utils.WithUser(ctx, user)
		ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.Request.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.CurrentUser(c.Request.Context()) == nil {
			utils.AbortWithNotice(c, http.StatusUnauthorized, utils.Notice{
				Kind:    utils.NoticeAuth,
				Message: "User not authenticated",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin is the authorization boundary for staff routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := utils.CurrentUser(c.Request.Context())
		if user == nil {
			utils.AbortWithNotice(c, http.StatusUnauthorized, utils.Notice{
				Kind:    utils.NoticeAuth,
				Message: "User not authenticated",
			})
			return
		}
		if !user.IsAdmin() {
			utils.AbortWithNotice(c, http.StatusForbidden, utils.Notice{
				Kind:    utils.NoticeAuth,
				Message: "Admin access required",
			})
			return
		}
		c.Next()
	}
}

package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"civicportal-be/gateway"
	"civicportal-be/services"
	"civicportal-be/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps err onto a status and notice, logs it and writes the response.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status, notice := classify(err)

	body := utils.NoticeBody(notice)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body["violations"] = verr.Violations
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err, "kind", notice.Kind)
	} else {
		slog.WarnContext(ctx, "request rejected", "error", err, "kind", notice.Kind)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, utils.Notice) {
	switch {
	case errors.Is(err, gateway.ErrInvalidID):
		return http.StatusBadRequest, utils.Notice{Kind: utils.NoticeValidation, Message: "Invalid ID"}
	case errors.Is(err, gateway.ErrNotFound), errors.Is(err, services.ErrDraftNotFound):
		return http.StatusNotFound, utils.Notice{Kind: utils.NoticeGateway, Message: notFoundMessage(err)}
	case errors.Is(err, gateway.ErrUnauthenticated), errors.Is(err, gateway.ErrInvalidCredentials):
		return http.StatusUnauthorized, utils.Notice{Kind: utils.NoticeAuth, Message: "Invalid credentials"}
	case errors.Is(err, gateway.ErrEmailTaken):
		return http.StatusConflict, utils.Notice{Kind: utils.NoticeAuth, Message: "User with this email already exists"}
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity, utils.Notice{Kind: utils.NoticeValidation, Message: "Please complete the required fields"}
	case errors.Is(err, services.ErrFieldNotOnStep), errors.Is(err, services.ErrEmptyComment):
		return http.StatusBadRequest, utils.Notice{Kind: utils.NoticeValidation, Message: err.Error()}
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrAlreadySubmitted):
		return http.StatusConflict, utils.Notice{Kind: utils.NoticeValidation, Message: err.Error()}
	case errors.Is(err, services.ErrLocate):
		return http.StatusUnprocessableEntity, utils.Notice{
			Kind:      utils.NoticeGeolocation,
			Message:   "Could not get your location. Please enter it manually.",
			Retryable: true,
		}
	case errors.Is(err, services.ErrUpload):
		return http.StatusUnprocessableEntity, utils.Notice{
			Kind:      utils.NoticeUpload,
			Message:   "Photo upload failed. Please try again.",
			Retryable: true,
		}
	default:
		return http.StatusBadGateway, utils.Notice{
			Kind:      utils.NoticeGateway,
			Message:   "Something went wrong. Please try again.",
			Retryable: true,
		}
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, services.ErrDraftNotFound) {
		return "Draft not found"
	}
	return "Resource not found"
}

func badRequest(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "invalid request body", "error", err)
	utils.AbortWithNotice(c, http.StatusBadRequest, utils.Notice{
		Kind:    utils.NoticeValidation,
		Message: err.Error(),
	})
}

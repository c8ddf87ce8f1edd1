package controllers

import (
	"context"
	"net/http"
	"time"

	"civicportal-be/logger"
	"civicportal-be/services"

	"github.com/gin-gonic/gin"
)

type WizardController struct {
	wizard *services.WizardService
}

func NewWizardController(wizard *services.WizardService) *WizardController {
	return &WizardController{wizard: wizard}
}

func (w *WizardController) draftContext(c *gin.Context) (context.Context, context.CancelFunc, string) {
	id := c.Param("id")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		DraftID:   id,
		Component: "portal.wizard",
	})
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	return ctx, cancel, id
}

func (w *WizardController) respond(c *gin.Context, status int, draft *services.Draft, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, draft)
}

// Start opens a new draft on step 1
func (w *WizardController) Start(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	draft, err := w.wizard.Start(ctx)
	w.respond(c, http.StatusCreated, draft, err)
}

func (w *WizardController) Get(c *gin.Context) {
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Get(ctx, id)
	w.respond(c, http.StatusOK, draft, err)
}

// Save merges the current step's fields
func (w *WizardController) Save(c *gin.Context) {
	var fields services.FormFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Save(ctx, id, fields)
	w.respond(c, http.StatusOK, draft, err)
}

func (w *WizardController) Next(c *gin.Context) {
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Next(ctx, id)
	w.respond(c, http.StatusOK, draft, err)
}

func (w *WizardController) Back(c *gin.Context) {
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Back(ctx, id)
	w.respond(c, http.StatusOK, draft, err)
}

func (w *WizardController) Reset(c *gin.Context) {
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Reset(ctx, id)
	w.respond(c, http.StatusOK, draft, err)
}

func (w *WizardController) Submit(c *gin.Context) {
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Submit(ctx, id)
	w.respond(c, http.StatusCreated, draft, err)
}

// Locate fills coordinates from the device position or an address lookup
func (w *WizardController) Locate(c *gin.Context) {
	var req services.LocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.Locate(ctx, id, req)
	w.respond(c, http.StatusOK, draft, err)
}

// UploadPhoto takes a multipart "file" field
func (w *WizardController) UploadPhoto(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	ctx, cancel, id := w.draftContext(c)
	defer cancel()

	draft, err := w.wizard.UploadPhoto(ctx, id, header.Filename, file)
	w.respond(c, http.StatusOK, draft, err)
}

package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"civicportal-be/gateway"

	"github.com/gin-gonic/gin"
)

type FileController struct {
	uploader gateway.Uploader
}

func NewFileController(uploader gateway.Uploader) *FileController {
	return &FileController{uploader: uploader}
}

// Serve streams back an uploaded photo
func (f *FileController) Serve(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	file, err := f.uploader.Open(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Data, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", file.Name),
	})
}

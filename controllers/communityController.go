package controllers

import (
	"context"
	"net/http"
	"time"

	"civicportal-be/logger"
	"civicportal-be/services"

	"github.com/gin-gonic/gin"
)

type CommunityController struct {
	community *services.CommunityService
}

func NewCommunityController(community *services.CommunityService) *CommunityController {
	return &CommunityController{community: community}
}

func issueContext(c *gin.Context, component string) (context.Context, context.CancelFunc) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		IssueID:   c.Param("id"),
		Component: component,
	})
	return context.WithTimeout(ctx, 10*time.Second)
}

// List returns every issue matching ?search= plus all comments
func (cc *CommunityController) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	view, err := cc.community.Load(ctx, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Upvote increments an issue's upvotes and answers with the reloaded list
func (cc *CommunityController) Upvote(c *gin.Context) {
	ctx, cancel := issueContext(c, "portal.community")
	defer cancel()

	view, err := cc.community.Upvote(ctx, c.Param("id"), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CommunityController) Comments(c *gin.Context) {
	ctx, cancel := issueContext(c, "portal.community")
	defer cancel()

	comments, err := cc.community.Comments(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddComment posts a comment, then reloads the thread and the issue list
func (cc *CommunityController) AddComment(c *gin.Context) {
	var input struct {
		Content string `json:"content" binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := issueContext(c, "portal.community")
	defer cancel()

	id := c.Param("id")
	comment, err := cc.community.AddComment(ctx, id, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	thread, err := cc.community.Comments(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := cc.community.Load(ctx, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"comment":   comment,
		"comments":  thread,
		"community": view,
	})
}

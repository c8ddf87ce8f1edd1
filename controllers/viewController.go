package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"civicportal-be/services"

	"github.com/gin-gonic/gin"
)

var errNothingToUpdate = errors.New("nothing to update")

// ViewController serves the read-only pages: home, map and analytics.
type ViewController struct {
	home      *services.HomeService
	mapView   *services.MapService
	analytics *services.AnalyticsService
}

func NewViewController(home *services.HomeService, mapView *services.MapService, analytics *services.AnalyticsService) *ViewController {
	return &ViewController{home: home, mapView: mapView, analytics: analytics}
}

func (v *ViewController) Home(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	view, err := v.home.Load(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Map returns markers for ?category= (default all)
func (v *ViewController) Map(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	view, err := v.mapView.Load(ctx, c.DefaultQuery("category", services.FilterAll))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (v *ViewController) Analytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	analytics, err := v.analytics.Load(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

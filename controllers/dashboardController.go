package controllers

import (
	"net/http"

	"civicportal-be/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

// List returns filtered issues and stats over the whole collection
func (d *DashboardController) List(c *gin.Context) {
	var filter services.IssueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := issueContext(c, "portal.dashboard")
	defer cancel()

	view, err := d.dashboard.Load(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (d *DashboardController) Detail(c *gin.Context) {
	ctx, cancel := issueContext(c, "portal.dashboard")
	defer cancel()

	detail, err := d.dashboard.Detail(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Triage updates status, department and resolution note
func (d *DashboardController) Triage(c *gin.Context) {
	var req services.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Patch().Empty() {
		badRequest(c, errNothingToUpdate)
		return
	}

	ctx, cancel := issueContext(c, "portal.dashboard")
	defer cancel()

	issue, err := d.dashboard.Triage(ctx, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

package services_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicportal-be/models"
	"civicportal-be/services"
)

var _ = Describe("BuildMap", func() {
	cfg := services.NewMapConfig(20.5937, 78.9629, 5)
	lat, lng := 19.07, 72.87

	issues := []models.Issue{
		{ID: primitive.NewObjectID(), Title: "mapped", Category: models.Safety, Status: models.InProgress, Priority: models.Critical, Latitude: &lat, Longitude: &lng},
		{ID: primitive.NewObjectID(), Title: "half", Category: models.Safety, Latitude: &lat},
		{ID: primitive.NewObjectID(), Title: "unmapped", Category: models.Utilities},
		{ID: primitive.NewObjectID(), Title: "odd", Category: "potholes", Status: "archived", Latitude: &lat, Longitude: &lng},
	}

	It("uses the default viewport and tile layer", func() {
		Expect(cfg.Center).To(Equal([2]float64{20.5937, 78.9629}))
		Expect(cfg.Zoom).To(Equal(5))
		Expect(cfg.Subdomains).To(Equal([]string{"mt0", "mt1", "mt2", "mt3"}))
		Expect(cfg.RelayoutDelayMS).To(Equal(100))
	})

	It("only places issues with both coordinates", func() {
		view := services.BuildMap(cfg, issues, "")
		Expect(view.Category).To(Equal("all"))
		Expect(view.Markers).To(HaveLen(2))
		Expect(view.Stats).To(Equal(services.SidebarStats{Total: 2, Critical: 1, InProgress: 1}))
	})

	It("skips issues whose stored coordinates are not usable", func() {
		nan, far := math.NaN(), 512.0
		bad := []models.Issue{
			{ID: primitive.NewObjectID(), Title: "nan", Category: models.Safety, Latitude: &nan, Longitude: &lng},
			{ID: primitive.NewObjectID(), Title: "far", Category: models.Safety, Latitude: &lat, Longitude: &far},
			issues[0],
		}
		view := services.BuildMap(cfg, bad, "")
		Expect(view.Markers).To(HaveLen(1))
		Expect(view.Stats.Total).To(Equal(1))
		_, err := json.Marshal(view)
		Expect(err).NotTo(HaveOccurred())
	})

	It("colours markers from the palette with fallbacks", func() {
		view := services.BuildMap(cfg, issues, "all")
		Expect(view.Markers[0].Icon).To(Equal(services.MarkerIcon{Fill: "#ef4444", Border: "#c084fc"}))
		Expect(view.Markers[1].Icon).To(Equal(services.MarkerIcon{Fill: models.DefaultCategoryColor, Border: models.DefaultStatusColor}))
		Expect(view.Markers[0].Position).To(Equal([2]float64{lat, lng}))
	})

	It("filters by category", func() {
		view := services.BuildMap(cfg, issues, "utilities")
		Expect(view.Markers).To(BeEmpty())
		Expect(view.Stats.Total).To(BeZero())
		Expect(view.Legend.Categories).To(HaveLen(len(models.Categories)))
	})
})

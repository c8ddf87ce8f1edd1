package models_test

import (
	"github.com/go-playground/validator/v10"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"civicportal-be/models"
)

var _ = Describe("RegisterValidations", func() {
	type payload struct {
		Category string `validate:"issue_category"`
		Priority string `validate:"issue_priority"`
		Status   string `validate:"issue_status"`
	}

	var v *validator.Validate

	BeforeEach(func() {
		v = validator.New()
		Expect(models.RegisterValidations(v)).To(Succeed())
	})

	It("accepts enum values", func() {
		Expect(v.Struct(payload{Category: "safety", Priority: "low", Status: "closed"})).To(Succeed())
	})

	It("rejects values outside the enums", func() {
		err := v.Struct(payload{Category: "roads", Priority: "urgent", Status: "done"})
		Expect(err).To(HaveOccurred())
		var verrs validator.ValidationErrors
		Expect(err).To(BeAssignableToTypeOf(verrs))
		Expect(err.(validator.ValidationErrors)).To(HaveLen(3))
	})
})

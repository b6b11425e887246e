package taxonomy_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/taxonomy"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

func TestDefaultTaxonomy(t *testing.T) {
	Convey("Given the embedded taxonomy", t, func() {
		tx := taxonomy.Default()

		Convey("It lists the marketplace categories in order", func() {
			names := []string{}
			for _, c := range tx.Categories() {
				names = append(names, c.Name)
			}
			So(names, ShouldResemble, []string{"Yard Work", "Pet Care", "Tutoring", "Delivery", "Tech Help", "Event Help", "Other"})
		})

		Convey("Known pairs validate", func() {
			So(tx.Validate("Pet Care", "Dog Walking"), ShouldBeNil)
			So(tx.Validate("Other", ""), ShouldBeNil)
		})

		Convey("Unknown categories fail on the category field", func() {
			err := tx.Validate("Plumbing", "")
			So(apperrors.IsKind(err, apperrors.CodeValidation), ShouldBeTrue)
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "category")
		})

		Convey("Subcategories must belong to their category", func() {
			err := tx.Validate("Pet Care", "Math")
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "subcategory")
		})

		Convey("Callers cannot mutate the index", func() {
			cats := tx.Categories()
			cats[0].Subcategories[0] = "changed"
			c, _ := tx.Lookup(cats[0].Name)
			So(c.Subcategories[0], ShouldNotEqual, "changed")
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Duplicate category names are rejected", t, func() {
		_, err := taxonomy.Parse([]byte("categories:\n  - name: A\n  - name: A\n"))
		So(err, ShouldNotBeNil)
	})
}

package repository_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/repository"
)

func TestGigFilter(t *testing.T) {
	Convey("Given filters over gig fields", t, func() {
		open := domain.GigStatusOpen
		petCare := "Pet Care"
		springfield := "springfield"
		gig := &domain.Gig{Status: domain.GigStatusOpen, Category: "Pet Care", Location: "Springfield", PosterID: "p1"}

		Convey("An empty filter matches everything", func() {
			So(repository.GigFilter{}.Matches(gig), ShouldBeTrue)
		})

		Convey("Every set field must match", func() {
			So(repository.GigFilter{Status: &open, Category: &petCare}.Matches(gig), ShouldBeTrue)
			claimed := domain.GigStatusClaimed
			So(repository.GigFilter{Status: &claimed, Category: &petCare}.Matches(gig), ShouldBeFalse)
		})

		Convey("Location equality is exact", func() {
			So(repository.GigFilter{Location: &springfield}.Matches(gig), ShouldBeFalse)
		})

		Convey("Equal filters share a signature regardless of pointer identity", func() {
			other := "Pet Care"
			a := repository.GigFilter{Status: &open, Category: &petCare, Limit: 10}
			b := repository.GigFilter{Status: &open, Category: &other, Limit: 10}
			So(a.Signature(), ShouldEqual, b.Signature())
			So(a.Signature(), ShouldNotEqual, repository.GigFilter{Status: &open}.Signature())
		})
	})
}

func TestGigPatch(t *testing.T) {
	Convey("Given a gig and a partial patch", t, func() {
		gig := &domain.Gig{Title: "Old", Location: "Here", Status: domain.GigStatusOpen}
		title := "New"
		claimed := domain.GigStatusClaimed
		claimant := "s1"

		repository.GigPatch{Title: &title, Status: &claimed, ClaimedBy: &claimant}.Apply(gig)

		Convey("Only the set fields change", func() {
			So(gig.Title, ShouldEqual, "New")
			So(gig.Location, ShouldEqual, "Here")
			So(gig.Status, ShouldEqual, domain.GigStatusClaimed)
			So(*gig.ClaimedBy, ShouldEqual, "s1")
		})
	})
}

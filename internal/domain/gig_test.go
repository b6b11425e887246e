package domain_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
)

func TestCanTransition(t *testing.T) {
	Convey("Given the gig lifecycle graph", t, func() {
		Convey("Open moves only to claimed", func() {
			So(domain.CanTransition(domain.GigStatusOpen, domain.GigStatusClaimed), ShouldBeTrue)
			So(domain.CanTransition(domain.GigStatusOpen, domain.GigStatusCompleted), ShouldBeFalse)
			So(domain.CanTransition(domain.GigStatusOpen, domain.GigStatusOpen), ShouldBeFalse)
		})

		Convey("Claimed moves only to completed", func() {
			So(domain.CanTransition(domain.GigStatusClaimed, domain.GigStatusCompleted), ShouldBeTrue)
			So(domain.CanTransition(domain.GigStatusClaimed, domain.GigStatusClaimed), ShouldBeFalse)
			So(domain.CanTransition(domain.GigStatusClaimed, domain.GigStatusOpen), ShouldBeFalse)
		})

		Convey("Completed is terminal", func() {
			for _, next := range []domain.GigStatus{domain.GigStatusOpen, domain.GigStatusClaimed, domain.GigStatusCompleted} {
				So(domain.CanTransition(domain.GigStatusCompleted, next), ShouldBeFalse)
			}
		})

		Convey("Unknown statuses never transition", func() {
			So(domain.CanTransition("archived", domain.GigStatusOpen), ShouldBeFalse)
			_, ok := domain.ParseGigStatus("archived")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestGigCounterpart(t *testing.T) {
	Convey("Given a claimed gig", t, func() {
		claimant := "seeker-1"
		gig := domain.Gig{PosterID: "poster-1", ClaimedBy: &claimant, Status: domain.GigStatusClaimed}

		Convey("The poster's counterpart is the claimant", func() {
			other, ok := gig.Counterpart("poster-1")
			So(ok, ShouldBeTrue)
			So(other, ShouldEqual, "seeker-1")
		})

		Convey("The claimant's counterpart is the poster", func() {
			other, ok := gig.Counterpart("seeker-1")
			So(ok, ShouldBeTrue)
			So(other, ShouldEqual, "poster-1")
		})

		Convey("Outsiders have no counterpart", func() {
			_, ok := gig.Counterpart("someone-else")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an open gig", t, func() {
		gig := domain.Gig{PosterID: "poster-1", Status: domain.GigStatusOpen, Applicants: []string{"a"}}

		Convey("Nobody has a counterpart yet", func() {
			_, ok := gig.Counterpart("poster-1")
			So(ok, ShouldBeFalse)
		})

		Convey("Applicant membership is reported", func() {
			So(gig.HasApplicant("a"), ShouldBeTrue)
			So(gig.HasApplicant("b"), ShouldBeFalse)
		})
	})
}

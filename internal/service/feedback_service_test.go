package service_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/service"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

func (h *harness) completedGig(poster, claimant *domain.User) *domain.Gig {
	gig := h.openGig(poster)
	_, err := h.gigs.ClaimGig(h.ctx, gig.ID, claimant.ID)
	So(err, ShouldBeNil)
	done, err := h.gigs.CompleteGig(h.ctx, gig.ID, poster.ID)
	So(err, ShouldBeNil)
	return done
}

func TestFeedbackEndToEnd(t *testing.T) {
	Convey("Given a poster, an applicant and a claimant", t, func() {
		h := newHarness()
		p := h.user("pat", domain.RolePoster)
		a := h.user("ada", domain.RoleSeeker)
		b := h.user("bea", domain.RoleSeeker)

		gig := h.openGig(p)
		_, err := h.applications.Apply(h.ctx, gig.ID, a.ID, "")
		So(err, ShouldBeNil)
		_, err = h.gigs.ClaimGig(h.ctx, gig.ID, b.ID)
		So(err, ShouldBeNil)

		Convey("Feedback before completion is rejected", func() {
			_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, Rating: 4})
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "status")
		})

		Convey("After completion both parties rate each other", func() {
			_, err := h.gigs.CompleteGig(h.ctx, gig.ID, p.ID)
			So(err, ShouldBeNil)

			toB, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, ToUser: b.ID, Rating: 4, Comment: "great"})
			So(err, ShouldBeNil)
			So(toB.ToUser, ShouldEqual, b.ID)

			toP, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: b.ID, Rating: 5})
			So(err, ShouldBeNil)
			So(toP.ToUser, ShouldEqual, p.ID)

			ratingP, err := h.feedback.Aggregate(h.ctx, p.ID)
			So(err, ShouldBeNil)
			So(ratingP, ShouldResemble, domain.Rating{Mean: 5.0, Count: 1})

			ratingB, err := h.feedback.Aggregate(h.ctx, b.ID)
			So(err, ShouldBeNil)
			So(ratingB, ShouldResemble, domain.Rating{Mean: 4.0, Count: 1})

			Convey("The cached ratings on the user records follow", func() {
				userB, err := h.users.GetUser(h.ctx, b.ID)
				So(err, ShouldBeNil)
				So(userB.Rating, ShouldResemble, domain.Rating{Mean: 4.0, Count: 1})
				So(userB.CompletedGigs, ShouldEqual, 1)
			})

			Convey("A second submission from the same party is a duplicate", func() {
				_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, Rating: 1})
				So(apperrors.IsKind(err, apperrors.CodeDuplicateFeedback), ShouldBeTrue)

				rating, err := h.feedback.Aggregate(h.ctx, b.ID)
				So(err, ShouldBeNil)
				So(rating.Count, ShouldEqual, 1)
			})

			Convey("Applicants who never claimed cannot leave feedback", func() {
				_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: a.ID, Rating: 5})
				So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
			})

			Convey("Feedback addressed to anyone but the counterpart is rejected", func() {
				_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, ToUser: a.ID, Rating: 5})
				So(apperrors.ToDomainError(err).Field, ShouldEqual, "toUser")
			})

			Convey("The gig's feedback is listed", func() {
				left, err := h.feedback.ListForGig(h.ctx, gig.ID)
				So(err, ShouldBeNil)
				So(len(left), ShouldEqual, 2)
			})
		})
	})
}

func TestFeedbackValidation(t *testing.T) {
	Convey("Given a completed gig", t, func() {
		h := newHarness()
		p := h.user("pat", domain.RolePoster)
		b := h.user("bea", domain.RoleSeeker)
		gig := h.completedGig(p, b)

		for _, rating := range []int{0, 6, -1} {
			_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, Rating: rating})
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "rating")
		}

		_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: "missing", FromUser: p.ID, Rating: 3})
		So(apperrors.IsKind(err, apperrors.CodeNotFound), ShouldBeTrue)
	})
}

func TestFeedbackAggregate(t *testing.T) {
	Convey("Given a seeker rated 5, 4 and 3 across three gigs", t, func() {
		h := newHarness()
		p := h.user("pat", domain.RolePoster)
		b := h.user("bea", domain.RoleSeeker)
		for _, rating := range []int{5, 4, 3} {
			gig := h.completedGig(p, b)
			_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, Rating: rating})
			So(err, ShouldBeNil)
		}

		rating, err := h.feedback.Aggregate(h.ctx, b.ID)
		So(err, ShouldBeNil)
		So(rating, ShouldResemble, domain.Rating{Mean: 4.0, Count: 3})

		received, err := h.feedback.ListForUser(h.ctx, b.ID)
		So(err, ShouldBeNil)
		So(len(received), ShouldEqual, 3)

		user, err := h.users.GetUser(h.ctx, b.ID)
		So(err, ShouldBeNil)
		So(user.CompletedGigs, ShouldEqual, 3)
	})

	Convey("Given a user with no feedback", t, func() {
		h := newHarness()
		rating, err := h.feedback.Aggregate(h.ctx, "nobody")
		So(err, ShouldBeNil)
		So(rating, ShouldResemble, domain.Rating{})
	})

	Convey("Means are rounded to one decimal", t, func() {
		h := newHarness()
		p := h.user("pat", domain.RolePoster)
		b := h.user("bea", domain.RoleSeeker)
		for _, rating := range []int{5, 5, 4} {
			gig := h.completedGig(p, b)
			_, err := h.feedback.Submit(h.ctx, service.FeedbackInput{GigID: gig.ID, FromUser: p.ID, Rating: rating})
			So(err, ShouldBeNil)
		}
		rating, err := h.feedback.Aggregate(h.ctx, b.ID)
		So(err, ShouldBeNil)
		So(rating.Mean, ShouldEqual, 4.7)
	})
}

package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/repository"
	"github.com/spec-kit/gig-service/internal/service"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

func TestCreateGig(t *testing.T) {
	Convey("Given a poster and a seeker", t, func() {
		h := newHarness()
		poster := h.user("pat", domain.RolePoster)
		seeker := h.user("sam", domain.RoleSeeker)

		Convey("A poster creates an open, unclaimed gig", func() {
			gig := h.openGig(poster)
			So(gig.ID, ShouldNotBeEmpty)
			So(gig.Status, ShouldEqual, domain.GigStatusOpen)
			So(gig.ClaimedBy, ShouldBeNil)
			So(gig.Applicants, ShouldBeEmpty)
			So(gig.PosterID, ShouldEqual, poster.ID)
			So(gig.CreatedAt.Location(), ShouldEqual, time.UTC)

			history, err := h.gigs.GigHistory(h.ctx, gig.ID)
			So(err, ShouldBeNil)
			So(len(history), ShouldEqual, 1)
			So(history[0].ChangeType, ShouldEqual, domain.ChangeTypeCreated)
			So(h.eventTypes(), ShouldResemble, []events.EventType{events.EventGigCreated})
		})

		Convey("Seekers may not create gigs", func() {
			_, err := h.gigs.CreateGig(h.ctx, seeker.ID, validGig())
			So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
		})

		Convey("Unknown actors may not create gigs", func() {
			_, err := h.gigs.CreateGig(h.ctx, "ghost", validGig())
			So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
		})

		Convey("Missing and out-of-range fields name the offending field", func() {
			cases := map[string]func(*service.GigInput){
				"title":         func(in *service.GigInput) { in.Title = "   " },
				"description":   func(in *service.GigInput) { in.Description = "" },
				"location":      func(in *service.GigInput) { in.Location = "" },
				"paymentAmount": func(in *service.GigInput) { in.PaymentAmount = 0 },
				"paymentKind":   func(in *service.GigInput) { in.PaymentKind = "weekly" },
				"duration":      func(in *service.GigInput) { in.Duration = -1 },
				"durationUnit":  func(in *service.GigInput) { in.DurationUnit = "fortnights" },
				"category":      func(in *service.GigInput) { in.Category = "Plumbing" },
				"subcategory":   func(in *service.GigInput) { in.Subcategory = "Math" },
			}
			for field, mutate := range cases {
				input := validGig()
				mutate(&input)
				_, err := h.gigs.CreateGig(h.ctx, poster.ID, input)
				So(apperrors.IsKind(err, apperrors.CodeValidation), ShouldBeTrue)
				So(apperrors.ToDomainError(err).Field, ShouldEqual, field)
			}
		})

		Convey("A zero duration is rejected even without a unit", func() {
			input := validGig()
			input.Duration = 0
			input.DurationUnit = ""
			_, err := h.gigs.CreateGig(h.ctx, poster.ID, input)
			So(apperrors.IsKind(err, apperrors.CodeValidation), ShouldBeTrue)
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "duration")
			So(apperrors.Retryable(err), ShouldBeFalse)
		})

		Convey("A store constraint rejection is reported as bad input", func() {
			h.store.Gigs = refusingGigs{GigRepository: h.store.Gigs}
			_, err := h.gigs.CreateGig(h.ctx, poster.ID, validGig())
			So(apperrors.IsKind(err, apperrors.CodeValidation), ShouldBeTrue)
			So(apperrors.Retryable(err), ShouldBeFalse)
		})

		Convey("Defaults fill payment kind and duration unit", func() {
			input := validGig()
			input.PaymentKind = ""
			input.DurationUnit = ""
			gig, err := h.gigs.CreateGig(h.ctx, poster.ID, input)
			So(err, ShouldBeNil)
			So(gig.PaymentKind, ShouldEqual, domain.PaymentTotal)
			So(gig.DurationUnit, ShouldEqual, domain.DurationHours)
		})
	})
}

func TestGetAndQueryGigs(t *testing.T) {
	Convey("Given several gigs", t, func() {
		h := newHarness()
		poster := h.user("pat", domain.RolePoster)
		seeker := h.user("sam", domain.RoleSeeker)
		first := h.openGig(poster)
		second := h.openGig(poster)

		Convey("GetGig returns a stored gig", func() {
			gig, err := h.gigs.GetGig(h.ctx, first.ID)
			So(err, ShouldBeNil)
			So(gig.Title, ShouldEqual, first.Title)
		})

		Convey("GetGig reports missing ids as NotFound", func() {
			_, err := h.gigs.GetGig(h.ctx, "missing")
			So(apperrors.IsKind(err, apperrors.CodeNotFound), ShouldBeTrue)
		})

		Convey("QueryGigs orders newest first and filters by status", func() {
			gigs, err := h.gigs.QueryGigs(h.ctx, repository.GigFilter{})
			So(err, ShouldBeNil)
			So(len(gigs), ShouldEqual, 2)
			So(gigs[0].ID, ShouldEqual, second.ID)

			_, err = h.gigs.ClaimGig(h.ctx, first.ID, seeker.ID)
			So(err, ShouldBeNil)

			open := domain.GigStatusOpen
			gigs, err = h.gigs.QueryGigs(h.ctx, repository.GigFilter{Status: &open})
			So(err, ShouldBeNil)
			So(len(gigs), ShouldEqual, 1)
			So(gigs[0].ID, ShouldEqual, second.ID)
		})

		Convey("QueryGigs rejects unknown statuses", func() {
			bogus := domain.GigStatus("archived")
			_, err := h.gigs.QueryGigs(h.ctx, repository.GigFilter{Status: &bogus})
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "status")
		})

		Convey("ListUserGigs splits posted and claimed", func() {
			_, err := h.gigs.ClaimGig(h.ctx, first.ID, seeker.ID)
			So(err, ShouldBeNil)

			posted, err := h.gigs.ListUserGigs(h.ctx, poster.ID, service.UserGigsPosted)
			So(err, ShouldBeNil)
			So(len(posted), ShouldEqual, 2)

			claimed, err := h.gigs.ListUserGigs(h.ctx, seeker.ID, service.UserGigsClaimed)
			So(err, ShouldBeNil)
			So(len(claimed), ShouldEqual, 1)
			So(claimed[0].ID, ShouldEqual, first.ID)

			all, err := h.gigs.ListUserGigs(h.ctx, seeker.ID, service.UserGigsAll)
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 1)

			_, err = h.gigs.ListUserGigs(h.ctx, seeker.ID, "favourites")
			So(apperrors.IsKind(err, apperrors.CodeValidation), ShouldBeTrue)

			_, err = h.gigs.ListUserGigs(h.ctx, "ghost", service.UserGigsAll)
			So(apperrors.IsKind(err, apperrors.CodeNotFound), ShouldBeTrue)
		})
	})
}

func TestUpdateGig(t *testing.T) {
	Convey("Given an open gig", t, func() {
		h := newHarness()
		poster := h.user("pat", domain.RolePoster)
		other := h.user("pam", domain.RolePoster)
		seeker := h.user("sam", domain.RoleSeeker)
		gig := h.openGig(poster)

		Convey("The poster edits descriptive fields", func() {
			title := "  Walk my two dogs "
			amount := 30.0
			updated, err := h.gigs.UpdateGig(h.ctx, gig.ID, poster.ID, service.GigUpdateInput{Title: &title, PaymentAmount: &amount})
			So(err, ShouldBeNil)
			So(updated.Title, ShouldEqual, "Walk my two dogs")
			So(updated.PaymentAmount, ShouldEqual, 30.0)
			So(updated.Status, ShouldEqual, domain.GigStatusOpen)

			history, err := h.gigs.GigHistory(h.ctx, gig.ID)
			So(err, ShouldBeNil)
			last := history[len(history)-1]
			So(last.ChangeType, ShouldEqual, domain.ChangeTypeDetails)
			So(last.OldValue["title"], ShouldEqual, "Walk my dog")
			So(last.NewValue["title"], ShouldEqual, "Walk my two dogs")
		})

		Convey("Category changes are validated against the merged gig", func() {
			category := "Tutoring"
			_, err := h.gigs.UpdateGig(h.ctx, gig.ID, poster.ID, service.GigUpdateInput{Category: &category})
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "subcategory")

			sub := "Math"
			updated, err := h.gigs.UpdateGig(h.ctx, gig.ID, poster.ID, service.GigUpdateInput{Category: &category, Subcategory: &sub})
			So(err, ShouldBeNil)
			So(updated.Category, ShouldEqual, "Tutoring")
		})

		Convey("Other posters and seekers may not edit", func() {
			title := "Mine now"
			_, err := h.gigs.UpdateGig(h.ctx, gig.ID, other.ID, service.GigUpdateInput{Title: &title})
			So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
			_, err = h.gigs.UpdateGig(h.ctx, gig.ID, seeker.ID, service.GigUpdateInput{Title: &title})
			So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
		})

		Convey("A claimed gig is closed to edits", func() {
			_, err := h.gigs.ClaimGig(h.ctx, gig.ID, seeker.ID)
			So(err, ShouldBeNil)

			title := "Too late"
			_, err = h.gigs.UpdateGig(h.ctx, gig.ID, poster.ID, service.GigUpdateInput{Title: &title})
			So(apperrors.IsKind(err, apperrors.CodeGigClosed), ShouldBeTrue)
		})

		Convey("Editing the duration to zero is rejected", func() {
			zero := 0
			_, err := h.gigs.UpdateGig(h.ctx, gig.ID, poster.ID, service.GigUpdateInput{Duration: &zero})
			So(apperrors.IsKind(err, apperrors.CodeValidation), ShouldBeTrue)
			So(apperrors.ToDomainError(err).Field, ShouldEqual, "duration")

			current, err := h.gigs.GetGig(h.ctx, gig.ID)
			So(err, ShouldBeNil)
			So(current.Duration, ShouldEqual, 3)
		})

		Convey("An empty edit is a no-op", func() {
			updated, err := h.gigs.UpdateGig(h.ctx, gig.ID, poster.ID, service.GigUpdateInput{})
			So(err, ShouldBeNil)
			So(updated.UpdatedAt.Equal(gig.UpdatedAt), ShouldBeTrue)
		})
	})
}

func TestCompleteGig(t *testing.T) {
	Convey("Given an open gig", t, func() {
		h := newHarness()
		poster := h.user("pat", domain.RolePoster)
		seeker := h.user("sam", domain.RoleSeeker)
		gig := h.openGig(poster)

		Convey("Completing from open is an invalid transition and mutates nothing", func() {
			_, err := h.gigs.CompleteGig(h.ctx, gig.ID, poster.ID)
			So(apperrors.IsKind(err, apperrors.CodeInvalidTransition), ShouldBeTrue)

			current, err := h.gigs.GetGig(h.ctx, gig.ID)
			So(err, ShouldBeNil)
			So(current.Status, ShouldEqual, domain.GigStatusOpen)
			So(current.ClaimedBy, ShouldBeNil)
		})

		Convey("Once claimed", func() {
			_, err := h.gigs.ClaimGig(h.ctx, gig.ID, seeker.ID)
			So(err, ShouldBeNil)

			Convey("A non-poster may not complete it", func() {
				_, err := h.gigs.CompleteGig(h.ctx, gig.ID, seeker.ID)
				So(apperrors.IsKind(err, apperrors.CodePermissionDenied), ShouldBeTrue)
			})

			Convey("The poster completes it and the claimant's count is recomputed", func() {
				done, err := h.gigs.CompleteGig(h.ctx, gig.ID, poster.ID)
				So(err, ShouldBeNil)
				So(done.Status, ShouldEqual, domain.GigStatusCompleted)
				So(*done.ClaimedBy, ShouldEqual, seeker.ID)

				claimant, err := h.users.GetUser(h.ctx, seeker.ID)
				So(err, ShouldBeNil)
				So(claimant.CompletedGigs, ShouldEqual, 1)

				Convey("Completed is terminal", func() {
					_, err := h.gigs.CompleteGig(h.ctx, gig.ID, poster.ID)
					So(apperrors.IsKind(err, apperrors.CodeInvalidTransition), ShouldBeTrue)
					_, err = h.gigs.ClaimGig(h.ctx, gig.ID, seeker.ID)
					So(apperrors.IsKind(err, apperrors.CodeInvalidTransition), ShouldBeTrue)
				})
			})
		})

		Convey("Completing a missing gig is NotFound", func() {
			_, err := h.gigs.CompleteGig(h.ctx, "missing", poster.ID)
			So(apperrors.IsKind(err, apperrors.CodeNotFound), ShouldBeTrue)
		})
	})
}

// refusingGigs fails every gig write the way the schema's CHECK constraints do.
type refusingGigs struct {
	repository.GigRepository
}

func (refusingGigs) Create(context.Context, *domain.Gig) error {
	return fmt.Errorf("%w: gigs_duration_check", repository.ErrConstraint)
}

func (refusingGigs) UpdateIfStatus(context.Context, string, domain.GigStatus, repository.GigPatch) (*domain.Gig, error) {
	return nil, fmt.Errorf("%w: gigs_duration_check", repository.ErrConstraint)
}

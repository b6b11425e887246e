package worker_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/observability"
	"github.com/spec-kit/gig-service/internal/repository"
	"github.com/spec-kit/gig-service/internal/repository/memory"
	"github.com/spec-kit/gig-service/internal/worker"
)

func TestReconciler(t *testing.T) {
	Convey("Given a gig whose applicant set drifted from its applications", t, func() {
		ctx := context.Background()
		store := memory.NewStore()
		dispatcher := events.NewInMemoryDispatcher()
		var rebuilt []events.Event
		dispatcher.Subscribe(events.EventApplicantsRebuilt, func(_ context.Context, e events.Event) error {
			rebuilt = append(rebuilt, e)
			return nil
		})
		metrics := observability.NewMetrics()

		poster := &domain.User{DisplayName: "Pat", Email: "pat@example.com", Role: domain.RolePoster}
		So(store.Users.Create(ctx, poster), ShouldBeNil)

		gig := &domain.Gig{
			Title:         "Rake leaves",
			Category:      "Yard Work",
			Location:      "Springfield",
			PaymentAmount: 40,
			PaymentKind:   domain.PaymentTotal,
			Duration:      2,
			DurationUnit:  domain.DurationHours,
			PosterID:      poster.ID,
			Status:        domain.GigStatusOpen,
		}
		So(store.Gigs.Create(ctx, gig), ShouldBeNil)
		So(store.Applications.Create(ctx, &domain.Application{
			GigID: gig.ID, ApplicantID: "seeker-1", Status: domain.ApplicationPending,
		}), ShouldBeNil)

		drifted := []string{"ghost", "seeker-1"}
		_, err := store.Gigs.Update(ctx, gig.ID, repository.GigPatch{Applicants: &drifted})
		So(err, ShouldBeNil)

		r := worker.NewReconciler(store, dispatcher, "@every 1h", nil, metrics)

		Convey("A pass rebuilds the set from the applications", func() {
			n, err := r.RunOnce(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			current, err := store.Gigs.GetByID(ctx, gig.ID)
			So(err, ShouldBeNil)
			So(current.Applicants, ShouldResemble, []string{"seeker-1"})

			history, err := store.History.ListByGig(ctx, gig.ID)
			So(err, ShouldBeNil)
			So(history[len(history)-1].ChangeType, ShouldEqual, domain.ChangeTypeReconcile)

			So(len(rebuilt), ShouldEqual, 1)
			payload, ok := rebuilt[0].Payload.(events.ApplicantsRebuiltPayload)
			So(ok, ShouldBeTrue)
			So(payload.Before, ShouldResemble, drifted)

			expected := `
# HELP gigs_applicant_sets_rebuilt_total Gig applicant sets rebuilt from application records.
# TYPE gigs_applicant_sets_rebuilt_total counter
gigs_applicant_sets_rebuilt_total 1
`
			So(testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "gigs_applicant_sets_rebuilt_total"), ShouldBeNil)

			Convey("A second pass finds nothing to do", func() {
				n, err := r.RunOnce(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(len(rebuilt), ShouldEqual, 1)
			})
		})

		Convey("The schedule starts and stops cleanly", func() {
			So(r.Start(ctx), ShouldBeNil)
			r.Stop()
		})

		Convey("An invalid schedule is rejected", func() {
			bad := worker.NewReconciler(store, dispatcher, "every now and then", nil, nil)
			So(bad.Start(ctx), ShouldNotBeNil)
		})
	})
}

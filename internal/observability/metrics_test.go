package observability_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/observability"
)

func TestMetrics(t *testing.T) {
	Convey("Given a metrics instance", t, func() {
		m := observability.NewMetrics()

		Convey("Domain outcomes are counted on the private registry", func() {
			m.RecordClaim(observability.OutcomeSuccess)
			m.RecordClaim("ALREADY_CLAIMED")
			m.RecordClaim("ALREADY_CLAIMED")
			m.RecordTransition("open", "claimed")
			m.RecordRequest("/gigs/:id/claim", "POST", 200, 5*time.Millisecond)

			count, err := testutil.GatherAndCount(m.Registry(), "gigs_claim_attempts_total")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 2)

			count, err = testutil.GatherAndCount(m.Registry(), "gigs_http_requests_total")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})

		Convey("The observer gauge follows subscriptions", func() {
			m.FeedObserverAdded()
			m.FeedObserverAdded()
			m.FeedObserverRemoved()

			count, err := testutil.GatherAndCount(m.Registry(), "gigs_feed_observers")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})
	})

	Convey("A nil metrics value is inert", t, func() {
		var m *observability.Metrics
		So(func() {
			m.RecordClaim("x")
			m.RecordRequest("/", "GET", 200, time.Millisecond)
			m.FeedObserverAdded()
			m.RecordReconciled(3)
		}, ShouldNotPanic)
		So(m.Registry(), ShouldBeNil)
	})
}

package events_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/events"
)

func TestDispatcher(t *testing.T) {
	Convey("Given an in-memory dispatcher", t, func() {
		ctx := context.Background()
		d := events.NewInMemoryDispatcher()

		Convey("Handlers only see their own event type", func() {
			var seen []events.EventType
			d.Subscribe(events.EventGigClaimed, func(_ context.Context, e events.Event) error {
				seen = append(seen, e.Type)
				return nil
			})

			So(d.Publish(ctx, events.Event{Type: events.EventGigCreated}), ShouldBeNil)
			So(d.Publish(ctx, events.Event{Type: events.EventGigClaimed, GigID: "g1"}), ShouldBeNil)
			So(seen, ShouldResemble, []events.EventType{events.EventGigClaimed})
		})

		Convey("A failing handler does not stop later handlers", func() {
			boom := errors.New("boom")
			calls := 0
			d.Subscribe(events.EventGigCompleted, func(context.Context, events.Event) error {
				calls++
				return boom
			})
			d.Subscribe(events.EventGigCompleted, func(context.Context, events.Event) error {
				calls++
				return nil
			})

			err := d.Publish(ctx, events.Event{Type: events.EventGigCompleted})
			So(errors.Is(err, boom), ShouldBeTrue)
			So(calls, ShouldEqual, 2)
		})

		Convey("SubscribeAll covers every gig-changing event", func() {
			gigIDs := []string{}
			events.SubscribeAll(d, events.GigEventTypes, func(_ context.Context, e events.Event) error {
				gigIDs = append(gigIDs, e.GigID)
				return nil
			})
			for i, eventType := range events.GigEventTypes {
				So(d.Publish(ctx, events.Event{Type: eventType, GigID: string(rune('a' + i))}), ShouldBeNil)
			}
			So(len(gigIDs), ShouldEqual, len(events.GigEventTypes))

			So(d.Publish(ctx, events.Event{Type: events.EventFeedbackSubmitted, GigID: "x"}), ShouldBeNil)
			So(len(gigIDs), ShouldEqual, len(events.GigEventTypes))
		})
	})
}

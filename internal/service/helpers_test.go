package service_test

import (
	"context"
	"fmt"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/repository"
	"github.com/spec-kit/gig-service/internal/repository/memory"
	"github.com/spec-kit/gig-service/internal/service"
)

type harness struct {
	ctx          context.Context
	store        *repository.Store
	dispatcher   events.Dispatcher
	published    *[]events.Event
	gigs         *service.GigService
	arbiter      *service.ClaimArbiter
	applications *service.ApplicationService
	feedback     *service.FeedbackService
	users        *service.UserService
}

func newHarness() *harness {
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	published := []events.Event{}
	for _, eventType := range []events.EventType{
		events.EventGigCreated, events.EventGigUpdated, events.EventGigClaimed, events.EventGigCompleted,
		events.EventApplicationSubmitted, events.EventApplicationReviewed, events.EventFeedbackSubmitted,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		})
	}

	deps := service.Dependencies{Store: store, Dispatcher: dispatcher}
	arbiter := service.NewClaimArbiter(deps)
	return &harness{
		ctx:          context.Background(),
		store:        store,
		dispatcher:   dispatcher,
		published:    &published,
		gigs:         service.NewGigService(deps, arbiter),
		arbiter:      arbiter,
		applications: service.NewApplicationService(deps),
		feedback:     service.NewFeedbackService(deps),
		users:        service.NewUserService(deps),
	}
}

func (h *harness) user(name string, role domain.Role) *domain.User {
	u := &domain.User{
		DisplayName: name,
		Email:       fmt.Sprintf("%s@example.com", name),
		Role:        role,
	}
	So(h.store.Users.Create(h.ctx, u), ShouldBeNil)
	return u
}

func validGig() service.GigInput {
	return service.GigInput{
		Title:         "Walk my dog",
		Description:   "Two walks a day while I travel",
		Category:      "Pet Care",
		Subcategory:   "Dog Walking",
		Location:      "Springfield",
		PaymentAmount: 25,
		PaymentKind:   domain.PaymentHourly,
		Duration:      3,
		DurationUnit:  domain.DurationDays,
	}
}

func (h *harness) openGig(poster *domain.User) *domain.Gig {
	gig, err := h.gigs.CreateGig(h.ctx, poster.ID, validGig())
	So(err, ShouldBeNil)
	return gig
}

func (h *harness) eventTypes() []events.EventType {
	types := make([]events.EventType, 0, len(*h.published))
	for _, e := range *h.published {
		types = append(types, e.Type)
	}
	return types
}

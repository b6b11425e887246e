package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/events"
)

// NotificationService writes an activity log line for every domain event.
// Delivery to people (push, email) is not part of this service.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger.Named("activity"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventGigCreated, n.handleGigEvent)
	n.dispatcher.Subscribe(events.EventGigUpdated, n.handleGigEvent)
	n.dispatcher.Subscribe(events.EventGigClaimed, n.handleGigEvent)
	n.dispatcher.Subscribe(events.EventGigCompleted, n.handleGigEvent)
	n.dispatcher.Subscribe(events.EventApplicationSubmitted, n.handleApplicationEvent)
	n.dispatcher.Subscribe(events.EventApplicationReviewed, n.handleApplicationEvent)
	n.dispatcher.Subscribe(events.EventFeedbackSubmitted, n.handleFeedbackSubmitted)
	n.dispatcher.Subscribe(events.EventApplicantsRebuilt, n.handleGigEvent)
}

func (n *NotificationService) handleGigEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), n.fields(event)...)
	return nil
}

func (n *NotificationService) handleApplicationEvent(_ context.Context, event events.Event) error {
	fields := n.fields(event)
	if payload, ok := event.Payload.(events.ApplicationPayload); ok {
		fields = append(fields,
			zap.String("application_id", payload.ApplicationID),
			zap.String("applicant_id", payload.ApplicantID),
			zap.String("status", string(payload.Status)))
	}
	n.logger.Info(string(event.Type), fields...)
	return nil
}

func (n *NotificationService) handleFeedbackSubmitted(_ context.Context, event events.Event) error {
	fields := n.fields(event)
	if payload, ok := event.Payload.(events.FeedbackSubmittedPayload); ok {
		fields = append(fields,
			zap.String("to_user", payload.ToUser),
			zap.Int("rating", payload.Rating))
	}
	n.logger.Info(string(event.Type), fields...)
	return nil
}

func (n *NotificationService) fields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("gig_id", event.GigID),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.String("actor_id", *event.Actor.UserID))
	}
	return fields
}

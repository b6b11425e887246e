package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

const maxFeedbackCommentLength = 1000

// FeedbackService validates post-completion feedback and derives reputation
// aggregates from it.
type FeedbackService struct {
	core
}

// FeedbackInput is a feedback submission. ToUser may be empty; the recipient
// is always the counterpart of FromUser on the gig.
type FeedbackInput struct {
	GigID    string
	FromUser string
	ToUser   string
	Rating   int
	Comment  string
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps Dependencies) *FeedbackService {
	return &FeedbackService{core: newCore(deps)}
}

// Submit stores feedback from one party of a completed gig to the other and
// refreshes the recipient's cached rating.
func (s *FeedbackService) Submit(ctx context.Context, input FeedbackInput) (fb *domain.Feedback, err error) {
	defer func() { s.metrics.RecordFeedback(outcome(err)) }()

	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.NewValidationError("rating",
			fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxFeedbackCommentLength {
		return nil, apperrors.NewValidationError("comment",
			fmt.Sprintf("comment exceeds %d characters", maxFeedbackCommentLength))
	}

	gig, err := s.loadGig(ctx, input.GigID)
	if err != nil {
		return nil, err
	}
	if gig.Status != domain.GigStatusCompleted {
		return nil, apperrors.NewValidationError("status", "feedback is only accepted for completed gigs")
	}
	actor, err := s.actor(ctx, input.FromUser)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionSubmitFeedback, gig); err != nil {
		return nil, err
	}
	recipient, ok := gig.Counterpart(actor.ID)
	if !ok {
		return nil, apperrors.NewPermissionDenied("only the poster and claimant may leave feedback")
	}
	if input.ToUser != "" && input.ToUser != recipient {
		return nil, apperrors.NewValidationError("toUser", "feedback must go to the other party of the gig")
	}

	fb = &domain.Feedback{
		GigID:    gig.ID,
		FromUser: actor.ID,
		ToUser:   recipient,
		Rating:   input.Rating,
		Comment:  comment,
	}
	if err := s.store.Feedback.Create(ctx, fb); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewDuplicateFeedback(map[string]any{"gig_id": gig.ID})
		case errors.Is(err, repository.ErrConstraint):
			return nil, apperrors.NewValidationError("feedback", err.Error())
		default:
			return nil, s.storeFailure("feedback.create", err)
		}
	}

	s.logger.Info("feedback submitted",
		zap.String("gig_id", gig.ID),
		zap.String("from_user", actor.ID),
		zap.String("to_user", recipient),
		zap.Int("rating", fb.Rating))
	s.refreshRating(ctx, recipient)
	s.publishEvent(ctx, events.Event{
		Type:  events.EventFeedbackSubmitted,
		GigID: gig.ID,
		Actor: userActor(actor),
		Payload: events.FeedbackSubmittedPayload{
			FeedbackID: fb.ID,
			ToUser:     recipient,
			Rating:     fb.Rating,
		},
	})
	return fb, nil
}

// Aggregate recomputes userID's reputation from every feedback record
// addressed to them. The mean is rounded to one decimal; no feedback yields
// the zero rating.
func (s *FeedbackService) Aggregate(ctx context.Context, userID string) (domain.Rating, error) {
	received, err := s.store.Feedback.ListByRecipient(ctx, userID)
	if err != nil {
		return domain.Rating{}, s.storeFailure("feedback.list", err)
	}
	return aggregateRatings(received), nil
}

func aggregateRatings(received []domain.Feedback) domain.Rating {
	if len(received) == 0 {
		return domain.Rating{}
	}
	total := 0
	for _, fb := range received {
		total += fb.Rating
	}
	mean := float64(total) / float64(len(received))
	return domain.Rating{Mean: math.Round(mean*10) / 10, Count: len(received)}
}

// ListForUser returns feedback addressed to userID, newest first.
func (s *FeedbackService) ListForUser(ctx context.Context, userID string) ([]domain.Feedback, error) {
	received, err := s.store.Feedback.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("feedback.list", err)
	}
	return received, nil
}

// ListForGig returns the feedback left on a gig, oldest first.
func (s *FeedbackService) ListForGig(ctx context.Context, gigID string) ([]domain.Feedback, error) {
	if _, err := s.loadGig(ctx, gigID); err != nil {
		return nil, err
	}
	left, err := s.store.Feedback.ListByGig(ctx, gigID)
	if err != nil {
		return nil, s.storeFailure("feedback.list", err)
	}
	return left, nil
}

// refreshRating overwrites the cached rating on the user record with a full
// recomputation. The feedback itself is already stored, so failures are
// logged and left for the next submission to repair.
func (s *FeedbackService) refreshRating(ctx context.Context, userID string) {
	rating, err := s.Aggregate(ctx, userID)
	if err != nil {
		s.logger.Error("recompute rating", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if _, err := s.store.Users.Update(ctx, userID, repository.UserPatch{Rating: &rating}); err != nil {
		s.metrics.RecordStoreError("users.update")
		s.logger.Error("refresh rating", zap.String("user_id", userID), zap.Error(err))
	}
}

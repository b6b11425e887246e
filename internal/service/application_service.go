package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

const maxApplicationMessageLength = 2000

// ApplicationService is the application registry: seekers apply to open gigs
// at most once, posters review what arrives.
type ApplicationService struct {
	core
}

// NewApplicationService constructs the service.
func NewApplicationService(deps Dependencies) *ApplicationService {
	return &ApplicationService{core: newCore(deps)}
}

// Apply registers applicantID's interest in gigID. The membership check and
// the append are evaluated by the store as one unit, with a uniqueness
// constraint on (gig, applicant) as the final backstop.
func (s *ApplicationService) Apply(ctx context.Context, gigID, applicantID, message string) (app *domain.Application, err error) {
	defer func() { s.metrics.RecordApplication(outcome(err)) }()

	message = strings.TrimSpace(message)
	if len(message) > maxApplicationMessageLength {
		return nil, apperrors.NewValidationError("message", fmt.Sprintf("message exceeds %d characters", maxApplicationMessageLength))
	}

	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionApply, gig); err != nil {
		return nil, err
	}
	if err := applyStateError(gig, actor.ID); err != nil {
		return nil, err
	}

	app = &domain.Application{
		GigID:       gigID,
		ApplicantID: actor.ID,
		Message:     message,
		Status:      domain.ApplicationPending,
	}
	if err := s.store.Applications.Create(ctx, app); err != nil {
		return nil, s.applyFailure(ctx, gigID, actor.ID, err)
	}

	s.logger.Info("application submitted",
		zap.String("gig_id", gigID),
		zap.String("application_id", app.ID),
		zap.String("applicant_id", actor.ID))
	s.recordHistory(ctx, gigID, &actor.ID, domain.ChangeTypeApplicant, nil, map[string]any{"applicant": actor.ID})
	s.publishEvent(ctx, events.Event{
		Type:  events.EventApplicationSubmitted,
		GigID: gigID,
		Actor: userActor(actor),
		Payload: events.ApplicationPayload{
			ApplicationID: app.ID,
			ApplicantID:   actor.ID,
			Status:        app.Status,
		},
	})
	return app, nil
}

// applyFailure classifies a rejected application write.
func (s *ApplicationService) applyFailure(ctx context.Context, gigID, applicantID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewAlreadyApplied(map[string]any{"gig_id": gigID})
	case errors.Is(err, repository.ErrConditionFailed):
		latest, readErr := s.loadGig(ctx, gigID)
		if readErr != nil {
			return readErr
		}
		if stateErr := applyStateError(latest, applicantID); stateErr != nil {
			return stateErr
		}
		return apperrors.NewAlreadyApplied(map[string]any{"gig_id": gigID})
	default:
		return s.translate("applications.create", "gig", gigID, err)
	}
}

func applyStateError(gig *domain.Gig, applicantID string) error {
	if gig.Status != domain.GigStatusOpen {
		return apperrors.NewGigClosed(map[string]any{"gig_id": gig.ID, "status": string(gig.Status)})
	}
	if gig.HasApplicant(applicantID) {
		return apperrors.NewAlreadyApplied(map[string]any{"gig_id": gig.ID})
	}
	return nil
}

// ListForGig returns a gig's applications in arrival order. Only the poster
// may see them.
func (s *ApplicationService) ListForGig(ctx context.Context, gigID, actorID string) ([]domain.Application, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionViewApplications, gig); err != nil {
		return nil, err
	}
	apps, err := s.store.Applications.ListByGig(ctx, gigID)
	if err != nil {
		return nil, s.storeFailure("applications.list", err)
	}
	return apps, nil
}

// ListByUser returns a seeker's applications, newest first.
func (s *ApplicationService) ListByUser(ctx context.Context, userID string) ([]domain.Application, error) {
	apps, err := s.store.Applications.ListByApplicant(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("applications.list", err)
	}
	return apps, nil
}

// Review accepts or rejects a pending application. It never touches the
// gig's applicant set or lifecycle.
func (s *ApplicationService) Review(ctx context.Context, applicationID, actorID string, decision domain.ApplicationStatus) (*domain.Application, error) {
	if decision != domain.ApplicationAccepted && decision != domain.ApplicationRejected {
		return nil, apperrors.NewValidationError("status", "decision must be accepted or rejected")
	}
	app, err := s.store.Applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, s.translate("applications.get", "application", applicationID, err)
	}
	gig, err := s.loadGig(ctx, app.GigID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionReviewApplication, gig); err != nil {
		return nil, err
	}
	if app.Status != domain.ApplicationPending {
		return nil, alreadyReviewed(app)
	}

	updated, err := s.store.Applications.UpdateStatusIf(ctx, applicationID, domain.ApplicationPending, decision)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			latest, readErr := s.store.Applications.GetByID(ctx, applicationID)
			if readErr != nil {
				return nil, s.translate("applications.get", "application", applicationID, readErr)
			}
			return nil, alreadyReviewed(latest)
		}
		return nil, s.translate("applications.update", "application", applicationID, err)
	}

	s.logger.Info("application reviewed",
		zap.String("application_id", applicationID),
		zap.String("status", string(decision)))
	s.publishEvent(ctx, events.Event{
		Type:  events.EventApplicationReviewed,
		GigID: gig.ID,
		Actor: userActor(actor),
		Payload: events.ApplicationPayload{
			ApplicationID: updated.ID,
			ApplicantID:   updated.ApplicantID,
			Status:        updated.Status,
		},
	})
	return updated, nil
}

func alreadyReviewed(app *domain.Application) error {
	return apperrors.NewDomainError(apperrors.CodeInvalidTransition,
		fmt.Sprintf("application already %s", app.Status),
		http.StatusConflict,
		map[string]any{"application_id": app.ID, "status": string(app.Status)})
}

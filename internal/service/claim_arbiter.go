package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

// ClaimArbiter resolves concurrent claims on a gig to exactly one winner.
type ClaimArbiter struct {
	core
}

// NewClaimArbiter constructs the arbiter.
func NewClaimArbiter(deps Dependencies) *ClaimArbiter {
	return &ClaimArbiter{core: newCore(deps)}
}

// Claim assigns gigID to userID. The write is a single conditional update
// asserting the gig is still open; of N concurrent callers exactly one
// succeeds and the rest observe AlreadyClaimed.
func (a *ClaimArbiter) Claim(ctx context.Context, gigID, userID string) (gig *domain.Gig, err error) {
	defer func() { a.metrics.RecordClaim(outcome(err)) }()

	current, err := a.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionClaim, current); err != nil {
		return nil, err
	}
	if err := claimStateError(current); err != nil {
		return nil, err
	}

	claimed := domain.GigStatusClaimed
	patch := repository.GigPatch{Status: &claimed, ClaimedBy: &actor.ID}
	updated, err := a.store.Gigs.UpdateIfStatus(ctx, gigID, domain.GigStatusOpen, patch)
	if err != nil {
		if !errors.Is(err, repository.ErrConditionFailed) {
			return nil, a.translate("gigs.update", "gig", gigID, err)
		}
		// Lost the race: classify by what the winner left behind.
		latest, readErr := a.loadGig(ctx, gigID)
		if readErr != nil {
			return nil, readErr
		}
		if stateErr := claimStateError(latest); stateErr != nil {
			a.logger.Debug("claim lost race", zap.String("gig_id", gigID), zap.String("user_id", userID))
			return nil, stateErr
		}
		return nil, apperrors.NewAlreadyClaimed(map[string]any{"gig_id": gigID})
	}

	a.metrics.RecordTransition(string(domain.GigStatusOpen), string(domain.GigStatusClaimed))
	a.logger.Info("gig claimed", zap.String("gig_id", gigID), zap.String("claimant_id", actor.ID))
	a.recordHistory(ctx, gigID, &actor.ID, domain.ChangeTypeStatus,
		map[string]any{"status": string(domain.GigStatusOpen)},
		map[string]any{"status": string(domain.GigStatusClaimed), "claimedBy": actor.ID})
	a.publishEvent(ctx, events.Event{
		Type:  events.EventGigClaimed,
		GigID: gigID,
		Actor: userActor(actor),
		Payload: events.GigStatusChangedPayload{
			OldStatus: domain.GigStatusOpen,
			NewStatus: domain.GigStatusClaimed,
			ClaimedBy: updated.ClaimedBy,
		},
	})
	return updated, nil
}

// claimStateError reports why a gig in its current state cannot be claimed.
// A claimed gig reports AlreadyClaimed; a completed gig is past the claim
// step entirely.
func claimStateError(gig *domain.Gig) error {
	switch gig.Status {
	case domain.GigStatusOpen:
		return nil
	case domain.GigStatusClaimed:
		details := map[string]any{"gig_id": gig.ID}
		return apperrors.NewAlreadyClaimed(details)
	default:
		return apperrors.NewInvalidTransition(string(gig.Status), "claim", map[string]any{"gig_id": gig.ID})
	}
}

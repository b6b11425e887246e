package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

const (
	maxTitleLength       = 120
	maxDescriptionLength = 4000
)

// GigService owns the gig lifecycle: creation, edits, completion and the
// read side. Claims are delegated to the ClaimArbiter.
type GigService struct {
	core
	arbiter *ClaimArbiter
}

// GigInput describes the descriptive fields of a gig.
type GigInput struct {
	Title         string
	Description   string
	Category      string
	Subcategory   string
	Location      string
	PaymentAmount float64
	PaymentKind   domain.PaymentKind
	Duration      int
	DurationUnit  domain.DurationUnit
	TargetDate    *time.Time
}

// GigUpdateInput is a partial edit. Nil fields are left untouched.
type GigUpdateInput struct {
	Title           *string
	Description     *string
	Category        *string
	Subcategory     *string
	Location        *string
	PaymentAmount   *float64
	PaymentKind     *domain.PaymentKind
	Duration        *int
	DurationUnit    *domain.DurationUnit
	TargetDate      *time.Time
	ClearTargetDate bool
}

// UserGigsKind selects which side of a user's gigs to list.
type UserGigsKind string

const (
	UserGigsPosted  UserGigsKind = "posted"
	UserGigsClaimed UserGigsKind = "claimed"
	UserGigsAll     UserGigsKind = "all"
)

// NewGigService constructs the service.
func NewGigService(deps Dependencies, arbiter *ClaimArbiter) *GigService {
	if arbiter == nil {
		arbiter = NewClaimArbiter(deps)
	}
	return &GigService{core: newCore(deps), arbiter: arbiter}
}

// CreateGig stores a new open gig posted by actorID.
func (s *GigService) CreateGig(ctx context.Context, actorID string, input GigInput) (*domain.Gig, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor.Role, auth.ActionCreateGig, auth.RelationshipNone); err != nil {
		return nil, err
	}

	input = normalizeGigInput(input)
	if err := s.validateGigInput(input); err != nil {
		return nil, err
	}

	gig := &domain.Gig{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Location:      input.Location,
		PaymentAmount: input.PaymentAmount,
		PaymentKind:   input.PaymentKind,
		Duration:      input.Duration,
		DurationUnit:  input.DurationUnit,
		TargetDate:    input.TargetDate,
		PosterID:      actor.ID,
		Status:        domain.GigStatusOpen,
		Applicants:    []string{},
	}
	if err := s.store.Gigs.Create(ctx, gig); err != nil {
		return nil, s.rejectedWrite("gigs.create", gig.ID, err)
	}

	s.logger.Info("gig created", zap.String("gig_id", gig.ID), zap.String("poster_id", actor.ID))
	s.recordHistory(ctx, gig.ID, &actor.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"status": string(gig.Status),
		"title":  gig.Title,
	})
	s.publishEvent(ctx, events.Event{
		Type:  events.EventGigCreated,
		GigID: gig.ID,
		Actor: userActor(actor),
		Payload: events.GigCreatedPayload{
			Title:    gig.Title,
			Category: gig.Category,
			Location: gig.Location,
		},
	})
	return gig, nil
}

// GetGig fetches a single gig.
func (s *GigService) GetGig(ctx context.Context, gigID string) (*domain.Gig, error) {
	return s.loadGig(ctx, gigID)
}

// QueryGigs returns a snapshot of gigs matching filter, newest first.
func (s *GigService) QueryGigs(ctx context.Context, filter repository.GigFilter) ([]domain.Gig, error) {
	if filter.Status != nil {
		if _, ok := domain.ParseGigStatus(string(*filter.Status)); !ok {
			return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown status %q", *filter.Status))
		}
	}
	if filter.Limit < 0 {
		return nil, apperrors.NewValidationError("limit", "limit must not be negative")
	}
	gigs, err := s.store.Gigs.List(ctx, filter)
	if err != nil {
		return nil, s.storeFailure("gigs.list", err)
	}
	return gigs, nil
}

// ListUserGigs returns the gigs a user posted, claimed, or both.
func (s *GigService) ListUserGigs(ctx context.Context, userID string, kind UserGigsKind) ([]domain.Gig, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, s.translate("users.get", "user", userID, err)
	}

	var filters []repository.GigFilter
	switch kind {
	case UserGigsPosted:
		filters = append(filters, repository.GigFilter{PosterID: &userID})
	case UserGigsClaimed:
		filters = append(filters, repository.GigFilter{ClaimedBy: &userID})
	case UserGigsAll, "":
		filters = append(filters, repository.GigFilter{PosterID: &userID}, repository.GigFilter{ClaimedBy: &userID})
	default:
		return nil, apperrors.NewValidationError("type", fmt.Sprintf("unknown gig list type %q", kind))
	}

	result := []domain.Gig{}
	for _, filter := range filters {
		gigs, err := s.store.Gigs.List(ctx, filter)
		if err != nil {
			return nil, s.storeFailure("gigs.list", err)
		}
		result = append(result, gigs...)
	}
	// A poster never claims their own gig, so the two halves are disjoint.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateGig edits the descriptive fields of an open gig. Only the poster may
// edit, and only while the gig is open.
func (s *GigService) UpdateGig(ctx context.Context, gigID, actorID string, input GigUpdateInput) (*domain.Gig, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionEditGig, gig); err != nil {
		return nil, err
	}
	if gig.Status != domain.GigStatusOpen {
		return nil, apperrors.NewGigClosed(map[string]any{"status": string(gig.Status)})
	}

	patch, changed := updatePatch(input)
	if len(changed) == 0 {
		return gig, nil
	}

	merged := *gig
	patch.Apply(&merged)
	candidate := normalizeGigInput(gigInputOf(&merged))
	if err := s.validateGigInput(candidate); err != nil {
		return nil, err
	}
	patch = trimmedPatch(patch, candidate)

	updated, err := s.store.Gigs.UpdateIfStatus(ctx, gigID, domain.GigStatusOpen, patch)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, apperrors.NewGigClosed(nil)
		}
		return nil, s.rejectedWrite("gigs.update", gigID, err)
	}

	oldValues, newValues := diffGig(gig, updated, changed)
	s.logger.Info("gig updated", zap.String("gig_id", gigID), zap.Strings("fields", changed))
	s.recordHistory(ctx, gigID, &actor.ID, domain.ChangeTypeDetails, oldValues, newValues)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventGigUpdated,
		GigID:   gigID,
		Actor:   userActor(actor),
		Payload: events.GigUpdatedPayload{Fields: changed},
	})
	return updated, nil
}

// ClaimGig assigns an open gig to userID. See ClaimArbiter.Claim.
func (s *GigService) ClaimGig(ctx context.Context, gigID, userID string) (*domain.Gig, error) {
	return s.arbiter.Claim(ctx, gigID, userID)
}

// CompleteGig moves a claimed gig to completed. Authority is checked before
// state, so a non-poster always sees PermissionDenied.
func (s *GigService) CompleteGig(ctx context.Context, gigID, actorID string) (*domain.Gig, error) {
	gig, err := s.loadGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOnGig(actor, auth.ActionComplete, gig); err != nil {
		return nil, err
	}
	if !domain.CanTransition(gig.Status, domain.GigStatusCompleted) {
		return nil, apperrors.NewInvalidTransition(string(gig.Status), "complete", map[string]any{"gig_id": gigID})
	}

	completed := domain.GigStatusCompleted
	updated, err := s.store.Gigs.UpdateIfStatus(ctx, gigID, domain.GigStatusClaimed, repository.GigPatch{Status: &completed})
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			current, readErr := s.loadGig(ctx, gigID)
			if readErr != nil {
				return nil, readErr
			}
			return nil, apperrors.NewInvalidTransition(string(current.Status), "complete", map[string]any{"gig_id": gigID})
		}
		return nil, s.translate("gigs.update", "gig", gigID, err)
	}

	s.metrics.RecordTransition(string(domain.GigStatusClaimed), string(domain.GigStatusCompleted))
	s.logger.Info("gig completed", zap.String("gig_id", gigID), zap.String("poster_id", actor.ID))
	s.recordHistory(ctx, gigID, &actor.ID, domain.ChangeTypeStatus,
		map[string]any{"status": string(domain.GigStatusClaimed)},
		map[string]any{"status": string(domain.GigStatusCompleted)})
	if updated.ClaimedBy != nil {
		s.refreshCompletedGigs(ctx, *updated.ClaimedBy)
	}
	s.publishEvent(ctx, events.Event{
		Type:  events.EventGigCompleted,
		GigID: gigID,
		Actor: userActor(actor),
		Payload: events.GigStatusChangedPayload{
			OldStatus: domain.GigStatusClaimed,
			NewStatus: domain.GigStatusCompleted,
			ClaimedBy: updated.ClaimedBy,
		},
	})
	return updated, nil
}

// GigHistory lists a gig's audit trail, oldest first.
func (s *GigService) GigHistory(ctx context.Context, gigID string) ([]domain.GigHistory, error) {
	if _, err := s.loadGig(ctx, gigID); err != nil {
		return nil, err
	}
	entries, err := s.store.History.ListByGig(ctx, gigID)
	if err != nil {
		return nil, s.storeFailure("history.list", err)
	}
	return entries, nil
}

// refreshCompletedGigs recomputes the claimant's completed count from the
// gig records rather than incrementing it.
func (s *GigService) refreshCompletedGigs(ctx context.Context, claimantID string) {
	completed := domain.GigStatusCompleted
	gigs, err := s.store.Gigs.List(ctx, repository.GigFilter{ClaimedBy: &claimantID, Status: &completed})
	if err != nil {
		s.metrics.RecordStoreError("gigs.list")
		s.logger.Error("count completed gigs", zap.String("user_id", claimantID), zap.Error(err))
		return
	}
	count := len(gigs)
	if _, err := s.store.Users.Update(ctx, claimantID, repository.UserPatch{CompletedGigs: &count}); err != nil {
		s.metrics.RecordStoreError("users.update")
		s.logger.Error("refresh completed gigs", zap.String("user_id", claimantID), zap.Error(err))
	}
}

func (s *GigService) validateGigInput(input GigInput) error {
	switch {
	case input.Title == "":
		return apperrors.NewValidationError("title", "title is required")
	case len(input.Title) > maxTitleLength:
		return apperrors.NewValidationError("title", fmt.Sprintf("title exceeds %d characters", maxTitleLength))
	case input.Description == "":
		return apperrors.NewValidationError("description", "description is required")
	case len(input.Description) > maxDescriptionLength:
		return apperrors.NewValidationError("description", fmt.Sprintf("description exceeds %d characters", maxDescriptionLength))
	case input.Location == "":
		return apperrors.NewValidationError("location", "location is required")
	case input.PaymentAmount <= 0:
		return apperrors.NewValidationError("paymentAmount", "payment amount must be positive")
	case input.PaymentKind != domain.PaymentHourly && input.PaymentKind != domain.PaymentTotal:
		return apperrors.NewValidationError("paymentKind", "payment kind must be hourly or total")
	case input.Duration <= 0:
		return apperrors.NewValidationError("duration", "duration must be positive")
	case !validDurationUnit(input.DurationUnit):
		return apperrors.NewValidationError("durationUnit", "duration unit must be hours, days or weeks")
	}
	return s.taxonomy.Validate(input.Category, input.Subcategory)
}

func validDurationUnit(unit domain.DurationUnit) bool {
	switch unit {
	case domain.DurationHours, domain.DurationDays, domain.DurationWeeks:
		return true
	}
	return false
}

func normalizeGigInput(input GigInput) GigInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Subcategory = strings.TrimSpace(input.Subcategory)
	input.Location = strings.TrimSpace(input.Location)
	if input.PaymentKind == "" {
		input.PaymentKind = domain.PaymentTotal
	}
	if input.DurationUnit == "" {
		input.DurationUnit = domain.DurationHours
	}
	return input
}

func gigInputOf(gig *domain.Gig) GigInput {
	return GigInput{
		Title:         gig.Title,
		Description:   gig.Description,
		Category:      gig.Category,
		Subcategory:   gig.Subcategory,
		Location:      gig.Location,
		PaymentAmount: gig.PaymentAmount,
		PaymentKind:   gig.PaymentKind,
		Duration:      gig.Duration,
		DurationUnit:  gig.DurationUnit,
		TargetDate:    gig.TargetDate,
	}
}

// updatePatch converts an edit into a store patch and lists the touched fields.
func updatePatch(input GigUpdateInput) (repository.GigPatch, []string) {
	patch := repository.GigPatch{
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		Subcategory:     input.Subcategory,
		Location:        input.Location,
		PaymentAmount:   input.PaymentAmount,
		PaymentKind:     input.PaymentKind,
		Duration:        input.Duration,
		DurationUnit:    input.DurationUnit,
		TargetDate:      input.TargetDate,
		ClearTargetDate: input.ClearTargetDate,
	}
	var changed []string
	for name, set := range map[string]bool{
		"title":         input.Title != nil,
		"description":   input.Description != nil,
		"category":      input.Category != nil,
		"subcategory":   input.Subcategory != nil,
		"location":      input.Location != nil,
		"paymentAmount": input.PaymentAmount != nil,
		"paymentKind":   input.PaymentKind != nil,
		"duration":      input.Duration != nil,
		"durationUnit":  input.DurationUnit != nil,
		"targetDate":    input.TargetDate != nil || input.ClearTargetDate,
	} {
		if set {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return patch, changed
}

// trimmedPatch rewrites the string fields of patch with their normalized form.
func trimmedPatch(patch repository.GigPatch, normalized GigInput) repository.GigPatch {
	if patch.Title != nil {
		patch.Title = strPtr(normalized.Title)
	}
	if patch.Description != nil {
		patch.Description = strPtr(normalized.Description)
	}
	if patch.Category != nil {
		patch.Category = strPtr(normalized.Category)
	}
	if patch.Subcategory != nil {
		patch.Subcategory = strPtr(normalized.Subcategory)
	}
	if patch.Location != nil {
		patch.Location = strPtr(normalized.Location)
	}
	if patch.Duration != nil && patch.DurationUnit == nil && normalized.DurationUnit != "" {
		unit := normalized.DurationUnit
		patch.DurationUnit = &unit
	}
	return patch
}

func diffGig(before, after *domain.Gig, fields []string) (map[string]any, map[string]any) {
	oldValues := make(map[string]any, len(fields))
	newValues := make(map[string]any, len(fields))
	for _, field := range fields {
		oldValues[field] = gigField(before, field)
		newValues[field] = gigField(after, field)
	}
	return oldValues, newValues
}

func gigField(gig *domain.Gig, field string) any {
	switch field {
	case "title":
		return gig.Title
	case "description":
		return gig.Description
	case "category":
		return gig.Category
	case "subcategory":
		return gig.Subcategory
	case "location":
		return gig.Location
	case "paymentAmount":
		return gig.PaymentAmount
	case "paymentKind":
		return string(gig.PaymentKind)
	case "duration":
		return gig.Duration
	case "durationUnit":
		return string(gig.DurationUnit)
	case "targetDate":
		if gig.TargetDate == nil {
			return nil
		}
		return gig.TargetDate.Format(time.RFC3339)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/observability"
	"github.com/spec-kit/gig-service/internal/repository"
	"github.com/spec-kit/gig-service/internal/taxonomy"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

// Dependencies bundles collaborators shared by the core services.
type Dependencies struct {
	Store      *repository.Store
	Dispatcher events.Dispatcher
	Taxonomy   *taxonomy.Taxonomy
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

type core struct {
	store      *repository.Store
	dispatcher events.Dispatcher
	taxonomy   *taxonomy.Taxonomy
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func newCore(deps Dependencies) core {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tx := deps.Taxonomy
	if tx == nil {
		tx = taxonomy.Default()
	}
	return core{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		taxonomy:   tx,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// actor resolves the calling user. Unknown ids cannot act on anything.
func (c *core) actor(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.NewPermissionDenied("actor required")
	}
	user, err := c.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewPermissionDenied("unknown actor")
		}
		return nil, c.storeFailure("users.get", err)
	}
	return user, nil
}

func (c *core) loadGig(ctx context.Context, gigID string) (*domain.Gig, error) {
	gig, err := c.store.Gigs.GetByID(ctx, gigID)
	if err != nil {
		return nil, c.translate("gigs.get", "gig", gigID, err)
	}
	return gig, nil
}

// translate maps repository errors onto the caller-facing kinds. Anything
// unrecognized is a store failure.
func (c *core) translate(operation, resource, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	default:
		return c.storeFailure(operation, err)
	}
}

// rejectedWrite reports a gig write the store refused on a record invariant
// as bad input, so callers do not retry it.
func (c *core) rejectedWrite(operation, gigID string, err error) error {
	if errors.Is(err, repository.ErrConstraint) {
		c.logger.Warn("gig write rejected by store",
			zap.String("operation", operation),
			zap.String("gig_id", gigID),
			zap.Error(err))
		return apperrors.NewValidationError("body", "gig fields violate a record constraint")
	}
	return c.translate(operation, "gig", gigID, err)
}

func (c *core) storeFailure(operation string, err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	c.metrics.RecordStoreError(operation)
	c.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
	return apperrors.NewStoreError(err)
}

// recordHistory appends an audit entry. The mutation it describes has already
// been committed, so a failure is logged rather than returned.
func (c *core) recordHistory(ctx context.Context, gigID string, actorID *string, change domain.GigChangeType, oldValue, newValue map[string]any) {
	entry := &domain.GigHistory{
		GigID:       gigID,
		ChangedByID: actorID,
		ChangeType:  change,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := c.store.History.Create(ctx, entry); err != nil {
		c.metrics.RecordStoreError("history.create")
		c.logger.Error("record gig history",
			zap.String("gig_id", gigID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func (c *core) publishEvent(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("gig_id", event.GigID),
			zap.Error(err))
	}
}

func userActor(user *domain.User) events.Actor {
	id, role := user.ID, user.Role
	return events.Actor{UserID: &id, Role: &role}
}

func outcome(err error) string {
	if err == nil {
		return observability.OutcomeSuccess
	}
	return apperrors.ToDomainError(err).Code
}

func strPtr(s string) *string {
	return &s
}

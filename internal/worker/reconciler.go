package worker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/observability"
	"github.com/spec-kit/gig-service/internal/repository"
)

// Reconciler rebuilds each gig's applicant set from its Application records.
// The applicant set is a cache; applications are authoritative.
type Reconciler struct {
	store      *repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	schedule   string
	cron       *cron.Cron
}

// NewReconciler builds a reconciler that runs on the given cron schedule.
func NewReconciler(store *repository.Store, dispatcher events.Dispatcher, schedule string, logger *zap.Logger, metrics *observability.Metrics) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.Named("reconciler"),
		metrics:    metrics,
		schedule:   schedule,
		cron:       cron.New(),
	}
}

// Start registers the job and starts the scheduler.
func (r *Reconciler) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("reconcile applicants", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	r.cron.Start()
	r.logger.Info("reconciler started", zap.String("schedule", r.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("reconciler stopped")
}

// RunOnce performs a single pass and returns how many gigs were rebuilt.
// A failure on one gig is logged and the pass moves on.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	gigs, err := r.store.Gigs.List(ctx, repository.GigFilter{})
	if err != nil {
		r.metrics.RecordStoreError("gigs.list")
		return 0, fmt.Errorf("list gigs: %w", err)
	}

	rebuilt := 0
	for i := range gigs {
		if err := ctx.Err(); err != nil {
			return rebuilt, err
		}
		changed, err := r.reconcile(ctx, &gigs[i])
		if err != nil {
			r.logger.Error("reconcile gig", zap.String("gig_id", gigs[i].ID), zap.Error(err))
			continue
		}
		if changed {
			rebuilt++
		}
	}

	r.metrics.RecordReconciled(rebuilt)
	r.logger.Info("reconcile pass complete", zap.Int("gigs", len(gigs)), zap.Int("rebuilt", rebuilt))
	return rebuilt, nil
}

func (r *Reconciler) reconcile(ctx context.Context, gig *domain.Gig) (bool, error) {
	apps, err := r.store.Applications.ListByGig(ctx, gig.ID)
	if err != nil {
		r.metrics.RecordStoreError("applications.list")
		return false, err
	}

	want := make([]string, 0, len(apps))
	for _, app := range apps {
		if app.ApplicantID == gig.PosterID || slices.Contains(want, app.ApplicantID) {
			continue
		}
		want = append(want, app.ApplicantID)
	}
	if sameMembers(gig.Applicants, want) {
		return false, nil
	}

	before := slices.Clone(gig.Applicants)
	if _, err := r.store.Gigs.Update(ctx, gig.ID, repository.GigPatch{Applicants: &want}); err != nil {
		r.metrics.RecordStoreError("gigs.update")
		return false, err
	}

	r.logger.Warn("applicant set rebuilt",
		zap.String("gig_id", gig.ID),
		zap.Strings("before", before),
		zap.Strings("after", want))

	entry := &domain.GigHistory{
		GigID:      gig.ID,
		ChangeType: domain.ChangeTypeReconcile,
		OldValue:   map[string]any{"applicants": before},
		NewValue:   map[string]any{"applicants": want},
	}
	if err := r.store.History.Create(ctx, entry); err != nil {
		r.metrics.RecordStoreError("history.create")
		r.logger.Error("record gig history", zap.String("gig_id", gig.ID), zap.Error(err))
	}

	if r.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventApplicantsRebuilt,
			GigID:     gig.ID,
			Timestamp: time.Now().UTC(),
			Payload:   events.ApplicantsRebuiltPayload{Before: before, After: want},
		}
		if err := r.dispatcher.Publish(ctx, event); err != nil {
			r.logger.Warn("event handlers failed", zap.String("gig_id", gig.ID), zap.Error(err))
		}
	}
	return true, nil
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}

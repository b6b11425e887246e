// Package memory implements the repository interfaces in process memory.
//
// Every read and write takes a single store-wide mutex, so conditional
// updates are evaluated and applied as one indivisible step. Records are
// copied on the way in and out; callers never share state with the store.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/repository"
)

type db struct {
	mu sync.RWMutex

	seq          uint64
	users        map[string]*domain.User
	gigs         map[string]*gigRecord
	applications map[string]*domain.Application
	feedback     map[string]*domain.Feedback
	history      map[string][]domain.GigHistory
}

type gigRecord struct {
	gig domain.Gig
	seq uint64
}

// NewStore returns an empty store.
func NewStore() *repository.Store {
	d := &db{
		users:        make(map[string]*domain.User),
		gigs:         make(map[string]*gigRecord),
		applications: make(map[string]*domain.Application),
		feedback:     make(map[string]*domain.Feedback),
		history:      make(map[string][]domain.GigHistory),
	}
	return &repository.Store{
		Users:        &userStore{d},
		Gigs:         &gigStore{d},
		Applications: &applicationStore{d},
		Feedback:     &feedbackStore{d},
		History:      &historyStore{d},
	}
}

func (d *db) nextSeq() uint64 {
	d.seq++
	return d.seq
}

func copyGig(g domain.Gig) domain.Gig {
	g.Applicants = append([]string{}, g.Applicants...)
	if g.ClaimedBy != nil {
		claimant := *g.ClaimedBy
		g.ClaimedBy = &claimant
	}
	if g.TargetDate != nil {
		target := *g.TargetDate
		g.TargetDate = &target
	}
	return g
}

// checkGig enforces the invariants the Postgres schema expresses as CHECK
// constraints.
func checkGig(g *domain.Gig) error {
	if g.PaymentAmount <= 0 || g.Duration <= 0 {
		return repository.ErrConstraint
	}
	switch g.PaymentKind {
	case domain.PaymentHourly, domain.PaymentTotal:
	default:
		return repository.ErrConstraint
	}
	switch g.DurationUnit {
	case domain.DurationHours, domain.DurationDays, domain.DurationWeeks:
	default:
		return repository.ErrConstraint
	}
	if (g.ClaimedBy == nil) != (g.Status == domain.GigStatusOpen) {
		return repository.ErrConstraint
	}
	if slices.Contains(g.Applicants, g.PosterID) {
		return repository.ErrConstraint
	}
	if g.ClaimedBy != nil && *g.ClaimedBy == g.PosterID {
		return repository.ErrConstraint
	}
	return nil
}

// ---- gigs ----

type gigStore struct{ d *db }

func (s *gigStore) Create(_ context.Context, gig *domain.Gig) error {
	if gig.ID == "" {
		gig.ID = uuid.NewString()
	}
	now := repository.Now()
	gig.CreatedAt, gig.UpdatedAt = now, now
	if gig.TargetDate != nil {
		target := repository.NormalizeTime(*gig.TargetDate)
		gig.TargetDate = &target
	}
	if gig.Applicants == nil {
		gig.Applicants = []string{}
	}
	if err := checkGig(gig); err != nil {
		return err
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, exists := s.d.gigs[gig.ID]; exists {
		return repository.ErrDuplicate
	}
	if _, ok := s.d.users[gig.PosterID]; !ok {
		return repository.ErrConstraint
	}
	s.d.gigs[gig.ID] = &gigRecord{gig: copyGig(*gig), seq: s.d.nextSeq()}
	return nil
}

func (s *gigStore) GetByID(_ context.Context, id string) (*domain.Gig, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	rec, ok := s.d.gigs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	gig := copyGig(rec.gig)
	return &gig, nil
}

func (s *gigStore) List(_ context.Context, filter repository.GigFilter) ([]domain.Gig, error) {
	s.d.mu.RLock()
	records := make([]*gigRecord, 0, len(s.d.gigs))
	for _, rec := range s.d.gigs {
		if filter.Matches(&rec.gig) {
			records = append(records, &gigRecord{gig: copyGig(rec.gig), seq: rec.seq})
		}
	}
	s.d.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].gig.CreatedAt.Equal(records[j].gig.CreatedAt) {
			return records[i].gig.CreatedAt.After(records[j].gig.CreatedAt)
		}
		return records[i].seq > records[j].seq
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	result := make([]domain.Gig, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.gig)
	}
	return result, nil
}

func (s *gigStore) Update(_ context.Context, id string, patch repository.GigPatch) (*domain.Gig, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.patchGigLocked(id, patch)
}

func (s *gigStore) UpdateIfStatus(_ context.Context, id string, expected domain.GigStatus, patch repository.GigPatch) (*domain.Gig, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rec, ok := s.d.gigs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.gig.Status != expected {
		return nil, repository.ErrConditionFailed
	}
	return s.d.patchGigLocked(id, patch)
}

func (d *db) patchGigLocked(id string, patch repository.GigPatch) (*domain.Gig, error) {
	rec, ok := d.gigs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := copyGig(rec.gig)
	patch.Apply(&next)
	next.UpdatedAt = repository.Now()
	if err := checkGig(&next); err != nil {
		return nil, err
	}
	rec.gig = next
	out := copyGig(next)
	return &out, nil
}

// ---- applications ----

type applicationStore struct{ d *db }

func (s *applicationStore) Create(_ context.Context, app *domain.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := repository.Now()
	app.AppliedAt, app.UpdatedAt = now, now

	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rec, ok := s.d.gigs[app.GigID]
	if !ok {
		return repository.ErrNotFound
	}
	gig := &rec.gig
	if gig.Status != domain.GigStatusOpen || gig.PosterID == app.ApplicantID || gig.HasApplicant(app.ApplicantID) {
		return repository.ErrConditionFailed
	}
	for _, existing := range s.d.applications {
		if existing.GigID == app.GigID && existing.ApplicantID == app.ApplicantID {
			return repository.ErrDuplicate
		}
	}
	gig.Applicants = append(gig.Applicants, app.ApplicantID)
	gig.UpdatedAt = now
	stored := *app
	s.d.applications[app.ID] = &stored
	return nil
}

func (s *applicationStore) GetByID(_ context.Context, id string) (*domain.Application, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	app, ok := s.d.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *app
	return &out, nil
}

func (s *applicationStore) ListByGig(_ context.Context, gigID string) ([]domain.Application, error) {
	result := s.filter(func(a *domain.Application) bool { return a.GigID == gigID })
	sort.Slice(result, func(i, j int) bool { return result[i].AppliedAt.Before(result[j].AppliedAt) })
	return result, nil
}

func (s *applicationStore) ListByApplicant(_ context.Context, applicantID string) ([]domain.Application, error) {
	result := s.filter(func(a *domain.Application) bool { return a.ApplicantID == applicantID })
	sort.Slice(result, func(i, j int) bool { return result[i].AppliedAt.After(result[j].AppliedAt) })
	return result, nil
}

func (s *applicationStore) UpdateStatusIf(_ context.Context, id string, expected, next domain.ApplicationStatus) (*domain.Application, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	app, ok := s.d.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if app.Status != expected {
		return nil, repository.ErrConditionFailed
	}
	app.Status = next
	app.UpdatedAt = repository.Now()
	out := *app
	return &out, nil
}

func (s *applicationStore) filter(keep func(*domain.Application) bool) []domain.Application {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	result := []domain.Application{}
	for _, app := range s.d.applications {
		if keep(app) {
			result = append(result, *app)
		}
	}
	return result
}

// ---- feedback ----

type feedbackStore struct{ d *db }

func (s *feedbackStore) Create(_ context.Context, feedback *domain.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = repository.Now()
	if feedback.Rating < domain.MinRating || feedback.Rating > domain.MaxRating || feedback.FromUser == feedback.ToUser {
		return repository.ErrConstraint
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.gigs[feedback.GigID]; !ok {
		return repository.ErrConstraint
	}
	for _, existing := range s.d.feedback {
		if existing.GigID == feedback.GigID && existing.FromUser == feedback.FromUser {
			return repository.ErrDuplicate
		}
	}
	stored := *feedback
	s.d.feedback[feedback.ID] = &stored
	return nil
}

func (s *feedbackStore) ListByRecipient(_ context.Context, userID string) ([]domain.Feedback, error) {
	result := s.filter(func(f *domain.Feedback) bool { return f.ToUser == userID })
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *feedbackStore) ListByGig(_ context.Context, gigID string) ([]domain.Feedback, error) {
	result := s.filter(func(f *domain.Feedback) bool { return f.GigID == gigID })
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *feedbackStore) filter(keep func(*domain.Feedback) bool) []domain.Feedback {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	result := []domain.Feedback{}
	for _, fb := range s.d.feedback {
		if keep(fb) {
			result = append(result, *fb)
		}
	}
	return result
}

// ---- users ----

type userStore struct{ d *db }

func copyUser(u domain.User) domain.User {
	u.Skills = append([]string{}, u.Skills...)
	return u
}

func (s *userStore) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := repository.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Skills == nil {
		user.Skills = []string{}
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, existing := range s.d.users {
		if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	stored := copyUser(*user)
	s.d.users[user.ID] = &stored
	return nil
}

func (s *userStore) Update(_ context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	user, ok := s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(user)
	user.UpdatedAt = repository.Now()
	out := copyUser(*user)
	return &out, nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	user, ok := s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyUser(*user)
	return &out, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, user := range s.d.users {
		if strings.EqualFold(user.Email, email) {
			out := copyUser(*user)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ---- history ----

type historyStore struct{ d *db }

func (s *historyStore) Create(_ context.Context, history *domain.GigHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	history.CreatedAt = repository.Now()

	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.gigs[history.GigID]; !ok {
		return repository.ErrConstraint
	}
	s.d.history[history.GigID] = append(s.d.history[history.GigID], *history)
	return nil
}

func (s *historyStore) ListByGig(_ context.Context, gigID string) ([]domain.GigHistory, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return append([]domain.GigHistory{}, s.d.history[gigID]...), nil
}

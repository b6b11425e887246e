// Package feed re-delivers filtered gig snapshots to observers whenever the
// underlying gig records change.
//
// Observers sharing a filter signature share one group. A group owns a single
// loop that re-queries the store when marked dirty and offers the result to
// each observer's one-slot inbox; a newer snapshot replaces an undelivered
// older one. Because a group's queries run one after another, every observer
// sees snapshots in store order and never an older state after a newer one.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/observability"
	"github.com/spec-kit/gig-service/internal/repository"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("feed: registry closed")

const retryDelay = 500 * time.Millisecond

// Observer receives the full current matching set. Calls for one
// subscription never overlap.
type Observer func(snapshot []domain.Gig)

// Lister is the read side the registry queries.
type Lister interface {
	List(ctx context.Context, filter repository.GigFilter) ([]domain.Gig, error)
}

// Registry tracks live subscriptions keyed by filter signature.
type Registry struct {
	source  Lister
	logger  *zap.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	groups map[string]*group
	nextID uint64
	closed bool
}

type group struct {
	key       string
	filter    repository.GigFilter
	dirty     chan struct{}
	stop      chan struct{}
	done      chan struct{}
	observers map[uint64]*subscriber
}

type subscriber struct {
	fn    Observer
	inbox chan []domain.Gig
	stop  chan struct{}
	done  chan struct{}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	registry *Registry
	key      string
	id       uint64
	once     sync.Once
}

// NewRegistry builds an empty registry reading from source.
func NewRegistry(source Lister, logger *zap.Logger, metrics *observability.Metrics) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		source:  source,
		logger:  logger.Named("feed"),
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
		groups:  make(map[string]*group),
	}
}

// Subscribe registers fn for filter. The observer first receives the current
// matching set and then a fresh set after every change notification.
func (r *Registry) Subscribe(filter repository.GigFilter, fn Observer) (*Subscription, error) {
	if fn == nil {
		return nil, errors.New("feed: nil observer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	key := filter.Signature()
	g, ok := r.groups[key]
	if !ok {
		g = &group{
			key:       key,
			filter:    filter,
			dirty:     make(chan struct{}, 1),
			stop:      make(chan struct{}),
			done:      make(chan struct{}),
			observers: make(map[uint64]*subscriber),
		}
		r.groups[key] = g
		go r.run(g)
	}

	r.nextID++
	id := r.nextID
	sub := &subscriber{
		fn:    fn,
		inbox: make(chan []domain.Gig, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	g.observers[id] = sub
	go r.deliver(sub)

	g.markDirty()
	r.metrics.FeedObserverAdded()
	r.logger.Debug("observer subscribed", zap.String("filter", key), zap.Uint64("observer", id))
	return &Subscription{registry: r, key: key, id: id}, nil
}

// Notify marks every group dirty. It never blocks; bursts collapse into one
// re-query per group.
func (r *Registry) Notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		g.markDirty()
	}
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, g := range r.groups {
		n += len(g.observers)
	}
	return n
}

// Groups returns the number of distinct filter signatures in use.
func (r *Registry) Groups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// Done is closed once the registry has been closed.
func (r *Registry) Done() <-chan struct{} {
	return r.ctx.Done()
}

// Close stops every loop and observer and waits for them to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancel()
	var waits []chan struct{}
	for key, g := range r.groups {
		for id, sub := range g.observers {
			close(sub.stop)
			waits = append(waits, sub.done)
			delete(g.observers, id)
			r.metrics.FeedObserverRemoved()
		}
		close(g.stop)
		waits = append(waits, g.done)
		delete(r.groups, key)
	}
	r.mu.Unlock()

	for _, done := range waits {
		<-done
	}
}

// Unsubscribe releases the registry entry and waits for any in-flight
// callback to return. It must not be called from inside the observer.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.registry.remove(s.key, s.id)
	})
}

func (r *Registry) remove(key string, id uint64) {
	r.mu.Lock()
	g, ok := r.groups[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	sub, ok := g.observers[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(g.observers, id)
	close(sub.stop)
	if len(g.observers) == 0 {
		close(g.stop)
		delete(r.groups, key)
	}
	r.mu.Unlock()

	r.metrics.FeedObserverRemoved()
	<-sub.done
}

func (g *group) markDirty() {
	select {
	case g.dirty <- struct{}{}:
	default:
	}
}

func (r *Registry) run(g *group) {
	defer close(g.done)
	for {
		select {
		case <-g.stop:
			return
		case <-g.dirty:
		}

		gigs, err := r.source.List(r.ctx, g.filter)
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			r.logger.Warn("feed query failed", zap.String("filter", g.key), zap.Error(err))
			time.AfterFunc(retryDelay, g.markDirty)
			continue
		}

		r.mu.Lock()
		subs := make([]*subscriber, 0, len(g.observers))
		for _, sub := range g.observers {
			subs = append(subs, sub)
		}
		r.mu.Unlock()

		for _, sub := range subs {
			sub.offer(cloneSnapshot(gigs))
		}
	}
}

func (r *Registry) deliver(sub *subscriber) {
	defer close(sub.done)
	for {
		select {
		case <-sub.stop:
			return
		case snapshot := <-sub.inbox:
			select {
			case <-sub.stop:
				return
			default:
			}
			sub.fn(snapshot)
			r.metrics.RecordFeedDelivery()
		}
	}
}

// offer places snapshot in the inbox, displacing an undelivered older one.
// Each inbox has a single producer, its group loop.
func (s *subscriber) offer(snapshot []domain.Gig) {
	for {
		select {
		case s.inbox <- snapshot:
			return
		default:
		}
		select {
		case <-s.inbox:
		default:
		}
	}
}

func cloneSnapshot(gigs []domain.Gig) []domain.Gig {
	out := make([]domain.Gig, len(gigs))
	for i, g := range gigs {
		g.Applicants = append([]string{}, g.Applicants...)
		if g.ClaimedBy != nil {
			claimant := *g.ClaimedBy
			g.ClaimedBy = &claimant
		}
		if g.TargetDate != nil {
			target := *g.TargetDate
			g.TargetDate = &target
		}
		out[i] = g
	}
	return out
}

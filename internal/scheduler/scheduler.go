package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	alertdomain "github.com/medtrack/pharmacy-portal/internal/alert/domain"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// PollInterval is the refresh cadence for sidebars and dropdowns.
const PollInterval = 45 * time.Second

// Snapshot is the full state one pull produces. Consumers replace what they
// display with it wholesale; there is no incremental merge.
type Snapshot struct {
	Generation  uint64                  `json:"generation"`
	Alerts      alertdomain.PollPayload `json:"alerts"`
	UnreadCount int64                   `json:"unread_count"`
	Failed      bool                    `json:"failed,omitempty"`
	PulledAt    time.Time               `json:"pulled_at"`
}

// PullFunc fetches the complete current alert view and unread count.
type PullFunc func(ctx context.Context) (alertdomain.PollPayload, int64, error)

// Sink receives applied snapshots, newest-generation only.
type Sink interface {
	Publish(Snapshot)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Snapshot)

func (f SinkFunc) Publish(s Snapshot) { f(s) }

// Scheduler drives the periodic refresh for one UI context. It owns its
// timer and cancellation, performs one immediate pull on start, and repeats
// until stopped. Pulls may overlap; each carries a generation number and a
// response older than the newest applied one is discarded, so a slow stale
// response can never overwrite fresher state.
type Scheduler struct {
	branchID uint
	interval time.Duration
	pull     PullFunc
	sink     Sink
	cache    *redis.Client

	mu          sync.Mutex
	nextGen     uint64
	lastApplied uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for one branch-scoped UI context.
// The redis client is optional; nil disables snapshot mirroring.
func New(branchID uint, pull PullFunc, sink Sink, cache *redis.Client) *Scheduler {
	return &Scheduler{
		branchID: branchID,
		interval: PollInterval,
		pull:     pull,
		sink:     sink,
		cache:    cache,
	}
}

// SetInterval overrides the poll cadence. Only honored before Start.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.interval = d
}

// Start performs the initial pull and begins the timer loop. It returns
// immediately; pulls run on their own goroutines.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.launchPull(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.launchPull(ctx)
			}
		}
	}()

	logger.Logger.Info().
		Uint("branch_id", s.branchID).
		Dur("interval", s.interval).
		Msg("Refresh scheduler started")
}

// Stop cancels the timer. In-flight pulls are not retracted; their late
// responses are dropped by the generation gate.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger.Logger.Info().
		Uint("branch_id", s.branchID).
		Msg("Refresh scheduler stopped")
}

func (s *Scheduler) launchPull(ctx context.Context) {
	s.mu.Lock()
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPull(ctx, gen)
	}()
}

func (s *Scheduler) runPull(ctx context.Context, gen uint64) {
	pullCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	snapshot := Snapshot{Generation: gen, PulledAt: time.Now()}

	payload, unread, err := s.pull(pullCtx)
	if err != nil {
		if ctx.Err() != nil {
			// Owning context torn down; nothing to report.
			return
		}
		logger.Logger.Warn().
			Err(err).
			Uint64("generation", gen).
			Uint("branch_id", s.branchID).
			Msg("Refresh pull failed")
		snapshot.Failed = true
	} else {
		snapshot.Alerts = payload
		snapshot.UnreadCount = unread
	}

	s.apply(ctx, snapshot)
}

// apply publishes the snapshot unless a newer generation already landed.
// The gate and the publish share one critical section: a response that
// passed the gate must finish publishing before the next one is gated,
// otherwise a slow older publish could land after a fresher one.
func (s *Scheduler) apply(ctx context.Context, snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.Generation < s.lastApplied {
		logger.Logger.Debug().
			Uint64("generation", snapshot.Generation).
			Uint64("latest", s.lastApplied).
			Msg("Discarded stale refresh response")
		return
	}
	s.lastApplied = snapshot.Generation

	if ctx.Err() != nil {
		return
	}

	s.sink.Publish(snapshot)

	if s.cache != nil && !snapshot.Failed {
		s.mirror(ctx, snapshot)
	}
}

func (s *Scheduler) mirror(ctx context.Context, snapshot Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to marshal snapshot for cache")
		return
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("poll:branch:%d", s.branchID)
	if err := s.cache.Set(cacheCtx, key, data, 2*s.interval).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to mirror snapshot to cache")
	}
}

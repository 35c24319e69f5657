package roster

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexmgmt/fansync/internal/logging"
	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/selection"
)

// Syncer errors.
var (
	ErrSyncerAlreadyRunning = errors.New("roster syncer already running")
	ErrSyncerNotRunning     = errors.New("roster syncer not running")
)

const defaultPollInterval = 30 * time.Second

// SyncerConfig configures a roster Syncer. A Syncer is bound to one
// creator for its whole lifetime; a new creator selection means a new
// Syncer. Fan selections under the same creator do not concern it.
type SyncerConfig struct {
	Gateway    platform.Gateway
	Selection  *selection.State
	CreatorID  string
	Classifier Classifier

	// Interval is the roster poll cadence. Default 30s.
	Interval time.Duration

	// OnUpdate, if set, is called after every applied roster change or
	// error-flag change. Called outside the syncer's lock.
	OnUpdate func()
}

// Syncer keeps the selected creator's roster fresh via periodic polls.
// On poll failure the last successfully fetched roster is retained and
// a sticky error is surfaced alongside it.
type Syncer struct {
	cfg    SyncerConfig
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	kick    chan struct{}

	entries []Entry
	pollErr error
	fetched bool
}

// NewSyncer creates a roster syncer for one creator.
func NewSyncer(cfg SyncerConfig) *Syncer {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	return &Syncer{
		cfg:    cfg,
		logger: logging.WithCreator(cfg.CreatorID).With().Str("component", "roster-sync").Logger(),
		kick:   make(chan struct{}, 1),
	}
}

// Start begins the polling loop. The first fetch happens immediately.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSyncerAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Debug().Dur("interval", s.cfg.Interval).Msg("roster syncer starting")

	s.wg.Add(1)
	go s.runLoop()

	return nil
}

// Stop halts the polling loop, cancelling any in-flight fetch. No
// state is mutated after Stop returns.
func (s *Syncer) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSyncerNotRunning
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug().Msg("roster syncer stopped")
	return nil
}

// IsRunning returns true if the syncer is running.
func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RefreshNow requests an immediate fetch without waiting for the timer.
func (s *Syncer) RefreshNow() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Roster returns the current entries plus the sticky poll error. The
// returned slice is a copy.
func (s *Syncer) Roster() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...), s.pollErr
}

// HasFetched reports whether at least one poll has succeeded.
func (s *Syncer) HasFetched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched
}

func (s *Syncer) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.poll()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.kick:
			s.poll()
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll performs one fetch-classify-sort cycle.
func (s *Syncer) poll() {
	threads, err := s.cfg.Gateway.ListThreads(s.ctx, s.cfg.CreatorID)

	// An abandoned call reports nothing.
	if s.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}

	// The creator may have changed while the call was in flight. Fan
	// switches bump the selection generation but keep the creator, and
	// must not stall the roster.
	if s.cfg.Selection != nil && !s.cfg.Selection.StillCreator(s.cfg.CreatorID) {
		s.logger.Debug().Msg("discarding stale roster result")
		return
	}

	if err != nil {
		s.logger.Warn().Err(err).Msg("roster poll failed, keeping last-good roster")
		s.mu.Lock()
		s.pollErr = err
		s.mu.Unlock()
		s.notify()
		return
	}

	entries := Build(threads, s.cfg.Classifier)

	s.mu.Lock()
	s.entries = entries
	s.pollErr = nil
	s.fetched = true
	s.mu.Unlock()

	s.logger.Debug().Int("threads", len(entries)).Msg("roster refreshed")
	s.notify()
}

func (s *Syncer) notify() {
	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate()
	}
}

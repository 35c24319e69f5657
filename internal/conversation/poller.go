package conversation

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

// Poller errors.
var (
	ErrPollerAlreadyRunning = errors.New("conversation poller already running")
	ErrPollerNotRunning     = errors.New("conversation poller not running")
)

const defaultPollInterval = 5 * time.Second

// PollerConfig configures a conversation Poller. Like the roster
// syncer, a poller is bound to one conversation and one selection
// generation; switching fans creates a new poller with a new cache.
type PollerConfig struct {
	Gateway   platform.Gateway
	Selection *selection.State
	Key       Key
	Gen       uint64

	// Interval is the latest-page poll cadence. Default 5s.
	Interval time.Duration

	// OnUpdate, if set, is called after every applied merge or
	// error-flag change. Called outside the poller's lock.
	OnUpdate func()
}

// Poller keeps one conversation's cache fresh by polling the latest
// page, and serves on-demand backward pagination. Poll failures are
// absorbed into a sticky error alongside last-good data.
type Poller struct {
	cfg    PollerConfig
	cache  *Cache
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	kick    chan struct{}

	pollErr error
}

// NewPoller creates a poller bound to a fresh cache for the given
// conversation.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	return &Poller{
		cfg:   cfg,
		cache: NewCache(cfg.Key),
		logger: logging.WithConversation(cfg.Key.CreatorID, cfg.Key.FanID).With().
			Str("component", "conversation-poll").
			Logger(),
		kick: make(chan struct{}, 1),
	}
}

// Cache exposes the poller's conversation cache.
func (p *Poller) Cache() *Cache {
	return p.cache
}

// Start begins polling. The first fetch happens immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerAlreadyRunning
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.logger.Debug().Dur("interval", p.cfg.Interval).Msg("conversation poller starting")

	p.wg.Add(1)
	go p.runLoop()

	return nil
}

// Stop halts polling and cancels any in-flight fetch.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPollerNotRunning
	}
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug().Msg("conversation poller stopped")
	return nil
}

// IsRunning returns true if the poller is running.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// RefreshNow requests an immediate latest-page fetch.
func (p *Poller) RefreshNow() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Messages returns the rendered list plus the sticky poll error.
func (p *Poller) Messages() ([]platform.Message, error) {
	p.mu.Lock()
	err := p.pollErr
	p.mu.Unlock()
	return p.cache.Render(), err
}

// LoadOlder fetches the next older page on demand. It returns false
// when history is exhausted. The fetch runs in the caller's goroutine
// under the poller's lifetime context.
func (p *Poller) LoadOlder() (bool, error) {
	token, ok := p.cache.NextOlderToken()
	if !ok {
		return false, nil
	}

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return false, ErrPollerNotRunning
	}
	ctx := p.ctx
	p.mu.Unlock()

	page, err := p.cfg.Gateway.ListMessages(ctx, p.cfg.Key.CreatorID, p.cfg.Key.FanID, token)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false, nil
	}
	if !p.stillCurrent() {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	p.cache.ApplyOlder(page)
	p.notify()
	return true, nil
}

func (p *Poller) runLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.kick:
			p.poll()
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches the latest page and merges it, guarded by the
// staleness check.
func (p *Poller) poll() {
	page, err := p.cfg.Gateway.ListMessages(p.ctx, p.cfg.Key.CreatorID, p.cfg.Key.FanID, "")

	if p.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	if !p.stillCurrent() {
		p.logger.Debug().Msg("discarding stale conversation result")
		return
	}

	if err != nil {
		p.logger.Warn().Err(err).Msg("conversation poll failed, keeping last-good messages")
		p.mu.Lock()
		p.pollErr = err
		p.mu.Unlock()
		p.notify()
		return
	}

	p.cache.ApplyLatest(page)

	p.mu.Lock()
	p.pollErr = nil
	p.mu.Unlock()

	p.logger.Debug().Int("messages", len(page.Messages)).Msg("conversation refreshed")
	p.notify()
}

func (p *Poller) stillCurrent() bool {
	return p.cfg.Selection == nil || p.cfg.Selection.Still(p.cfg.Gen)
}

func (p *Poller) notify() {
	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate()
	}
}

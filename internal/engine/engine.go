// Package engine wires selection, roster sync, conversation caching,
// and optimistic sends behind the operator-facing API.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexmgmt/fansync/internal/conversation"
	"github.com/apexmgmt/fansync/internal/events"
	"github.com/apexmgmt/fansync/internal/logging"
	"github.com/apexmgmt/fansync/internal/outbox"
	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/roster"
	"github.com/apexmgmt/fansync/internal/selection"
)

// Engine errors.
var (
	ErrNotStarted     = errors.New("engine not started")
	ErrNoConversation = errors.New("no conversation selected")
)

// Config configures an Engine.
type Config struct {
	Gateway platform.Gateway

	// WhaleThreshold is the LTV (minor units) at which a fan becomes a
	// whale.
	WhaleThreshold int64

	// RosterInterval is the roster poll cadence.
	RosterInterval time.Duration

	// ConversationInterval is the conversation poll cadence.
	ConversationInterval time.Duration

	// Publisher receives change events. A private publisher is created
	// when nil.
	Publisher *events.Publisher
}

// Engine is the synchronization core. It owns at most one roster
// syncer (for the selected creator) and one conversation poller (for
// the selected fan); switching selection tears the previous one down
// deterministically, cancelling its in-flight work.
type Engine struct {
	cfg    Config
	sel    *selection.State
	pub    *events.Publisher
	coord  *outbox.Coordinator
	logger zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	rosterSync *roster.Syncer
	convPoller *conversation.Poller
	convGen    uint64
}

// New creates an engine. Start must be called before any selection.
func New(cfg Config) *Engine {
	pub := cfg.Publisher
	if pub == nil {
		pub = events.NewPublisher()
	}

	e := &Engine{
		cfg:    cfg,
		sel:    selection.NewState(),
		pub:    pub,
		logger: logging.Component("engine"),
	}
	e.coord = outbox.NewCoordinator(outbox.Config{
		Gateway:   cfg.Gateway,
		Selection: e.sel,
		OnUpdate:  e.publishSendState,
	})
	return e
}

// Events exposes the engine's publisher for subscribers.
func (e *Engine) Events() *events.Publisher {
	return e.pub
}

// Start binds the engine to a lifetime context.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.started = true
	return nil
}

// Close tears down all pollers and detaches from in-flight work.
func (e *Engine) Close() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.cancel()
	rosterSync := e.rosterSync
	convPoller := e.convPoller
	e.rosterSync = nil
	e.convPoller = nil
	e.mu.Unlock()

	e.sel.Clear()
	if convPoller != nil && convPoller.IsRunning() {
		_ = convPoller.Stop()
	}
	if rosterSync != nil && rosterSync.IsRunning() {
		_ = rosterSync.Stop()
	}
	return nil
}

// Selection returns the current selection snapshot.
func (e *Engine) Selection() selection.Snapshot {
	return e.sel.Snapshot()
}

// SelectCreator activates a creator and starts roster polling for it.
// Any previous roster syncer and conversation poller are stopped
// first. Selecting the active creator is a no-op.
func (e *Engine) SelectCreator(creatorID string) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	prev := e.sel.Snapshot()
	if prev.CreatorID == creatorID {
		e.mu.Unlock()
		return nil
	}

	e.sel.SelectCreator(creatorID)
	oldRoster := e.rosterSync
	oldConv := e.convPoller
	e.convPoller = nil

	var sync *roster.Syncer
	if creatorID != "" {
		sync = roster.NewSyncer(roster.SyncerConfig{
			Gateway:    e.cfg.Gateway,
			Selection:  e.sel,
			CreatorID:  creatorID,
			Classifier: roster.Classifier{WhaleThreshold: e.cfg.WhaleThreshold},
			Interval:   e.cfg.RosterInterval,
			OnUpdate: func() {
				e.pub.Publish(events.Event{Type: events.TypeRosterUpdated, CreatorID: creatorID})
			},
		})
	}
	e.rosterSync = sync
	ctx := e.ctx
	e.mu.Unlock()

	if oldConv != nil && oldConv.IsRunning() {
		_ = oldConv.Stop()
	}
	if oldRoster != nil && oldRoster.IsRunning() {
		_ = oldRoster.Stop()
	}
	if sync != nil {
		if err := sync.Start(ctx); err != nil {
			return err
		}
	}

	e.logger.Info().Str("creator_id", creatorID).Msg("creator selected")
	e.pub.Publish(events.Event{Type: events.TypeSelectionChanged, CreatorID: creatorID})
	return nil
}

// SelectFan activates a fan thread under the current creator and
// starts conversation polling. The previous conversation's poller is
// stopped and its cache dropped; late results for it are discarded by
// the staleness checks. Selecting the active fan is a no-op.
func (e *Engine) SelectFan(fanID string) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	prev := e.sel.Snapshot()
	if prev.FanID == fanID {
		e.mu.Unlock()
		return nil
	}

	snap, err := e.sel.SelectFan(fanID)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	old := e.convPoller
	var poller *conversation.Poller
	if fanID != "" {
		key := conversation.Key{CreatorID: snap.CreatorID, FanID: fanID}
		poller = conversation.NewPoller(conversation.PollerConfig{
			Gateway:   e.cfg.Gateway,
			Selection: e.sel,
			Key:       key,
			Gen:       snap.Gen,
			Interval:  e.cfg.ConversationInterval,
			OnUpdate: func() {
				e.pub.Publish(events.Event{
					Type:      events.TypeConversationUpdated,
					CreatorID: key.CreatorID,
					FanID:     key.FanID,
				})
			},
		})
	}
	e.convPoller = poller
	e.convGen = snap.Gen
	ctx := e.ctx
	e.mu.Unlock()

	if old != nil && old.IsRunning() {
		_ = old.Stop()
	}
	if poller != nil {
		if err := poller.Start(ctx); err != nil {
			return err
		}
	}

	e.logger.Info().Str("fan_id", fanID).Msg("fan selected")
	e.pub.Publish(events.Event{
		Type:      events.TypeSelectionChanged,
		CreatorID: snap.CreatorID,
		FanID:     fanID,
	})
	return nil
}

// ClearFan deselects the fan and stops its poller.
func (e *Engine) ClearFan() {
	e.mu.Lock()
	e.sel.ClearFan()
	old := e.convPoller
	e.convPoller = nil
	e.mu.Unlock()

	if old != nil && old.IsRunning() {
		_ = old.Stop()
	}
}

// Roster returns the current roster entries plus the sticky poll
// error flag.
func (e *Engine) Roster() ([]roster.Entry, error) {
	e.mu.Lock()
	sync := e.rosterSync
	e.mu.Unlock()
	if sync == nil {
		return nil, nil
	}
	return sync.Roster()
}

// Messages returns the active conversation's merged list plus the
// sticky poll error flag.
func (e *Engine) Messages() ([]platform.Message, error) {
	e.mu.Lock()
	poller := e.convPoller
	e.mu.Unlock()
	if poller == nil {
		return nil, nil
	}
	return poller.Messages()
}

// Send dispatches an optimistic message to the active conversation and
// returns its tempID.
func (e *Engine) Send(in outbox.Input) (string, error) {
	e.mu.Lock()
	poller := e.convPoller
	gen := e.convGen
	ctx := e.ctx
	started := e.started
	e.mu.Unlock()

	if !started {
		return "", ErrNotStarted
	}
	if poller == nil {
		return "", ErrNoConversation
	}
	return e.coord.Send(ctx, poller.Cache(), gen, in)
}

// RetryFailed re-dispatches a failed send with its identical payload.
func (e *Engine) RetryFailed(tempID string) error {
	e.mu.Lock()
	poller := e.convPoller
	gen := e.convGen
	ctx := e.ctx
	started := e.started
	e.mu.Unlock()

	if !started {
		return ErrNotStarted
	}
	if poller == nil {
		return ErrNoConversation
	}
	return e.coord.Retry(ctx, poller.Cache(), gen, tempID)
}

// DiscardFailed drops a failed send from the active conversation.
func (e *Engine) DiscardFailed(tempID string) bool {
	e.mu.Lock()
	poller := e.convPoller
	e.mu.Unlock()
	if poller == nil {
		return false
	}
	if !poller.Cache().Discard(tempID) {
		return false
	}
	e.publishSendState()
	return true
}

// RefreshRoster forces an immediate roster fetch.
func (e *Engine) RefreshRoster() {
	e.mu.Lock()
	sync := e.rosterSync
	e.mu.Unlock()
	if sync != nil {
		sync.RefreshNow()
	}
}

// RefreshMessages forces an immediate conversation fetch.
func (e *Engine) RefreshMessages() {
	e.mu.Lock()
	poller := e.convPoller
	e.mu.Unlock()
	if poller != nil {
		poller.RefreshNow()
	}
}

// LoadOlderMessages fetches the next older history page on demand. It
// reports false when history is exhausted or no conversation is
// active.
func (e *Engine) LoadOlderMessages() (bool, error) {
	e.mu.Lock()
	poller := e.convPoller
	e.mu.Unlock()
	if poller == nil {
		return false, ErrNoConversation
	}
	return poller.LoadOlder()
}

func (e *Engine) publishSendState() {
	snap := e.sel.Snapshot()
	e.pub.Publish(events.Event{
		Type:      events.TypeSendStateChanged,
		CreatorID: snap.CreatorID,
		FanID:     snap.FanID,
	})
}

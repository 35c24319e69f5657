package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apexmgmt/fansync/internal/conversation"
	"github.com/apexmgmt/fansync/internal/logging"
	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/selection"
)

// ErrNotRetryable is returned when a retry names a tempID that is not
// in the failed state.
var ErrNotRetryable = errors.New("message is not in a retryable state")

// Config configures a Coordinator.
type Config struct {
	Gateway   platform.Gateway
	Selection *selection.State

	// OnUpdate, if set, is called after every send state transition.
	OnUpdate func()
}

// Coordinator drives each send attempt through
// created → dispatching → confirmed|failed, with failed → dispatching
// on explicit operator retry only. Re-sending paid or sensitive
// content automatically is an unacceptable silent side effect, so
// there is no automatic retry.
type Coordinator struct {
	cfg    Config
	logger zerolog.Logger
}

// NewCoordinator creates a send coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		logger: logging.Component("outbox"),
	}
}

// Send normalizes the payload, inserts a pending message into the
// cache so the operator sees it before any network round trip, and
// dispatches in the background. It returns the minted tempID.
// Normalization failures surface synchronously; no pending entry is
// created for a payload that could never be sent.
func (c *Coordinator) Send(ctx context.Context, cache *conversation.Cache, gen uint64, in Input) (string, error) {
	payload, err := Normalize(in)
	if err != nil {
		return "", err
	}

	tempID := uuid.NewString()
	msg := platform.Message{
		TempID:      tempID,
		Timestamp:   time.Now().UTC(),
		Text:        payload.Text,
		MediaRefs:   append([]string(nil), payload.MediaRefs...),
		Price:       payload.Price,
		FromCreator: true,
		Status:      platform.StatusPending,
	}
	if err := cache.AddPending(msg); err != nil {
		return "", fmt.Errorf("insert pending message: %w", err)
	}

	c.logger.Debug().
		Str("temp_id", tempID).
		Str("body", logging.BodyPreview(payload.Text)).
		Msg("optimistic send created")

	c.notify()
	go c.dispatch(ctx, cache, gen, tempID, payload)
	return tempID, nil
}

// Retry re-dispatches a failed send with its identical original
// payload under the same tempID.
func (c *Coordinator) Retry(ctx context.Context, cache *conversation.Cache, gen uint64, tempID string) error {
	payload, ok := cache.MarkDispatching(tempID)
	if !ok {
		return ErrNotRetryable
	}

	c.logger.Debug().Str("temp_id", tempID).Msg("retrying failed send")
	c.notify()
	go c.dispatch(ctx, cache, gen, tempID, payload)
	return nil
}

// dispatch performs the gateway call and applies the outcome, unless
// the conversation has been torn down in the meantime. A cancelled or
// stale dispatch detaches without mutating the cache: the cache may
// already belong to a different fan's session, and abandonment must
// not read as failure.
func (c *Coordinator) dispatch(ctx context.Context, cache *conversation.Cache, gen uint64, tempID string, payload platform.SendPayload) {
	key := cache.Key()
	receipt, err := c.cfg.Gateway.SendMessage(ctx, key.CreatorID, key.FanID, payload.Clone())

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	if c.cfg.Selection != nil && !c.cfg.Selection.Still(gen) {
		c.logger.Debug().Str("temp_id", tempID).Msg("detaching from send result after teardown")
		return
	}

	if err != nil {
		kind, ok := platform.KindOf(err)
		if !ok {
			kind = platform.KindTransport
		}
		c.logger.Warn().Err(err).
			Str("temp_id", tempID).
			Str("kind", string(kind)).
			Msg("send failed")
		cache.MarkFailed(tempID, kind)
		c.notify()
		return
	}

	c.logger.Debug().
		Str("temp_id", tempID).
		Str("server_id", receipt.ServerID).
		Msg("send confirmed")
	cache.Resolve(tempID, receipt)
	c.notify()
}

func (c *Coordinator) notify() {
	if c.cfg.OnUpdate != nil {
		c.cfg.OnUpdate()
	}
}

// Package platformtest provides a scriptable in-memory Gateway for
// tests and for the console's demo mode.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apexmgmt/fansync/internal/platform"
)

// Op identifies a gateway operation for scripting.
type Op string

const (
	OpListThreads  Op = "list_threads"
	OpListMessages Op = "list_messages"
	OpSendMessage  Op = "send_message"
)

// SendCall records one SendMessage invocation.
type SendCall struct {
	CreatorID string
	FanID     string
	Payload   platform.SendPayload
}

// Fake is an in-memory Gateway. Zero value is usable; all methods are
// safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	threads map[string][]platform.Thread
	// pages[convKey] index 0 is the latest page, higher indexes are older.
	pages map[string][]platform.MessagePage

	errs   map[Op][]error
	delays map[Op]time.Duration

	sendScript func(SendCall) (platform.SendReceipt, error)
	sends      []SendCall

	// ReflectSends appends acknowledged sends to the latest page so
	// subsequent polls return the authoritative copy. Default true.
	reflectSendsOff bool

	serverSeq int
	now       func() time.Time
}

// NewFake creates an empty fake gateway.
func NewFake() *Fake {
	return &Fake{
		threads: make(map[string][]platform.Thread),
		pages:   make(map[string][]platform.MessagePage),
		errs:    make(map[Op][]error),
		delays:  make(map[Op]time.Duration),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the fake's clock.
func (f *Fake) SetNow(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if now != nil {
		f.now = now
	}
}

// SetThreads replaces the thread list for a creator.
func (f *Fake) SetThreads(creatorID string, threads []platform.Thread) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[creatorID] = append([]platform.Thread(nil), threads...)
}

// SetHistory replaces a conversation's pages. Index 0 is the latest
// page; page tokens are derived from indexes.
func (f *Fake) SetHistory(creatorID, fanID string, pages ...platform.MessagePage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := convKey(creatorID, fanID)
	cloned := make([]platform.MessagePage, len(pages))
	for i, p := range pages {
		cloned[i] = platform.MessagePage{Messages: platform.CloneMessages(p.Messages)}
	}
	f.pages[key] = cloned
}

// FailNext queues a one-shot error for an operation.
func (f *Fake) FailNext(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = append(f.errs[op], err)
}

// SetDelay makes an operation block before responding. The delay
// respects context cancellation.
func (f *Fake) SetDelay(op Op, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[op] = d
}

// ScriptSend overrides send results entirely.
func (f *Fake) ScriptSend(fn func(SendCall) (platform.SendReceipt, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendScript = fn
}

// DisableSendReflection stops acknowledged sends from appearing in
// subsequent polls.
func (f *Fake) DisableSendReflection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reflectSendsOff = true
}

// SendCalls returns all recorded SendMessage invocations.
func (f *Fake) SendCalls() []SendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SendCall(nil), f.sends...)
}

// ListThreads implements platform.Gateway.
func (f *Fake) ListThreads(ctx context.Context, creatorID string) ([]platform.Thread, error) {
	if err := f.wait(ctx, OpListThreads); err != nil {
		return nil, err
	}
	if err := f.popErr(OpListThreads); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Thread(nil), f.threads[creatorID]...), nil
}

// ListMessages implements platform.Gateway.
func (f *Fake) ListMessages(ctx context.Context, creatorID, fanID, pageToken string) (platform.MessagePage, error) {
	if err := f.wait(ctx, OpListMessages); err != nil {
		return platform.MessagePage{}, err
	}
	if err := f.popErr(OpListMessages); err != nil {
		return platform.MessagePage{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pages := f.pages[convKey(creatorID, fanID)]
	idx := 0
	if pageToken != "" {
		if _, err := fmt.Sscanf(pageToken, "page:%d", &idx); err != nil {
			return platform.MessagePage{}, platform.NewError(platform.KindValidation, "bad page token %q", pageToken)
		}
	}
	if idx < 0 || idx >= len(pages) {
		return platform.MessagePage{}, nil
	}

	out := platform.MessagePage{Messages: platform.CloneMessages(pages[idx].Messages)}
	if idx+1 < len(pages) {
		out.NextPageToken = fmt.Sprintf("page:%d", idx+1)
	}
	return out, nil
}

// SendMessage implements platform.Gateway.
func (f *Fake) SendMessage(ctx context.Context, creatorID, fanID string, payload platform.SendPayload) (platform.SendReceipt, error) {
	if err := f.wait(ctx, OpSendMessage); err != nil {
		return platform.SendReceipt{}, err
	}

	call := SendCall{CreatorID: creatorID, FanID: fanID, Payload: payload.Clone()}

	f.mu.Lock()
	f.sends = append(f.sends, call)
	script := f.sendScript
	f.mu.Unlock()

	if err := f.popErr(OpSendMessage); err != nil {
		return platform.SendReceipt{}, err
	}

	var receipt platform.SendReceipt
	if script != nil {
		var err error
		receipt, err = script(call)
		if err != nil {
			return platform.SendReceipt{}, err
		}
	} else {
		f.mu.Lock()
		f.serverSeq++
		receipt = platform.SendReceipt{
			ServerID:  fmt.Sprintf("srv-%d", f.serverSeq),
			Timestamp: f.now(),
		}
		f.mu.Unlock()
	}

	f.reflect(creatorID, fanID, payload, receipt)
	return receipt, nil
}

// reflect appends the acknowledged message to the latest page.
func (f *Fake) reflect(creatorID, fanID string, payload platform.SendPayload, receipt platform.SendReceipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reflectSendsOff {
		return
	}
	key := convKey(creatorID, fanID)
	pages := f.pages[key]
	if len(pages) == 0 {
		pages = []platform.MessagePage{{}}
	}
	pages[0].Messages = append(pages[0].Messages, platform.Message{
		ServerID:    receipt.ServerID,
		Timestamp:   receipt.Timestamp,
		Text:        payload.Text,
		MediaRefs:   append([]string(nil), payload.MediaRefs...),
		Price:       payload.Price,
		FromCreator: true,
		Status:      platform.StatusConfirmed,
	})
	f.pages[key] = pages
}

func (f *Fake) wait(ctx context.Context, op Op) error {
	f.mu.Lock()
	delay := f.delays[op]
	f.mu.Unlock()
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (f *Fake) popErr(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.errs[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.errs[op] = queue[1:]
	return err
}

func convKey(creatorID, fanID string) string {
	return creatorID + "/" + fanID
}

// Package conversation maintains the merged, deduplicated, ordered
// message list for exactly one (creator, fan) pair.
package conversation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/apexmgmt/fansync/internal/platform"
)

// Key identifies one conversation.
type Key struct {
	CreatorID string
	FanID     string
}

func (k Key) String() string {
	return k.CreatorID + "/" + k.FanID
}

// pendingEntry is an optimistic send held in the side list until it
// reconciles against an authoritative copy.
type pendingEntry struct {
	msg platform.Message
	seq int
	// resolved holds the serverID once the send is acknowledged.
	resolved string
}

// Cache merges authoritative polled messages with locally pending
// sends. Authoritative messages are keyed by ServerID; pending sends
// live in a side list keyed by TempID. The rendered list is
// authoritative messages in timestamp order followed by unresolved
// pending and failed sends in send order.
type Cache struct {
	mu sync.Mutex

	key Key

	authoritative map[string]platform.Message
	pending       []pendingEntry
	seq           int

	// backToken fetches the next-older page. It is owned by backward
	// pagination once paging has started; fresh latest polls only seed
	// it before the first LoadOlder.
	backToken   string
	paged       bool
	exhausted   bool
	firstFetch  bool
}

// NewCache creates an empty cache for one conversation.
func NewCache(key Key) *Cache {
	return &Cache{
		key:           key,
		authoritative: make(map[string]platform.Message),
	}
}

// Key returns the conversation this cache belongs to.
func (c *Cache) Key() Key {
	return c.key
}

// ApplyLatest merges a fresh poll of the conversation's latest state.
// Messages join at the head side of the ordering; already-displayed
// content is never reordered because ordering is derived from
// timestamps, not arrival.
func (c *Cache) ApplyLatest(page platform.MessagePage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range page.Messages {
		if m.ServerID == "" {
			continue
		}
		c.authoritative[m.ServerID] = platform.CloneMessage(m)
	}

	// Only the first latest page may seed backward pagination; later
	// polls of the head must not clobber the older-page cursor.
	if !c.firstFetch {
		c.firstFetch = true
		if !c.paged {
			c.backToken = page.NextPageToken
			c.exhausted = page.NextPageToken == ""
		}
	}

	c.sweepLocked()
}

// ApplyOlder merges an on-demand older page fetched via LoadOlder.
func (c *Cache) ApplyOlder(page platform.MessagePage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range page.Messages {
		if m.ServerID == "" {
			continue
		}
		c.authoritative[m.ServerID] = platform.CloneMessage(m)
	}

	c.paged = true
	c.backToken = page.NextPageToken
	c.exhausted = page.NextPageToken == ""
	c.sweepLocked()
}

// NextOlderToken returns the token for the next older page, and
// whether older history remains.
func (c *Cache) NextOlderToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exhausted || c.backToken == "" {
		return "", false
	}
	return c.backToken, true
}

// AddPending inserts an optimistic send. The message becomes visible
// immediately, before any network round trip. TempIDs must be unique
// per conversation; a collision is a defect.
func (c *Cache) AddPending(msg platform.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.TempID == "" {
		return fmt.Errorf("pending message requires a temp id")
	}
	if c.findPendingLocked(msg.TempID) != nil {
		return fmt.Errorf("temp id %s already present", msg.TempID)
	}

	msg.Status = platform.StatusPending
	c.seq++
	c.pending = append(c.pending, pendingEntry{msg: platform.CloneMessage(msg), seq: c.seq})
	return nil
}

// Resolve records the tempID→serverID reconciliation. The pending
// entry is promoted to confirmed in place; the next merge that sees
// the authoritative copy collapses the pair to a single entry.
func (c *Cache) Resolve(tempID string, receipt platform.SendReceipt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.findPendingLocked(tempID)
	if entry == nil {
		return
	}
	entry.resolved = receipt.ServerID
	entry.msg.ServerID = receipt.ServerID
	entry.msg.Status = platform.StatusConfirmed
	entry.msg.FailureKind = ""
	if !receipt.Timestamp.IsZero() {
		entry.msg.Timestamp = receipt.Timestamp
	}
	c.sweepLocked()
}

// MarkFailed flags a pending send as failed, keeping its payload
// intact for retry. Failed sends stay visible until retried or
// discarded.
func (c *Cache) MarkFailed(tempID string, kind platform.ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.findPendingLocked(tempID)
	if entry == nil {
		return
	}
	entry.msg.Status = platform.StatusFailed
	entry.msg.FailureKind = kind
}

// MarkDispatching returns a failed send to pending for a retry
// attempt, returning its original payload. The bool reports whether
// the tempID names a retryable (failed) entry.
func (c *Cache) MarkDispatching(tempID string) (platform.SendPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.findPendingLocked(tempID)
	if entry == nil || entry.msg.Status != platform.StatusFailed {
		return platform.SendPayload{}, false
	}
	entry.msg.Status = platform.StatusPending
	entry.msg.FailureKind = ""
	return platform.SendPayload{
		Text:      entry.msg.Text,
		MediaRefs: append([]string(nil), entry.msg.MediaRefs...),
		Price:     entry.msg.Price,
	}, true
}

// Discard removes a failed send. Only failed entries may be
// discarded; pending and confirmed entries are never silently dropped.
func (c *Cache) Discard(tempID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.pending {
		if c.pending[i].msg.TempID == tempID && c.pending[i].msg.Status == platform.StatusFailed {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Render returns the merged list: authoritative messages (plus
// resolved sends not yet seen by a poll) in timestamp order, then
// unresolved pending and failed sends in send order. The result is a
// deep copy.
func (c *Cache) Render() []platform.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	confirmed := make([]platform.Message, 0, len(c.authoritative)+len(c.pending))
	for _, m := range c.authoritative {
		confirmed = append(confirmed, m)
	}

	tail := make([]pendingEntry, 0, len(c.pending))
	for _, entry := range c.pending {
		if entry.resolved != "" {
			// Acknowledged but the poller has not returned the
			// authoritative copy yet; show the confirmed local copy in
			// the timestamp-ordered block.
			confirmed = append(confirmed, entry.msg)
			continue
		}
		tail = append(tail, entry)
	}

	sort.SliceStable(confirmed, func(i, j int) bool {
		return messageLess(confirmed[i], confirmed[j])
	})
	sort.SliceStable(tail, func(i, j int) bool {
		return tail[i].seq < tail[j].seq
	})

	out := make([]platform.Message, 0, len(confirmed)+len(tail))
	for _, m := range confirmed {
		out = append(out, platform.CloneMessage(m))
	}
	for _, entry := range tail {
		out = append(out, platform.CloneMessage(entry.msg))
	}
	return out
}

// PendingCount returns the number of unresolved pending and failed
// sends.
func (c *Cache) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, entry := range c.pending {
		if entry.resolved == "" {
			n++
		}
	}
	return n
}

// sweepLocked drops pending entries whose authoritative counterpart
// has arrived via polling, so one logical send never renders twice.
func (c *Cache) sweepLocked() {
	kept := c.pending[:0]
	for _, entry := range c.pending {
		if entry.resolved != "" {
			if _, ok := c.authoritative[entry.resolved]; ok {
				continue
			}
		}
		kept = append(kept, entry)
	}
	c.pending = kept
}

func (c *Cache) findPendingLocked(tempID string) *pendingEntry {
	for i := range c.pending {
		if c.pending[i].msg.TempID == tempID {
			return &c.pending[i]
		}
	}
	return nil
}

func messageLess(a, b platform.Message) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ServerID < b.ServerID
}

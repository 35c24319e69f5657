package roster

import (
	"sort"

	"github.com/apexmgmt/fansync/internal/platform"
)

// Entry is a thread annotated with its derived tier.
type Entry struct {
	platform.Thread

	Tier Tier
}

// Build classifies and sorts threads into roster order.
func Build(threads []platform.Thread, c Classifier) []Entry {
	entries := make([]Entry, 0, len(threads))
	for _, t := range threads {
		entries = append(entries, Entry{Thread: t, Tier: c.Classify(t.LTV)})
	}
	Sort(entries)
	return entries
}

// Sort orders entries by the whale-priority composite key: tier rank,
// then unread count, then last-message recency, with fan ID as the
// stable tiebreak. Highest-value conversations always come first,
// regardless of recency.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})
}

func entryLess(a, b Entry) bool {
	if a.Tier.Rank() != b.Tier.Rank() {
		return a.Tier.Rank() > b.Tier.Rank()
	}
	if a.UnreadCount != b.UnreadCount {
		return a.UnreadCount > b.UnreadCount
	}
	at, bt := a.LastMessage.Timestamp, b.LastMessage.Timestamp
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.FanID < b.FanID
}

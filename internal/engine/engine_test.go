package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apexmgmt/fansync/internal/events"
	"github.com/apexmgmt/fansync/internal/outbox"
	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/platform/platformtest"
	"github.com/apexmgmt/fansync/internal/roster"
	"github.com/apexmgmt/fansync/internal/selection"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, fake *platformtest.Fake) *Engine {
	t.Helper()
	e := New(Config{
		Gateway:              fake,
		WhaleThreshold:       5000,
		RosterInterval:       20 * time.Millisecond,
		ConversationInterval: 20 * time.Millisecond,
	})
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func thread(fanID string, ltv int64, unread int) platform.Thread {
	return platform.Thread{
		FanID:       fanID,
		Handle:      "@" + fanID,
		LTV:         ltv,
		UnreadCount: unread,
	}
}

func confirmed(id string, offset time.Duration, text string) platform.Message {
	return platform.Message{
		ServerID:  id,
		Timestamp: testBase.Add(offset),
		Text:      text,
		Status:    platform.StatusConfirmed,
	}
}

func TestSelectCreatorStartsRosterSync(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetThreads("c1", []platform.Thread{
		thread("fan-free", 0, 9),
		thread("fan-whale", 80_000, 0),
		thread("fan-spender", 1200, 3),
	})

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))

	waitFor(t, "roster fetch", func() bool {
		entries, _ := e.Roster()
		return len(entries) == 3
	})

	entries, err := e.Roster()
	require.NoError(t, err)
	require.Equal(t, "fan-whale", entries[0].FanID)
	require.Equal(t, roster.TierWhale, entries[0].Tier)
	require.Equal(t, "fan-spender", entries[1].FanID)
	require.Equal(t, "fan-free", entries[2].FanID)
}

func TestRosterKeepsUpdatingWhileFanSelected(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetThreads("c1", []platform.Thread{thread("f1", 0, 0)})

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	waitFor(t, "initial roster", func() bool {
		entries, _ := e.Roster()
		return len(entries) == 1
	})

	require.NoError(t, e.SelectFan("f1"))

	// A new fan starts a thread while the conversation is open. The
	// roster must keep refreshing for the still-selected creator.
	fake.SetThreads("c1", []platform.Thread{
		thread("f1", 0, 0),
		thread("f2", 60_000, 1),
	})
	e.RefreshRoster()

	waitFor(t, "roster growth after fan selection", func() bool {
		entries, err := e.Roster()
		if err != nil || len(entries) != 2 {
			e.RefreshRoster()
			return false
		}
		return entries[0].FanID == "f2"
	})
}

func TestSelectFanRequiresCreator(t *testing.T) {
	e := newTestEngine(t, platformtest.NewFake())
	require.ErrorIs(t, e.SelectFan("f1"), selection.ErrNoCreator)
}

func TestSendRequiresConversation(t *testing.T) {
	e := newTestEngine(t, platformtest.NewFake())
	require.NoError(t, e.SelectCreator("c1"))

	_, err := e.Send(outbox.Text("hello"))
	require.ErrorIs(t, err, ErrNoConversation)
	require.ErrorIs(t, e.RetryFailed("any"), ErrNoConversation)
}

func TestOptimisticSendEndToEnd(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetHistory("c1", "f1", platform.MessagePage{
		Messages: []platform.Message{confirmed("srv-old", 0, "earlier")},
	})
	fake.SetDelay(platformtest.OpSendMessage, 100*time.Millisecond)

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	require.NoError(t, e.SelectFan("f1"))

	waitFor(t, "initial conversation fetch", func() bool {
		msgs, _ := e.Messages()
		return len(msgs) == 1
	})

	tempID, err := e.Send(outbox.Text("on the way"))
	require.NoError(t, err)

	// Pending entry is visible immediately, before the gateway replies.
	msgs, err := e.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, tempID, msgs[1].TempID)
	require.Equal(t, platform.StatusPending, msgs[1].Status)

	waitFor(t, "send confirmation", func() bool {
		msgs, _ := e.Messages()
		return len(msgs) == 2 && msgs[1].Status == platform.StatusConfirmed
	})

	// Later polls return the authoritative copy; the message must
	// collapse to exactly one entry, never duplicate or vanish.
	e.RefreshMessages()
	time.Sleep(100 * time.Millisecond)
	msgs, err = e.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "on the way", msgs[1].Text)
	require.NotEmpty(t, msgs[1].ServerID)
}

func TestFailedSendRetriesWithSamePayload(t *testing.T) {
	fake := platformtest.NewFake()
	fake.FailNext(platformtest.OpSendMessage, platform.NewError(platform.KindTransport, "socket closed"))

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	require.NoError(t, e.SelectFan("f1"))

	tempID, err := e.Send(outbox.Input{Text: "paid drop", MediaRefs: []string{"vault-9"}, Price: 2500})
	require.NoError(t, err)

	waitFor(t, "send failure", func() bool {
		msgs, _ := e.Messages()
		for _, m := range msgs {
			if m.TempID == tempID && m.Status == platform.StatusFailed {
				return true
			}
		}
		return false
	})

	require.NoError(t, e.RetryFailed(tempID))
	waitFor(t, "retry confirmation", func() bool {
		msgs, _ := e.Messages()
		for _, m := range msgs {
			if m.Text == "paid drop" && m.Status == platform.StatusConfirmed {
				return true
			}
		}
		return false
	})

	calls := fake.SendCalls()
	require.Len(t, calls, 2)
	require.Equal(t, calls[0].Payload, calls[1].Payload)
}

func TestDiscardFailedSend(t *testing.T) {
	fake := platformtest.NewFake()
	fake.FailNext(platformtest.OpSendMessage, platform.NewError(platform.KindRejected, "blocked by fan"))

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	require.NoError(t, e.SelectFan("f1"))

	tempID, err := e.Send(outbox.Text("unwanted"))
	require.NoError(t, err)
	waitFor(t, "send failure", func() bool {
		msgs, _ := e.Messages()
		return len(msgs) == 1 && msgs[0].Status == platform.StatusFailed
	})

	require.False(t, e.DiscardFailed("no-such-id"))
	require.True(t, e.DiscardFailed(tempID))
	msgs, _ := e.Messages()
	require.Empty(t, msgs)
}

func TestSwitchingFansIsolatesConversations(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetHistory("c1", "f1", platform.MessagePage{
		Messages: []platform.Message{confirmed("f1-m1", 0, "from ada")},
	})
	fake.SetHistory("c1", "f2", platform.MessagePage{
		Messages: []platform.Message{confirmed("f2-m1", 0, "from bo")},
	})

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	require.NoError(t, e.SelectFan("f1"))
	waitFor(t, "f1 fetch", func() bool {
		msgs, _ := e.Messages()
		return len(msgs) == 1 && msgs[0].ServerID == "f1-m1"
	})

	require.NoError(t, e.SelectFan("f2"))
	waitFor(t, "f2 fetch", func() bool {
		msgs, _ := e.Messages()
		return len(msgs) == 1 && msgs[0].ServerID == "f2-m1"
	})

	// Nothing from f1 may ever bleed into f2's view.
	time.Sleep(100 * time.Millisecond)
	msgs, err := e.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "f2-m1", msgs[0].ServerID)
}

func TestSwitchingCreatorsTearsDownConversation(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetThreads("c1", []platform.Thread{thread("f1", 0, 0)})
	fake.SetThreads("c2", []platform.Thread{thread("g1", 0, 0)})

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	require.NoError(t, e.SelectFan("f1"))
	waitFor(t, "c1 roster", func() bool {
		entries, _ := e.Roster()
		return len(entries) == 1
	})

	require.NoError(t, e.SelectCreator("c2"))
	snap := e.Selection()
	require.Equal(t, "c2", snap.CreatorID)
	require.Empty(t, snap.FanID)

	msgs, err := e.Messages()
	require.NoError(t, err)
	require.Empty(t, msgs)

	waitFor(t, "c2 roster", func() bool {
		entries, _ := e.Roster()
		return len(entries) == 1 && entries[0].FanID == "g1"
	})
}

func TestLoadOlderMessagesWalksHistory(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetHistory("c1", "f1",
		platform.MessagePage{Messages: []platform.Message{confirmed("m3", 2*time.Minute, "latest")}},
		platform.MessagePage{Messages: []platform.Message{confirmed("m2", time.Minute, "middle")}},
		platform.MessagePage{Messages: []platform.Message{confirmed("m1", 0, "oldest")}},
	)

	e := newTestEngine(t, fake)
	require.NoError(t, e.SelectCreator("c1"))
	require.NoError(t, e.SelectFan("f1"))
	waitFor(t, "latest page", func() bool {
		msgs, _ := e.Messages()
		return len(msgs) == 1
	})

	more, err := e.LoadOlderMessages()
	require.NoError(t, err)
	require.True(t, more)
	more, err = e.LoadOlderMessages()
	require.NoError(t, err)
	require.True(t, more)
	more, err = e.LoadOlderMessages()
	require.NoError(t, err)
	require.False(t, more, "history exhausted")

	msgs, err := e.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "m1", msgs[0].ServerID)
	require.Equal(t, "m3", msgs[2].ServerID)
}

func TestEngineEventsReachSubscribers(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetThreads("c1", []platform.Thread{thread("f1", 0, 0)})

	e := newTestEngine(t, fake)

	got := make(chan events.Event, 64)
	require.NoError(t, e.Events().Subscribe("test", events.Filter{}, func(ev events.Event) {
		got <- ev
	}))

	require.NoError(t, e.SelectCreator("c1"))

	seen := make(map[events.Type]bool)
	deadline := time.After(2 * time.Second)
	for !seen[events.TypeSelectionChanged] || !seen[events.TypeRosterUpdated] {
		select {
		case ev := <-got:
			seen[ev.Type] = true
		case <-deadline:
			t.Fatalf("missing events, saw %v", seen)
		}
	}
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	fake := platformtest.NewFake()
	e := New(Config{Gateway: fake})
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.SelectCreator("c1"))

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	require.ErrorIs(t, e.SelectCreator("c2"), ErrNotStarted)
	_, err := e.Send(outbox.Text("x"))
	require.ErrorIs(t, err, ErrNotStarted)
}

package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	p := NewPublisher()

	var mu sync.Mutex
	var got []Event
	err := p.Subscribe("tui", Filter{Types: []Type{TypeRosterUpdated}}, func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	require.NoError(t, err)

	p.Publish(Event{Type: TypeRosterUpdated, CreatorID: "c1"})
	p.Publish(Event{Type: TypeSendStateChanged, CreatorID: "c1"})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, TypeRosterUpdated, got[0].Type)
	require.False(t, got[0].At.IsZero())
}

func TestFilterScopesByConversation(t *testing.T) {
	f := Filter{CreatorID: "c1", FanID: "f1"}
	require.True(t, f.Matches(Event{Type: TypeConversationUpdated, CreatorID: "c1", FanID: "f1"}))
	require.False(t, f.Matches(Event{Type: TypeConversationUpdated, CreatorID: "c1", FanID: "f2"}))
	require.False(t, f.Matches(Event{Type: TypeConversationUpdated, CreatorID: "c2", FanID: "f1"}))
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f := Filter{}
	require.True(t, f.Matches(Event{Type: TypeSelectionChanged}))
	require.True(t, f.Matches(Event{Type: TypeSendStateChanged, CreatorID: "x", FanID: "y"}))
}

func TestSubscriptionLifecycle(t *testing.T) {
	p := NewPublisher()
	handler := func(Event) {}

	require.ErrorIs(t, p.Subscribe("", Filter{}, handler), ErrInvalidSubscriptionID)
	require.ErrorIs(t, p.Subscribe("a", Filter{}, nil), ErrNilHandler)

	require.NoError(t, p.Subscribe("a", Filter{}, handler))
	require.ErrorIs(t, p.Subscribe("a", Filter{}, handler), ErrSubscriptionExists)
	require.Equal(t, 1, p.SubscriberCount())

	require.NoError(t, p.Unsubscribe("a"))
	require.ErrorIs(t, p.Unsubscribe("a"), ErrSubscriptionNotFound)

	require.NoError(t, p.Subscribe("b", Filter{}, handler))
	p.Close()
	require.Zero(t, p.SubscriberCount())
}

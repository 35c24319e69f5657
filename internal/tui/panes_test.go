package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/roster"
)

func entry(fanID, handle string, tier roster.Tier, unread int) roster.Entry {
	return roster.Entry{
		Thread: platform.Thread{FanID: fanID, Handle: handle, UnreadCount: unread},
		Tier:   tier,
	}
}

func TestRosterPaneShowsBadgesAndUnread(t *testing.T) {
	entries := []roster.Entry{
		entry("f1", "@ada", roster.TierWhale, 3),
		entry("f2", "@bo", roster.TierSpender, 0),
		entry("f3", "@cy", roster.TierFree, 0),
	}

	out := renderRoster(entries, 0, 44, 10, true, DefaultTheme)
	require.Contains(t, out, "WHALE")
	require.Contains(t, out, "SPEND")
	require.Contains(t, out, "FREE")
	require.Contains(t, out, "@ada")
	require.Contains(t, out, "(3)")
	require.NotContains(t, out, "(0)")
}

func TestRosterPaneMarksCursorRow(t *testing.T) {
	entries := []roster.Entry{
		entry("f1", "@ada", roster.TierWhale, 0),
		entry("f2", "@bo", roster.TierFree, 0),
	}

	out := renderRoster(entries, 1, 44, 10, true, DefaultTheme)
	lines := strings.Split(out, "\n")
	require.Contains(t, lines[1], "> ")
	require.NotContains(t, lines[0], "> ")
}

func TestRosterPaneScrollsToKeepCursorVisible(t *testing.T) {
	var entries []roster.Entry
	for _, id := range []string{"f1", "f2", "f3", "f4", "f5"} {
		entries = append(entries, entry(id, "@"+id, roster.TierFree, 0))
	}

	out := renderRoster(entries, 4, 44, 2, true, DefaultTheme)
	require.Contains(t, out, "@f5")
	require.NotContains(t, out, "@f1")
}

func TestRosterPaneMutedMarker(t *testing.T) {
	entries := []roster.Entry{
		{Thread: platform.Thread{FanID: "f1", Handle: "@ada", Muted: true}, Tier: roster.TierFree},
	}
	out := renderRoster(entries, 0, 44, 4, true, DefaultTheme)
	require.Contains(t, out, "[muted]")
}

func TestDisplayNamePreference(t *testing.T) {
	e := roster.Entry{Thread: platform.Thread{FanID: "f1", Handle: "@ada", DisplayName: "Ada", Nickname: "big spender"}}
	require.Equal(t, "big spender", displayName(e))

	e.Nickname = ""
	require.Equal(t, "Ada", displayName(e))

	e.DisplayName = ""
	require.Equal(t, "@ada", displayName(e))

	e.Handle = " "
	require.Equal(t, "f1", displayName(e))
}

func TestThreadPaneShowsStatusMarkers(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := []platform.Message{
		{ServerID: "m1", Timestamp: ts, Text: "hi there", FromCreator: false, Status: platform.StatusConfirmed},
		{TempID: "t1", Timestamp: ts.Add(time.Minute), Text: "sending now", FromCreator: true, Status: platform.StatusPending},
		{TempID: "t2", Timestamp: ts.Add(2 * time.Minute), Text: "broke", FromCreator: true, Status: platform.StatusFailed, FailureKind: platform.KindRateLimited},
	}

	out := renderThread(msgs, 60, 20, false, nil, DefaultTheme)
	require.Contains(t, out, "sending")
	require.Contains(t, out, "failed (rate_limited)")
	require.Contains(t, out, "hi there")
	// Incoming messages carry no delivery marker.
	require.NotContains(t, strings.SplitN(out, "\n", 2)[0], "ok")
}

func TestThreadPaneShowsPricedMedia(t *testing.T) {
	msgs := []platform.Message{
		{ServerID: "m1", Text: "exclusive", FromCreator: true, Status: platform.StatusConfirmed,
			MediaRefs: []string{"vault-9"}, Price: 2550},
	}
	out := renderThread(msgs, 60, 10, false, nil, DefaultTheme)
	require.Contains(t, out, "media: vault-9")
	require.Contains(t, out, "$25.50")
}

func TestThreadPaneKeepsNewestLinesWhenOverflowing(t *testing.T) {
	var msgs []platform.Message
	for _, text := range []string{"first", "second", "third", "fourth"} {
		msgs = append(msgs, platform.Message{ServerID: text, Text: text, Status: platform.StatusConfirmed})
	}

	out := renderThread(msgs, 60, 4, false, nil, DefaultTheme)
	require.Contains(t, out, "fourth")
	require.NotContains(t, out, "first")
}

func TestThreadPaneEmptyStates(t *testing.T) {
	out := renderThread(nil, 60, 4, false, nil, DefaultTheme)
	require.Contains(t, out, "no conversation selected")

	out = renderThread(nil, 60, 4, false, platform.NewError(platform.KindTransport, "down"), DefaultTheme)
	require.Contains(t, out, "last refresh failed")
}

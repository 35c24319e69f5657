package selection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectFanRequiresCreator(t *testing.T) {
	s := NewState()
	_, err := s.SelectFan("f1")
	require.ErrorIs(t, err, ErrNoCreator)
}

func TestCreatorSwitchClearsFan(t *testing.T) {
	s := NewState()
	s.SelectCreator("c1")
	snap, err := s.SelectFan("f1")
	require.NoError(t, err)
	require.Equal(t, "c1", snap.CreatorID)
	require.Equal(t, "f1", snap.FanID)

	snap = s.SelectCreator("c2")
	require.Equal(t, "c2", snap.CreatorID)
	require.Empty(t, snap.FanID, "fan must not leak across creators")
}

func TestGenerationAdvancesOnEveryTransition(t *testing.T) {
	s := NewState()
	g0 := s.Snapshot().Gen

	g1 := s.SelectCreator("c1").Gen
	require.Greater(t, g1, g0)

	snap, err := s.SelectFan("f1")
	require.NoError(t, err)
	require.Greater(t, snap.Gen, g1)

	g3 := s.ClearFan().Gen
	require.Greater(t, g3, snap.Gen)

	require.False(t, s.Still(snap.Gen))
	require.True(t, s.Still(g3))
}

func TestStillCreatorSurvivesFanTransitions(t *testing.T) {
	s := NewState()
	s.SelectCreator("c1")
	require.True(t, s.StillCreator("c1"))

	// Fan transitions invalidate the exact generation but not
	// creator-scoped work.
	gen := s.Snapshot().Gen
	_, err := s.SelectFan("f1")
	require.NoError(t, err)
	require.False(t, s.Still(gen))
	require.True(t, s.StillCreator("c1"))

	s.ClearFan()
	require.True(t, s.StillCreator("c1"))

	s.SelectCreator("c2")
	require.False(t, s.StillCreator("c1"))
	require.True(t, s.StillCreator("c2"))
}

func TestReselectingSameTargetIsNoOp(t *testing.T) {
	s := NewState()
	g1 := s.SelectCreator("c1").Gen
	require.Equal(t, g1, s.SelectCreator("c1").Gen)

	snap, err := s.SelectFan("f1")
	require.NoError(t, err)
	again, err := s.SelectFan("f1")
	require.NoError(t, err)
	require.Equal(t, snap.Gen, again.Gen)
}

func TestClearResetsEverything(t *testing.T) {
	s := NewState()
	s.SelectCreator("c1")
	_, err := s.SelectFan("f1")
	require.NoError(t, err)

	snap := s.Clear()
	require.False(t, snap.HasCreator())
	require.False(t, snap.HasConversation())
}

package roster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	c := Classifier{WhaleThreshold: 5000}

	tests := []struct {
		name string
		ltv  int64
		want Tier
	}{
		{"zero is free", 0, TierFree},
		{"negative is free", -100, TierFree},
		{"one cent is spender", 1, TierSpender},
		{"just under threshold", 4999, TierSpender},
		{"exactly threshold is whale", 5000, TierWhale},
		{"above threshold", 10000, TierWhale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.Classify(tt.ltv))
		})
	}
}

func TestClassifyZeroSpendIsFreeForAnyThreshold(t *testing.T) {
	// A misconfigured threshold must never promote a fan who has spent
	// nothing.
	for _, threshold := range []int64{-1, 0, 5000} {
		c := Classifier{WhaleThreshold: threshold}
		require.Equal(t, TierFree, c.Classify(0), "threshold %d", threshold)
		require.Equal(t, TierFree, c.Classify(-50), "threshold %d", threshold)
	}
}

func TestClassifyHasNoHysteresis(t *testing.T) {
	c := Classifier{WhaleThreshold: 5000}
	// A fan that was a whale last cycle classifies purely from the new
	// LTV figure.
	require.Equal(t, TierWhale, c.Classify(5000))
	require.Equal(t, TierSpender, c.Classify(4999))
	require.Equal(t, TierWhale, c.Classify(5000))
}

func TestTierRankOrdering(t *testing.T) {
	require.Greater(t, TierWhale.Rank(), TierSpender.Rank())
	require.Greater(t, TierSpender.Rank(), TierFree.Rank())
}

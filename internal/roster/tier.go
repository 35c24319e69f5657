// Package roster maintains the priority-ordered thread roster for the
// selected creator.
package roster

// Tier is the derived classification of a fan by lifetime spend. It is
// recomputed from LTV on every roster refresh and never stored.
type Tier string

const (
	TierWhale   Tier = "whale"
	TierSpender Tier = "spender"
	TierFree    Tier = "free"
)

// Rank orders tiers for sorting. Higher is shown first.
func (t Tier) Rank() int {
	switch t {
	case TierWhale:
		return 2
	case TierSpender:
		return 1
	default:
		return 0
	}
}

// Classifier maps LTV to a tier. Classification is a pure, total
// function of LTV: no hysteresis, no dependence on the prior tier.
type Classifier struct {
	// WhaleThreshold is the minimum LTV (minor units) for the whale tier.
	WhaleThreshold int64
}

// Classify returns the tier for a lifetime spend figure. A fan who has
// never spent is free regardless of the configured threshold.
func (c Classifier) Classify(ltv int64) Tier {
	switch {
	case ltv <= 0:
		return TierFree
	case ltv >= c.WhaleThreshold:
		return TierWhale
	default:
		return TierSpender
	}
}

package model

type Tier string

const (
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// TierThreshold maps a minimum lifetime-points value to a tier name.
type TierThreshold struct {
	MinLifetime int64
	Tier        Tier
}

// TierTable is an ordered list of thresholds, ascending by MinLifetime, with
// the first entry starting at 0. Keeping it a table rather than hard-coded
// branches lets operators adjust thresholds through config.
type TierTable []TierThreshold

func NewTierTable(goldMin, platinumMin int64) TierTable {
	return TierTable{
		{MinLifetime: 0, Tier: TierSilver},
		{MinLifetime: goldMin, Tier: TierGold},
		{MinLifetime: platinumMin, Tier: TierPlatinum},
	}
}

// TierFor returns the tier for a lifetime-points value. Lifetime points are
// monotonically non-decreasing, so a customer's tier never goes down.
func (t TierTable) TierFor(lifetime int64) Tier {
	out := TierSilver
	for _, th := range t {
		if lifetime < th.MinLifetime {
			break
		}
		out = th.Tier
	}
	return out
}

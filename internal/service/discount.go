package service

import "github.com/urbanloom/loyalty-backend/internal/model"

// Policy holds the operator-adjustable loyalty constants.
type Policy struct {
	// PointsPerRupee is the conversion rate: this many points buy one
	// whole rupee of discount.
	PointsPerRupee int64
	// MinRedeemPoints is the smallest redeemable amount. Anything below
	// one whole rupee cannot produce a recoverable discount under floor
	// division.
	MinRedeemPoints int64
	Tiers           model.TierTable
}

func DefaultPolicy() Policy {
	return Policy{
		PointsPerRupee:  100,
		MinRedeemPoints: 100,
		Tiers:           model.NewTierTable(5000, 20000),
	}
}

// CalculateDiscount converts a points balance into a rupee discount. Total
// over all inputs: rounds down to the whole rupee so the store never grants
// fractional credit, and clamps zero or negative input to 0.
func (p Policy) CalculateDiscount(pointsBalance int64) int64 {
	if pointsBalance <= 0 || p.PointsPerRupee <= 0 {
		return 0
	}
	return pointsBalance / p.PointsPerRupee
}

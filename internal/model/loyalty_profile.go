package model

import "time"

// LoyaltyProfile is the materialized running total for one customer's ledger.
// points_balance equals the sum of all transaction amounts and never goes
// negative; lifetime_points sums only the positive amounts. The ledger stays
// canonical; this row is maintained in the same DB transaction as each
// append. Tier is intentionally not a column: it is derived from
// lifetime_points on every read.
type LoyaltyProfile struct {
	CustomerUID    string    `gorm:"column:customer_uid;primaryKey;size:128"`
	PointsBalance  int64     `gorm:"column:points_balance;not null;default:0"`
	LifetimePoints int64     `gorm:"column:lifetime_points;not null;default:0"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (LoyaltyProfile) TableName() string {
	return "loyalty_profiles"
}

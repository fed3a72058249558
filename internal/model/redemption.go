package model

import "time"

type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusCommitted RedemptionStatus = "committed"
	RedemptionStatusRejected  RedemptionStatus = "rejected"
)

// Redemption records one checkout-time attempt to convert points into a
// discount. pending flips to exactly one of committed or rejected; both are
// terminal.
type Redemption struct {
	ID             string           `gorm:"primaryKey;size:36"`
	CustomerUID    string           `gorm:"column:customer_uid;size:128;index;not null"`
	Points         int64            `gorm:"column:points;not null"`
	Status         RedemptionStatus `gorm:"column:status;size:16;not null"`
	DiscountRupees int64            `gorm:"column:discount_rupees"`
	RejectReason   string           `gorm:"column:reject_reason;size:255"`
	CreatedAt      time.Time        `gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime"`
}

func (Redemption) TableName() string {
	return "loyalty_redemptions"
}

package model

import "time"

// LoyaltyTransaction is one row of a customer's points ledger. Positive
// amounts are earns, negative amounts are redemptions. Rows are append-only:
// never updated, never deleted.
type LoyaltyTransaction struct {
	ID          string    `gorm:"primaryKey;size:36"`
	CustomerUID string    `gorm:"column:customer_uid;size:128;index:idx_ledger_customer,priority:1;not null"`
	Amount      int64     `gorm:"column:amount;not null"`
	Description string    `gorm:"column:description;size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_ledger_customer,priority:2"`
}

func (LoyaltyTransaction) TableName() string {
	return "loyalty_transactions"
}

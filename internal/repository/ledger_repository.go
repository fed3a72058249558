package repository

import (
	"context"
	"errors"

	"github.com/urbanloom/loyalty-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository persists the append-only points ledger together with the
// materialized profile totals. Every write keeps the ledger row and the
// profile increment in one DB transaction, so readers always see a balance
// equal to the sum of the ledger.
type LedgerRepository interface {
	// AppendEarn inserts a positive ledger row and increments both the
	// balance and lifetime totals of the customer's profile, creating the
	// profile on first touch.
	AppendEarn(ctx context.Context, txn *model.LoyaltyTransaction) error
	// CommitRedemption atomically debits the balance, appends the negative
	// ledger row and flips the pending redemption to committed. Returns
	// gorm.ErrRecordNotFound when the balance is insufficient (or a
	// concurrent redemption spent the points first); nothing is applied in
	// that case.
	CommitRedemption(ctx context.Context, red *model.Redemption, txn *model.LoyaltyTransaction) error
	GetProfile(ctx context.Context, uid string) (*model.LoyaltyProfile, error)
	ListByCustomer(ctx context.Context, uid string, limit int) ([]model.LoyaltyTransaction, error)
	SetDB(db *gorm.DB)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) AppendEarn(ctx context.Context, txn *model.LoyaltyTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_uid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points_balance":  gorm.Expr("points_balance + ?", txn.Amount),
				"lifetime_points": gorm.Expr("lifetime_points + ?", txn.Amount),
			}),
		}).Create(&model.LoyaltyProfile{
			CustomerUID:    txn.CustomerUID,
			PointsBalance:  txn.Amount,
			LifetimePoints: txn.Amount,
		}).Error
	})
}

func (r *ledgerRepository) CommitRedemption(ctx context.Context, red *model.Redemption, txn *model.LoyaltyTransaction) error {
	points := -txn.Amount
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The balance guard in the WHERE clause is the commit-time
		// check: losing the row here means insufficient points or a
		// concurrent redemption got there first.
		res := tx.Model(&model.LoyaltyProfile{}).
			Where("customer_uid = ? AND points_balance >= ?", txn.CustomerUID, points).
			Update("points_balance", gorm.Expr("points_balance - ?", points))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		// Guarded by status so a redemption can only settle once.
		res = tx.Model(&model.Redemption{}).
			Where("id = ? AND status = ?", red.ID, model.RedemptionStatusPending).
			Updates(map[string]interface{}{
				"status":          model.RedemptionStatusCommitted,
				"discount_rupees": red.DiscountRupees,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySettled
		}
		return nil
	})
}

func (r *ledgerRepository) GetProfile(ctx context.Context, uid string) (*model.LoyaltyProfile, error) {
	var p model.LoyaltyProfile
	err := r.db.WithContext(ctx).Where("customer_uid = ?", uid).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No transactions yet: a zero-valued profile, not an error.
			return &model.LoyaltyProfile{CustomerUID: uid}, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ledgerRepository) ListByCustomer(ctx context.Context, uid string, limit int) ([]model.LoyaltyTransaction, error) {
	var list []model.LoyaltyTransaction
	if err := r.db.WithContext(ctx).
		Where("customer_uid = ?", uid).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ledgerRepository) SetDB(db *gorm.DB) {
	r.db = db
}

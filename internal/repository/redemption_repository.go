package repository

import (
	"context"
	"errors"

	"github.com/urbanloom/loyalty-backend/internal/model"
	"gorm.io/gorm"
)

// ErrAlreadySettled means a redemption was no longer pending when a settle
// was attempted.
var ErrAlreadySettled = errors.New("redemption already settled")

type RedemptionRepository interface {
	Create(ctx context.Context, red *model.Redemption) error
	// MarkRejected flips a pending redemption to rejected. Returns
	// ErrAlreadySettled if it was settled by someone else in the meantime.
	MarkRejected(ctx context.Context, id, reason string) error
	FindByID(ctx context.Context, id string) (*model.Redemption, error)
	ListByCustomer(ctx context.Context, uid string, limit int) ([]model.Redemption, error)
	SetDB(db *gorm.DB)
}

type redemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

func (r *redemptionRepository) Create(ctx context.Context, red *model.Redemption) error {
	return r.db.WithContext(ctx).Create(red).Error
}

func (r *redemptionRepository) MarkRejected(ctx context.Context, id, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Redemption{}).
		Where("id = ? AND status = ?", id, model.RedemptionStatusPending).
		Updates(map[string]interface{}{
			"status":        model.RedemptionStatusRejected,
			"reject_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadySettled
	}
	return nil
}

func (r *redemptionRepository) FindByID(ctx context.Context, id string) (*model.Redemption, error) {
	var red model.Redemption
	if err := r.db.WithContext(ctx).First(&red, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &red, nil
}

func (r *redemptionRepository) ListByCustomer(ctx context.Context, uid string, limit int) ([]model.Redemption, error) {
	var list []model.Redemption
	if err := r.db.WithContext(ctx).
		Where("customer_uid = ?", uid).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *redemptionRepository) SetDB(db *gorm.DB) {
	r.db = db
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/urbanloom/loyalty-backend/internal/model"
	"github.com/urbanloom/loyalty-backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrValidation             = errors.New("invalid loyalty input")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrConcurrentModification = errors.New("redemption settled concurrently")
)

// Profile is the read-side view of a customer's loyalty standing. Tier and
// the redeemable discount are derived on every read, never stored.
type Profile struct {
	CustomerUID      string
	PointsBalance    int64
	LifetimePoints   int64
	Tier             model.Tier
	RedeemableRupees int64
}

// RedeemResult reports the outcome of one redemption attempt. Committed is
// false when the attempt was rejected; the caller's checkout proceeds
// without the discount.
type RedeemResult struct {
	Committed      bool
	NewBalance     int64
	DiscountRupees int64
	Redemption     *model.Redemption
}

type LoyaltyService interface {
	GetProfile(ctx context.Context, uid string) (*Profile, error)
	Earn(ctx context.Context, uid string, points int64, description string) (*model.LoyaltyTransaction, error)
	Redeem(ctx context.Context, uid string, points int64) (*RedeemResult, error)
	History(ctx context.Context, uid string, limit int) ([]model.LoyaltyTransaction, error)
	Redemptions(ctx context.Context, uid string, limit int) ([]model.Redemption, error)
	CalculateDiscount(pointsBalance int64) int64
}

type loyaltyService struct {
	ledgerRepo     repository.LedgerRepository
	redemptionRepo repository.RedemptionRepository
	policy         Policy
}

func NewLoyaltyService(ledgerRepo repository.LedgerRepository, redemptionRepo repository.RedemptionRepository, policy Policy) LoyaltyService {
	return &loyaltyService{ledgerRepo: ledgerRepo, redemptionRepo: redemptionRepo, policy: policy}
}

func (s *loyaltyService) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrValidation
	}
	p, err := s.ledgerRepo.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Profile{
		CustomerUID:      p.CustomerUID,
		PointsBalance:    p.PointsBalance,
		LifetimePoints:   p.LifetimePoints,
		Tier:             s.policy.Tiers.TierFor(p.LifetimePoints),
		RedeemableRupees: s.policy.CalculateDiscount(p.PointsBalance),
	}, nil
}

func (s *loyaltyService) Earn(ctx context.Context, uid string, points int64, description string) (*model.LoyaltyTransaction, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" || points <= 0 {
		return nil, ErrValidation
	}
	txn := &model.LoyaltyTransaction{
		ID:          uuid.NewString(),
		CustomerUID: uid,
		Amount:      points,
		Description: strings.TrimSpace(description),
	}
	if err := s.ledgerRepo.AppendEarn(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *loyaltyService) Redeem(ctx context.Context, uid string, points int64) (*RedeemResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" || points <= 0 || points < s.policy.MinRedeemPoints {
		return nil, ErrValidation
	}

	red := &model.Redemption{
		ID:          uuid.NewString(),
		CustomerUID: uid,
		Points:      points,
		Status:      model.RedemptionStatusPending,
	}
	if err := s.redemptionRepo.Create(ctx, red); err != nil {
		return nil, err
	}

	red.DiscountRupees = s.policy.CalculateDiscount(points)
	txn := &model.LoyaltyTransaction{
		ID:          uuid.NewString(),
		CustomerUID: uid,
		Amount:      -points,
		Description: "points redemption",
	}
	if err := s.ledgerRepo.CommitRedemption(ctx, red, txn); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Lost the balance check: either not enough points or a
			// concurrent redemption spent them first.
			if mErr := s.redemptionRepo.MarkRejected(ctx, red.ID, "insufficient balance"); mErr != nil && !errors.Is(mErr, repository.ErrAlreadySettled) {
				return nil, mErr
			}
			p, pErr := s.ledgerRepo.GetProfile(ctx, uid)
			if pErr != nil {
				return nil, pErr
			}
			red.Status = model.RedemptionStatusRejected
			red.RejectReason = "insufficient balance"
			red.DiscountRupees = 0
			return &RedeemResult{Committed: false, NewBalance: p.PointsBalance, Redemption: red}, ErrInsufficientPoints
		case errors.Is(err, repository.ErrAlreadySettled):
			return nil, ErrConcurrentModification
		default:
			return nil, err
		}
	}

	p, err := s.ledgerRepo.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	red.Status = model.RedemptionStatusCommitted
	return &RedeemResult{
		Committed:      true,
		NewBalance:     p.PointsBalance,
		DiscountRupees: red.DiscountRupees,
		Redemption:     red,
	}, nil
}

func (s *loyaltyService) History(ctx context.Context, uid string, limit int) ([]model.LoyaltyTransaction, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrValidation
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ledgerRepo.ListByCustomer(ctx, uid, limit)
}

func (s *loyaltyService) Redemptions(ctx context.Context, uid string, limit int) ([]model.Redemption, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrValidation
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.redemptionRepo.ListByCustomer(ctx, uid, limit)
}

func (s *loyaltyService) CalculateDiscount(pointsBalance int64) int64 {
	return s.policy.CalculateDiscount(pointsBalance)
}

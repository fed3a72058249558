package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/urbanloom/loyalty-backend/internal/model"
	"github.com/urbanloom/loyalty-backend/internal/repository"
	"gorm.io/gorm"
)

// In-memory fakes honoring the same contract as the GORM repositories: the
// balance check, debit, ledger append and status flip happen under one lock,
// and an insufficient balance surfaces as gorm.ErrRecordNotFound.

type fakeState struct {
	mu          sync.Mutex
	txns        []model.LoyaltyTransaction
	profiles    map[string]model.LoyaltyProfile
	redemptions map[string]model.Redemption
}

func newFakeState() *fakeState {
	return &fakeState{
		profiles:    make(map[string]model.LoyaltyProfile),
		redemptions: make(map[string]model.Redemption),
	}
}

type fakeLedgerRepo struct{ s *fakeState }

func (f *fakeLedgerRepo) AppendEarn(_ context.Context, txn *model.LoyaltyTransaction) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.txns = append(f.s.txns, *txn)
	p := f.s.profiles[txn.CustomerUID]
	p.CustomerUID = txn.CustomerUID
	p.PointsBalance += txn.Amount
	p.LifetimePoints += txn.Amount
	f.s.profiles[txn.CustomerUID] = p
	return nil
}

func (f *fakeLedgerRepo) CommitRedemption(_ context.Context, red *model.Redemption, txn *model.LoyaltyTransaction) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	points := -txn.Amount
	p, ok := f.s.profiles[txn.CustomerUID]
	if !ok || p.PointsBalance < points {
		return gorm.ErrRecordNotFound
	}
	r, ok := f.s.redemptions[red.ID]
	if !ok || r.Status != model.RedemptionStatusPending {
		return repository.ErrAlreadySettled
	}
	p.PointsBalance -= points
	f.s.profiles[txn.CustomerUID] = p
	f.s.txns = append(f.s.txns, *txn)
	r.Status = model.RedemptionStatusCommitted
	r.DiscountRupees = red.DiscountRupees
	f.s.redemptions[red.ID] = r
	return nil
}

func (f *fakeLedgerRepo) GetProfile(_ context.Context, uid string) (*model.LoyaltyProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.profiles[uid]; ok {
		cp := p
		return &cp, nil
	}
	return &model.LoyaltyProfile{CustomerUID: uid}, nil
}

func (f *fakeLedgerRepo) ListByCustomer(_ context.Context, uid string, limit int) ([]model.LoyaltyTransaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.LoyaltyTransaction
	for i := len(f.s.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if f.s.txns[i].CustomerUID == uid {
			out = append(out, f.s.txns[i])
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) SetDB(_ *gorm.DB) {}

type fakeRedemptionRepo struct{ s *fakeState }

func (f *fakeRedemptionRepo) Create(_ context.Context, red *model.Redemption) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.redemptions[red.ID] = *red
	return nil
}

func (f *fakeRedemptionRepo) MarkRejected(_ context.Context, id, reason string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.redemptions[id]
	if !ok || r.Status != model.RedemptionStatusPending {
		return repository.ErrAlreadySettled
	}
	r.Status = model.RedemptionStatusRejected
	r.RejectReason = reason
	f.s.redemptions[id] = r
	return nil
}

func (f *fakeRedemptionRepo) FindByID(_ context.Context, id string) (*model.Redemption, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if r, ok := f.s.redemptions[id]; ok {
		cp := r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRedemptionRepo) ListByCustomer(_ context.Context, uid string, limit int) ([]model.Redemption, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Redemption
	for _, r := range f.s.redemptions {
		if r.CustomerUID == uid && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRedemptionRepo) SetDB(_ *gorm.DB) {}

func newTestService() (LoyaltyService, *fakeState) {
	s := newFakeState()
	svc := NewLoyaltyService(&fakeLedgerRepo{s: s}, &fakeRedemptionRepo{s: s}, DefaultPolicy())
	return svc, s
}

func (s *fakeState) sums(uid string) (balance, lifetime int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range s.txns {
		if txn.CustomerUID != uid {
			continue
		}
		balance += txn.Amount
		if txn.Amount > 0 {
			lifetime += txn.Amount
		}
	}
	return balance, lifetime
}

func TestGetProfileEmpty(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if p.PointsBalance != 0 || p.LifetimePoints != 0 || p.Tier != model.TierSilver {
		t.Fatalf("want zero silver profile, got %+v", p)
	}
}

func TestEarnUpdatesBalanceAndLifetime(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	if _, err := svc.Earn(ctx, "u1", 600, "order #1 completed"); err != nil {
		t.Fatalf("earn: %v", err)
	}
	if _, err := svc.Earn(ctx, "u1", 400, "order #2 completed"); err != nil {
		t.Fatalf("earn: %v", err)
	}
	p, err := svc.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.PointsBalance != 1000 || p.LifetimePoints != 1000 {
		t.Fatalf("got balance=%d lifetime=%d", p.PointsBalance, p.LifetimePoints)
	}
	if p.RedeemableRupees != 10 {
		t.Fatalf("got redeemable=%d want 10", p.RedeemableRupees)
	}
	balance, lifetime := s.sums("u1")
	if balance != p.PointsBalance || lifetime != p.LifetimePoints {
		t.Fatalf("profile drifted from ledger: ledger=(%d,%d) profile=(%d,%d)", balance, lifetime, p.PointsBalance, p.LifetimePoints)
	}
}

func TestEarnValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tests := []struct {
		name   string
		uid    string
		points int64
	}{
		{"empty uid", "", 100},
		{"zero points", "u1", 0},
		{"negative points", "u1", -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Earn(ctx, tt.uid, tt.points, ""); !errors.Is(err, ErrValidation) {
				t.Fatalf("err=%v want ErrValidation", err)
			}
		})
	}
}

func TestGetProfileIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Earn(ctx, "u1", 1234, ""); err != nil {
		t.Fatalf("earn: %v", err)
	}
	a, err := svc.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	b, err := svc.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if *a != *b {
		t.Fatalf("profiles differ: %+v vs %+v", a, b)
	}
}

func TestTierFlipsWithoutTierWrite(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Earn(ctx, "u1", 4999, ""); err != nil {
		t.Fatalf("earn: %v", err)
	}
	p, _ := svc.GetProfile(ctx, "u1")
	if p.Tier != model.TierSilver {
		t.Fatalf("tier=%v want silver", p.Tier)
	}
	if _, err := svc.Earn(ctx, "u1", 1, ""); err != nil {
		t.Fatalf("earn: %v", err)
	}
	p, _ = svc.GetProfile(ctx, "u1")
	if p.Tier != model.TierGold {
		t.Fatalf("tier=%v want gold", p.Tier)
	}
}

func TestRedeemLifetimeUnaffected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Earn(ctx, "u1", 6000, ""); err != nil {
		t.Fatalf("earn: %v", err)
	}
	res, err := svc.Redeem(ctx, "u1", 5500)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !res.Committed || res.NewBalance != 500 {
		t.Fatalf("got %+v", res)
	}
	if res.DiscountRupees != 55 {
		t.Fatalf("discount=%d want 55", res.DiscountRupees)
	}
	p, _ := svc.GetProfile(ctx, "u1")
	if p.LifetimePoints != 6000 {
		t.Fatalf("lifetime=%d want 6000 (redemption must not reduce it)", p.LifetimePoints)
	}
	if p.Tier != model.TierGold {
		t.Fatalf("tier=%v want gold despite spent balance", p.Tier)
	}
}

func TestRedeemInsufficient(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	if _, err := svc.Earn(ctx, "u1", 300, ""); err != nil {
		t.Fatalf("earn: %v", err)
	}
	res, err := svc.Redeem(ctx, "u1", 500)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err=%v want ErrInsufficientPoints", err)
	}
	if res == nil || res.Committed {
		t.Fatalf("got %+v, want uncommitted result", res)
	}
	if res.NewBalance != 300 {
		t.Fatalf("balance=%d want 300", res.NewBalance)
	}
	balance, _ := s.sums("u1")
	if balance != 300 {
		t.Fatalf("ledger changed: sum=%d want 300", balance)
	}
	if res.Redemption.Status != model.RedemptionStatusRejected {
		t.Fatalf("status=%v want rejected", res.Redemption.Status)
	}
}

func TestRedeemValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Redeem(ctx, "u1", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("err=%v want ErrValidation", err)
	}
	// Below the minimum redeemable amount.
	if _, err := svc.Redeem(ctx, "u1", 50); !errors.Is(err, ErrValidation) {
		t.Fatalf("err=%v want ErrValidation", err)
	}
}

func TestConcurrentRedemptionDoubleSpend(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	if _, err := svc.Earn(ctx, "u1", 1000, ""); err != nil {
		t.Fatalf("earn: %v", err)
	}

	// 700 + 600 > 1000 but each alone fits: at most one may commit.
	points := []int64{700, 600}
	errs := make([]error, len(points))
	var wg sync.WaitGroup
	for i, pts := range points {
		wg.Add(1)
		go func(i int, pts int64) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(ctx, "u1", pts)
		}(i, pts)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, ErrInsufficientPoints), errors.Is(err, ErrConcurrentModification):
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if committed > 1 {
		t.Fatalf("double spend: %d redemptions committed", committed)
	}
	p, err := svc.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.PointsBalance < 0 {
		t.Fatalf("balance went negative: %d", p.PointsBalance)
	}
	balance, _ := s.sums("u1")
	if balance != p.PointsBalance {
		t.Fatalf("profile drifted from ledger: ledger=%d profile=%d", balance, p.PointsBalance)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if _, err := svc.Earn(ctx, "u1", i*100, ""); err != nil {
			t.Fatalf("earn: %v", err)
		}
	}
	list, err := svc.History(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len=%d want 2", len(list))
	}
	if list[0].Amount != 300 || list[1].Amount != 200 {
		t.Fatalf("order wrong: %d, %d", list[0].Amount, list[1].Amount)
	}
}

package service

import "testing"

func TestCalculateDiscount(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name    string
		balance int64
		want    int64
	}{
		{"zero", 0, 0},
		{"negative clamps", -500, 0},
		{"below one rupee", 99, 0},
		{"exact", 1000, 10},
		{"floors fractional", 1050, 10},
		{"large", 123456, 1234},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CalculateDiscount(tt.balance); got != tt.want {
				t.Fatalf("got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestCalculateDiscountMonotone(t *testing.T) {
	p := DefaultPolicy()
	prev := int64(0)
	for balance := int64(0); balance <= 5000; balance += 7 {
		got := p.CalculateDiscount(balance)
		if got < prev {
			t.Fatalf("discount decreased: balance=%d got=%d prev=%d", balance, got, prev)
		}
		if got > balance/p.PointsPerRupee {
			t.Fatalf("discount exceeds balance value: balance=%d got=%d", balance, got)
		}
		prev = got
	}
}

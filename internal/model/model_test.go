package model

import "testing"

func TestPointsAward(t *testing.T) {
	tests := []struct {
		name       string
		valueCents int64
		want       int64
	}{
		{name: "two items by 10.00", valueCents: 2000, want: 5},
		{name: "exact quarter", valueCents: 400, want: 1},
		{name: "truncated down", valueCents: 399, want: 0},
		{name: "zero value", valueCents: 0, want: 0},
		{name: "fractional rubles truncated", valueCents: 1050, want: 2},
		{name: "large order", valueCents: 1_000_000, want: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointsAward(tt.valueCents); got != tt.want {
				t.Fatalf("PointsAward(%d) = %d, want %d", tt.valueCents, got, tt.want)
			}
		})
	}
}

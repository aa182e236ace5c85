package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		currency    string
		expectError error
	}{
		{
			name:     "valid positive amount",
			amount:   decimal.NewFromInt(100),
			currency: "EUR",
		},
		{
			name:     "negative amount allowed for netting",
			amount:   decimal.NewFromInt(-50),
			currency: "EUR",
		},
		{
			name:        "empty currency rejected",
			amount:      decimal.NewFromInt(100),
			currency:    "",
			expectError: ErrEmptyCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(tt.amount, tt.currency)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !m.Amount.Equal(tt.amount) || m.Currency != tt.currency {
				t.Errorf("unexpected money value: %s", m)
			}
		})
	}
}

func TestMoney_AddSub(t *testing.T) {
	eur100 := MustMoney(decimal.NewFromInt(100), "EUR")
	eur40 := MustMoney(decimal.NewFromInt(40), "EUR")
	usd40 := MustMoney(decimal.NewFromInt(40), "USD")

	sum, err := eur100.Add(eur40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Amount.Equal(decimal.NewFromInt(140)) {
		t.Errorf("expected 140, got %s", sum.Amount)
	}

	diff, err := eur100.Sub(eur40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.Amount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected 60, got %s", diff.Amount)
	}

	if _, err := eur100.Add(usd40); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("expected currency mismatch, got %v", err)
	}

	if _, err := eur100.Sub(usd40); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("expected currency mismatch, got %v", err)
	}
}

func TestMoney_Equal(t *testing.T) {
	a := MustMoney(decimal.RequireFromString("10.50"), "EUR")
	b := MustMoney(decimal.RequireFromString("10.5"), "EUR")
	c := MustMoney(decimal.RequireFromString("10.50"), "USD")

	if !a.Equal(b) {
		t.Error("expected 10.50 EUR == 10.5 EUR")
	}

	if a.Equal(c) {
		t.Error("expected 10.50 EUR != 10.50 USD")
	}
}

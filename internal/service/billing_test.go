package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotals(t *testing.T) {
	subtotal := decimal.RequireFromString("55.00")
	totals := ComputeTotals(subtotal, false)

	if totals.ServiceFee.StringFixed(2) != "5.50" {
		t.Errorf("service fee: got %s, want 5.50", totals.ServiceFee.StringFixed(2))
	}
	if totals.Total.StringFixed(2) != "60.50" {
		t.Errorf("total: got %s, want 60.50", totals.Total.StringFixed(2))
	}
}

func TestComputeTotals_WaivedFee(t *testing.T) {
	subtotal := decimal.RequireFromString("55.00")
	totals := ComputeTotals(subtotal, true)

	if !totals.ServiceFee.IsZero() {
		t.Errorf("service fee: got %s, want 0", totals.ServiceFee)
	}
	if totals.Total.StringFixed(2) != "55.00" {
		t.Errorf("total: got %s, want 55.00", totals.Total.StringFixed(2))
	}
}

func TestComputeTotals_RoundsFee(t *testing.T) {
	// 10% of 33.33 is 3.333, which must round to cents.
	totals := ComputeTotals(decimal.RequireFromString("33.33"), false)
	if totals.ServiceFee.StringFixed(2) != "3.33" {
		t.Errorf("service fee: got %s, want 3.33", totals.ServiceFee.StringFixed(2))
	}
}

func TestEqualSplit_Even(t *testing.T) {
	shares, err := EqualSplit(decimal.RequireFromString("60.50"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("shares: got %d, want 2", len(shares))
	}
	for i, s := range shares {
		if s.StringFixed(2) != "30.25" {
			t.Errorf("share[%d]: got %s, want 30.25", i, s.StringFixed(2))
		}
	}
}

func TestEqualSplit_RemainderToFirstPayer(t *testing.T) {
	shares, err := EqualSplit(decimal.RequireFromString("100.00"), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if shares[0].StringFixed(2) != "33.34" {
		t.Errorf("share[0]: got %s, want 33.34", shares[0].StringFixed(2))
	}
	if shares[1].StringFixed(2) != "33.33" || shares[2].StringFixed(2) != "33.33" {
		t.Errorf("shares[1:]: got %s, %s, want 33.33 each", shares[1], shares[2])
	}

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	if sum.StringFixed(2) != "100.00" {
		t.Errorf("shares sum: got %s, want 100.00", sum.StringFixed(2))
	}
}

func TestEqualSplit_PayerBounds(t *testing.T) {
	total := decimal.RequireFromString("50.00")

	if _, err := EqualSplit(total, 1); !errors.Is(err, ErrInvalidSplitCount) {
		t.Errorf("1 payer: got %v, want ErrInvalidSplitCount", err)
	}
	if _, err := EqualSplit(total, 11); !errors.Is(err, ErrInvalidSplitCount) {
		t.Errorf("11 payers: got %v, want ErrInvalidSplitCount", err)
	}
	if _, err := EqualSplit(total, 10); err != nil {
		t.Errorf("10 payers: unexpected error: %v", err)
	}
}

func TestManualSplitRemainder(t *testing.T) {
	total := decimal.RequireFromString("60.50")
	shares := []decimal.Decimal{
		decimal.RequireFromString("40.00"),
		decimal.RequireFromString("10.00"),
	}

	remainder, err := ManualSplitRemainder(total, shares)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remainder.StringFixed(2) != "10.50" {
		t.Errorf("remainder: got %s, want 10.50", remainder.StringFixed(2))
	}
}

func TestManualSplitRemainder_NegativeShare(t *testing.T) {
	shares := []decimal.Decimal{
		decimal.RequireFromString("70.00"),
		decimal.RequireFromString("-9.50"),
	}
	_, err := ManualSplitRemainder(decimal.RequireFromString("60.50"), shares)
	if !errors.Is(err, ErrNegativeShare) {
		t.Errorf("got %v, want ErrNegativeShare", err)
	}
}

func TestValidateSplit(t *testing.T) {
	total := decimal.RequireFromString("60.50")

	if err := ValidateSplit(total, SplitRequest{Mode: SplitModeFull}); err != nil {
		t.Errorf("FULL: unexpected error: %v", err)
	}
	if err := ValidateSplit(total, SplitRequest{}); err != nil {
		t.Errorf("empty mode: unexpected error: %v", err)
	}
	if err := ValidateSplit(total, SplitRequest{Mode: SplitModeEqual, Payers: 4}); err != nil {
		t.Errorf("EQUAL: unexpected error: %v", err)
	}
	if err := ValidateSplit(total, SplitRequest{Mode: "HALVSIES"}); !errors.Is(err, ErrInvalidSplitMode) {
		t.Errorf("unknown mode: got %v, want ErrInvalidSplitMode", err)
	}

	err := ValidateSplit(total, SplitRequest{
		Mode:   SplitModeManual,
		Shares: []string{"30.00", "30.00"},
	})
	if !errors.Is(err, ErrSplitMismatch) {
		t.Errorf("short manual split: got %v, want ErrSplitMismatch", err)
	}

	err = ValidateSplit(total, SplitRequest{
		Mode:   SplitModeManual,
		Shares: []string{"30.25", "30.25"},
	})
	if err != nil {
		t.Errorf("exact manual split: unexpected error: %v", err)
	}

	err = ValidateSplit(total, SplitRequest{
		Mode:   SplitModeManual,
		Shares: []string{"thirty", "30.50"},
	})
	if !errors.Is(err, ErrInvalidShare) {
		t.Errorf("bad share string: got %v, want ErrInvalidShare", err)
	}
}

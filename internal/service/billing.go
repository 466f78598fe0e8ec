package service

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Service fee is a fixed percentage of the subtotal. It can be waived at
// checkout but never changed per order.
var serviceFeeRate = decimal.NewFromFloat(0.10)

const (
	minSplitPayers = 2
	maxSplitPayers = 10
)

// Split modes accepted at checkout.
const (
	SplitModeFull   = "FULL"
	SplitModeEqual  = "EQUAL"
	SplitModeManual = "MANUAL"
)

var (
	ErrInvalidSplitMode  = errors.New("invalid split mode")
	ErrInvalidSplitCount = errors.New("split payers must be between 2 and 10")
	ErrNegativeShare     = errors.New("split shares must not be negative")
	ErrInvalidShare      = errors.New("invalid split share amount")
	ErrSplitMismatch     = errors.New("split shares must add up to the total")
)

// Totals is the money summary of an order.
type Totals struct {
	Subtotal   decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
}

// ComputeTotals derives the service fee and total from a subtotal. A waived
// fee is reported as zero, not omitted.
func ComputeTotals(subtotal decimal.Decimal, waiveFee bool) Totals {
	fee := decimal.Zero
	if !waiveFee {
		fee = subtotal.Mul(serviceFeeRate).Round(2)
	}
	return Totals{
		Subtotal:   subtotal,
		ServiceFee: fee,
		Total:      subtotal.Add(fee),
	}
}

// EqualSplit divides the total across payers in whole cents. Each payer gets
// the truncated per-head amount; leftover cents go to the first payer so the
// shares always sum back to the total exactly.
func EqualSplit(total decimal.Decimal, payers int) ([]decimal.Decimal, error) {
	if payers < minSplitPayers || payers > maxSplitPayers {
		return nil, ErrInvalidSplitCount
	}

	n := decimal.NewFromInt(int64(payers))
	perHead := total.Div(n).RoundDown(2)

	shares := make([]decimal.Decimal, payers)
	for i := range shares {
		shares[i] = perHead
	}
	remainder := total.Sub(perHead.Mul(n))
	shares[0] = shares[0].Add(remainder)

	return shares, nil
}

// ManualSplitRemainder reports how much of the total the given shares still
// leave unassigned. Checkout with a manual split is only allowed once the
// remainder is exactly zero.
func ManualSplitRemainder(total decimal.Decimal, shares []decimal.Decimal) (decimal.Decimal, error) {
	if len(shares) < minSplitPayers || len(shares) > maxSplitPayers {
		return decimal.Zero, ErrInvalidSplitCount
	}

	sum := decimal.Zero
	for _, s := range shares {
		if s.IsNegative() {
			return decimal.Zero, ErrNegativeShare
		}
		sum = sum.Add(s)
	}
	return total.Sub(sum), nil
}

// SplitRequest is the split instruction attached to a checkout.
type SplitRequest struct {
	Mode   string
	Payers int      // EQUAL only
	Shares []string // MANUAL only, decimal strings
}

// ValidateSplit checks a split request against the order total. For FULL it
// accepts anything; for EQUAL it validates the payer count; for MANUAL the
// shares must cover the total exactly.
func ValidateSplit(total decimal.Decimal, req SplitRequest) error {
	switch req.Mode {
	case "", SplitModeFull:
		return nil
	case SplitModeEqual:
		_, err := EqualSplit(total, req.Payers)
		return err
	case SplitModeManual:
		shares := make([]decimal.Decimal, 0, len(req.Shares))
		for _, raw := range req.Shares {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return ErrInvalidShare
			}
			shares = append(shares, d)
		}
		remainder, err := ManualSplitRemainder(total, shares)
		if err != nil {
			return err
		}
		if !remainder.IsZero() {
			return ErrSplitMismatch
		}
		return nil
	}
	return ErrInvalidSplitMode
}

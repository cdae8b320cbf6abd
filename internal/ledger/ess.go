package ledger

import (
	"fmt"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"

	"github.com/shopspring/decimal"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the UTC calendar month of t.
func MonthOf(t time.Time) YearMonth {
	t = t.UTC()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.Year < other.Year || (ym.Year == other.Year && ym.Month < other.Month)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// ParseYearMonth parses "2006-01".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Before June 2025 the wallet journal did not carry ESS payouts as their own
// ref type. Those months estimate ESS from bounties with the historical split.
var (
	DefaultLegacyESSCutoff = YearMonth{Year: 2025, Month: time.June}
	DefaultLegacyESSRatio  = decimal.RequireFromString("0.667")
)

// LegacyESS configures the estimation for months before Cutoff.
// Zero fields fall back to the defaults.
type LegacyESS struct {
	Cutoff YearMonth
	Ratio  decimal.Decimal
}

func (l LegacyESS) cutoff() YearMonth {
	if l.Cutoff.Year == 0 {
		return DefaultLegacyESSCutoff
	}
	return l.Cutoff
}

func (l LegacyESS) ratio() decimal.Decimal {
	if l.Ratio.IsZero() {
		return DefaultLegacyESSRatio
	}
	return l.Ratio
}

// Applies reports whether ym predates the explicit ESS ref type.
func (l LegacyESS) Applies(ym YearMonth) bool {
	return ym.Before(l.cutoff())
}

// CharacterESS back-computes a character's payout from the post-tax
// corporation share: raw / rate * (100 - rate).
func CharacterESS(raw, taxRate decimal.Decimal) decimal.Decimal {
	return raw.Mul(decimal.NewFromInt(100).Sub(taxRate)).Div(taxRate)
}

// ESSIncome returns the ESS figure for one calendar month given that
// month's bounty total and raw ESS escrow total.
func (o Options) ESSIncome(ym YearMonth, bounty, raw decimal.Decimal) decimal.Decimal {
	if o.LegacyESS.Applies(ym) {
		return bounty.Mul(o.LegacyESS.ratio())
	}
	if o.View == domain.ViewCharacter {
		return CharacterESS(raw, o.TaxRate)
	}
	return raw
}

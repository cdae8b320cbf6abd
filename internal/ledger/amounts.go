package ledger

import (
	"fmt"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"

	"github.com/shopspring/decimal"
)

// TickDivisor splits a period into sub-period slices for the tick variants.
const TickDivisor = 20

// Places is the rounding precision of ledger amounts. Rounding is half away
// from zero (decimal.Round) and only happens when a value is emitted.
const Places = 2

var (
	hoursPerDay = decimal.NewFromInt(24)
	tickDivisor = decimal.NewFromInt(TickDivisor)
)

// DayCount returns the averaging denominator for a period: 365 for a year,
// the calendar length of the month, or the elapsed day of month when the
// period is the current month. It is always >= 1.
func DayCount(p domain.Period, now time.Time) int {
	if p.Month == 0 {
		return 365
	}
	now = now.UTC()
	if now.Year() == p.Year && int(now.Month()) == p.Month {
		return now.Day()
	}
	return domain.DaysIn(p.Year, time.Month(p.Month))
}

// NewAmounts derives the averages of total over days. days < 1 is a caller
// bug and panics.
func NewAmounts(total decimal.Decimal, days int) domain.Amounts {
	if days < 1 {
		panic(fmt.Sprintf("ledger: day count must be >= 1, got %d", days))
	}
	perDay := total.Div(decimal.NewFromInt(int64(days)))
	perHour := perDay.Div(hoursPerDay)
	return domain.Amounts{
		Total:           total.Round(Places),
		AverageDay:      perDay.Round(Places),
		AverageHour:     perHour.Round(Places),
		TotalTick:       total.Div(tickDivisor).Round(Places),
		AverageDayTick:  perDay.Div(tickDivisor).Round(Places),
		AverageHourTick: perHour.Div(tickDivisor).Round(Places),
	}
}

// Package billboard turns the attributed journal stream into chart payloads:
// a time-bucketed XY series and an entity → category chord graph.
package billboard

import (
	"sort"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/ledger"

	"github.com/shopspring/decimal"
)

// Granularity is the bucket width of the XY series.
type Granularity string

const (
	Hour  Granularity = "hour"
	Day   Granularity = "day"
	Month Granularity = "month"
)

// Label layouts sort lexicographically in chronological order.
const (
	hourLayout  = "2006-01-02 15:00"
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Series keys of the XY chart.
const (
	SeriesBounty        = "bounty_income"
	SeriesESS           = "ess_income"
	SeriesMiscellaneous = "miscellaneous"
	SeriesMining        = "mining"
)

// SelectGranularity picks the bucket width from the most specific field set
// on the period: a day yields hourly buckets, a month daily buckets and a bare
// year monthly buckets.
func SelectGranularity(p domain.Period) (Granularity, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	switch {
	case p.Day > 0:
		return Hour, nil
	case p.Month > 0:
		return Day, nil
	default:
		return Month, nil
	}
}

// Label formats t as the bucket label of granularity g.
func (g Granularity) Label(t time.Time) string {
	t = t.UTC()
	switch g {
	case Hour:
		return t.Format(hourLayout)
	case Day:
		return t.Format(dayLayout)
	default:
		return t.Format(monthLayout)
	}
}

// Bucket holds the running sums of one time period.
type Bucket struct {
	Label  string
	Values map[string]decimal.Decimal

	// per-month inputs of the ESS rule; a bucket never spans two months
	month  ledger.YearMonth
	essRaw decimal.Decimal
}

func (b *Bucket) add(key string, v decimal.Decimal) {
	b.Values[key] = b.Values[key].Add(v)
}

func (b *Bucket) empty() bool {
	for _, v := range b.Values {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Input is the data of one billboard pass.
type Input struct {
	Records  []domain.TransactionRecord
	Mining   []domain.MiningRecord
	Subjects []ledger.Subject
	Options  ledger.Options
	// IncludeMining adds the mining series; only character scope sets it.
	IncludeMining bool
}

// BuildTimeline buckets the attributed records by granularity g. Buckets with
// nothing but zeros are dropped; the rest come back in ascending label order.
func BuildTimeline(in Input, g Granularity) ([]Bucket, error) {
	if err := in.Options.Validate(); err != nil {
		return nil, err
	}
	switch g {
	case Hour, Day, Month:
	default:
		return nil, &domain.ErrValidation{Field: "granularity", Message: "must be hour, day or month"}
	}

	buckets := make(map[string]*Bucket)
	bucketFor := func(t time.Time) *Bucket {
		label := g.Label(t)
		b, ok := buckets[label]
		if !ok {
			b = &Bucket{
				Label:  label,
				Values: map[string]decimal.Decimal{SeriesBounty: decimal.Zero, SeriesESS: decimal.Zero, SeriesMiscellaneous: decimal.Zero},
				month:  ledger.MonthOf(t),
			}
			if in.IncludeMining {
				b.Values[SeriesMining] = decimal.Zero
			}
			buckets[label] = b
		}
		return b
	}

	for _, at := range ledger.Attribute(in.Records, in.Subjects, in.Options) {
		if at.Excluded {
			continue
		}
		b := bucketFor(at.Record.Date)
		switch at.Line {
		case ledger.LineBounty:
			b.add(SeriesBounty, at.Record.Amount)
		case ledger.LineESS:
			b.essRaw = b.essRaw.Add(at.Record.Amount)
		case ledger.LineMiscellaneous:
			b.add(SeriesMiscellaneous, at.Record.Amount)
		}
	}
	if in.IncludeMining {
		for _, ma := range ledger.AttributeMining(in.Mining, in.Subjects) {
			bucketFor(ma.Record.Date).add(SeriesMining, ma.Record.Value())
		}
	}

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		b.Values[SeriesESS] = in.Options.ESSIncome(b.month, b.Values[SeriesBounty], b.essRaw)
		if b.empty() {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

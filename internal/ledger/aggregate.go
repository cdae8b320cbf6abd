package ledger

import (
	"sort"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/taxonomy"

	"github.com/shopspring/decimal"
)

// Result is the output of one aggregation pass. Sums holds the unrounded
// lines of Entities, index for index.
type Result struct {
	Entities []domain.EntityLedger
	Sums     []Sums
	Totals   domain.EntityLedger
	DayCount int
}

// Sums are the unrounded line totals of one subject.
type Sums struct {
	ID            int64
	Name          string
	Kind          domain.EntityKind
	Bounty        decimal.Decimal
	ESS           decimal.Decimal
	Mining        decimal.Decimal
	Miscellaneous decimal.Decimal
	Costs         decimal.Decimal
	Total         decimal.Decimal
}

type categorySum struct {
	income decimal.Decimal
	cost   decimal.Decimal
}

type accumulator struct {
	bounty     map[YearMonth]decimal.Decimal
	essRaw     map[YearMonth]decimal.Decimal
	misc       decimal.Decimal
	costs      decimal.Decimal
	mining     decimal.Decimal
	categories map[taxonomy.Category]*categorySum
}

func newAccumulator() *accumulator {
	return &accumulator{
		bounty:     make(map[YearMonth]decimal.Decimal),
		essRaw:     make(map[YearMonth]decimal.Decimal),
		categories: make(map[taxonomy.Category]*categorySum),
	}
}

func (a *accumulator) add(at Attribution) {
	if at.Excluded {
		return
	}
	rec := at.Record
	ym := MonthOf(rec.Date)

	switch at.Line {
	case LineBounty:
		a.bounty[ym] = a.bounty[ym].Add(rec.Amount)
		return
	case LineESS:
		a.essRaw[ym] = a.essRaw[ym].Add(rec.Amount)
		return
	case LineMiscellaneous:
		a.misc = a.misc.Add(rec.Amount)
	case LineCosts:
		a.costs = a.costs.Add(rec.Amount)
	}

	cs, ok := a.categories[at.Category]
	if !ok {
		cs = &categorySum{}
		a.categories[at.Category] = cs
	}
	switch rec.Amount.Sign() {
	case 1:
		cs.income = cs.income.Add(rec.Amount)
	case -1:
		cs.cost = cs.cost.Add(rec.Amount)
	}
}

func (a *accumulator) merge(b *accumulator) {
	for ym, v := range b.bounty {
		a.bounty[ym] = a.bounty[ym].Add(v)
	}
	for ym, v := range b.essRaw {
		a.essRaw[ym] = a.essRaw[ym].Add(v)
	}
	a.misc = a.misc.Add(b.misc)
	a.costs = a.costs.Add(b.costs)
	a.mining = a.mining.Add(b.mining)
	for cat, v := range b.categories {
		cs, ok := a.categories[cat]
		if !ok {
			cs = &categorySum{}
			a.categories[cat] = cs
		}
		cs.income = cs.income.Add(v.income)
		cs.cost = cs.cost.Add(v.cost)
	}
}

func (a *accumulator) bountyTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a.bounty {
		total = total.Add(v)
	}
	return total
}

// essTotal applies the ESS rules month by month: legacy months estimate from
// bounties, later months sum the escrow rows (tax-adjusted for characters).
func (a *accumulator) essTotal(opts Options) decimal.Decimal {
	months := make(map[YearMonth]struct{}, len(a.bounty)+len(a.essRaw))
	for ym := range a.bounty {
		months[ym] = struct{}{}
	}
	for ym := range a.essRaw {
		months[ym] = struct{}{}
	}
	total := decimal.Zero
	for ym := range months {
		total = total.Add(opts.ESSIncome(ym, a.bounty[ym], a.essRaw[ym]))
	}
	return total
}

func (a *accumulator) sums(id int64, name string, kind domain.EntityKind, opts Options) Sums {
	bounty := a.bountyTotal()
	ess := a.essTotal(opts)
	return Sums{
		ID:            id,
		Name:          name,
		Kind:          kind,
		Bounty:        bounty,
		ESS:           ess,
		Mining:        a.mining,
		Miscellaneous: a.misc,
		Costs:         a.costs,
		Total:         bounty.Add(ess).Add(a.misc).Add(a.costs),
	}
}

func (a *accumulator) ledger(id int64, name string, kind domain.EntityKind, opts Options, days int) (domain.EntityLedger, Sums, bool) {
	sum := a.sums(id, name, kind, opts)
	l := domain.EntityLedger{
		ID:            id,
		Name:          name,
		Kind:          kind,
		Bounty:        NewAmounts(sum.Bounty, days),
		ESS:           NewAmounts(sum.ESS, days),
		Mining:        NewAmounts(sum.Mining, days),
		Miscellaneous: NewAmounts(sum.Miscellaneous, days),
		Costs:         NewAmounts(sum.Costs, days),
		Total:         NewAmounts(sum.Total, days),
		Categories:    a.categoryLines(),
	}
	empty := sum.Total.IsZero() && sum.Costs.IsZero() && sum.Mining.IsZero()
	return l, sum, !empty
}

func (a *accumulator) categoryLines() []domain.CategoryLine {
	lines := make([]domain.CategoryLine, 0, len(a.categories))
	for cat, cs := range a.categories {
		if cs.income.IsZero() && cs.cost.IsZero() {
			continue
		}
		lines = append(lines, domain.CategoryLine{
			Category: string(cat),
			Label:    cat.Label(),
			Income:   cs.income.Round(Places),
			Cost:     cs.cost.Round(Places),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Category < lines[j].Category })
	return lines
}

// Aggregate computes the ledger of every subject plus the combined totals.
// Subjects whose total, costs and mining are all zero are left out of
// Entities; Totals is always present.
func Aggregate(records []domain.TransactionRecord, mining []domain.MiningRecord, subjects []Subject, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	days := DayCount(opts.Period, opts.now())

	accs := make([]*accumulator, len(subjects))
	for i := range accs {
		accs[i] = newAccumulator()
	}
	for _, at := range Attribute(records, subjects, opts) {
		accs[at.Subject].add(at)
	}
	for _, ma := range AttributeMining(mining, subjects) {
		accs[ma.Subject].mining = accs[ma.Subject].mining.Add(ma.Record.Value())
	}

	type line struct {
		ledger domain.EntityLedger
		sums   Sums
	}
	lines := make([]line, 0, len(subjects))
	combined := newAccumulator()
	for i, s := range subjects {
		combined.merge(accs[i])
		if l, sum, ok := accs[i].ledger(s.ID, s.Name, s.Kind, opts, days); ok {
			lines = append(lines, line{ledger: l, sums: sum})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i].ledger.Total.Total, lines[j].ledger.Total.Total
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return lines[i].ledger.ID < lines[j].ledger.ID
	})

	res := &Result{
		DayCount: days,
		Entities: make([]domain.EntityLedger, 0, len(lines)),
		Sums:     make([]Sums, 0, len(lines)),
	}
	for _, l := range lines {
		res.Entities = append(res.Entities, l.ledger)
		res.Sums = append(res.Sums, l.sums)
	}
	res.Totals, _, _ = combined.ledger(0, "Total", viewKind(opts.View), opts, days)
	return res, nil
}

// MiningAttribution binds a mining row to a subject.
type MiningAttribution struct {
	Record  domain.MiningRecord
	Subject int
}

// AttributeMining assigns each mining row once, to the first named subject
// holding its character. The catch-all bucket never mines.
func AttributeMining(rows []domain.MiningRecord, subjects []Subject) []MiningAttribution {
	sorted := append([]domain.MiningRecord(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	seen := make(map[int64]struct{}, len(sorted))
	out := make([]MiningAttribution, 0, len(sorted))
	for si, s := range subjects {
		if s.CatchAll {
			continue
		}
		for _, m := range sorted {
			if _, dup := seen[m.ID]; dup || !s.IDs.Has(m.CharacterID) {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, MiningAttribution{Record: m, Subject: si})
		}
	}
	return out
}

func viewKind(v domain.View) domain.EntityKind {
	switch v {
	case domain.ViewCorporation:
		return domain.KindCorporation
	case domain.ViewAlliance:
		return domain.KindAlliance
	default:
		return domain.KindCharacter
	}
}

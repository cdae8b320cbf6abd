package billboard

import (
	"sort"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/ledger"

	"github.com/shopspring/decimal"
)

// DefaultMaxEdges caps the chord edges kept per target category.
const DefaultMaxEdges = 25

// OthersNode is the synthetic source that absorbs overflowing chord edges.
const OthersNode = "Others"

// UnknownLabel is the legend entry of series keys without a known label.
const UnknownLabel = "Unknown"

var legend = map[string]string{
	SeriesBounty:        "Bounty",
	SeriesESS:           "ESS",
	SeriesMiscellaneous: "Miscellaneous",
	SeriesMining:        "Mining",
}

var legendOrder = map[string]int{
	"Bounty":        0,
	"ESS":           1,
	"Miscellaneous": 2,
	"Mining":        3,
}

// LegendLabel maps a series key to its chart label.
func LegendLabel(key string) string {
	if l, ok := legend[key]; ok {
		return l
	}
	return UnknownLabel
}

func sortLegend(labels []string) {
	rank := func(l string) int {
		if r, ok := legendOrder[l]; ok {
			return r
		}
		return len(legendOrder)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, rj := rank(labels[i]), rank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})
}

// whole rounds a billboard value to an integer, half away from zero.
func whole(v decimal.Decimal) int64 {
	return v.Round(0).IntPart()
}

// XY renders the buckets as chart rows. The legend is the union of the keys
// seen across buckets.
func XY(buckets []Bucket) domain.XYSeries {
	seen := make(map[string]struct{})
	series := make([]domain.XYPoint, 0, len(buckets))
	for _, b := range buckets {
		p := domain.XYPoint{Date: b.Label, Values: make(map[string]int64, len(b.Values))}
		for k, v := range b.Values {
			p.Values[k] = whole(v)
			seen[LegendLabel(k)] = struct{}{}
		}
		series = append(series, p)
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	categories := make([]string, 0, len(seen))
	for l := range seen {
		categories = append(categories, l)
	}
	sortLegend(categories)
	return domain.XYSeries{Categories: categories, Series: series}
}

// chord targets, in legend order
var chordLines = []struct {
	label string
	value func(ledger.Sums) decimal.Decimal
}{
	{"Bounty", func(s ledger.Sums) decimal.Decimal { return s.Bounty }},
	{"ESS", func(s ledger.Sums) decimal.Decimal { return s.ESS }},
	{"Mining", func(s ledger.Sums) decimal.Decimal { return s.Mining }},
	{"Miscellaneous", func(s ledger.Sums) decimal.Decimal { return s.Miscellaneous }},
	{"Costs", func(s ledger.Sums) decimal.Decimal { return s.Costs }},
}

// Chord links every entity to the ledger lines it has a nonzero amount on.
// Values are rounded once, from the unrounded sums, like the XY series.
// Each target keeps its maxEdges largest edges; the remainder folds into one
// edge from OthersNode. The result is ordered by value descending.
func Chord(entities []ledger.Sums, maxEdges int) domain.ChordSeries {
	if maxEdges <= 0 {
		maxEdges = DefaultMaxEdges
	}

	byTarget := make(map[string][]domain.ChordEdge)
	for _, e := range entities {
		for _, line := range chordLines {
			v := whole(line.value(e).Abs())
			if v == 0 {
				continue
			}
			byTarget[line.label] = append(byTarget[line.label], domain.ChordEdge{From: e.Name, To: line.label, Value: v})
		}
	}

	categories := make([]string, 0, len(byTarget))
	var edges []domain.ChordEdge
	for _, line := range chordLines {
		group, ok := byTarget[line.label]
		if !ok {
			continue
		}
		categories = append(categories, line.label)
		edges = append(edges, collapse(group, maxEdges)...)
	}

	sortEdges(edges)
	if edges == nil {
		edges = []domain.ChordEdge{}
	}
	return domain.ChordSeries{Categories: categories, Series: edges}
}

func collapse(group []domain.ChordEdge, maxEdges int) []domain.ChordEdge {
	sortEdges(group)
	if len(group) <= maxEdges {
		return group
	}
	var rest int64
	for _, e := range group[maxEdges:] {
		rest += e.Value
	}
	kept := append([]domain.ChordEdge(nil), group[:maxEdges]...)
	return append(kept, domain.ChordEdge{From: OthersNode, To: group[0].To, Value: rest})
}

func sortEdges(edges []domain.ChordEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.From < b.From
	})
}

package billboard

import (
	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/ledger"
)

// Result holds both chart shapes of one billboard pass.
type Result struct {
	Granularity Granularity
	XY          domain.XYSeries
	Chord       domain.ChordSeries
}

// Build runs the timeline and the chord graph over the same input. The chord
// edges come from the aggregated ledger, so they honor zero-suppression.
func Build(in Input, maxEdges int) (*Result, error) {
	g, err := SelectGranularity(in.Options.Period)
	if err != nil {
		return nil, err
	}
	buckets, err := BuildTimeline(in, g)
	if err != nil {
		return nil, err
	}

	mining := in.Mining
	if !in.IncludeMining {
		mining = nil
	}
	agg, err := ledger.Aggregate(in.Records, mining, in.Subjects, in.Options)
	if err != nil {
		return nil, err
	}

	return &Result{
		Granularity: g,
		XY:          XY(buckets),
		Chord:       Chord(agg.Sums, maxEdges),
	}, nil
}

package domain

import (
	"encoding/json"
	"time"
)

// ============================================================
// Billboard (chart payloads)
// ============================================================

// XYPoint is one period row of the XY chart. It serializes flat:
// {"date": "2024-03", "bounty_income": 200000, ...}.
type XYPoint struct {
	Date   string
	Values map[string]int64
}

// MarshalJSON flattens the values next to the date label. encoding/json
// sorts map keys, so the output is stable.
func (p XYPoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Values)+1)
	for k, v := range p.Values {
		flat[k] = v
	}
	flat["date"] = p.Date
	return json.Marshal(flat)
}

// XYSeries is the chart-ready time series.
type XYSeries struct {
	Categories []string  `json:"categories"`
	Series     []XYPoint `json:"series"`
}

// ChordEdge is one entity → category link.
type ChordEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value int64  `json:"value"`
}

// ChordSeries is the chart-ready relationship graph.
type ChordSeries struct {
	Categories []string    `json:"categories"`
	Series     []ChordEdge `json:"series"`
}

// BillboardReport is returned by the /billboard endpoints.
type BillboardReport struct {
	ReportID    string      `json:"report_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Fingerprint string      `json:"fingerprint"`
	View        View        `json:"view"`
	EntityID    int64       `json:"entity_id"`
	Period      Period      `json:"period"`
	Granularity string      `json:"granularity"`
	XY          XYSeries    `json:"xy"`
	Chord       ChordSeries `json:"chord"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Ledger reports
// ============================================================

// View selects whose perspective a ledger is computed from.
type View string

const (
	ViewCharacter   View = "character"
	ViewCorporation View = "corporation"
	ViewAlliance    View = "alliance"
)

// Amounts is one ledger line with its derived averages.
type Amounts struct {
	Total           decimal.Decimal `json:"total_amount"`
	AverageDay      decimal.Decimal `json:"average_day"`
	AverageHour     decimal.Decimal `json:"average_hour"`
	TotalTick       decimal.Decimal `json:"total_amount_tick"`
	AverageDayTick  decimal.Decimal `json:"average_day_tick"`
	AverageHourTick decimal.Decimal `json:"average_hour_tick"`
}

// CategoryLine is the income/cost split of one taxonomy category.
type CategoryLine struct {
	Category string          `json:"category"`
	Label    string          `json:"label"`
	Income   decimal.Decimal `json:"income"`
	Cost     decimal.Decimal `json:"cost"`
}

// EntityLedger holds the totals of one aggregation subject.
type EntityLedger struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Kind          EntityKind     `json:"kind"`
	Bounty        Amounts        `json:"bounty"`
	ESS           Amounts        `json:"ess"`
	Mining        Amounts        `json:"mining"`
	Miscellaneous Amounts        `json:"miscellaneous"`
	Costs         Amounts        `json:"costs"`
	Total         Amounts        `json:"total"`
	Categories    []CategoryLine `json:"categories,omitempty"`
}

// LedgerReport is returned by the /ledger endpoints.
type LedgerReport struct {
	ReportID    string         `json:"report_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Fingerprint string         `json:"fingerprint"`
	View        View           `json:"view"`
	EntityID    int64          `json:"entity_id"`
	EntityName  string         `json:"entity_name"`
	Period      Period         `json:"period"`
	DayCount    int            `json:"day_count"`
	Entities    []EntityLedger `json:"entities"`
	Totals      EntityLedger   `json:"totals"`
}

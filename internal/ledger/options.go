// Package ledger turns filtered wallet journal rows into per-entity totals.
//
// The engine is pure: callers fetch the candidate records, describe the
// aggregation subjects in priority order and get back rounded totals. No
// I/O, no goroutines, no package state beyond the taxonomy table.
package ledger

import (
	"fmt"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultCorpTaxRate is the corporation tax percentage applied to ESS payouts.
var DefaultCorpTaxRate = decimal.NewFromInt(15)

// Subject is one line of a ledger: a character, an account, a corporation or
// the catch-all bucket. A record belongs first to the subject owning its
// wallet; rows from wallets no subject owns go to the subject holding their
// first or second party.
type Subject struct {
	ID   int64
	Name string
	Kind domain.EntityKind
	IDs  domain.IDSet
	// Linked is the linked-character set used to drop intra-alt donations.
	Linked domain.IDSet
	// CatchAll subjects take every record no earlier subject consumed.
	CatchAll bool
}

// UnknownSubject is the NPC/unknown bucket appended after the named subjects.
func UnknownSubject() Subject {
	return Subject{Name: "Unknown", Kind: domain.KindUnknown, CatchAll: true}
}

func (s Subject) owns(rec domain.TransactionRecord) bool {
	return !s.CatchAll && rec.OwnerID != 0 && s.IDs.Has(rec.OwnerID)
}

func (s Subject) matches(rec domain.TransactionRecord) bool {
	if s.CatchAll {
		return true
	}
	return s.IDs.Has(rec.FirstPartyID) || s.IDs.Has(rec.SecondPartyID)
}

// Options carries the per-request parameters of an aggregation pass.
type Options struct {
	View    domain.View
	Period  domain.Period
	Now     time.Time
	TaxRate decimal.Decimal // percent, 0 < rate < 100

	// ViewerIDs identify the entity whose ledger is built (the corporation
	// for a corporation ledger). AccountIDs are all registered characters.
	ViewerIDs  domain.IDSet
	AccountIDs domain.IDSet

	LegacyESS LegacyESS
}

// Validate checks the options of an aggregation pass.
func (o Options) Validate() error {
	if err := o.Period.Validate(); err != nil {
		return err
	}
	switch o.View {
	case domain.ViewCharacter, domain.ViewCorporation, domain.ViewAlliance:
	default:
		return &domain.ErrValidation{Field: "view", Message: fmt.Sprintf("unknown view %q", o.View)}
	}
	if o.TaxRate.LessThanOrEqual(decimal.Zero) || o.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return &domain.ErrValidation{Field: "tax_rate", Message: "must be between 0 and 100 exclusive"}
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now.UTC()
}

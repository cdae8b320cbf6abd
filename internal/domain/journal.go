package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Wallet journal & mining ledger (persisted by the ESI sync)
// ============================================================

// TransactionRecord is one wallet journal entry. Records are immutable once
// ingested; the ledger engines only read them.
type TransactionRecord struct {
	EntryID       int64           `json:"entry_id"`
	OwnerID       int64           `json:"owner_id"` // character or corporation owning the journal
	Division      int             `json:"division,omitempty"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	RefType       string          `json:"ref_type"`
	FirstPartyID  int64           `json:"first_party_id"`
	SecondPartyID int64           `json:"second_party_id"`
	Reason        string          `json:"reason,omitempty"`
	Description   string          `json:"description,omitempty"`
	Tax           decimal.Decimal `json:"tax"`
}

// MiningRecord is one mining ledger row with the market price already joined.
type MiningRecord struct {
	ID          int64           `json:"id"`
	CharacterID int64           `json:"character_id"`
	TypeID      int64           `json:"type_id"`
	Date        time.Time       `json:"date"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// Value returns the ISK value of the mined quantity. A stored total wins over
// quantity × price.
func (m MiningRecord) Value() decimal.Decimal {
	if !m.Total.IsZero() {
		return m.Total
	}
	return m.Price.Mul(decimal.NewFromInt(m.Quantity))
}

// JournalQuery filters journal rows at the persistence boundary.
type JournalQuery struct {
	OwnerIDs []int64
	From     time.Time // inclusive
	To       time.Time // exclusive
}

// MiningQuery filters mining ledger rows at the persistence boundary.
type MiningQuery struct {
	CharacterIDs []int64
	From         time.Time
	To           time.Time
}

// IDSet is a set of EVE entity identifiers.
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids into the set.
func (s IDSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Union returns a new set holding the members of s and other.
func (s IDSet) Union(other IDSet) IDSet {
	out := make(IDSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

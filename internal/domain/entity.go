package domain

// EntityKind tells which kind of EVE entity a ledger line belongs to.
type EntityKind string

const (
	KindCharacter   EntityKind = "character"
	KindCorporation EntityKind = "corporation"
	KindAlliance    EntityKind = "alliance"
	KindUnknown     EntityKind = "unknown" // NPCs and unregistered entities
)

// Character is a registered character. MainID equals ID for mains.
type Character struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	CorporationID int64   `json:"corporation_id"`
	MainID        int64   `json:"main_id"`
	AltIDs        []int64 `json:"alt_ids,omitempty"`
}

// LinkedIDs returns the main and all alts of the character account.
func (c *Character) LinkedIDs() IDSet {
	s := NewIDSet(c.ID)
	if c.MainID != 0 {
		s.Add(c.MainID)
	}
	s.Add(c.AltIDs...)
	return s
}

// Corporation is a corporation whose wallet journal is synced.
type Corporation struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Ticker     string  `json:"ticker"`
	AllianceID int64   `json:"alliance_id,omitempty"`
	MemberIDs  []int64 `json:"member_ids,omitempty"`
}

// Alliance groups corporations.
type Alliance struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Ticker         string  `json:"ticker"`
	CorporationIDs []int64 `json:"corporation_ids,omitempty"`
}

package domain

// ============================================================
// Dev Tools: endpoints for development/testing
// ============================================================

// DevEntitiesRequest is the body for POST /v1/dev/entities.
type DevEntitiesRequest struct {
	Alliances    []Alliance    `json:"alliances,omitempty"`
	Corporations []Corporation `json:"corporations,omitempty"`
	Characters   []Character   `json:"characters,omitempty"`
}

// DevGenerateJournalRequest is the body for POST /v1/dev/generate-journal.
type DevGenerateJournalRequest struct {
	OwnerID int64 `json:"owner_id"`
	// PartyIDs are the characters the generated rows are paid to; defaults
	// to the owner.
	PartyIDs []int64 `json:"party_ids,omitempty"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Count    int     `json:"count"`
	// Seed makes the output reproducible; 0 picks one from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// DevInsertResponse is returned by every dev tools write.
type DevInsertResponse struct {
	Success  bool   `json:"success"`
	Inserted int    `json:"inserted"`
	Message  string `json:"message"`
}

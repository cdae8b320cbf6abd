package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Entity directory, journal and mining over PostgREST
// ============================================================

// pageSize bounds a single PostgREST response.
const pageSize = 1000

type characterRow struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	MainID        *int64 `json:"main_id"`
}

func (r characterRow) toDomain() domain.Character {
	c := domain.Character{ID: r.ID, Name: r.Name, CorporationID: r.CorporationID, MainID: r.ID}
	if r.MainID != nil && *r.MainID != 0 {
		c.MainID = *r.MainID
	}
	return c
}

type corporationRow struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Ticker     string `json:"ticker"`
	AllianceID *int64 `json:"alliance_id"`
}

type allianceRow struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

type idRow struct {
	ID int64 `json:"id"`
}

type journalRow struct {
	OwnerID       int64           `json:"owner_id"`
	EntryID       int64           `json:"entry_id"`
	Division      int             `json:"division"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	RefType       string          `json:"ref_type"`
	FirstPartyID  int64           `json:"first_party_id"`
	SecondPartyID int64           `json:"second_party_id"`
	Reason        string          `json:"reason"`
	Description   string          `json:"description"`
	Tax           decimal.Decimal `json:"tax"`
}

type miningRow struct {
	ID          int64           `json:"id"`
	CharacterID int64           `json:"character_id"`
	TypeID      int64           `json:"type_id"`
	Date        time.Time       `json:"date"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// getRows GETs path and decodes the JSON array into out. A nil body leaves
// out untouched.
func (c *Client) getRows(ctx context.Context, service, path string, out any) error {
	return c.call(ctx, service, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil || body == nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s: %w", service, err)
		}
		return nil
	})
}

func (c *Client) getCharacterRow(ctx context.Context, characterID int64) (*characterRow, error) {
	var rows []characterRow
	path := fmt.Sprintf("characters?id=eq.%d&limit=1", characterID)
	if err := c.getRows(ctx, "supabase/characters", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "character", ID: strconv.FormatInt(characterID, 10)}
	}
	return &rows[0], nil
}

func (c *Client) listByMain(ctx context.Context, mainID int64) ([]domain.Character, error) {
	var rows []characterRow
	path := fmt.Sprintf("characters?or=(id.eq.%d,main_id.eq.%d)&order=id.asc", mainID, mainID)
	if err := c.getRows(ctx, "supabase/characters", path, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Character, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) GetCharacter(ctx context.Context, characterID int64) (*domain.Character, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCharacter")
	defer span.End()
	span.SetAttributes(attribute.Int64("character.id", characterID))

	row, err := c.getCharacterRow(ctx, characterID)
	if err != nil {
		return nil, err
	}
	ch := row.toDomain()

	linked, err := c.listByMain(ctx, ch.MainID)
	if err != nil {
		return nil, err
	}
	for _, l := range linked {
		if l.ID != ch.ID {
			ch.AltIDs = append(ch.AltIDs, l.ID)
		}
	}
	return &ch, nil
}

func (c *Client) ListLinkedCharacters(ctx context.Context, characterID int64) ([]domain.Character, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLinkedCharacters")
	defer span.End()

	row, err := c.getCharacterRow(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return c.listByMain(ctx, row.toDomain().MainID)
}

func (c *Client) ListCorporationMembers(ctx context.Context, corporationID int64) ([]domain.Character, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCorporationMembers")
	defer span.End()
	span.SetAttributes(attribute.Int64("corporation.id", corporationID))

	var rows []characterRow
	path := fmt.Sprintf("characters?corporation_id=eq.%d&order=id.asc", corporationID)
	if err := c.getRows(ctx, "supabase/characters", path, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Character, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) ListRegisteredCharacterIDs(ctx context.Context) ([]int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRegisteredCharacterIDs")
	defer span.End()

	return c.listIDs(ctx, "characters?select=id&order=id.asc")
}

func (c *Client) listIDs(ctx context.Context, path string) ([]int64, error) {
	var rows []idRow
	if err := c.getRows(ctx, "supabase/ids", path, &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (c *Client) GetCorporation(ctx context.Context, corporationID int64) (*domain.Corporation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCorporation")
	defer span.End()
	span.SetAttributes(attribute.Int64("corporation.id", corporationID))

	var rows []corporationRow
	path := fmt.Sprintf("corporations?id=eq.%d&limit=1", corporationID)
	if err := c.getRows(ctx, "supabase/corporations", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "corporation", ID: strconv.FormatInt(corporationID, 10)}
	}

	r := rows[0]
	corp := &domain.Corporation{ID: r.ID, Name: r.Name, Ticker: r.Ticker}
	if r.AllianceID != nil {
		corp.AllianceID = *r.AllianceID
	}
	members, err := c.listIDs(ctx, fmt.Sprintf("characters?select=id&corporation_id=eq.%d&order=id.asc", corporationID))
	if err != nil {
		return nil, err
	}
	corp.MemberIDs = members
	return corp, nil
}

func (c *Client) GetAlliance(ctx context.Context, allianceID int64) (*domain.Alliance, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAlliance")
	defer span.End()
	span.SetAttributes(attribute.Int64("alliance.id", allianceID))

	var rows []allianceRow
	path := fmt.Sprintf("alliances?id=eq.%d&limit=1", allianceID)
	if err := c.getRows(ctx, "supabase/alliances", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "alliance", ID: strconv.FormatInt(allianceID, 10)}
	}

	a := &domain.Alliance{ID: rows[0].ID, Name: rows[0].Name, Ticker: rows[0].Ticker}
	corps, err := c.listIDs(ctx, fmt.Sprintf("corporations?select=id&alliance_id=eq.%d&order=id.asc", allianceID))
	if err != nil {
		return nil, err
	}
	a.CorporationIDs = corps
	return a, nil
}

// ListJournal pages through wallet_journal for the owners and window.
func (c *Client) ListJournal(ctx context.Context, q domain.JournalQuery) ([]domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListJournal")
	defer span.End()
	span.SetAttributes(attribute.Int("owners", len(q.OwnerIDs)))

	if len(q.OwnerIDs) == 0 {
		return nil, nil
	}
	base := fmt.Sprintf("wallet_journal?owner_id=%s&%s&order=date.asc,entry_id.asc,owner_id.asc",
		inFilter(q.OwnerIDs), rangeFilter("date", q.From, q.To))

	var out []domain.TransactionRecord
	for offset := 0; ; offset += pageSize {
		var rows []journalRow
		path := fmt.Sprintf("%s&limit=%d&offset=%d", base, pageSize, offset)
		if err := c.getRows(ctx, "supabase/wallet_journal", path, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, domain.TransactionRecord{
				EntryID:       r.EntryID,
				OwnerID:       r.OwnerID,
				Division:      r.Division,
				Date:          r.Date.UTC(),
				Amount:        r.Amount,
				Balance:       r.Balance,
				RefType:       strings.ToLower(r.RefType),
				FirstPartyID:  r.FirstPartyID,
				SecondPartyID: r.SecondPartyID,
				Reason:        r.Reason,
				Description:   r.Description,
				Tax:           r.Tax,
			})
		}
		if len(rows) < pageSize {
			break
		}
	}

	c.logger.Debug("supabase: journal loaded", zap.Int("rows", len(out)), zap.Int("owners", len(q.OwnerIDs)))
	return out, nil
}

// ListMining pages through mining_ledger for the characters and window.
func (c *Client) ListMining(ctx context.Context, q domain.MiningQuery) ([]domain.MiningRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMining")
	defer span.End()

	if len(q.CharacterIDs) == 0 {
		return nil, nil
	}
	base := fmt.Sprintf("mining_ledger?character_id=%s&%s&order=date.asc,id.asc",
		inFilter(q.CharacterIDs), rangeFilter("date", q.From, q.To))

	var out []domain.MiningRecord
	for offset := 0; ; offset += pageSize {
		var rows []miningRow
		path := fmt.Sprintf("%s&limit=%d&offset=%d", base, pageSize, offset)
		if err := c.getRows(ctx, "supabase/mining_ledger", path, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, domain.MiningRecord{
				ID:          r.ID,
				CharacterID: r.CharacterID,
				TypeID:      r.TypeID,
				Date:        r.Date.UTC(),
				Quantity:    r.Quantity,
				Price:       r.Price,
				Total:       r.Total,
			})
		}
		if len(rows) < pageSize {
			break
		}
	}
	return out, nil
}

// ============================================================
// Writers (dev tools)
// ============================================================

func (c *Client) InsertJournal(ctx context.Context, records []domain.TransactionRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertJournal")
	defer span.End()

	rows := make([]journalRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, journalRow{
			OwnerID: r.OwnerID, EntryID: r.EntryID, Division: r.Division, Date: r.Date.UTC(),
			Amount: r.Amount, Balance: r.Balance, RefType: strings.ToLower(r.RefType),
			FirstPartyID: r.FirstPartyID, SecondPartyID: r.SecondPartyID,
			Reason: r.Reason, Description: r.Description, Tax: r.Tax,
		})
	}
	return c.call(ctx, "supabase/wallet_journal", func() error {
		return c.doPost(ctx, "wallet_journal", rows, preferIgnoreDuplicates)
	})
}

func (c *Client) InsertMining(ctx context.Context, records []domain.MiningRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertMining")
	defer span.End()

	rows := make([]miningRow, 0, len(records))
	for _, m := range records {
		rows = append(rows, miningRow(m))
	}
	return c.call(ctx, "supabase/mining_ledger", func() error {
		return c.doPost(ctx, "mining_ledger", rows, preferMergeDuplicates)
	})
}

func (c *Client) UpsertCharacters(ctx context.Context, chars []domain.Character) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertCharacters")
	defer span.End()

	rows := make([]characterRow, 0, len(chars))
	for _, ch := range chars {
		r := characterRow{ID: ch.ID, Name: ch.Name, CorporationID: ch.CorporationID}
		if ch.MainID != 0 && ch.MainID != ch.ID {
			mainID := ch.MainID
			r.MainID = &mainID
		}
		rows = append(rows, r)
	}
	return c.call(ctx, "supabase/characters", func() error {
		return c.doPost(ctx, "characters", rows, preferMergeDuplicates)
	})
}

func (c *Client) UpsertCorporations(ctx context.Context, corps []domain.Corporation) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertCorporations")
	defer span.End()

	rows := make([]corporationRow, 0, len(corps))
	for _, corp := range corps {
		r := corporationRow{ID: corp.ID, Name: corp.Name, Ticker: corp.Ticker}
		if corp.AllianceID != 0 {
			allianceID := corp.AllianceID
			r.AllianceID = &allianceID
		}
		rows = append(rows, r)
	}
	return c.call(ctx, "supabase/corporations", func() error {
		return c.doPost(ctx, "corporations", rows, preferMergeDuplicates)
	})
}

func (c *Client) UpsertAlliances(ctx context.Context, alliances []domain.Alliance) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertAlliances")
	defer span.End()

	rows := make([]allianceRow, 0, len(alliances))
	for _, a := range alliances {
		rows = append(rows, allianceRow{ID: a.ID, Name: a.Name, Ticker: a.Ticker})
	}
	return c.call(ctx, "supabase/alliances", func() error {
		return c.doPost(ctx, "alliances", rows, preferMergeDuplicates)
	})
}

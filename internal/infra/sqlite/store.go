// Package sqlite is the embedded journal store: characters, corporations,
// alliances, wallet journal and mining ledger in one SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// timeLayout is fixed width so lexicographic order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var tracer = otel.Tracer("sqlite")

// Store implements port.LedgerStore and port.Seeder.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer; readers share the connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite store ready", zap.String("path", dbPath))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func unavailable(op string, err error) error {
	return &domain.ErrUnavailable{Resource: "sqlite/" + op, Err: err}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// placeholders returns "?, ?, ?" and the args for an IN clause.
func placeholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

// ============================================================
// Entity directory
// ============================================================

func (s *Store) GetCharacter(ctx context.Context, characterID int64) (*domain.Character, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetCharacter")
	defer span.End()
	span.SetAttributes(attribute.Int64("character.id", characterID))

	var c domain.Character
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, corporation_id, main_id FROM characters WHERE id = ?`, characterID,
	).Scan(&c.ID, &c.Name, &c.CorporationID, &c.MainID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "character", ID: strconv.FormatInt(characterID, 10)}
	}
	if err != nil {
		return nil, unavailable("characters", err)
	}
	if c.MainID == 0 {
		c.MainID = c.ID
	}

	linked, err := s.listByMain(ctx, c.MainID)
	if err != nil {
		return nil, err
	}
	for _, l := range linked {
		if l.ID != c.ID {
			c.AltIDs = append(c.AltIDs, l.ID)
		}
	}
	return &c, nil
}

func (s *Store) ListLinkedCharacters(ctx context.Context, characterID int64) ([]domain.Character, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListLinkedCharacters")
	defer span.End()

	c, err := s.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return s.listByMain(ctx, c.MainID)
}

func (s *Store) listByMain(ctx context.Context, mainID int64) ([]domain.Character, error) {
	return s.queryCharacters(ctx,
		`SELECT id, name, corporation_id, main_id FROM characters
		 WHERE id = ? OR main_id = ? ORDER BY id`, mainID, mainID)
}

func (s *Store) ListCorporationMembers(ctx context.Context, corporationID int64) ([]domain.Character, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListCorporationMembers")
	defer span.End()
	span.SetAttributes(attribute.Int64("corporation.id", corporationID))

	return s.queryCharacters(ctx,
		`SELECT id, name, corporation_id, main_id FROM characters
		 WHERE corporation_id = ? ORDER BY id`, corporationID)
}

func (s *Store) queryCharacters(ctx context.Context, query string, args ...any) ([]domain.Character, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("characters", err)
	}
	defer rows.Close()

	var out []domain.Character
	for rows.Next() {
		var c domain.Character
		if err := rows.Scan(&c.ID, &c.Name, &c.CorporationID, &c.MainID); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		if c.MainID == 0 {
			c.MainID = c.ID
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("characters", err)
	}
	return out, nil
}

func (s *Store) ListRegisteredCharacterIDs(ctx context.Context) ([]int64, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListRegisteredCharacterIDs")
	defer span.End()

	return s.queryIDs(ctx, `SELECT id FROM characters ORDER BY id`)
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("ids", err)
	}
	return ids, nil
}

func (s *Store) GetCorporation(ctx context.Context, corporationID int64) (*domain.Corporation, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetCorporation")
	defer span.End()
	span.SetAttributes(attribute.Int64("corporation.id", corporationID))

	var (
		c          domain.Corporation
		allianceID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, ticker, alliance_id FROM corporations WHERE id = ?`, corporationID,
	).Scan(&c.ID, &c.Name, &c.Ticker, &allianceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "corporation", ID: strconv.FormatInt(corporationID, 10)}
	}
	if err != nil {
		return nil, unavailable("corporations", err)
	}
	c.AllianceID = allianceID.Int64

	c.MemberIDs, err = s.queryIDs(ctx, `SELECT id FROM characters WHERE corporation_id = ? ORDER BY id`, corporationID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetAlliance(ctx context.Context, allianceID int64) (*domain.Alliance, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetAlliance")
	defer span.End()
	span.SetAttributes(attribute.Int64("alliance.id", allianceID))

	var a domain.Alliance
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, ticker FROM alliances WHERE id = ?`, allianceID,
	).Scan(&a.ID, &a.Name, &a.Ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "alliance", ID: strconv.FormatInt(allianceID, 10)}
	}
	if err != nil {
		return nil, unavailable("alliances", err)
	}

	a.CorporationIDs, err = s.queryIDs(ctx, `SELECT id FROM corporations WHERE alliance_id = ? ORDER BY id`, allianceID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ============================================================
// Journal & mining
// ============================================================

func (s *Store) ListJournal(ctx context.Context, q domain.JournalQuery) ([]domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListJournal")
	defer span.End()
	span.SetAttributes(attribute.Int("owners", len(q.OwnerIDs)))

	if len(q.OwnerIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(q.OwnerIDs)
	args = append(args, formatTime(q.From), formatTime(q.To))

	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id, entry_id, division, date, amount, balance, ref_type,
		        first_party_id, second_party_id, reason, description, tax
		 FROM journal
		 WHERE owner_id IN (`+in+`) AND date >= ? AND date < ?
		 ORDER BY date, entry_id, owner_id`, args...)
	if err != nil {
		return nil, unavailable("journal", err)
	}
	defer rows.Close()

	var out []domain.TransactionRecord
	for rows.Next() {
		var (
			r                    domain.TransactionRecord
			date                 string
			amount, balance, tax string
		)
		if err := rows.Scan(&r.OwnerID, &r.EntryID, &r.Division, &date, &amount, &balance, &r.RefType,
			&r.FirstPartyID, &r.SecondPartyID, &r.Reason, &r.Description, &tax); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if r.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("journal entry %d: %w", r.EntryID, err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("journal entry %d amount: %w", r.EntryID, err)
		}
		// informational columns degrade to zero
		r.Balance, _ = decimal.NewFromString(balance)
		r.Tax, _ = decimal.NewFromString(tax)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("journal", err)
	}

	s.logger.Debug("sqlite: journal loaded", zap.Int("rows", len(out)), zap.Int("owners", len(q.OwnerIDs)))
	return out, nil
}

func (s *Store) ListMining(ctx context.Context, q domain.MiningQuery) ([]domain.MiningRecord, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListMining")
	defer span.End()

	if len(q.CharacterIDs) == 0 {
		return nil, nil
	}
	in, args := placeholders(q.CharacterIDs)
	args = append(args, formatTime(q.From), formatTime(q.To))

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, character_id, type_id, date, quantity, price, total
		 FROM mining
		 WHERE character_id IN (`+in+`) AND date >= ? AND date < ?
		 ORDER BY date, id`, args...)
	if err != nil {
		return nil, unavailable("mining", err)
	}
	defer rows.Close()

	var out []domain.MiningRecord
	for rows.Next() {
		var (
			m            domain.MiningRecord
			date         string
			price, total string
		)
		if err := rows.Scan(&m.ID, &m.CharacterID, &m.TypeID, &date, &m.Quantity, &price, &total); err != nil {
			return nil, fmt.Errorf("scan mining row: %w", err)
		}
		if m.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("mining row %d: %w", m.ID, err)
		}
		m.Price, _ = decimal.NewFromString(price)
		m.Total, _ = decimal.NewFromString(total)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("mining", err)
	}
	return out, nil
}

// ============================================================
// Writers (dev tools, tests)
// ============================================================

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("tx", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// InsertJournal stores journal rows. Rows already present (same owner,
// division and entry id) are left untouched; the journal is append-only.
func (s *Store) InsertJournal(ctx context.Context, records []domain.TransactionRecord) error {
	ctx, span := tracer.Start(ctx, "SQLite.InsertJournal")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(records)))

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO journal (owner_id, entry_id, division, date, amount, balance, ref_type,
			     first_party_id, second_party_id, reason, description, tax)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare journal insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.OwnerID, r.EntryID, r.Division, formatTime(r.Date),
				r.Amount.String(), r.Balance.String(), strings.ToLower(r.RefType),
				r.FirstPartyID, r.SecondPartyID, r.Reason, r.Description, r.Tax.String()); err != nil {
				return fmt.Errorf("insert journal entry %d: %w", r.EntryID, err)
			}
		}
		return nil
	})
}

// InsertMining stores mining rows, replacing rows with the same id.
func (s *Store) InsertMining(ctx context.Context, records []domain.MiningRecord) error {
	ctx, span := tracer.Start(ctx, "SQLite.InsertMining")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO mining (id, character_id, type_id, date, quantity, price, total)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare mining insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range records {
			if _, err := stmt.ExecContext(ctx, m.ID, m.CharacterID, m.TypeID, formatTime(m.Date),
				m.Quantity, m.Price.String(), m.Total.String()); err != nil {
				return fmt.Errorf("insert mining row %d: %w", m.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertCharacters(ctx context.Context, chars []domain.Character) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpsertCharacters")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range chars {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO characters (id, name, corporation_id, main_id) VALUES (?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				     corporation_id = excluded.corporation_id, main_id = excluded.main_id`,
				c.ID, c.Name, c.CorporationID, c.MainID); err != nil {
				return fmt.Errorf("upsert character %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertCorporations(ctx context.Context, corps []domain.Corporation) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpsertCorporations")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range corps {
			var alliance any
			if c.AllianceID != 0 {
				alliance = c.AllianceID
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO corporations (id, name, ticker, alliance_id) VALUES (?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				     ticker = excluded.ticker, alliance_id = excluded.alliance_id`,
				c.ID, c.Name, c.Ticker, alliance); err != nil {
				return fmt.Errorf("upsert corporation %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertAlliances(ctx context.Context, alliances []domain.Alliance) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpsertAlliances")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range alliances {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO alliances (id, name, ticker) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name, ticker = excluded.ticker`,
				a.ID, a.Name, a.Ticker); err != nil {
				return fmt.Errorf("upsert alliance %d: %w", a.ID, err)
			}
		}
		return nil
	})
}

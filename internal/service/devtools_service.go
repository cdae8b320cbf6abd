package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var devTracer = otel.Tracer("service/devtools")

// ============================================================
// Dev Tools
// ============================================================

// DevToolsService seeds the store with entities and journal rows while no
// ESI sync is running.
type DevToolsService struct {
	store  port.Seeder
	logger *zap.Logger
}

// NewDevToolsService creates the dev tools service.
func NewDevToolsService(store port.Seeder, logger *zap.Logger) *DevToolsService {
	return &DevToolsService{store: store, logger: logger}
}

// SeedEntities registers alliances, then corporations, then characters so
// foreign keys resolve in order.
func (s *DevToolsService) SeedEntities(ctx context.Context, req *domain.DevEntitiesRequest) (*domain.DevInsertResponse, error) {
	ctx, span := devTracer.Start(ctx, "DevToolsService.SeedEntities")
	defer span.End()

	n := len(req.Alliances) + len(req.Corporations) + len(req.Characters)
	if n == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no entities given"}
	}
	for _, c := range req.Characters {
		if c.ID <= 0 || c.CorporationID <= 0 {
			return nil, &domain.ErrValidation{Field: "characters", Message: "id and corporation_id are required"}
		}
	}

	if len(req.Alliances) > 0 {
		if err := s.store.UpsertAlliances(ctx, req.Alliances); err != nil {
			return nil, fmt.Errorf("upsert alliances: %w", err)
		}
	}
	if len(req.Corporations) > 0 {
		if err := s.store.UpsertCorporations(ctx, req.Corporations); err != nil {
			return nil, fmt.Errorf("upsert corporations: %w", err)
		}
	}
	if len(req.Characters) > 0 {
		if err := s.store.UpsertCharacters(ctx, req.Characters); err != nil {
			return nil, fmt.Errorf("upsert characters: %w", err)
		}
	}

	s.logger.Info("DEV: entities seeded",
		zap.Int("alliances", len(req.Alliances)),
		zap.Int("corporations", len(req.Corporations)),
		zap.Int("characters", len(req.Characters)),
	)
	return &domain.DevInsertResponse{Success: true, Inserted: n, Message: fmt.Sprintf("%d entities upserted", n)}, nil
}

// InsertJournal appends journal rows. Rows already present are ignored.
func (s *DevToolsService) InsertJournal(ctx context.Context, records []domain.TransactionRecord) (*domain.DevInsertResponse, error) {
	ctx, span := devTracer.Start(ctx, "DevToolsService.InsertJournal")
	defer span.End()

	if len(records) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no journal rows given"}
	}
	for _, r := range records {
		if r.EntryID <= 0 || r.OwnerID <= 0 || r.RefType == "" || r.Date.IsZero() {
			return nil, &domain.ErrValidation{Field: "journal", Message: "entry_id, owner_id, ref_type and date are required"}
		}
	}
	if err := s.store.InsertJournal(ctx, records); err != nil {
		return nil, fmt.Errorf("insert journal: %w", err)
	}
	s.logger.Info("DEV: journal rows inserted", zap.Int("rows", len(records)))
	return &domain.DevInsertResponse{Success: true, Inserted: len(records), Message: fmt.Sprintf("%d journal rows inserted", len(records))}, nil
}

// InsertMining appends mining ledger rows.
func (s *DevToolsService) InsertMining(ctx context.Context, records []domain.MiningRecord) (*domain.DevInsertResponse, error) {
	ctx, span := devTracer.Start(ctx, "DevToolsService.InsertMining")
	defer span.End()

	if len(records) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no mining rows given"}
	}
	for _, r := range records {
		if r.ID <= 0 || r.CharacterID <= 0 || r.Date.IsZero() {
			return nil, &domain.ErrValidation{Field: "mining", Message: "id, character_id and date are required"}
		}
	}
	if err := s.store.InsertMining(ctx, records); err != nil {
		return nil, fmt.Errorf("insert mining: %w", err)
	}
	s.logger.Info("DEV: mining rows inserted", zap.Int("rows", len(records)))
	return &domain.DevInsertResponse{Success: true, Inserted: len(records), Message: fmt.Sprintf("%d mining rows inserted", len(records))}, nil
}

// ConcordID is the NPC corporation paying bounties and ESS.
const ConcordID int64 = 1000125

type journalTemplate struct {
	refType string
	cost    bool
	min     int64
	max     int64
}

var journalTemplates = []journalTemplate{
	{"bounty_prizes", false, 100_000, 5_000_000},
	{"bounty_prizes", false, 100_000, 5_000_000},
	{"ess_escrow_transfer", false, 50_000, 1_000_000},
	{"agent_mission_reward", false, 200_000, 2_000_000},
	{"market_transaction", false, 1_000_000, 50_000_000},
	{"market_transaction", true, 1_000_000, 50_000_000},
	{"brokers_fee", true, 10_000, 500_000},
	{"transaction_tax", true, 10_000, 500_000},
	{"industry_job_tax", true, 5_000, 200_000},
	{"planetary_export_tax", true, 5_000, 100_000},
}

// GenerateJournal writes random but plausible journal rows across one month.
// Entry ids start from the generation time so repeated calls do not collide.
func (s *DevToolsService) GenerateJournal(ctx context.Context, req *domain.DevGenerateJournalRequest) (*domain.DevInsertResponse, error) {
	ctx, span := devTracer.Start(ctx, "DevToolsService.GenerateJournal")
	defer span.End()

	if req.OwnerID <= 0 {
		return nil, &domain.ErrValidation{Field: "owner_id", Message: "required"}
	}
	if req.Count <= 0 || req.Count > 1000 {
		return nil, &domain.ErrValidation{Field: "count", Message: "must be between 1 and 1000"}
	}
	p := domain.Period{Year: req.Year, Month: req.Month}
	if req.Month == 0 {
		return nil, &domain.ErrValidation{Field: "month", Message: "required"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	parties := req.PartyIDs
	if len(parties) == 0 {
		parties = []int64{req.OwnerID}
	}

	from, to := p.Range()
	span64 := int64(to.Sub(from) / time.Second)
	base := time.Now().UnixNano() / int64(time.Microsecond)

	records := make([]domain.TransactionRecord, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		tpl := journalTemplates[rng.Intn(len(journalTemplates))]
		amount := decimal.NewFromInt(tpl.min + rng.Int63n(tpl.max-tpl.min)).Add(decimal.New(int64(rng.Intn(100)), -2))
		if tpl.cost {
			amount = amount.Neg()
		}
		party := parties[rng.Intn(len(parties))]

		rec := domain.TransactionRecord{
			EntryID:       base + int64(i),
			OwnerID:       req.OwnerID,
			Date:          from.Add(time.Duration(rng.Int63n(span64)) * time.Second),
			Amount:        amount,
			RefType:       tpl.refType,
			FirstPartyID:  ConcordID,
			SecondPartyID: party,
			Description:   "generated",
		}
		if tpl.cost {
			rec.FirstPartyID, rec.SecondPartyID = party, ConcordID
		}
		records = append(records, rec)
	}

	if err := s.store.InsertJournal(ctx, records); err != nil {
		return nil, fmt.Errorf("insert generated journal: %w", err)
	}

	s.logger.Info("DEV: journal generated",
		zap.Int64("owner_id", req.OwnerID),
		zap.String("period", p.String()),
		zap.Int("generated", len(records)),
		zap.Int64("seed", seed),
	)
	return &domain.DevInsertResponse{
		Success:  true,
		Inserted: len(records),
		Message:  fmt.Sprintf("%d journal rows generated for %s", len(records), p),
	}, nil
}

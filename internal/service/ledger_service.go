package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/billboard"
	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corp-ledger-go/internal/infra/resilience"
	"github.com/boddenberg/corp-ledger-go/internal/ledger"
	"github.com/boddenberg/corp-ledger-go/internal/ledgercache"
	"github.com/boddenberg/corp-ledger-go/internal/port"
	"github.com/boddenberg/corp-ledger-go/internal/taxonomy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/ledger")

// Config holds the ledger parameters read from the environment.
type Config struct {
	TaxRate        decimal.Decimal
	LegacyESS      ledger.LegacyESS
	ChordMaxEdges  int
	Cache          ledgercache.Config
	MaxConcurrency int
	// Now is the clock used for day counts; nil means time.Now.
	Now func() time.Time
}

// LedgerService resolves an entity, loads its journal and runs the ledger
// and billboard engines behind the fingerprint cache.
type LedgerService struct {
	store    port.LedgerStore
	ledgers  *ledgercache.Manager[*domain.LedgerReport]
	boards   *ledgercache.Manager[*domain.BillboardReport]
	bulkhead *resilience.Bulkhead
	cfg      Config
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewLedgerService creates the ledger service with all dependencies injected.
func NewLedgerService(
	store port.LedgerStore,
	kv port.KeyValueStore,
	cfg Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LedgerService {
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = ledger.DefaultCorpTaxRate
	}
	if cfg.ChordMaxEdges <= 0 {
		cfg.ChordMaxEdges = billboard.DefaultMaxEdges
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LedgerService{
		store:    store,
		ledgers:  ledgercache.NewManager[*domain.LedgerReport](kv, observability.CacheLedger, cfg.Cache),
		boards:   ledgercache.NewManager[*domain.BillboardReport](kv, observability.CacheBillboard, cfg.Cache),
		bulkhead: resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// Ledgers
// ============================================================

// CharacterLedger returns the ledger of a character account.
func (s *LedgerService) CharacterLedger(ctx context.Context, characterID int64, p domain.Period) (*domain.LedgerReport, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.CharacterLedger")
	defer span.End()
	span.SetAttributes(attribute.Int64("character.id", characterID), attribute.String("period", p.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc, err := s.characterScope(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return s.ledger(ctx, sc, p)
}

// CorporationLedger returns the ledger of a corporation, one line per member
// account plus the unknown bucket.
func (s *LedgerService) CorporationLedger(ctx context.Context, corporationID int64, p domain.Period) (*domain.LedgerReport, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.CorporationLedger")
	defer span.End()
	span.SetAttributes(attribute.Int64("corporation.id", corporationID), attribute.String("period", p.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc, err := s.corporationScope(ctx, corporationID)
	if err != nil {
		return nil, err
	}
	return s.ledger(ctx, sc, p)
}

// AllianceLedger returns the ledger of an alliance, one line per member
// corporation plus the unknown bucket.
func (s *LedgerService) AllianceLedger(ctx context.Context, allianceID int64, p domain.Period) (*domain.LedgerReport, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.AllianceLedger")
	defer span.End()
	span.SetAttributes(attribute.Int64("alliance.id", allianceID), attribute.String("period", p.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc, err := s.allianceScope(ctx, allianceID)
	if err != nil {
		return nil, err
	}
	return s.ledger(ctx, sc, p)
}

func (s *LedgerService) ledger(ctx context.Context, sc *scope, p domain.Period) (*domain.LedgerReport, error) {
	in, err := s.load(ctx, sc, p)
	if err != nil {
		return nil, err
	}

	key := cacheKey(sc, p)
	if cached, ok := s.ledgers.Get(in.fingerprint, key); ok {
		s.metrics.IncrCacheHit(observability.CacheLedger)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(observability.CacheLedger)

	var report *domain.LedgerReport
	start := time.Now()
	err = s.bulkhead.Do(ctx, func() error {
		res, err := ledger.Aggregate(in.records, in.mining, sc.subjects, in.opts)
		if err != nil {
			return err
		}
		report = &domain.LedgerReport{
			ReportID:    uuid.New().String(),
			GeneratedAt: s.cfg.Now().UTC(),
			Fingerprint: in.fingerprint.String(),
			View:        sc.view,
			EntityID:    sc.entityID,
			EntityName:  sc.entityName,
			Period:      p,
			DayCount:    res.DayCount,
			Entities:    res.Entities,
			Totals:      res.Totals,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build %s ledger: %w", sc.view, err)
	}
	s.metrics.RecordBuildDuration("ledger_"+string(sc.view), time.Since(start))

	if s.ledgers.Set(in.fingerprint, key, report) {
		s.metrics.IncrCacheStore(observability.CacheLedger)
	}
	s.logger.Debug("ledger built",
		zap.String("view", string(sc.view)),
		zap.Int64("entity_id", sc.entityID),
		zap.String("period", p.String()),
		zap.Int("records", len(in.records)),
		zap.Int("entities", len(report.Entities)),
	)
	return report, nil
}

// ============================================================
// Billboards
// ============================================================

// CharacterBillboard returns the chart payloads of a character account,
// mining series included.
func (s *LedgerService) CharacterBillboard(ctx context.Context, characterID int64, p domain.Period) (*domain.BillboardReport, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.CharacterBillboard")
	defer span.End()
	span.SetAttributes(attribute.Int64("character.id", characterID), attribute.String("period", p.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc, err := s.characterScope(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return s.billboard(ctx, sc, p)
}

// CorporationBillboard returns the chart payloads of a corporation.
func (s *LedgerService) CorporationBillboard(ctx context.Context, corporationID int64, p domain.Period) (*domain.BillboardReport, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.CorporationBillboard")
	defer span.End()
	span.SetAttributes(attribute.Int64("corporation.id", corporationID), attribute.String("period", p.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc, err := s.corporationScope(ctx, corporationID)
	if err != nil {
		return nil, err
	}
	return s.billboard(ctx, sc, p)
}

// AllianceBillboard returns the chart payloads of an alliance.
func (s *LedgerService) AllianceBillboard(ctx context.Context, allianceID int64, p domain.Period) (*domain.BillboardReport, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.AllianceBillboard")
	defer span.End()
	span.SetAttributes(attribute.Int64("alliance.id", allianceID), attribute.String("period", p.String()))

	if err := p.Validate(); err != nil {
		return nil, err
	}
	sc, err := s.allianceScope(ctx, allianceID)
	if err != nil {
		return nil, err
	}
	return s.billboard(ctx, sc, p)
}

func (s *LedgerService) billboard(ctx context.Context, sc *scope, p domain.Period) (*domain.BillboardReport, error) {
	in, err := s.load(ctx, sc, p)
	if err != nil {
		return nil, err
	}

	key := cacheKey(sc, p)
	if cached, ok := s.boards.Get(in.fingerprint, key); ok {
		s.metrics.IncrCacheHit(observability.CacheBillboard)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(observability.CacheBillboard)

	var report *domain.BillboardReport
	start := time.Now()
	err = s.bulkhead.Do(ctx, func() error {
		res, err := billboard.Build(billboard.Input{
			Records:       in.records,
			Mining:        in.mining,
			Subjects:      sc.subjects,
			Options:       in.opts,
			IncludeMining: sc.view == domain.ViewCharacter,
		}, s.cfg.ChordMaxEdges)
		if err != nil {
			return err
		}
		report = &domain.BillboardReport{
			ReportID:    uuid.New().String(),
			GeneratedAt: s.cfg.Now().UTC(),
			Fingerprint: in.fingerprint.String(),
			View:        sc.view,
			EntityID:    sc.entityID,
			Period:      p,
			Granularity: string(res.Granularity),
			XY:          res.XY,
			Chord:       res.Chord,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build %s billboard: %w", sc.view, err)
	}
	s.metrics.RecordBuildDuration("billboard_"+string(sc.view), time.Since(start))

	if s.boards.Set(in.fingerprint, key, report) {
		s.metrics.IncrCacheStore(observability.CacheBillboard)
	}
	return report, nil
}

// ============================================================
// Shared plumbing
// ============================================================

type loaded struct {
	records     []domain.TransactionRecord
	mining      []domain.MiningRecord
	opts        ledger.Options
	fingerprint ledgercache.Fingerprint
}

// load fetches the journal, the mining ledger and the registered characters
// concurrently, then derives the engine options and the fingerprint.
func (s *LedgerService) load(ctx context.Context, sc *scope, p domain.Period) (*loaded, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.load")
	defer span.End()

	from, to := p.Range()
	var (
		records    []domain.TransactionRecord
		mining     []domain.MiningRecord
		registered []int64
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.store.ListJournal(gCtx, domain.JournalQuery{OwnerIDs: sc.owners, From: from, To: to})
		if err != nil {
			s.logger.Error("failed to fetch journal",
				zap.String("view", string(sc.view)),
				zap.Int64("entity_id", sc.entityID),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("journal")
			return fmt.Errorf("journal fetch: %w", err)
		}
		records = r
		return nil
	})

	if len(sc.miners) > 0 {
		g.Go(func() error {
			m, err := s.store.ListMining(gCtx, domain.MiningQuery{CharacterIDs: sc.miners, From: from, To: to})
			if err != nil {
				s.logger.Error("failed to fetch mining ledger",
					zap.Int64("entity_id", sc.entityID),
					zap.Error(err),
				)
				s.metrics.IncrExternalError("mining")
				return fmt.Errorf("mining fetch: %w", err)
			}
			mining = m
			return nil
		})
	}

	g.Go(func() error {
		ids, err := s.store.ListRegisteredCharacterIDs(gCtx)
		if err != nil {
			s.logger.Error("failed to fetch registered characters", zap.Error(err))
			s.metrics.IncrExternalError("directory")
			return fmt.Errorf("registered characters: %w", err)
		}
		registered = ids
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.AddRecords("journal", len(records))
	s.metrics.AddRecords("mining", len(mining))

	opts := ledger.Options{
		View:       sc.view,
		Period:     p,
		Now:        s.cfg.Now(),
		TaxRate:    s.cfg.TaxRate,
		ViewerIDs:  sc.viewer,
		AccountIDs: domain.NewIDSet(registered...),
		LegacyESS:  s.cfg.LegacyESS,
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	entryIDs := make([]int64, len(records))
	for i, rec := range records {
		entryIDs[i] = rec.EntryID
	}
	miningIDs := make([]int64, len(mining))
	for i, m := range mining {
		miningIDs[i] = m.ID
	}

	fp := ledgercache.Compute(entryIDs,
		string(sc.view),
		strconv.FormatInt(sc.entityID, 10),
		p.String(),
		opts.TaxRate.String(),
		s.cfg.LegacyESS.Cutoff.String(),
		s.cfg.LegacyESS.Ratio.String(),
		strconv.Itoa(ledger.DayCount(p, opts.Now)),
		ledgercache.Compute(miningIDs).String(),
		ledgercache.Compute(registered).String(),
	)

	return &loaded{records: records, mining: mining, opts: opts, fingerprint: fp}, nil
}

func cacheKey(sc *scope, p domain.Period) string {
	return fmt.Sprintf("%s:%d:%s", sc.view, sc.entityID, p)
}

// ============================================================
// Reference data & health
// ============================================================

// Categories lists the taxonomy, PvE categories first.
func (s *LedgerService) Categories() []domain.CategoryInfo {
	cats := append(taxonomy.PvECategories(), taxonomy.Categories()...)
	out := make([]domain.CategoryInfo, 0, len(cats))
	for _, c := range cats {
		codes := c.RefTypes()
		refs := make([]string, len(codes))
		for i, code := range codes {
			refs[i] = string(code)
		}
		out = append(out, domain.CategoryInfo{
			Name:     string(c),
			Label:    c.Label(),
			PvE:      c.IsPvE(),
			RefTypes: refs,
		})
	}
	return out
}

// Health pings the store and reports the overall status.
func (s *LedgerService) Health(ctx context.Context) domain.HealthStatus {
	ctx, span := tracer.Start(ctx, "LedgerService.Health")
	defer span.End()

	now := s.cfg.Now().UTC().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "ledger-api", Status: "healthy", LastChecked: now},
	}

	start := time.Now()
	status := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", zap.Error(err))
		status = "unhealthy"
	}
	services = append(services, domain.ServiceHealth{
		Name:        "store",
		Status:      status,
		LatencyMs:   time.Since(start).Milliseconds(),
		LastChecked: now,
	})

	return domain.HealthStatus{Status: status, Services: services}
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/service"

	"go.uber.org/zap"
)

type fakeSeeder struct {
	journal []domain.TransactionRecord
	mining  []domain.MiningRecord
	order   []string
	err     error
}

func (f *fakeSeeder) InsertJournal(_ context.Context, r []domain.TransactionRecord) error {
	f.journal = append(f.journal, r...)
	return f.err
}

func (f *fakeSeeder) InsertMining(_ context.Context, r []domain.MiningRecord) error {
	f.mining = append(f.mining, r...)
	return f.err
}

func (f *fakeSeeder) UpsertCharacters(_ context.Context, _ []domain.Character) error {
	f.order = append(f.order, "characters")
	return f.err
}

func (f *fakeSeeder) UpsertCorporations(_ context.Context, _ []domain.Corporation) error {
	f.order = append(f.order, "corporations")
	return f.err
}

func (f *fakeSeeder) UpsertAlliances(_ context.Context, _ []domain.Alliance) error {
	f.order = append(f.order, "alliances")
	return f.err
}

func TestSeedEntities_Order(t *testing.T) {
	seeder := &fakeSeeder{}
	svc := service.NewDevToolsService(seeder, zap.NewNop())

	resp, err := svc.SeedEntities(context.Background(), &domain.DevEntitiesRequest{
		Characters:   []domain.Character{{ID: 1, Name: "Main", CorporationID: 98000001}},
		Corporations: []domain.Corporation{{ID: 98000001, Name: "Alpha"}},
		Alliances:    []domain.Alliance{{ID: 99000001, Name: "TA"}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Inserted != 3 {
		t.Errorf("expected 3 inserted, got %d", resp.Inserted)
	}
	want := []string{"alliances", "corporations", "characters"}
	for i, w := range want {
		if seeder.order[i] != w {
			t.Errorf("step %d: expected %s, got %s", i, w, seeder.order[i])
		}
	}
}

func TestSeedEntities_Validation(t *testing.T) {
	svc := service.NewDevToolsService(&fakeSeeder{}, zap.NewNop())
	var ve *domain.ErrValidation

	if _, err := svc.SeedEntities(context.Background(), &domain.DevEntitiesRequest{}); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for an empty body, got %v", err)
	}
	_, err := svc.SeedEntities(context.Background(), &domain.DevEntitiesRequest{
		Characters: []domain.Character{{ID: 1}},
	})
	if !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for a character without corporation, got %v", err)
	}
}

func TestInsertJournal_RejectsIncompleteRows(t *testing.T) {
	seeder := &fakeSeeder{}
	svc := service.NewDevToolsService(seeder, zap.NewNop())

	_, err := svc.InsertJournal(context.Background(), []domain.TransactionRecord{{EntryID: 1, OwnerID: 1}})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(seeder.journal) != 0 {
		t.Error("expected nothing written")
	}
}

func TestInsertMining_StoreErrorWrapped(t *testing.T) {
	seeder := &fakeSeeder{err: &domain.ErrUnavailable{Resource: "sqlite", Err: errors.New("locked")}}
	svc := service.NewDevToolsService(seeder, zap.NewNop())

	_, err := svc.InsertMining(context.Background(), []domain.MiningRecord{
		{ID: 1, CharacterID: 1, Date: time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)},
	})
	var ue *domain.ErrUnavailable
	if !errors.As(err, &ue) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGenerateJournal_Reproducible(t *testing.T) {
	req := &domain.DevGenerateJournalRequest{OwnerID: 1, PartyIDs: []int64{1, 2}, Year: 2025, Month: 8, Count: 50, Seed: 7}

	a, b := &fakeSeeder{}, &fakeSeeder{}
	if _, err := service.NewDevToolsService(a, zap.NewNop()).GenerateJournal(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := service.NewDevToolsService(b, zap.NewNop()).GenerateJournal(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if len(a.journal) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(a.journal))
	}

	from := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	for i, r := range a.journal {
		if r.Date.Before(from) || !r.Date.Before(to) {
			t.Errorf("row %d outside the month: %s", i, r.Date)
		}
		if r.RefType != b.journal[i].RefType || !r.Amount.Equal(b.journal[i].Amount) {
			t.Errorf("row %d differs between runs with the same seed", i)
		}
		if r.Amount.IsZero() {
			t.Errorf("row %d has a zero amount", i)
		}
	}
}

func TestGenerateJournal_Validation(t *testing.T) {
	svc := service.NewDevToolsService(&fakeSeeder{}, zap.NewNop())
	cases := []domain.DevGenerateJournalRequest{
		{Year: 2025, Month: 8, Count: 1},
		{OwnerID: 1, Year: 2025, Month: 8},
		{OwnerID: 1, Year: 2025, Count: 1},
		{OwnerID: 1, Year: 2025, Month: 13, Count: 1},
	}
	for i, c := range cases {
		var ve *domain.ErrValidation
		if _, err := svc.GenerateJournal(context.Background(), &c); !errors.As(err, &ve) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

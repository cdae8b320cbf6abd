// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the ledger engines
// and the service layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
)

// KeyValueStore is the cache backend the ledger cache manager writes to.
// A ttl <= 0 stores the value without expiry.
type KeyValueStore interface {
	Get(key string) (any, bool)
	SetWithTTL(key string, value any, ttl time.Duration)
	Delete(key string)
}

// EntityDirectory resolves characters, corporations and alliances.
type EntityDirectory interface {
	GetCharacter(ctx context.Context, characterID int64) (*domain.Character, error)
	// ListLinkedCharacters returns every character of the account that
	// characterID belongs to, itself included.
	ListLinkedCharacters(ctx context.Context, characterID int64) ([]domain.Character, error)
	ListCorporationMembers(ctx context.Context, corporationID int64) ([]domain.Character, error)
	ListRegisteredCharacterIDs(ctx context.Context) ([]int64, error)
	GetCorporation(ctx context.Context, corporationID int64) (*domain.Corporation, error)
	GetAlliance(ctx context.Context, allianceID int64) (*domain.Alliance, error)
}

// JournalReader reads wallet journal and mining ledger rows.
type JournalReader interface {
	ListJournal(ctx context.Context, q domain.JournalQuery) ([]domain.TransactionRecord, error)
	ListMining(ctx context.Context, q domain.MiningQuery) ([]domain.MiningRecord, error)
}

// LedgerStore is everything the ledger service needs from persistence.
// Implemented by the SQLite and Supabase adapters.
type LedgerStore interface {
	EntityDirectory
	JournalReader
	Ping(ctx context.Context) error
}

// JournalWriter appends rows; used by the dev tools endpoints and tests.
type JournalWriter interface {
	InsertJournal(ctx context.Context, records []domain.TransactionRecord) error
	InsertMining(ctx context.Context, records []domain.MiningRecord) error
}

// EntityWriter registers characters, corporations and alliances.
type EntityWriter interface {
	UpsertCharacters(ctx context.Context, chars []domain.Character) error
	UpsertCorporations(ctx context.Context, corps []domain.Corporation) error
	UpsertAlliances(ctx context.Context, alliances []domain.Alliance) error
}

// Seeder is the write side exposed by the dev tools endpoints.
type Seeder interface {
	JournalWriter
	EntityWriter
}

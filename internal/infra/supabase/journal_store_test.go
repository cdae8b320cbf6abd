package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/infra/resilience"
	"github.com/boddenberg/corp-ledger-go/internal/infra/supabase"
	"github.com/boddenberg/corp-ledger-go/internal/port"

	"go.uber.org/zap"
)

var (
	_ port.LedgerStore = (*supabase.Client)(nil)
	_ port.Seeder      = (*supabase.Client)(nil)
)

func newClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewClient(
		srv.Client(), srv.URL, "anon", "service",
		resilience.NewCircuitBreaker(fmt.Sprintf("supabase-%s", t.Name())),
		resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)
}

func TestClient_GetCharacter(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer service" {
			t.Errorf("missing auth headers")
		}
		switch {
		case strings.Contains(r.URL.RawQuery, "id=eq.2"):
			fmt.Fprint(w, `[{"id":2,"name":"Alt","corporation_id":98000001,"main_id":1}]`)
		case strings.Contains(r.URL.RawQuery, "or=("):
			fmt.Fprint(w, `[{"id":1,"name":"Main","corporation_id":98000001,"main_id":null},{"id":2,"name":"Alt","corporation_id":98000001,"main_id":1}]`)
		default:
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})

	ch, err := client.GetCharacter(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.MainID != 1 || len(ch.AltIDs) != 1 || ch.AltIDs[0] != 1 {
		t.Errorf("unexpected character %+v", ch)
	}
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `[]`)
	})

	_, err := client.GetCorporation(context.Background(), 42)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestClient_ServerErrorRetriedThenWrapped(t *testing.T) {
	var calls int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.GetAlliance(context.Background(), 99000001)
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestClient_ListJournalPages(t *testing.T) {
	var pages int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("owner_id") != "in.(1,2)" {
			t.Errorf("unexpected owner filter %q", q.Get("owner_id"))
		}
		if got := q["date"]; len(got) != 2 || got[0] != "gte.2025-08-01T00:00:00Z" || got[1] != "lt.2025-09-01T00:00:00Z" {
			t.Errorf("unexpected date filter %v", got)
		}
		atomic.AddInt32(&pages, 1)
		offset := q.Get("offset")
		var rows []map[string]any
		n := 1000
		if offset != "0" {
			n = 3
		}
		for i := 0; i < n; i++ {
			rows = append(rows, map[string]any{
				"owner_id": 1, "entry_id": i, "date": "2025-08-02T10:00:00+00:00",
				"amount": 12.5, "balance": 0, "ref_type": "BOUNTY_PRIZES", "tax": 0,
			})
		}
		json.NewEncoder(w).Encode(rows)
	})

	got, err := client.ListJournal(context.Background(), domain.JournalQuery{
		OwnerIDs: []int64{1, 2},
		From:     time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1003 || pages != 2 {
		t.Fatalf("expected 1003 rows over 2 pages, got %d over %d", len(got), pages)
	}
	if got[0].RefType != "bounty_prizes" || got[0].Amount.String() != "12.5" {
		t.Errorf("unexpected first row %+v", got[0])
	}
}

func TestClient_InsertJournal(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/wallet_journal" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if !strings.Contains(r.Header.Get("Prefer"), "ignore-duplicates") {
			t.Errorf("expected ignore-duplicates, got %q", r.Header.Get("Prefer"))
		}
		body, _ := io.ReadAll(r.Body)
		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil || len(rows) != 1 {
			t.Errorf("unexpected body %s", body)
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := client.InsertJournal(context.Background(), []domain.TransactionRecord{{EntryID: 1, OwnerID: 1, RefType: "Bounty_Prizes"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_BadRequestNotRetried(t *testing.T) {
	var calls int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"column missing"}`, http.StatusBadRequest)
	})

	err := client.UpsertAlliances(context.Background(), []domain.Alliance{{ID: 1, Name: "A"}})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

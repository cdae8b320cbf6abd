package taxonomy_test

import (
	"testing"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/taxonomy"
)

func TestCategories_ArePartition(t *testing.T) {
	seen := make(map[taxonomy.RefType]taxonomy.Category)
	total := 0
	for _, cat := range taxonomy.Categories() {
		for _, code := range cat.RefTypes() {
			if prev, dup := seen[code]; dup {
				t.Errorf("%s appears in %s and %s", code, prev, cat)
			}
			seen[code] = cat
			total++
		}
	}
	if got := len(taxonomy.AllRefTypes()); got != total {
		t.Errorf("expected %d ref types in union, got %d", total, got)
	}
}

func TestAllRefTypes_ExcludesPvE(t *testing.T) {
	for _, code := range taxonomy.AllRefTypes() {
		if code == taxonomy.RefBountyPrizes || code == taxonomy.RefESSEscrowTransfer {
			t.Errorf("PvE code %s must not be in the union", code)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		code string
		want taxonomy.Category
	}{
		{"bounty_prizes", taxonomy.BountyPrizes},
		{"ESS_ESCROW_TRANSFER", taxonomy.ESSTransfer},
		{"  Market_Transaction ", taxonomy.Market},
		{"player_donation", taxonomy.Donation},
		{"manufacturing", taxonomy.Production},
		{"contract_price_payment_corp", taxonomy.Contract},
		{"some_code_from_the_future", taxonomy.NotDefined},
		{"", taxonomy.NotDefined},
	}
	for _, tt := range tests {
		if got := taxonomy.CategoryOf(tt.code); got != tt.want {
			t.Errorf("CategoryOf(%q) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestLookup_UnknownDegrades(t *testing.T) {
	if got := taxonomy.Lookup("market"); got != taxonomy.Market {
		t.Errorf("expected MARKET, got %s", got)
	}
	if got := taxonomy.Lookup("NO_SUCH_CATEGORY"); got != taxonomy.NotDefined {
		t.Errorf("expected NOT_DEFINED_CATEGORY, got %s", got)
	}
	if got := taxonomy.Category("BOGUS").Label(); got != "Not Defined" {
		t.Errorf("expected fallback label, got %q", got)
	}
}

func TestIsSpecialCase_MarketTransactionCountedForCreator(t *testing.T) {
	accounts := domain.NewIDSet(1, 2)
	rec := domain.TransactionRecord{RefType: "market_transaction", FirstPartyID: 1, SecondPartyID: 2}

	if taxonomy.IsSpecialCase(rec, domain.NewIDSet(1), accounts) {
		t.Error("creator must count the trade")
	}
	if !taxonomy.IsSpecialCase(rec, domain.NewIDSet(2), accounts) {
		t.Error("counterparty must skip the trade")
	}

	creatorRow := rec
	creatorRow.OwnerID = 1
	if taxonomy.IsSpecialCase(creatorRow, domain.NewIDSet(1), accounts) {
		t.Error("creator keeps the row from its own wallet")
	}
	counterpartyRow := rec
	counterpartyRow.OwnerID = 2
	if !taxonomy.IsSpecialCase(counterpartyRow, domain.NewIDSet(1, 2), accounts) {
		t.Error("the counterparty wallet row is skipped even when the creator is visible")
	}

	npc := domain.TransactionRecord{RefType: "market_transaction", FirstPartyID: 999, SecondPartyID: 2}
	if taxonomy.IsSpecialCase(npc, domain.NewIDSet(2), accounts) {
		t.Error("trade with an unregistered party is counted normally")
	}
}

func TestIsSpecialCase_CorporationContractPayment(t *testing.T) {
	const corpID = 98000001
	accounts := domain.NewIDSet(1, 2)
	rec := domain.TransactionRecord{RefType: "contract_price_payment_corp", FirstPartyID: 1, SecondPartyID: corpID}

	if !taxonomy.IsSpecialCase(rec, domain.NewIDSet(corpID), accounts) {
		t.Error("corporation umbrella must skip member contract payments")
	}
	if taxonomy.IsSpecialCase(rec, domain.NewIDSet(1), accounts) {
		t.Error("contract creator keeps the payment")
	}
	outsider := domain.TransactionRecord{RefType: "contract_price_payment_corp", FirstPartyID: 555, SecondPartyID: corpID}
	if taxonomy.IsSpecialCase(outsider, domain.NewIDSet(corpID), accounts) {
		t.Error("payment from a non-member is not a special case")
	}
}

package ledger

import (
	"sort"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/taxonomy"
)

// Line is the ledger line a record feeds.
type Line int

const (
	// LineNone records are attributed but feed no headline total: unknown
	// ref types and zero amounts.
	LineNone Line = iota
	LineBounty
	LineESS
	LineMiscellaneous
	LineCosts
)

func (l Line) String() string {
	switch l {
	case LineBounty:
		return "bounty"
	case LineESS:
		return "ess"
	case LineMiscellaneous:
		return "miscellaneous"
	case LineCosts:
		return "costs"
	default:
		return "none"
	}
}

// Attribution binds one journal record to the subject that consumed it.
type Attribution struct {
	Record   domain.TransactionRecord
	Subject  int // index into the subjects slice
	Category taxonomy.Category
	Line     Line
	// Excluded marks intra-alt donations: consumed, but counted nowhere.
	Excluded bool
}

// Attribute assigns every record to at most one subject. The owner pass
// gives each row to the subject whose wallet it sits in; the party pass then
// offers the rows of foreign wallets to the subjects in order, the catch-all
// last. Once a subject consumes a record its entry id is spent for the rest
// of the pass, so a row visible from several wallets is counted once.
// Self-transfers are dropped before attribution.
func Attribute(records []domain.TransactionRecord, subjects []Subject, opts Options) []Attribution {
	sorted := sortRecords(records)
	consumed := make(map[int64]struct{}, len(sorted))
	out := make([]Attribution, 0, len(sorted))

	members := rollupMembers(subjects, opts.AccountIDs)
	owned := make(map[int64]struct{}, len(sorted))
	for _, rec := range sorted {
		for _, subject := range subjects {
			if subject.owns(rec) {
				owned[rec.EntryID] = struct{}{}
				break
			}
		}
	}

	for _, ownerPass := range []bool{true, false} {
		for si, subject := range subjects {
			viewer := subject.IDs
			if subject.CatchAll {
				viewer = opts.ViewerIDs
			}
			for _, rec := range sorted {
				if _, spent := consumed[rec.EntryID]; spent || isSelfTransfer(rec) {
					continue
				}
				if ownerPass {
					if !subject.owns(rec) {
						continue
					}
				} else if _, ok := owned[rec.EntryID]; ok || !subject.matches(rec) {
					continue
				}
				if isSpecialCase(rec, viewer, opts.AccountIDs, members) {
					continue
				}
				consumed[rec.EntryID] = struct{}{}
				out = append(out, classify(rec, si, subject))
			}
		}
	}
	return out
}

// isSpecialCase applies the taxonomy exceptions for one subject. Market
// trades see every registered account; corporation contract payments only
// defer to a creator that has a line of its own in this pass.
func isSpecialCase(rec domain.TransactionRecord, viewer, accounts, members domain.IDSet) bool {
	if taxonomy.Normalize(rec.RefType) == taxonomy.RefContractPricePaymentCorp {
		accounts = members
	}
	return taxonomy.IsSpecialCase(rec, viewer, accounts)
}

// rollupMembers are the registered characters that have a line of their own
// in this pass.
func rollupMembers(subjects []Subject, accounts domain.IDSet) domain.IDSet {
	members := domain.NewIDSet()
	for _, s := range subjects {
		for id := range s.IDs {
			if accounts.Has(id) {
				members.Add(id)
			}
		}
	}
	return members
}

func classify(rec domain.TransactionRecord, si int, subject Subject) Attribution {
	a := Attribution{Record: rec, Subject: si, Category: taxonomy.CategoryOf(rec.RefType)}

	switch a.Category {
	case taxonomy.BountyPrizes:
		a.Line = LineBounty
	case taxonomy.ESSTransfer:
		a.Line = LineESS
	case taxonomy.NotDefined:
		a.Line = LineNone
	default:
		if isIntraAltDonation(rec, subject) {
			a.Excluded = true
			return a
		}
		switch rec.Amount.Sign() {
		case 1:
			a.Line = LineMiscellaneous
		case -1:
			a.Line = LineCosts
		}
	}
	return a
}

func isSelfTransfer(rec domain.TransactionRecord) bool {
	return rec.FirstPartyID != 0 && rec.FirstPartyID == rec.SecondPartyID
}

func isIntraAltDonation(rec domain.TransactionRecord, subject Subject) bool {
	if taxonomy.Normalize(rec.RefType) != taxonomy.RefPlayerDonation {
		return false
	}
	return subject.Linked.Has(rec.FirstPartyID) && subject.Linked.Has(rec.SecondPartyID)
}

// sortRecords copies records into (date, entry id) order so attribution does
// not depend on the order the store returned them in.
func sortRecords(records []domain.TransactionRecord) []domain.TransactionRecord {
	sorted := append([]domain.TransactionRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.EntryID != b.EntryID {
			return a.EntryID < b.EntryID
		}
		return a.OwnerID < b.OwnerID
	})
	return sorted
}

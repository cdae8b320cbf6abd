package taxonomy

import "github.com/boddenberg/corp-ledger-go/internal/domain"

// IsSpecialCase reports whether rec must be skipped by the subject whose ids
// are viewerIDs because another subject owns it. accountIDs are the
// registered member characters of the rollup.
//
//  1. A market transaction between two visible parties is a single trade
//     seen from both wallets. Only the creator (first party) counts it, and
//     only from the creator's own wallet row when the owner is known.
//  2. A corporation contract payment from a registered member to the
//     viewing corporation belongs to the contract creator, so the
//     corporation umbrella skips it.
func IsSpecialCase(rec domain.TransactionRecord, viewerIDs, accountIDs domain.IDSet) bool {
	switch Normalize(rec.RefType) {
	case RefMarketTransaction:
		visible := accountIDs.Union(viewerIDs)
		if visible.Has(rec.FirstPartyID) && visible.Has(rec.SecondPartyID) {
			if !viewerIDs.Has(rec.FirstPartyID) {
				return true
			}
			return rec.OwnerID != 0 && rec.OwnerID != rec.FirstPartyID
		}
	case RefContractPricePaymentCorp:
		return accountIDs.Has(rec.FirstPartyID) && viewerIDs.Has(rec.SecondPartyID)
	}
	return false
}

/*
linkage.go - Reserve release <-> disbursement link maintenance

PURPOSE:
  A disbursement drawn against a reserve release is joined to it through
  a link row rather than a foreign key (SOA disbursements carry soa_id
  directly). This file keeps that join consistent and re-derives the
  reserve release's cached disbursement_amount after any mutation.

IDEMPOTENCE:
  SyncLink upserts: an existing live link row for the pair is touched,
  a missing one is created. Calling it twice for the same pair is safe.

CACHE REFRESH:
  Refresh recomputes disbursement_amount = advance_subtotal -
  total_fees_asap from the current live disbursements and persists the
  reserve release. The lifecycle manager calls it exactly once per
  mutating operation, after the disbursement write, so the cache never
  reflects a half-applied mutation.

SEE ALSO:
  - outstanding.go: the totals the cache is derived from
  - lifecycle.go: the only caller
*/
package funding

import (
	"context"
	"time"
)

// =============================================================================
// LINKAGE MAINTAINER
// =============================================================================

// Linkage maintains reserve release <-> disbursement link rows and the
// cached disbursement_amount.
type Linkage struct {
	Store Store
}

// SyncLink upserts the live link row for (disbursement, reserve release).
func (l *Linkage) SyncLink(ctx context.Context, disbursementID, reserveReleaseID int64) error {
	link, err := l.Store.GetLink(ctx, disbursementID, reserveReleaseID)
	if err != nil {
		return err
	}
	if link != nil {
		link.UpdatedAt = time.Now().UTC()
		return l.Store.SaveLink(ctx, link)
	}
	now := time.Now().UTC()
	return l.Store.SaveLink(ctx, &ReserveReleaseDisbursement{
		DisbursementID:   disbursementID,
		ReserveReleaseID: reserveReleaseID,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// Refresh re-derives and persists the reserve release's cached
// disbursement_amount.
func (l *Linkage) Refresh(ctx context.Context, rr *ReserveRelease) error {
	calc := &Calculator{Store: l.Store}
	totals, err := calc.TotalsFor(ctx, rr)
	if err != nil {
		return err
	}
	rr.DisbursementAmount = totals.AdvanceSubtotal.Sub(totals.TotalFeesASAP).Round2()
	rr.UpdatedAt = time.Now().UTC()
	return l.Store.SaveReserveRelease(ctx, rr)
}

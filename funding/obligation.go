/*
obligation.go - The funding obligation capability and its two variants

PURPOSE:
  A disbursement is always drawn against exactly one obligation: a
  statement of account (SOA) or a reserve release. Both expose the same
  capability surface - AdvanceSubtotal, Status, ClientID - so the balance
  tracker and the lifecycle manager never branch on the concrete type
  beyond the RefType tag.

ADVANCE SUBTOTAL:
  SOA:            advance_amount
  ReserveRelease: advance_amount - discount_fee_adjustment
                                 - miscellaneous_adjustment

  The subtotal is the pool a disbursement draws from; the outstanding
  amount is what is left of it (see outstanding.go).

CACHED DISBURSEMENT AMOUNT:
  A reserve release caches disbursement_amount = advance_subtotal -
  total_fees_asap. The linkage maintainer refreshes it after every
  disbursement mutation (see linkage.go).

SEE ALSO:
  - outstanding.go: FeeTotals computation
  - lifecycle.go: status gating (approved/completed)
*/
package funding

import (
	"time"

	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// OBLIGATION - capability interface over SOA / ReserveRelease
// =============================================================================

// Obligation is the common surface of SOA and ReserveRelease needed by
// the fee engine.
type Obligation interface {
	// ObligationID returns the row id within the variant's own table.
	ObligationID() int64

	// ObligationRefType tags the variant ("soa" or "reserve_release").
	ObligationRefType() RefType

	// ObligationClientID is the owning client.
	ObligationClientID() int64

	// AdvanceSubtotal is the disbursable pool before fees.
	AdvanceSubtotal() money.Money

	// ObligationStatus is the current workflow state.
	ObligationStatus() ObligationStatus

	// IsHighPriority reports whether the high-priority fee applies.
	IsHighPriority() bool
}

// =============================================================================
// SOA - statement of account
// =============================================================================

type SOA struct {
	ID              int64
	ClientID        int64
	ReferenceNumber string
	Status          ObligationStatus
	AdvanceAmount   money.Money
	InvoiceTotal    money.Money
	HighPriority    bool
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

func (s *SOA) ObligationID() int64                { return s.ID }
func (s *SOA) ObligationRefType() RefType         { return RefSOA }
func (s *SOA) ObligationClientID() int64          { return s.ClientID }
func (s *SOA) AdvanceSubtotal() money.Money       { return s.AdvanceAmount }
func (s *SOA) ObligationStatus() ObligationStatus { return s.Status }
func (s *SOA) IsHighPriority() bool               { return s.HighPriority }

// =============================================================================
// RESERVE RELEASE
// =============================================================================

type ReserveRelease struct {
	ID                      int64
	ClientID                int64
	ReferenceNumber         string
	Status                  ObligationStatus
	AdvanceAmount           money.Money
	DiscountFeeAdjustment   money.Money
	MiscellaneousAdjustment money.Money
	// DisbursementAmount is a cached value, re-derived by the linkage
	// maintainer after every disbursement mutation.
	DisbursementAmount money.Money
	HighPriority       bool
	IsDeleted          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

func (r *ReserveRelease) ObligationID() int64        { return r.ID }
func (r *ReserveRelease) ObligationRefType() RefType { return RefReserveRelease }
func (r *ReserveRelease) ObligationClientID() int64  { return r.ClientID }

// AdvanceSubtotal nets the advance against both adjustments.
func (r *ReserveRelease) AdvanceSubtotal() money.Money {
	return r.AdvanceAmount.Sub(r.DiscountFeeAdjustment).Sub(r.MiscellaneousAdjustment)
}

func (r *ReserveRelease) ObligationStatus() ObligationStatus { return r.Status }
func (r *ReserveRelease) IsHighPriority() bool               { return r.HighPriority }

// Compile-time interface checks.
var (
	_ Obligation = (*SOA)(nil)
	_ Obligation = (*ReserveRelease)(nil)
)

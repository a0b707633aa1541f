/*
Package funding implements the fee and disbursement computation engine
for the invoice-factoring back office.

PURPOSE:
  This package contains the domain model and the algorithms that keep a
  funding obligation's outstanding balance consistent while disbursements
  against it are created, updated, and deleted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Obligation: money owed to a client, either an SOA (statement of
    account) or a ReserveRelease. A disbursement always references
    exactly one obligation.
  - Disbursement: a payment out of an obligation to a payee, carrying a
    client fee and a third-party fee.
  - ClientPayee: the client<->payee association; its RefType decides
    whether a third-party fee applies.
  - ClientSettings: the per-client fee schedule.

DESIGN PRINCIPLES:
  1. Precision: money.Money (decimal) everywhere, no float fee math.
  2. Explicit nullability: optional request fields are pointers, never
     sentinel values.
  3. Uniform soft-delete: every entity carries IsDeleted/DeletedAt and
     repositories filter deleted rows on read.

SEE ALSO:
  - obligation.go: the Obligation capability interface
  - fees.go: fee schedule resolution
  - outstanding.go: balance computation
  - lifecycle.go: create/update/delete orchestration
*/
package funding

import (
	"time"

	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// ENUMS
// =============================================================================

// PaymentMethod is how a disbursement is paid out.
type PaymentMethod string

const (
	MethodCheque            PaymentMethod = "cheque"
	MethodDirectDeposit     PaymentMethod = "direct_deposit"
	MethodInternationalWire PaymentMethod = "international_wire"
	MethodSameDayACH        PaymentMethod = "same_day_ach"
	MethodWire              PaymentMethod = "wire"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCheque, MethodDirectDeposit, MethodInternationalWire, MethodSameDayACH, MethodWire:
		return true
	}
	return false
}

// RefType discriminates which kind of obligation a disbursement belongs to.
type RefType string

const (
	RefSOA            RefType = "soa"
	RefReserveRelease RefType = "reserve_release"
)

// ObligationStatus is the workflow state of an SOA or reserve release.
type ObligationStatus string

const (
	StatusDraft                  ObligationStatus = "draft"
	StatusClientDraft            ObligationStatus = "client_draft"
	StatusClientSubmission       ObligationStatus = "client_submission"
	StatusSubmitted              ObligationStatus = "submitted"
	StatusPending                ObligationStatus = "pending"
	StatusReviewed               ObligationStatus = "reviewed"
	StatusActionRequired         ObligationStatus = "action_required"
	StatusActionRequiredByClient ObligationStatus = "action_required_by_client"
	StatusApproved               ObligationStatus = "approved"
	StatusCompleted              ObligationStatus = "completed"
	StatusRejected               ObligationStatus = "rejected"
	StatusPrincipalRejection     ObligationStatus = "principal_rejection"
)

// ClientPayeeRefType decides third-party fee applicability: a "payee"
// association is a true third party, a "client" association is the client
// paying itself.
type ClientPayeeRefType string

const (
	ClientPayeeRefClient ClientPayeeRefType = "client"
	ClientPayeeRefPayee  ClientPayeeRefType = "payee"
)

// =============================================================================
// ENTITIES
// =============================================================================

// Payee is a party that can receive disbursements.
type Payee struct {
	ID              int64
	FirstName       string
	LastName        string
	AccountNickname string
	IsActive        bool
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// ClientPayee links a client to a payee.
type ClientPayee struct {
	ID        int64
	ClientID  int64
	PayeeID   int64
	RefType   ClientPayeeRefType
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// ClientSettings is the per-client fee schedule.
type ClientSettings struct {
	ID              int64
	ClientID        int64
	HighPriorityFee money.Money
	SameDayACHFee   money.Money
	WireFee         money.Money
	ThirdPartyFee   money.Money
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Disbursement is a payment out of an obligation to a payee.
//
// INVARIANT: NetAmount() must be strictly positive, enforced on every
// create and update before anything is persisted.
type Disbursement struct {
	ID             int64
	ClientID       int64
	SOAID          *int64 // nil when the obligation is a reserve release
	PayeeID        int64
	RefType        RefType
	RefID          int64
	PaymentMethod  PaymentMethod
	Amount         money.Money
	ClientFee      money.Money
	ThirdPartyFee  money.Money
	TPTicketNumber string
	IsReviewed     bool
	IsDeleted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// NetAmount is what the payee actually receives: amount minus both fees,
// rounded to cents.
func (d *Disbursement) NetAmount() money.Money {
	return d.Amount.Sub(d.ClientFee.Add(d.ThirdPartyFee)).Round2()
}

// ReserveReleaseDisbursement links a disbursement to its reserve release.
// One active row per pair; created lazily on first disbursement.
type ReserveReleaseDisbursement struct {
	ID               int64
	DisbursementID   int64
	ReserveReleaseID int64
	IsDeleted        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

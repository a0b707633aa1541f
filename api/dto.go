/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  Money crosses the wire as JSON numbers rounded to cents. Internally
  everything is decimal; the float conversion happens only here, at the
  last edge.

OPTIONAL FIELDS:
  Request fields are pointers so handlers can distinguish "absent" from
  "zero". This matters: supplying client_fee: 0 is an explicit zero fee,
  omitting it lets the schedule decide.

SEE ALSO:
  - handlers.go: Uses these types
  - funding/lifecycle.go: the typed inputs these map onto
*/
package api

import (
	"time"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// DISBURSEMENTS
// =============================================================================

// DisbursementDTO represents a disbursement in API responses.
type DisbursementDTO struct {
	ID               int64   `json:"id"`
	ClientID         int64   `json:"client_id"`
	SOAID            *int64  `json:"soa_id"`
	ReserveReleaseID *int64  `json:"reserve_release_id"`
	PayeeID          int64   `json:"payee_id"`
	RefType          string  `json:"ref_type"`
	RefID            int64   `json:"ref_id"`
	PaymentMethod    string  `json:"payment_method"`
	Amount           float64 `json:"amount"`
	ClientFee        float64 `json:"client_fee"`
	ThirdPartyFee    float64 `json:"third_party_fee"`
	NetAmount        float64 `json:"net_amount"`
	TPTicketNumber   string  `json:"tp_ticket_number,omitempty"`
	IsReviewed       bool    `json:"is_reviewed"`
	CreatedAt        string  `json:"created_at,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

// CreateDisbursementRequest is the request to create a disbursement.
type CreateDisbursementRequest struct {
	SOAID            *int64   `json:"soa_id"`
	ReserveReleaseID *int64   `json:"reserve_release_id"`
	PayeeID          *int64   `json:"payee_id"`
	PaymentMethod    *string  `json:"payment_method"`
	Amount           *float64 `json:"amount"`
	ClientFee        *float64 `json:"client_fee"`
	ThirdPartyFee    *float64 `json:"third_party_fee"`
	TPTicketNumber   *string  `json:"tp_ticket_number"`
	IsReviewed       *bool    `json:"is_reviewed"`
}

// UpdateDisbursementRequest is the request to update a disbursement. The
// obligation reference is immutable, so no soa/reserve-release ids here.
type UpdateDisbursementRequest struct {
	PayeeID        *int64   `json:"payee_id"`
	PaymentMethod  *string  `json:"payment_method"`
	Amount         *float64 `json:"amount"`
	ClientFee      *float64 `json:"client_fee"`
	ThirdPartyFee  *float64 `json:"third_party_fee"`
	TPTicketNumber *string  `json:"tp_ticket_number"`
	IsReviewed     *bool    `json:"is_reviewed"`
}

// DeleteResponse is the body of a successful delete.
type DeleteResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

// =============================================================================
// FEE TOTALS
// =============================================================================

// FeeTotalsDTO is the fee/balance picture of one obligation.
type FeeTotalsDTO struct {
	AdvanceSubtotal    float64 `json:"advance_subtotal"`
	TotalAmount        float64 `json:"total_amount"`
	FeesToClient       float64 `json:"fees_to_client"`
	TotalFeesASAP      float64 `json:"total_fees_asap"`
	DisbursementAmount float64 `json:"disbursement_amount"`
	OutstandingAmount  float64 `json:"outstanding_amount"`
	HighPriorityAmount float64 `json:"high_priority_amount"`
	PayeeIDs           []int64 `json:"payee_ids"`
}

// =============================================================================
// PAYEES / ASSOCIATIONS / SETTINGS
// =============================================================================

// PayeeDTO represents a payee in API responses.
type PayeeDTO struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	AccountNickname string `json:"account_nickname,omitempty"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// SavePayeeRequest creates or updates a payee.
type SavePayeeRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	AccountNickname string `json:"account_nickname"`
	IsActive        *bool  `json:"is_active"`
}

// ClientPayeeDTO represents a client<->payee association.
type ClientPayeeDTO struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client_id"`
	PayeeID  int64  `json:"payee_id"`
	RefType  string `json:"ref_type"`
}

// SaveClientPayeeRequest creates an association.
type SaveClientPayeeRequest struct {
	ClientID int64  `json:"client_id"`
	PayeeID  int64  `json:"payee_id"`
	RefType  string `json:"ref_type"`
}

// ClientSettingsDTO is the per-client fee schedule.
type ClientSettingsDTO struct {
	ID              int64   `json:"id"`
	ClientID        int64   `json:"client_id"`
	HighPriorityFee float64 `json:"high_priority_fee"`
	SameDayACHFee   float64 `json:"same_day_ach_fee"`
	WireFee         float64 `json:"wire_fee"`
	ThirdPartyFee   float64 `json:"third_party_fee"`
}

// SaveClientSettingsRequest creates or replaces a client's fee schedule.
type SaveClientSettingsRequest struct {
	ClientID        int64   `json:"client_id"`
	HighPriorityFee float64 `json:"high_priority_fee"`
	SameDayACHFee   float64 `json:"same_day_ach_fee"`
	WireFee         float64 `json:"wire_fee"`
	ThirdPartyFee   float64 `json:"third_party_fee"`
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

// SOADTO represents a statement of account.
type SOADTO struct {
	ID              int64   `json:"id"`
	ClientID        int64   `json:"client_id"`
	ReferenceNumber string  `json:"reference_number"`
	Status          string  `json:"status"`
	AdvanceAmount   float64 `json:"advance_amount"`
	InvoiceTotal    float64 `json:"invoice_total"`
	HighPriority    bool    `json:"high_priority"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// SaveSOARequest creates or updates an SOA.
type SaveSOARequest struct {
	ClientID        int64    `json:"client_id"`
	ReferenceNumber string   `json:"reference_number"`
	Status          *string  `json:"status"`
	AdvanceAmount   *float64 `json:"advance_amount"`
	InvoiceTotal    *float64 `json:"invoice_total"`
	HighPriority    *bool    `json:"high_priority"`
}

// ReserveReleaseDTO represents a reserve release, including its cached
// disbursement amount.
type ReserveReleaseDTO struct {
	ID                      int64   `json:"id"`
	ClientID                int64   `json:"client_id"`
	ReferenceNumber         string  `json:"reference_number"`
	Status                  string  `json:"status"`
	AdvanceAmount           float64 `json:"advance_amount"`
	DiscountFeeAdjustment   float64 `json:"discount_fee_adjustment"`
	MiscellaneousAdjustment float64 `json:"miscellaneous_adjustment"`
	DisbursementAmount      float64 `json:"disbursement_amount"`
	HighPriority            bool    `json:"high_priority"`
	CreatedAt               string  `json:"created_at,omitempty"`
}

// SaveReserveReleaseRequest creates or updates a reserve release.
type SaveReserveReleaseRequest struct {
	ClientID                int64    `json:"client_id"`
	ReferenceNumber         string   `json:"reference_number"`
	Status                  *string  `json:"status"`
	AdvanceAmount           *float64 `json:"advance_amount"`
	DiscountFeeAdjustment   *float64 `json:"discount_fee_adjustment"`
	MiscellaneousAdjustment *float64 `json:"miscellaneous_adjustment"`
	HighPriority            *bool    `json:"high_priority"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toDisbursementDTO(res *funding.Result) DisbursementDTO {
	d := res.Disbursement
	return DisbursementDTO{
		ID:               d.ID,
		ClientID:         d.ClientID,
		SOAID:            d.SOAID,
		ReserveReleaseID: res.ReserveReleaseID,
		PayeeID:          d.PayeeID,
		RefType:          string(d.RefType),
		RefID:            d.RefID,
		PaymentMethod:    string(d.PaymentMethod),
		Amount:           d.Amount.Float64(),
		ClientFee:        d.ClientFee.Float64(),
		ThirdPartyFee:    d.ThirdPartyFee.Float64(),
		NetAmount:        res.NetAmount.Float64(),
		TPTicketNumber:   d.TPTicketNumber,
		IsReviewed:       d.IsReviewed,
		CreatedAt:        formatTime(d.CreatedAt),
		UpdatedAt:        formatTime(d.UpdatedAt),
	}
}

func toFeeTotalsDTO(t funding.FeeTotals) FeeTotalsDTO {
	payeeIDs := t.PayeeIDs
	if payeeIDs == nil {
		payeeIDs = []int64{}
	}
	return FeeTotalsDTO{
		AdvanceSubtotal:    t.AdvanceSubtotal.Float64(),
		TotalAmount:        t.TotalAmount.Float64(),
		FeesToClient:       t.FeesToClient.Float64(),
		TotalFeesASAP:      t.TotalFeesASAP.Float64(),
		DisbursementAmount: t.DisbursementAmount.Float64(),
		OutstandingAmount:  t.OutstandingAmount.Float64(),
		HighPriorityAmount: t.HighPriorityAmount.Float64(),
		PayeeIDs:           payeeIDs,
	}
}

func toPayeeDTO(p *funding.Payee) PayeeDTO {
	return PayeeDTO{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		AccountNickname: p.AccountNickname,
		IsActive:        p.IsActive,
		CreatedAt:       formatTime(p.CreatedAt),
	}
}

func toSOADTO(s *funding.SOA) SOADTO {
	return SOADTO{
		ID:              s.ID,
		ClientID:        s.ClientID,
		ReferenceNumber: s.ReferenceNumber,
		Status:          string(s.Status),
		AdvanceAmount:   s.AdvanceAmount.Float64(),
		InvoiceTotal:    s.InvoiceTotal.Float64(),
		HighPriority:    s.HighPriority,
		CreatedAt:       formatTime(s.CreatedAt),
	}
}

func toReserveReleaseDTO(rr *funding.ReserveRelease) ReserveReleaseDTO {
	return ReserveReleaseDTO{
		ID:                      rr.ID,
		ClientID:                rr.ClientID,
		ReferenceNumber:         rr.ReferenceNumber,
		Status:                  string(rr.Status),
		AdvanceAmount:           rr.AdvanceAmount.Float64(),
		DiscountFeeAdjustment:   rr.DiscountFeeAdjustment.Float64(),
		MiscellaneousAdjustment: rr.MiscellaneousAdjustment.Float64(),
		DisbursementAmount:      rr.DisbursementAmount.Float64(),
		HighPriority:            rr.HighPriority,
		CreatedAt:               formatTime(rr.CreatedAt),
	}
}

func moneyPtr(f *float64) *money.Money {
	if f == nil {
		return nil
	}
	m := money.FromFloat(*f)
	return &m
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

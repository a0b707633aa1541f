/*
handlers.go - HTTP API handlers for the funding service

PURPOSE:
  Exposes the fee and disbursement engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Disbursements:
    GET    /api/disbursements          List all disbursements
    POST   /api/disbursements          Create disbursement
    GET    /api/disbursements/{id}     Get one disbursement
    PUT    /api/disbursements/{id}     Update disbursement
    DELETE /api/disbursements/{id}     Soft-delete disbursement

  Obligations:
    GET    /api/soa                    List SOAs
    POST   /api/soa                    Create SOA
    GET    /api/soa/{id}               Get SOA
    PUT    /api/soa/{id}               Update SOA
    GET    /api/soa/{id}/fees          Fee totals and outstanding amount
    (and the same shape under /api/reserve-releases)

  Collaborators:
    GET/POST   /api/payees             Payee management
    PUT        /api/payees/{id}
    POST       /api/client-settings    Per-client fee schedule
    GET        /api/client-settings/{clientID}
    POST       /api/client-payees      Client<->payee associations
    GET        /api/client-payees/{clientID}/{payeeID}

ERROR HANDLING:
  Domain errors carry their own messages and classify themselves:
  - 400: validation and business rule rejections
  - 404: missing entities
  - 500: everything else (storage failures, bugs)
  Handlers never invent business messages; see funding/errors.go.

REQUEST FLOW:
  1. Parse HTTP request
  2. Map DTO onto the typed domain input
  3. Call the lifecycle manager / calculator
  4. Serialize response

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - funding/lifecycle.go: the operations behind these handlers
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   funding.Store
	Manager *funding.Manager
}

// NewHandler creates a new handler over the given store.
func NewHandler(store funding.Store) *Handler {
	return &Handler{
		Store:   store,
		Manager: funding.NewManager(store),
	}
}

// =============================================================================
// DISBURSEMENT HANDLERS
// =============================================================================

// ListDisbursements returns all live disbursements.
func (h *Handler) ListDisbursements(w http.ResponseWriter, r *http.Request) {
	disbs, err := h.Manager.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list disbursements", err)
		return
	}

	dtos := make([]DisbursementDTO, 0, len(disbs))
	for i := range disbs {
		d := disbs[i]
		var rrID *int64
		if d.RefType == funding.RefReserveRelease {
			id := d.RefID
			rrID = &id
		}
		dtos = append(dtos, toDisbursementDTO(&funding.Result{
			Disbursement:     d,
			ReserveReleaseID: rrID,
			NetAmount:        d.NetAmount(),
		}))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDisbursement returns one disbursement.
func (h *Handler) GetDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDisbursementDTO(res))
}

// CreateDisbursement validates and persists a new disbursement.
func (h *Handler) CreateDisbursement(w http.ResponseWriter, r *http.Request) {
	var req CreateDisbursementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := funding.CreateInput{
		SOAID:            req.SOAID,
		ReserveReleaseID: req.ReserveReleaseID,
		PayeeID:          req.PayeeID,
		Amount:           moneyPtr(req.Amount),
		ClientFee:        moneyPtr(req.ClientFee),
		ThirdPartyFee:    moneyPtr(req.ThirdPartyFee),
		TPTicketNumber:   req.TPTicketNumber,
		IsReviewed:       req.IsReviewed,
	}
	if req.PaymentMethod != nil {
		m := funding.PaymentMethod(*req.PaymentMethod)
		in.PaymentMethod = &m
	}

	res, err := h.Manager.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDisbursementDTO(res))
}

// UpdateDisbursement mutates a disbursement subject to obligation gating.
func (h *Handler) UpdateDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateDisbursementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := funding.UpdateInput{
		PayeeID:        req.PayeeID,
		Amount:         moneyPtr(req.Amount),
		ClientFee:      moneyPtr(req.ClientFee),
		ThirdPartyFee:  moneyPtr(req.ThirdPartyFee),
		TPTicketNumber: req.TPTicketNumber,
		IsReviewed:     req.IsReviewed,
	}
	if req.PaymentMethod != nil {
		m := funding.PaymentMethod(*req.PaymentMethod)
		in.PaymentMethod = &m
	}

	res, err := h.Manager.Update(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDisbursementDTO(res))
}

// DeleteDisbursement soft-deletes a disbursement.
func (h *Handler) DeleteDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Manager.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, DeleteResponse{
		Status: "success",
		Msg:    "Disbursement deleted",
	})
}

// =============================================================================
// PAYEE HANDLERS
// =============================================================================

// ListPayees returns all live payees.
func (h *Handler) ListPayees(w http.ResponseWriter, r *http.Request) {
	payees, err := h.Store.ListPayees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payees", err)
		return
	}
	dtos := make([]PayeeDTO, len(payees))
	for i := range payees {
		dtos[i] = toPayeeDTO(&payees[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPayee returns one payee.
func (h *Handler) GetPayee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.GetPayee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payee", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "payee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPayeeDTO(p))
}

// CreatePayee registers a new payee. New payees start active unless the
// payload says otherwise.
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	var req SavePayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p := &funding.Payee{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		AccountNickname: req.AccountNickname,
		IsActive:        true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.Store.SavePayee(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayeeDTO(p))
}

// UpdatePayee mutates a payee, including (de)activation.
func (h *Handler) UpdatePayee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SavePayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := h.Store.GetPayee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payee", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "payee not found", nil)
		return
	}
	if req.FirstName != "" {
		p.FirstName = req.FirstName
	}
	if req.LastName != "" {
		p.LastName = req.LastName
	}
	if req.AccountNickname != "" {
		p.AccountNickname = req.AccountNickname
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	if err := h.Store.SavePayee(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update payee", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayeeDTO(p))
}

// =============================================================================
// CLIENT SETTINGS / ASSOCIATIONS
// =============================================================================

// GetClientSettings returns a client's fee schedule.
func (h *Handler) GetClientSettings(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientID")
	if !ok {
		return
	}
	cs, err := h.Store.GetClientSettings(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client settings", err)
		return
	}
	if cs == nil {
		writeError(w, http.StatusNotFound, "client settings not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, ClientSettingsDTO{
		ID:              cs.ID,
		ClientID:        cs.ClientID,
		HighPriorityFee: cs.HighPriorityFee.Float64(),
		SameDayACHFee:   cs.SameDayACHFee.Float64(),
		WireFee:         cs.WireFee.Float64(),
		ThirdPartyFee:   cs.ThirdPartyFee.Float64(),
	})
}

// SaveClientSettings creates or replaces a client's fee schedule.
func (h *Handler) SaveClientSettings(w http.ResponseWriter, r *http.Request) {
	var req SaveClientSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == 0 {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}
	cs, err := h.Store.GetClientSettings(r.Context(), req.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client settings", err)
		return
	}
	if cs == nil {
		cs = &funding.ClientSettings{ClientID: req.ClientID}
	}
	cs.HighPriorityFee = money.FromFloat(req.HighPriorityFee)
	cs.SameDayACHFee = money.FromFloat(req.SameDayACHFee)
	cs.WireFee = money.FromFloat(req.WireFee)
	cs.ThirdPartyFee = money.FromFloat(req.ThirdPartyFee)
	cs.UpdatedAt = time.Now().UTC()
	if err := h.Store.SaveClientSettings(r.Context(), cs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client settings", err)
		return
	}
	writeJSON(w, http.StatusCreated, ClientSettingsDTO{
		ID:              cs.ID,
		ClientID:        cs.ClientID,
		HighPriorityFee: cs.HighPriorityFee.Float64(),
		SameDayACHFee:   cs.SameDayACHFee.Float64(),
		WireFee:         cs.WireFee.Float64(),
		ThirdPartyFee:   cs.ThirdPartyFee.Float64(),
	})
}

// GetClientPayee returns a client<->payee association.
func (h *Handler) GetClientPayee(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientID")
	if !ok {
		return
	}
	payeeID, ok := pathID(w, r, "payeeID")
	if !ok {
		return
	}
	cp, err := h.Store.GetClientPayee(r.Context(), clientID, payeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client payee", err)
		return
	}
	if cp == nil {
		writeError(w, http.StatusNotFound, "client payee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, ClientPayeeDTO{
		ID:       cp.ID,
		ClientID: cp.ClientID,
		PayeeID:  cp.PayeeID,
		RefType:  string(cp.RefType),
	})
}

// SaveClientPayee associates a payee with a client.
func (h *Handler) SaveClientPayee(w http.ResponseWriter, r *http.Request) {
	var req SaveClientPayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == 0 || req.PayeeID == 0 {
		writeError(w, http.StatusBadRequest, "client_id and payee_id are required", nil)
		return
	}
	refType := funding.ClientPayeeRefType(req.RefType)
	if refType == "" {
		refType = funding.ClientPayeeRefPayee
	}
	if refType != funding.ClientPayeeRefClient && refType != funding.ClientPayeeRefPayee {
		writeError(w, http.StatusBadRequest, "ref_type must be client or payee", nil)
		return
	}
	cp, err := h.Store.GetClientPayee(r.Context(), req.ClientID, req.PayeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client payee", err)
		return
	}
	if cp == nil {
		cp = &funding.ClientPayee{ClientID: req.ClientID, PayeeID: req.PayeeID}
	}
	cp.RefType = refType
	cp.UpdatedAt = time.Now().UTC()
	if err := h.Store.SaveClientPayee(r.Context(), cp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client payee", err)
		return
	}
	writeJSON(w, http.StatusCreated, ClientPayeeDTO{
		ID:       cp.ID,
		ClientID: cp.ClientID,
		PayeeID:  cp.PayeeID,
		RefType:  string(cp.RefType),
	})
}

// =============================================================================
// SOA HANDLERS
// =============================================================================

// ListSOAs returns all live SOAs.
func (h *Handler) ListSOAs(w http.ResponseWriter, r *http.Request) {
	soas, err := h.Store.ListSOAs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list soas", err)
		return
	}
	dtos := make([]SOADTO, len(soas))
	for i := range soas {
		dtos[i] = toSOADTO(&soas[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSOA returns one SOA.
func (h *Handler) GetSOA(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	soa, err := h.Store.GetSOA(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get soa", err)
		return
	}
	if soa == nil {
		writeError(w, http.StatusNotFound, "soa not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSOADTO(soa))
}

// CreateSOA creates an SOA. A blank reference number gets a generated one.
func (h *Handler) CreateSOA(w http.ResponseWriter, r *http.Request) {
	var req SaveSOARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == 0 {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}
	soa := &funding.SOA{
		ClientID:        req.ClientID,
		ReferenceNumber: req.ReferenceNumber,
		Status:          funding.StatusDraft,
	}
	if soa.ReferenceNumber == "" {
		soa.ReferenceNumber = "SOA-" + uuid.NewString()
	}
	if req.Status != nil {
		soa.Status = funding.ObligationStatus(*req.Status)
	}
	if req.AdvanceAmount != nil {
		soa.AdvanceAmount = money.FromFloat(*req.AdvanceAmount)
	}
	if req.InvoiceTotal != nil {
		soa.InvoiceTotal = money.FromFloat(*req.InvoiceTotal)
	}
	if req.HighPriority != nil {
		soa.HighPriority = *req.HighPriority
	}
	if err := h.Store.SaveSOA(r.Context(), soa); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create soa", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSOADTO(soa))
}

// UpdateSOA mutates an SOA (status transitions, advance changes).
func (h *Handler) UpdateSOA(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SaveSOARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	soa, err := h.Store.GetSOA(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get soa", err)
		return
	}
	if soa == nil {
		writeError(w, http.StatusNotFound, "soa not found", nil)
		return
	}
	if req.ReferenceNumber != "" {
		soa.ReferenceNumber = req.ReferenceNumber
	}
	if req.Status != nil {
		soa.Status = funding.ObligationStatus(*req.Status)
	}
	if req.AdvanceAmount != nil {
		soa.AdvanceAmount = money.FromFloat(*req.AdvanceAmount)
	}
	if req.InvoiceTotal != nil {
		soa.InvoiceTotal = money.FromFloat(*req.InvoiceTotal)
	}
	if req.HighPriority != nil {
		soa.HighPriority = *req.HighPriority
	}
	soa.UpdatedAt = time.Now().UTC()
	if err := h.Store.SaveSOA(r.Context(), soa); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update soa", err)
		return
	}
	writeJSON(w, http.StatusOK, toSOADTO(soa))
}

// GetSOAFees returns the SOA's fee totals and outstanding amount.
func (h *Handler) GetSOAFees(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	soa, err := h.Store.GetSOA(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get soa", err)
		return
	}
	if soa == nil {
		writeError(w, http.StatusNotFound, "soa not found", nil)
		return
	}
	calc := &funding.Calculator{Store: h.Store}
	totals, err := calc.TotalsFor(r.Context(), soa)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute fees", err)
		return
	}
	writeJSON(w, http.StatusOK, toFeeTotalsDTO(totals))
}

// =============================================================================
// RESERVE RELEASE HANDLERS
// =============================================================================

// ListReserveReleases returns all live reserve releases.
func (h *Handler) ListReserveReleases(w http.ResponseWriter, r *http.Request) {
	rrs, err := h.Store.ListReserveReleases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reserve releases", err)
		return
	}
	dtos := make([]ReserveReleaseDTO, len(rrs))
	for i := range rrs {
		dtos[i] = toReserveReleaseDTO(&rrs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReserveRelease returns one reserve release.
func (h *Handler) GetReserveRelease(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rr, err := h.Store.GetReserveRelease(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reserve release", err)
		return
	}
	if rr == nil {
		writeError(w, http.StatusNotFound, "reserve_release not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReserveReleaseDTO(rr))
}

// CreateReserveRelease creates a reserve release. The cached disbursement
// amount starts at the full advance subtotal.
func (h *Handler) CreateReserveRelease(w http.ResponseWriter, r *http.Request) {
	var req SaveReserveReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == 0 {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}
	rr := &funding.ReserveRelease{
		ClientID:        req.ClientID,
		ReferenceNumber: req.ReferenceNumber,
		Status:          funding.StatusDraft,
	}
	if rr.ReferenceNumber == "" {
		rr.ReferenceNumber = "RR-" + uuid.NewString()
	}
	if req.Status != nil {
		rr.Status = funding.ObligationStatus(*req.Status)
	}
	if req.AdvanceAmount != nil {
		rr.AdvanceAmount = money.FromFloat(*req.AdvanceAmount)
	}
	if req.DiscountFeeAdjustment != nil {
		rr.DiscountFeeAdjustment = money.FromFloat(*req.DiscountFeeAdjustment)
	}
	if req.MiscellaneousAdjustment != nil {
		rr.MiscellaneousAdjustment = money.FromFloat(*req.MiscellaneousAdjustment)
	}
	if req.HighPriority != nil {
		rr.HighPriority = *req.HighPriority
	}
	rr.DisbursementAmount = rr.AdvanceSubtotal().Round2()
	if err := h.Store.SaveReserveRelease(r.Context(), rr); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create reserve release", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReserveReleaseDTO(rr))
}

// UpdateReserveRelease mutates a reserve release and refreshes its cached
// disbursement amount.
func (h *Handler) UpdateReserveRelease(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SaveReserveReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rr, err := h.Store.GetReserveRelease(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reserve release", err)
		return
	}
	if rr == nil {
		writeError(w, http.StatusNotFound, "reserve_release not found", nil)
		return
	}
	if req.ReferenceNumber != "" {
		rr.ReferenceNumber = req.ReferenceNumber
	}
	if req.Status != nil {
		rr.Status = funding.ObligationStatus(*req.Status)
	}
	if req.AdvanceAmount != nil {
		rr.AdvanceAmount = money.FromFloat(*req.AdvanceAmount)
	}
	if req.DiscountFeeAdjustment != nil {
		rr.DiscountFeeAdjustment = money.FromFloat(*req.DiscountFeeAdjustment)
	}
	if req.MiscellaneousAdjustment != nil {
		rr.MiscellaneousAdjustment = money.FromFloat(*req.MiscellaneousAdjustment)
	}
	if req.HighPriority != nil {
		rr.HighPriority = *req.HighPriority
	}
	link := &funding.Linkage{Store: h.Store}
	if err := link.Refresh(r.Context(), rr); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update reserve release", err)
		return
	}
	writeJSON(w, http.StatusOK, toReserveReleaseDTO(rr))
}

// GetReserveReleaseFees returns the reserve release's fee totals.
func (h *Handler) GetReserveReleaseFees(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rr, err := h.Store.GetReserveRelease(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reserve release", err)
		return
	}
	if rr == nil {
		writeError(w, http.StatusNotFound, "reserve_release not found", nil)
		return
	}
	calc := &funding.Calculator{Store: h.Store}
	totals, err := calc.TotalsFor(r.Context(), rr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute fees", err)
		return
	}
	writeJSON(w, http.StatusOK, toFeeTotalsDTO(totals))
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

// writeDomainError maps engine errors onto HTTP statuses. The message is
// always the error's own; the API never rewords domain failures.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case funding.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case funding.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

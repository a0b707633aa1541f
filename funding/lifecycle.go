/*
lifecycle.go - Disbursement create / update / delete orchestration

PURPOSE:
  The Manager is the single write path for disbursements. It validates
  the request, resolves fees, checks the obligation's remaining
  capacity, persists, and keeps the reserve release linkage and cache
  consistent - all inside one store transaction.

STATE GATING (by the governing obligation's status):
  anything else -> full mutation allowed, with amount/fee/capacity
                   re-validation
  approved      -> only the reviewed subset (tp_ticket_number,
                   is_reviewed) is applied; amount, fees, payee and
                   payment method in the payload are silently dropped
  completed     -> no mutation at all

CONCURRENCY:
  The outstanding-amount check is check-then-act, so mutations are
  serialized per obligation with an in-process lock. The store
  transaction then makes the disbursement write, the link upsert and
  the cache refresh atomic.

ERROR CONTRACT:
  Every rejection is a typed error from errors.go; nothing here writes
  HTTP statuses or message strings of its own.

SEE ALSO:
  - fees.go: fee resolution rules
  - outstanding.go: capacity math and the update delta
  - linkage.go: link upsert and cache refresh
*/
package funding

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// MANAGER
// =============================================================================

// Manager orchestrates the disbursement lifecycle against a Store.
type Manager struct {
	store Store

	// one mutex per obligation; guards the capacity check-then-act
	locks sync.Map // string -> *sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) lockObligation(refType RefType, refID int64) func() {
	key := string(refType) + ":" + strconv.FormatInt(refID, 10)
	v, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// =============================================================================
// INPUTS / RESULT
// =============================================================================

// CreateInput is the typed create payload. Optional fields are pointers;
// nil means "not supplied".
type CreateInput struct {
	SOAID            *int64
	ReserveReleaseID *int64
	PayeeID          *int64
	PaymentMethod    *PaymentMethod
	Amount           *money.Money
	ClientFee        *money.Money
	ThirdPartyFee    *money.Money
	TPTicketNumber   *string
	IsReviewed       *bool
}

// UpdateInput is the typed update payload. The obligation reference of an
// existing disbursement is immutable, so no soa/reserve-release ids here.
type UpdateInput struct {
	PayeeID        *int64
	PaymentMethod  *PaymentMethod
	Amount         *money.Money
	ClientFee      *money.Money
	ThirdPartyFee  *money.Money
	TPTicketNumber *string
	IsReviewed     *bool
}

// Result is what every mutating operation returns: the persisted
// disbursement plus the derived reserve_release_id and net amount.
type Result struct {
	Disbursement     Disbursement
	ReserveReleaseID *int64
	NetAmount        money.Money
}

// =============================================================================
// CREATE
// =============================================================================

// Create validates and persists a new disbursement against its obligation.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Result, error) {
	if in.SOAID == nil && in.ReserveReleaseID == nil {
		return nil, errObligationRequired
	}
	if in.PayeeID == nil {
		return nil, errPayeeRequired
	}

	payee, err := m.store.GetPayee(ctx, *in.PayeeID)
	if err != nil {
		return nil, err
	}
	if payee == nil {
		return nil, &NotFoundError{Entity: "payee"}
	}
	if !payee.IsActive {
		return nil, errPayeeInactive
	}

	// Resolve the obligation. When both ids are supplied the SOA wins,
	// matching the reference-before-link precedence of the data model.
	var (
		ob   Obligation
		rr   *ReserveRelease
		rrID *int64
	)
	if in.SOAID != nil {
		soa, err := m.store.GetSOA(ctx, *in.SOAID)
		if err != nil {
			return nil, err
		}
		if soa == nil {
			return nil, &NotFoundError{Entity: "soa"}
		}
		ob = soa
	} else {
		rr, err = m.store.GetReserveRelease(ctx, *in.ReserveReleaseID)
		if err != nil {
			return nil, err
		}
		if rr == nil {
			return nil, &NotFoundError{Entity: "reserve_release"}
		}
		ob = rr
		rrID = in.ReserveReleaseID
	}

	if in.Amount == nil {
		return nil, &ValidationError{Field: "amount", Reason: "is required"}
	}
	method := MethodWire
	if in.PaymentMethod != nil {
		if !in.PaymentMethod.Valid() {
			return nil, &ValidationError{Field: "payment_method", Reason: "unknown value"}
		}
		method = *in.PaymentMethod
	}

	amount := in.Amount.Round2()
	if !amount.IsPositive() {
		return nil, &AmountError{Amount: amount}
	}

	unlock := m.lockObligation(ob.ObligationRefType(), ob.ObligationID())
	defer unlock()

	calc := &Calculator{Store: m.store}
	totals, err := calc.TotalsFor(ctx, ob)
	if err != nil {
		return nil, err
	}

	settings, err := m.store.GetClientSettings(ctx, ob.ObligationClientID())
	if err != nil {
		return nil, err
	}
	assoc, err := m.store.GetClientPayee(ctx, ob.ObligationClientID(), payee.ID)
	if err != nil {
		return nil, err
	}

	clientFee, thirdPartyFee := ResolveFees(FeeInput{
		Settings:              settings,
		Association:           assoc,
		Method:                method,
		MethodProvided:        in.PaymentMethod != nil,
		ExplicitClientFee:     in.ClientFee,
		ExplicitThirdPartyFee: in.ThirdPartyFee,
	})

	net := amount.Sub(clientFee.Add(thirdPartyFee)).Round2()
	if !net.IsPositive() {
		return nil, &NetAmountError{Net: net}
	}

	if amount.GreaterThan(totals.OutstandingAmount) {
		return nil, &CapacityError{Amount: amount, Outstanding: totals.OutstandingAmount}
	}

	now := time.Now().UTC()
	d := &Disbursement{
		ClientID:      ob.ObligationClientID(),
		SOAID:         in.SOAID,
		PayeeID:       payee.ID,
		RefType:       ob.ObligationRefType(),
		RefID:         ob.ObligationID(),
		PaymentMethod: method,
		Amount:        amount,
		ClientFee:     clientFee.Round2(),
		ThirdPartyFee: thirdPartyFee.Round2(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.TPTicketNumber != nil {
		d.TPTicketNumber = *in.TPTicketNumber
	}
	if in.IsReviewed != nil {
		d.IsReviewed = *in.IsReviewed
	}

	err = m.store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveDisbursement(ctx, d); err != nil {
			return err
		}
		if rr != nil {
			link := &Linkage{Store: tx}
			if err := link.SyncLink(ctx, d.ID, rr.ID); err != nil {
				return err
			}
			return link.Refresh(ctx, rr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{Disbursement: *d, ReserveReleaseID: rrID, NetAmount: d.NetAmount()}, nil
}

// =============================================================================
// READ
// =============================================================================

// Get returns one live disbursement with its derived fields.
func (m *Manager) Get(ctx context.Context, id int64) (*Result, error) {
	d, err := m.store.GetDisbursement(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &NotFoundError{Entity: "disbursements"}
	}
	rrID, err := m.reserveReleaseIDFor(ctx, d)
	if err != nil {
		return nil, err
	}
	return &Result{Disbursement: *d, ReserveReleaseID: rrID, NetAmount: d.NetAmount()}, nil
}

// List returns all live disbursements.
func (m *Manager) List(ctx context.Context) ([]Disbursement, error) {
	return m.store.ListDisbursements(ctx)
}

func (m *Manager) reserveReleaseIDFor(ctx context.Context, d *Disbursement) (*int64, error) {
	if d.SOAID != nil {
		return nil, nil
	}
	link, err := m.store.GetLinkByDisbursement(ctx, d.ID)
	if err != nil || link == nil {
		return nil, err
	}
	id := link.ReserveReleaseID
	return &id, nil
}

// =============================================================================
// UPDATE
// =============================================================================

// Update mutates a disbursement subject to the obligation's state gate.
func (m *Manager) Update(ctx context.Context, id int64, in UpdateInput) (*Result, error) {
	d, err := m.store.GetDisbursement(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &NotFoundError{Entity: "disbursements"}
	}

	rrID, err := m.reserveReleaseIDFor(ctx, d)
	if err != nil {
		return nil, err
	}
	if d.SOAID == nil && rrID == nil {
		return nil, errObligationRequired
	}

	var (
		ob Obligation
		rr *ReserveRelease
	)
	if d.SOAID != nil {
		soa, err := m.store.GetSOA(ctx, *d.SOAID)
		if err != nil {
			return nil, err
		}
		if soa == nil {
			return nil, &NotFoundError{Entity: "soa"}
		}
		ob = soa
	} else {
		rr, err = m.store.GetReserveRelease(ctx, *rrID)
		if err != nil {
			return nil, err
		}
		if rr == nil {
			return nil, &NotFoundError{Entity: "reserve_release"}
		}
		ob = rr
	}

	if ob.ObligationStatus() == StatusCompleted {
		return nil, &CompletedError{RefType: ob.ObligationRefType()}
	}

	payeeID := d.PayeeID
	if in.PayeeID != nil {
		payeeID = *in.PayeeID
	}
	if payeeID == 0 {
		return nil, errPayeeRequired
	}
	payee, err := m.store.GetPayee(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	if payee == nil {
		return nil, &NotFoundError{Entity: "payee"}
	}
	if !payee.IsActive {
		return nil, errPayeeInactive
	}

	if in.PaymentMethod != nil && !in.PaymentMethod.Valid() {
		return nil, &ValidationError{Field: "payment_method", Reason: "unknown value"}
	}

	unlock := m.lockObligation(ob.ObligationRefType(), ob.ObligationID())
	defer unlock()

	approved := ob.ObligationStatus() == StatusApproved
	if approved {
		// Only the reviewed subset is applied; everything else in the
		// payload is dropped, not errored.
		if in.TPTicketNumber != nil {
			d.TPTicketNumber = *in.TPTicketNumber
		}
		if in.IsReviewed != nil {
			d.IsReviewed = *in.IsReviewed
		}
	} else {
		if in.Amount != nil && !in.Amount.Round2().IsPositive() {
			return nil, &AmountError{Amount: in.Amount.Round2()}
		}

		calc := &Calculator{Store: m.store}
		totals, err := calc.TotalsFor(ctx, ob)
		if err != nil {
			return nil, err
		}

		settings, err := m.store.GetClientSettings(ctx, d.ClientID)
		if err != nil {
			return nil, err
		}
		assoc, err := m.store.GetClientPayee(ctx, d.ClientID, payee.ID)
		if err != nil {
			return nil, err
		}

		priorClient := d.ClientFee
		priorThird := d.ThirdPartyFee
		method := d.PaymentMethod
		if in.PaymentMethod != nil {
			method = *in.PaymentMethod
		}
		clientFee, thirdPartyFee := ResolveFees(FeeInput{
			Settings:              settings,
			Association:           assoc,
			Method:                method,
			MethodProvided:        in.PaymentMethod != nil,
			ExplicitClientFee:     in.ClientFee,
			ExplicitThirdPartyFee: in.ThirdPartyFee,
			PriorClientFee:        &priorClient,
			PriorThirdPartyFee:    &priorThird,
		})
		clientFee = clientFee.Round2()
		thirdPartyFee = thirdPartyFee.Round2()

		amount := d.Amount
		if in.Amount != nil {
			amount = in.Amount.Round2()
		}

		net := amount.Sub(clientFee.Add(thirdPartyFee)).Round2()
		if !net.IsPositive() {
			return nil, &NetAmountError{Net: net}
		}

		adjusted := AdjustedOutstanding(totals.OutstandingAmount, d, amount, clientFee, thirdPartyFee)
		if adjusted.IsNegative() {
			return nil, &DeficitError{Deficit: adjusted}
		}

		d.PayeeID = payee.ID
		d.PaymentMethod = method
		d.Amount = amount
		d.ClientFee = clientFee
		d.ThirdPartyFee = thirdPartyFee
		if in.TPTicketNumber != nil {
			d.TPTicketNumber = *in.TPTicketNumber
		}
		if in.IsReviewed != nil {
			d.IsReviewed = *in.IsReviewed
		}
	}
	d.UpdatedAt = time.Now().UTC()

	err = m.store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveDisbursement(ctx, d); err != nil {
			return err
		}
		if rr != nil {
			link := &Linkage{Store: tx}
			if err := link.SyncLink(ctx, d.ID, rr.ID); err != nil {
				return err
			}
			return link.Refresh(ctx, rr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{Disbursement: *d, ReserveReleaseID: rrID, NetAmount: d.NetAmount()}, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete soft-deletes a disbursement and refreshes the reserve release
// cache it was drawn from, if any.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	d, err := m.store.GetDisbursement(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return &NotFoundError{Entity: "disbursements"}
	}

	// capture the linked reserve release before the delete
	rrID, err := m.reserveReleaseIDFor(ctx, d)
	if err != nil {
		return err
	}

	unlock := m.lockObligation(d.RefType, d.RefID)
	defer unlock()

	return m.store.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteDisbursement(ctx, d.ID); err != nil {
			return err
		}
		if rrID == nil {
			return nil
		}
		rr, err := tx.GetReserveRelease(ctx, *rrID)
		if err != nil {
			return err
		}
		if rr == nil {
			return nil
		}
		link := &Linkage{Store: tx}
		return link.Refresh(ctx, rr)
	})
}

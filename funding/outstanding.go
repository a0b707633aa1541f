/*
outstanding.go - Obligation fee totals and the outstanding balance

PURPOSE:
  Answers "how much of this obligation is still disbursable?" and keeps
  the reserve release's cached disbursement_amount derivable from one
  place.

THE TOTALS:
  Over the obligation's live disbursements (those whose client<->payee
  association still exists):

    total_amount      = sum(amount)
    client_fee_total  = sum(client_fee)
    third_fee_total   = sum(third_party_fee)
    asap              = schedule high_priority_fee, when the obligation
                        is high priority
    total_fees_asap   = asap + client_fee_total + third_fee_total
    fees_to_client    = asap + schedule fees re-derived per disbursement
                        from payment method and association ref_type

    disbursement_amount = advance_subtotal - total_fees_asap
    outstanding_amount  = advance_subtotal - (total_amount + asap)

  Note outstanding subtracts disbursement AMOUNTS, not their fees; the
  fees reduce the cached disbursement_amount instead.

UPDATE ADJUSTMENT:
  During an update the outstanding amount is adjusted incrementally: for
  each of {client_fee, third_party_fee, amount} the signed difference
  old - new is added to the outstanding, composing additively when
  several fields change in one request. Amount differences are rounded
  to cents first. A negative result rejects the update.

SEE ALSO:
  - obligation.go: AdvanceSubtotal per variant
  - lifecycle.go: capacity checks and the deficit rejection
  - linkage.go: persists disbursement_amount on the reserve release
*/
package funding

import (
	"context"

	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// FEE TOTALS
// =============================================================================

// FeeTotals is the full fee/balance picture of one obligation.
type FeeTotals struct {
	AdvanceSubtotal    money.Money
	TotalAmount        money.Money
	FeesToClient       money.Money
	TotalFeesASAP      money.Money
	DisbursementAmount money.Money
	OutstandingAmount  money.Money
	HighPriorityAmount money.Money
	PayeeIDs           []int64
}

// Calculator computes FeeTotals from the store.
type Calculator struct {
	Store Store
}

// TotalsFor recomputes the obligation's totals from its live
// disbursements. Disbursements whose client<->payee association has been
// removed do not participate.
func (c *Calculator) TotalsFor(ctx context.Context, ob Obligation) (FeeTotals, error) {
	var (
		scheduleHighPriority = money.Zero()
		scheduleSameDayACH   = money.Zero()
		scheduleWire         = money.Zero()
		scheduleThirdParty   = money.Zero()
	)

	settings, err := c.Store.GetClientSettings(ctx, ob.ObligationClientID())
	if err != nil {
		return FeeTotals{}, err
	}
	if settings != nil {
		scheduleHighPriority = settings.HighPriorityFee
		scheduleSameDayACH = settings.SameDayACHFee
		scheduleWire = settings.WireFee
		scheduleThirdParty = settings.ThirdPartyFee
	}

	totals := FeeTotals{
		AdvanceSubtotal:    ob.AdvanceSubtotal(),
		HighPriorityAmount: scheduleHighPriority,
	}

	asap := money.Zero()
	feesToClient := money.Zero()
	if ob.IsHighPriority() {
		asap = scheduleHighPriority
		feesToClient = feesToClient.Add(scheduleHighPriority)
	}

	disbs, err := c.Store.ListObligationDisbursements(ctx, ob.ObligationRefType(), ob.ObligationID())
	if err != nil {
		return FeeTotals{}, err
	}

	totalAmount := money.Zero()
	clientFeeTotal := money.Zero()
	thirdFeeTotal := money.Zero()

	for i := range disbs {
		d := &disbs[i]
		assoc, err := c.Store.GetClientPayee(ctx, d.ClientID, d.PayeeID)
		if err != nil {
			return FeeTotals{}, err
		}
		if assoc == nil {
			continue
		}

		switch d.PaymentMethod {
		case MethodWire:
			feesToClient = feesToClient.Add(scheduleWire)
		case MethodSameDayACH:
			feesToClient = feesToClient.Add(scheduleSameDayACH)
		}
		if assoc.RefType == ClientPayeeRefPayee {
			switch d.PaymentMethod {
			case MethodWire, MethodSameDayACH, MethodDirectDeposit:
				feesToClient = feesToClient.Add(scheduleThirdParty)
			}
		}

		clientFeeTotal = clientFeeTotal.Add(d.ClientFee)
		thirdFeeTotal = thirdFeeTotal.Add(d.ThirdPartyFee)
		totalAmount = totalAmount.Add(d.Amount)
		totals.PayeeIDs = append(totals.PayeeIDs, d.PayeeID)
	}

	totals.TotalAmount = totalAmount.Round2()
	totals.FeesToClient = feesToClient.Round2()
	totals.TotalFeesASAP = asap.Add(clientFeeTotal).Add(thirdFeeTotal).Round2()
	totals.DisbursementAmount = totals.AdvanceSubtotal.Sub(totals.TotalFeesASAP).Round2()
	totals.OutstandingAmount = totals.AdvanceSubtotal.Sub(totalAmount.Add(asap)).Round2()
	return totals, nil
}

// =============================================================================
// INCREMENTAL UPDATE ADJUSTMENT
// =============================================================================

// AdjustedOutstanding applies the delta semantics of an in-place update:
// each field's old - new difference is added back to the outstanding
// amount (so growing a field consumes capacity, shrinking one releases
// it). Differences in amount are rounded to cents before composing.
func AdjustedOutstanding(outstanding money.Money, old *Disbursement, newAmount, newClientFee, newThirdPartyFee money.Money) money.Money {
	outstanding = outstanding.Add(old.ClientFee.Sub(newClientFee))
	outstanding = outstanding.Add(old.ThirdPartyFee.Sub(newThirdPartyFee))
	outstanding = outstanding.Add(old.Amount.Sub(newAmount).Round2())
	return outstanding.Round2()
}

package funding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/funding/store"
	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	store *store.Memory
	payee *funding.Payee
}

// newFixture seeds a store with one active payee associated to client 1
// and a fee schedule.
func newFixture(t *testing.T, refType funding.ClientPayeeRefType, settings *funding.ClientSettings) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	p := &funding.Payee{FirstName: "Pat", LastName: "Vendor", IsActive: true}
	require.NoError(t, mem.SavePayee(ctx, p))
	require.NoError(t, mem.SaveClientPayee(ctx, &funding.ClientPayee{
		ClientID: 1, PayeeID: p.ID, RefType: refType,
	}))
	if settings != nil {
		settings.ClientID = 1
		require.NoError(t, mem.SaveClientSettings(ctx, settings))
	}
	return &fixture{store: mem, payee: p}
}

func (f *fixture) addSOA(t *testing.T, advance float64, status funding.ObligationStatus, highPriority bool) *funding.SOA {
	t.Helper()
	soa := &funding.SOA{
		ClientID:      1,
		Status:        status,
		AdvanceAmount: money.FromFloat(advance),
		HighPriority:  highPriority,
	}
	require.NoError(t, f.store.SaveSOA(context.Background(), soa))
	return soa
}

func (f *fixture) addDisbursement(t *testing.T, soa *funding.SOA, amount, clientFee, thirdPartyFee float64, method funding.PaymentMethod) *funding.Disbursement {
	t.Helper()
	d := &funding.Disbursement{
		ClientID:      1,
		SOAID:         &soa.ID,
		PayeeID:       f.payee.ID,
		RefType:       funding.RefSOA,
		RefID:         soa.ID,
		PaymentMethod: method,
		Amount:        money.FromFloat(amount),
		ClientFee:     money.FromFloat(clientFee),
		ThirdPartyFee: money.FromFloat(thirdPartyFee),
	}
	require.NoError(t, f.store.SaveDisbursement(context.Background(), d))
	return d
}

// =============================================================================
// TOTALS
// =============================================================================

func TestTotalsFor_EmptyObligation(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	calc := &funding.Calculator{Store: f.store}
	totals, err := calc.TotalsFor(context.Background(), soa)
	require.NoError(t, err)

	assert.True(t, money.FromFloat(1000).Equal(totals.AdvanceSubtotal))
	assert.True(t, money.FromFloat(1000).Equal(totals.OutstandingAmount))
	assert.True(t, totals.TotalFeesASAP.IsZero())
	assert.True(t, money.FromFloat(1000).Equal(totals.DisbursementAmount))
}

func TestTotalsFor_OutstandingSubtractsAmountsNotFees(t *testing.T) {
	// Fees reduce the cached disbursement_amount, not the outstanding pool.
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(0, 0, 5, 0))
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)
	f.addDisbursement(t, soa, 200, 5, 0, funding.MethodWire)

	calc := &funding.Calculator{Store: f.store}
	totals, err := calc.TotalsFor(context.Background(), soa)
	require.NoError(t, err)

	assert.True(t, money.FromFloat(800).Equal(totals.OutstandingAmount),
		"outstanding should be 1000-200=800, got %s", totals.OutstandingAmount)
	assert.True(t, money.FromFloat(5).Equal(totals.TotalFeesASAP))
	assert.True(t, money.FromFloat(995).Equal(totals.DisbursementAmount))
	assert.True(t, money.FromFloat(200).Equal(totals.TotalAmount))
}

func TestTotalsFor_HighPriorityConsumesCapacity(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(30, 0, 0, 0))
	soa := f.addSOA(t, 1000, funding.StatusDraft, true)

	calc := &funding.Calculator{Store: f.store}
	totals, err := calc.TotalsFor(context.Background(), soa)
	require.NoError(t, err)

	assert.True(t, money.FromFloat(970).Equal(totals.OutstandingAmount))
	assert.True(t, money.FromFloat(30).Equal(totals.TotalFeesASAP))
	assert.True(t, money.FromFloat(30).Equal(totals.HighPriorityAmount))
}

func TestTotalsFor_SkipsDisbursementsWithoutAssociation(t *testing.T) {
	// A disbursement whose client<->payee association was removed no
	// longer participates in the totals.
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)
	f.addDisbursement(t, soa, 200, 0, 0, funding.MethodWire)

	// orphan: a second payee with no association
	ctx := context.Background()
	orphan := &funding.Payee{FirstName: "No", LastName: "Assoc", IsActive: true}
	require.NoError(t, f.store.SavePayee(ctx, orphan))
	d := &funding.Disbursement{
		ClientID:      1,
		SOAID:         &soa.ID,
		PayeeID:       orphan.ID,
		RefType:       funding.RefSOA,
		RefID:         soa.ID,
		PaymentMethod: funding.MethodWire,
		Amount:        money.FromFloat(500),
	}
	require.NoError(t, f.store.SaveDisbursement(ctx, d))

	calc := &funding.Calculator{Store: f.store}
	totals, err := calc.TotalsFor(ctx, soa)
	require.NoError(t, err)

	assert.True(t, money.FromFloat(800).Equal(totals.OutstandingAmount))
	assert.Equal(t, []int64{f.payee.ID}, totals.PayeeIDs)
}

func TestTotalsFor_ReserveReleaseAdjustments(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	rr := &funding.ReserveRelease{
		ClientID:                1,
		Status:                  funding.StatusDraft,
		AdvanceAmount:           money.FromFloat(1000),
		DiscountFeeAdjustment:   money.FromFloat(40),
		MiscellaneousAdjustment: money.FromFloat(10),
	}
	require.NoError(t, f.store.SaveReserveRelease(context.Background(), rr))

	calc := &funding.Calculator{Store: f.store}
	totals, err := calc.TotalsFor(context.Background(), rr)
	require.NoError(t, err)

	assert.True(t, money.FromFloat(950).Equal(totals.AdvanceSubtotal))
	assert.True(t, money.FromFloat(950).Equal(totals.OutstandingAmount))
}

// =============================================================================
// INCREMENTAL UPDATE ADJUSTMENT
// =============================================================================

func TestAdjustedOutstanding_AmountDelta(t *testing.T) {
	// outstanding=100, amount 20 -> 30: outstanding drops to 90;
	// amount 30 -> 20 brings it back.
	old := &funding.Disbursement{
		Amount:        money.FromFloat(20),
		ClientFee:     money.FromFloat(2),
		ThirdPartyFee: money.FromFloat(1),
	}

	got := funding.AdjustedOutstanding(money.FromFloat(100), old,
		money.FromFloat(30), money.FromFloat(2), money.FromFloat(1))
	assert.True(t, money.FromFloat(90).Equal(got), "got %s", got)

	old.Amount = money.FromFloat(30)
	got = funding.AdjustedOutstanding(money.FromFloat(90), old,
		money.FromFloat(20), money.FromFloat(2), money.FromFloat(1))
	assert.True(t, money.FromFloat(100).Equal(got), "got %s", got)
}

func TestAdjustedOutstanding_ComposesAllThreeDeltas(t *testing.T) {
	old := &funding.Disbursement{
		Amount:        money.FromFloat(50),
		ClientFee:     money.FromFloat(5),
		ThirdPartyFee: money.FromFloat(5),
	}

	// amount +10, client_fee -2, third_party_fee +3 => net -11
	got := funding.AdjustedOutstanding(money.FromFloat(100), old,
		money.FromFloat(60), money.FromFloat(3), money.FromFloat(8))
	assert.True(t, money.FromFloat(89).Equal(got), "got %s", got)
}

func TestAdjustedOutstanding_NegativeSignalsDeficit(t *testing.T) {
	old := &funding.Disbursement{Amount: money.FromFloat(20)}

	got := funding.AdjustedOutstanding(money.FromFloat(10), old,
		money.FromFloat(50), money.Zero(), money.Zero())
	assert.True(t, got.IsNegative())
}

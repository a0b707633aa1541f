package funding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// HELPERS
// =============================================================================

func int64p(n int64) *int64 { return &n }

func methodp(m funding.PaymentMethod) *funding.PaymentMethod { return &m }

func outstandingOf(t *testing.T, f *fixture, ob funding.Obligation) money.Money {
	t.Helper()
	calc := &funding.Calculator{Store: f.store}
	totals, err := calc.TotalsFor(context.Background(), ob)
	require.NoError(t, err)
	return totals.OutstandingAmount
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_RequiresObligationAndPayee(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()

	_, err := mgr.Create(ctx, funding.CreateInput{PayeeID: int64p(f.payee.ID)})
	require.Error(t, err)
	assert.Equal(t, "soa_id/ reserve_release_id is required", err.Error())

	soa := f.addSOA(t, 1000, funding.StatusDraft, false)
	_, err = mgr.Create(ctx, funding.CreateInput{SOAID: &soa.ID})
	require.Error(t, err)
	assert.Equal(t, "payee_id is required", err.Error())
}

func TestCreate_PayeeChecks(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	_, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: int64p(9999), Amount: moneyp(100),
	})
	require.Error(t, err)
	assert.True(t, funding.IsNotFound(err))
	assert.Equal(t, "payee not found", err.Error())

	inactive := &funding.Payee{FirstName: "Off", LastName: "Boarded", IsActive: false}
	require.NoError(t, f.store.SavePayee(ctx, inactive))
	_, err = mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &inactive.ID, Amount: moneyp(100),
	})
	require.Error(t, err)
	assert.Equal(t, "payee is not active", err.Error())
}

func TestCreate_ObligationNotFound(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()

	_, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: int64p(42), PayeeID: &f.payee.ID, Amount: moneyp(100),
	})
	require.Error(t, err)
	assert.Equal(t, "soa not found", err.Error())

	_, err = mgr.Create(ctx, funding.CreateInput{
		ReserveReleaseID: int64p(42), PayeeID: &f.payee.ID, Amount: moneyp(100),
	})
	require.Error(t, err)
	assert.Equal(t, "reserve_release not found", err.Error())
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	_, err := mgr.Create(context.Background(), funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(0),
	})
	require.Error(t, err)
	assert.Equal(t, "Amount cannot be $0.00", err.Error())

	_, err = mgr.Create(context.Background(), funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(-12.5),
	})
	require.Error(t, err)
	assert.Equal(t, "Amount cannot be -$12.50", err.Error())
}

func TestCreate_RejectsNonPositiveNetAmount(t *testing.T) {
	// amount 50 with client_fee 50 nets to zero
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	_, err := mgr.Create(context.Background(), funding.CreateInput{
		SOAID:     &soa.ID,
		PayeeID:   &f.payee.ID,
		Amount:    moneyp(50),
		ClientFee: moneyp(50),
	})
	require.Error(t, err)
	assert.Equal(t, "net amount must be greater than $0.00", err.Error())

	_, err = mgr.Create(context.Background(), funding.CreateInput{
		SOAID:     &soa.ID,
		PayeeID:   &f.payee.ID,
		Amount:    moneyp(50),
		ClientFee: moneyp(60),
	})
	require.Error(t, err)
	assert.Equal(t, "net amount -$10.00 cannot be negative", err.Error())
}

func TestCreate_RejectsAmountOverOutstanding(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	soa := f.addSOA(t, 100, funding.StatusDraft, false)

	_, err := mgr.Create(context.Background(), funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(150),
	})
	require.Error(t, err)
	assert.Equal(t, "amount $150.00 is more than outstanding amount $100.00", err.Error())
	assert.True(t, funding.IsClientError(err))
}

func TestCreate_NoSideEffectsOnRejection(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 100, funding.StatusDraft, false)

	_, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(150),
	})
	require.Error(t, err)

	disbs, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, disbs)
	assert.True(t, money.FromFloat(100).Equal(outstandingOf(t, f, soa)))
}

func TestCreate_ScheduleWireFeeAppliedOverExplicit(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(0, 0, 10, 0))
	mgr := funding.NewManager(f.store)
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(context.Background(), funding.CreateInput{
		SOAID:         &soa.ID,
		PayeeID:       &f.payee.ID,
		PaymentMethod: methodp(funding.MethodWire),
		Amount:        moneyp(200),
		ClientFee:     moneyp(5),
	})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(10).Equal(res.Disbursement.ClientFee),
		"schedule should override explicit client_fee, got %s", res.Disbursement.ClientFee)
	assert.True(t, money.FromFloat(190).Equal(res.NetAmount))
}

func TestCreate_DefaultsToWireMethodWithoutOverride(t *testing.T) {
	// No payment_method in the payload: defaults to wire but the
	// schedule does not override the explicit fee.
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(0, 0, 10, 0))
	mgr := funding.NewManager(f.store)
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(context.Background(), funding.CreateInput{
		SOAID:     &soa.ID,
		PayeeID:   &f.payee.ID,
		Amount:    moneyp(200),
		ClientFee: moneyp(5),
	})
	require.NoError(t, err)
	assert.Equal(t, funding.MethodWire, res.Disbursement.PaymentMethod)
	assert.True(t, money.FromFloat(5).Equal(res.Disbursement.ClientFee))
}

func TestCreate_ReserveReleaseLinksAndRefreshesCache(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(0, 0, 5, 0))
	mgr := funding.NewManager(f.store)
	ctx := context.Background()

	rr := &funding.ReserveRelease{
		ClientID:      1,
		Status:        funding.StatusDraft,
		AdvanceAmount: money.FromFloat(1000),
	}
	require.NoError(t, f.store.SaveReserveRelease(ctx, rr))

	res, err := mgr.Create(ctx, funding.CreateInput{
		ReserveReleaseID: &rr.ID,
		PayeeID:          &f.payee.ID,
		PaymentMethod:    methodp(funding.MethodWire),
		Amount:           moneyp(200),
	})
	require.NoError(t, err)
	require.NotNil(t, res.ReserveReleaseID)
	assert.Equal(t, rr.ID, *res.ReserveReleaseID)
	assert.Nil(t, res.Disbursement.SOAID)

	link, err := f.store.GetLinkByDisbursement(ctx, res.Disbursement.ID)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, rr.ID, link.ReserveReleaseID)

	// cached disbursement_amount = 1000 - wire fee 5
	fresh, err := f.store.GetReserveRelease(ctx, rr.ID)
	require.NoError(t, err)
	assert.True(t, money.FromFloat(995).Equal(fresh.DisbursementAmount),
		"got %s", fresh.DisbursementAmount)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)

	_, err := mgr.Update(context.Background(), 42, funding.UpdateInput{})
	require.Error(t, err)
	assert.Equal(t, "disbursements not found", err.Error())
}

func TestUpdate_CompletedObligationRejected(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(100),
	})
	require.NoError(t, err)

	soa.Status = funding.StatusCompleted
	require.NoError(t, f.store.SaveSOA(ctx, soa))

	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{Amount: moneyp(50)})
	require.Error(t, err)
	assert.Equal(t, "SOA is already completed", err.Error())
}

func TestUpdate_CompletedReserveReleaseMessage(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()

	rr := &funding.ReserveRelease{
		ClientID:      1,
		Status:        funding.StatusDraft,
		AdvanceAmount: money.FromFloat(1000),
	}
	require.NoError(t, f.store.SaveReserveRelease(ctx, rr))

	res, err := mgr.Create(ctx, funding.CreateInput{
		ReserveReleaseID: &rr.ID, PayeeID: &f.payee.ID, Amount: moneyp(100),
	})
	require.NoError(t, err)

	fresh, err := f.store.GetReserveRelease(ctx, rr.ID)
	require.NoError(t, err)
	fresh.Status = funding.StatusCompleted
	require.NoError(t, f.store.SaveReserveRelease(ctx, fresh))

	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{Amount: moneyp(50)})
	require.Error(t, err)
	assert.Equal(t, "Reserve Release is already completed", err.Error())
}

func TestUpdate_ApprovedObligationAppliesOnlyReviewFields(t *testing.T) {
	// Approved obligations freeze money fields; the reviewed subset
	// still goes through, the rest is silently dropped.
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(100),
	})
	require.NoError(t, err)

	soa.Status = funding.StatusApproved
	require.NoError(t, f.store.SaveSOA(ctx, soa))

	reviewed := true
	ticket := "TP-1042"
	got, err := mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{
		Amount:         moneyp(999),
		ClientFee:      moneyp(50),
		TPTicketNumber: &ticket,
		IsReviewed:     &reviewed,
	})
	require.NoError(t, err)

	assert.True(t, money.FromFloat(100).Equal(got.Disbursement.Amount),
		"amount must not change while approved, got %s", got.Disbursement.Amount)
	assert.True(t, got.Disbursement.ClientFee.IsZero())
	assert.Equal(t, "TP-1042", got.Disbursement.TPTicketNumber)
	assert.True(t, got.Disbursement.IsReviewed)
}

func TestUpdate_DeltaAdjustsOutstanding(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(200),
	})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(800).Equal(outstandingOf(t, f, soa)))

	// grow by 100: outstanding drops to 700
	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{Amount: moneyp(300)})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(700).Equal(outstandingOf(t, f, soa)))

	// shrink back: outstanding returns to 800
	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{Amount: moneyp(200)})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(800).Equal(outstandingOf(t, f, soa)))
}

func TestUpdate_RejectsDeficit(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 100, funding.StatusDraft, false)

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(80),
	})
	require.NoError(t, err)

	// outstanding is 20; growing the amount by 50 would leave -30
	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{Amount: moneyp(130)})
	require.Error(t, err)
	assert.Equal(t, "outstanding amount will be -$30.00", err.Error())

	// untouched
	fresh, err := f.store.GetDisbursement(ctx, res.Disbursement.ID)
	require.NoError(t, err)
	assert.True(t, money.FromFloat(80).Equal(fresh.Amount))
}

func TestUpdate_RejectsNonPositiveNet(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(100),
	})
	require.NoError(t, err)

	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{
		ClientFee: moneyp(100),
	})
	require.Error(t, err)
	assert.Equal(t, "net amount must be greater than $0.00", err.Error())
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_SoftDeletesAndRestoresOutstanding(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID: &soa.ID, PayeeID: &f.payee.ID, Amount: moneyp(200),
	})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(800).Equal(outstandingOf(t, f, soa)))

	require.NoError(t, mgr.Delete(ctx, res.Disbursement.ID))

	_, err = mgr.Get(ctx, res.Disbursement.ID)
	require.Error(t, err)
	assert.True(t, funding.IsNotFound(err))
	assert.True(t, money.FromFloat(1000).Equal(outstandingOf(t, f, soa)))
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, nil)
	mgr := funding.NewManager(f.store)

	err := mgr.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "disbursements not found", err.Error())
}

func TestDelete_RefreshesReserveReleaseCache(t *testing.T) {
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(0, 0, 5, 0))
	mgr := funding.NewManager(f.store)
	ctx := context.Background()

	rr := &funding.ReserveRelease{
		ClientID:      1,
		Status:        funding.StatusDraft,
		AdvanceAmount: money.FromFloat(1000),
	}
	require.NoError(t, f.store.SaveReserveRelease(ctx, rr))

	res, err := mgr.Create(ctx, funding.CreateInput{
		ReserveReleaseID: &rr.ID,
		PayeeID:          &f.payee.ID,
		PaymentMethod:    methodp(funding.MethodWire),
		Amount:           moneyp(200),
	})
	require.NoError(t, err)

	fresh, err := f.store.GetReserveRelease(ctx, rr.ID)
	require.NoError(t, err)
	require.True(t, money.FromFloat(995).Equal(fresh.DisbursementAmount))

	require.NoError(t, mgr.Delete(ctx, res.Disbursement.ID))

	fresh, err = f.store.GetReserveRelease(ctx, rr.ID)
	require.NoError(t, err)
	assert.True(t, money.FromFloat(1000).Equal(fresh.DisbursementAmount),
		"cache should return to the full subtotal, got %s", fresh.DisbursementAmount)
}

// =============================================================================
// END TO END
// =============================================================================

func TestLifecycle_EndToEnd(t *testing.T) {
	// SOA advance 1000, wire fee schedule 5. Create 200 => outstanding
	// 800, net 195. Grow to 300 => 700. Delete => back to 1000.
	f := newFixture(t, funding.ClientPayeeRefClient, schedule(0, 0, 5, 0))
	mgr := funding.NewManager(f.store)
	ctx := context.Background()
	soa := f.addSOA(t, 1000, funding.StatusDraft, false)

	assert.True(t, money.FromFloat(1000).Equal(outstandingOf(t, f, soa)))

	res, err := mgr.Create(ctx, funding.CreateInput{
		SOAID:         &soa.ID,
		PayeeID:       &f.payee.ID,
		PaymentMethod: methodp(funding.MethodWire),
		Amount:        moneyp(200),
	})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(5).Equal(res.Disbursement.ClientFee))
	assert.True(t, money.FromFloat(195).Equal(res.NetAmount), "got %s", res.NetAmount)
	assert.True(t, money.FromFloat(800).Equal(outstandingOf(t, f, soa)))

	_, err = mgr.Update(ctx, res.Disbursement.ID, funding.UpdateInput{Amount: moneyp(300)})
	require.NoError(t, err)
	assert.True(t, money.FromFloat(700).Equal(outstandingOf(t, f, soa)))

	require.NoError(t, mgr.Delete(ctx, res.Disbursement.ID))
	assert.True(t, money.FromFloat(1000).Equal(outstandingOf(t, f, soa)))
}

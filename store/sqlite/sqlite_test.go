package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/money"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestPayeeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &funding.Payee{FirstName: "Pat", LastName: "Vendor", AccountNickname: "ops", IsActive: true}
	require.NoError(t, s.SavePayee(ctx, p))
	require.NotZero(t, p.ID)

	got, err := s.GetPayee(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pat", got.FirstName)
	assert.Equal(t, "ops", got.AccountNickname)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := s.GetPayee(ctx, p.ID+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMoneyPrecisionSurvivesStorage(t *testing.T) {
	// money is stored as fixed 2-decimal text, never binary floats
	s := newTestStore(t)
	ctx := context.Background()

	soa := &funding.SOA{
		ClientID:      1,
		Status:        funding.StatusDraft,
		AdvanceAmount: money.MustParse("0.1").Add(money.MustParse("0.2")),
	}
	require.NoError(t, s.SaveSOA(ctx, soa))

	got, err := s.GetSOA(ctx, soa.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, money.MustParse("0.30").Equal(got.AdvanceAmount), "got %s", got.AdvanceAmount)
}

func TestClientSettingsUpsertByClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cs := &funding.ClientSettings{ClientID: 7, WireFee: money.FromFloat(5)}
	require.NoError(t, s.SaveClientSettings(ctx, cs))

	cs.WireFee = money.FromFloat(8)
	require.NoError(t, s.SaveClientSettings(ctx, cs))

	got, err := s.GetClientSettings(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, money.FromFloat(8).Equal(got.WireFee))
}

// =============================================================================
// SOFT DELETE
// =============================================================================

func TestDeleteDisbursementIsSoft(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	soa := &funding.SOA{ClientID: 1, Status: funding.StatusDraft, AdvanceAmount: money.FromFloat(100)}
	require.NoError(t, s.SaveSOA(ctx, soa))

	p := &funding.Payee{FirstName: "Pat", LastName: "Vendor", IsActive: true}
	require.NoError(t, s.SavePayee(ctx, p))

	d := &funding.Disbursement{
		ClientID:      1,
		SOAID:         &soa.ID,
		PayeeID:       p.ID,
		RefType:       funding.RefSOA,
		RefID:         soa.ID,
		PaymentMethod: funding.MethodWire,
		Amount:        money.FromFloat(50),
	}
	require.NoError(t, s.SaveDisbursement(ctx, d))
	require.NoError(t, s.DeleteDisbursement(ctx, d.ID))

	got, err := s.GetDisbursement(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "deleted rows must be invisible to reads")

	all, err := s.ListDisbursements(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// =============================================================================
// RESERVE RELEASE LINKS
// =============================================================================

func TestLinkJoinDrivesObligationListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rr := &funding.ReserveRelease{ClientID: 1, Status: funding.StatusDraft, AdvanceAmount: money.FromFloat(500)}
	require.NoError(t, s.SaveReserveRelease(ctx, rr))
	p := &funding.Payee{FirstName: "Pat", LastName: "Vendor", IsActive: true}
	require.NoError(t, s.SavePayee(ctx, p))

	d := &funding.Disbursement{
		ClientID:      1,
		PayeeID:       p.ID,
		RefType:       funding.RefReserveRelease,
		RefID:         rr.ID,
		PaymentMethod: funding.MethodWire,
		Amount:        money.FromFloat(50),
	}
	require.NoError(t, s.SaveDisbursement(ctx, d))

	// without a link row the disbursement is not attributed to the rr
	disbs, err := s.ListObligationDisbursements(ctx, funding.RefReserveRelease, rr.ID)
	require.NoError(t, err)
	assert.Empty(t, disbs)

	require.NoError(t, s.SaveLink(ctx, &funding.ReserveReleaseDisbursement{
		DisbursementID:   d.ID,
		ReserveReleaseID: rr.ID,
	}))
	disbs, err = s.ListObligationDisbursements(ctx, funding.RefReserveRelease, rr.ID)
	require.NoError(t, err)
	require.Len(t, disbs, 1)
	assert.Equal(t, d.ID, disbs[0].ID)

	link, err := s.GetLinkByDisbursement(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, rr.ID, link.ReserveReleaseID)

	// deleting the disbursement hides it from the join as well
	require.NoError(t, s.DeleteDisbursement(ctx, d.ID))
	disbs, err = s.ListObligationDisbursements(ctx, funding.RefReserveRelease, rr.ID)
	require.NoError(t, err)
	assert.Empty(t, disbs)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := s.WithTx(ctx, func(tx funding.Store) error {
		p := &funding.Payee{FirstName: "Ghost", LastName: "Row", IsActive: true}
		if err := tx.SavePayee(ctx, p); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	payees, err := s.ListPayees(ctx)
	require.NoError(t, err)
	assert.Empty(t, payees, "rolled back write must not be visible")
}

func TestWithTxCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx funding.Store) error {
		return tx.SavePayee(ctx, &funding.Payee{FirstName: "Kept", LastName: "Row", IsActive: true})
	})
	require.NoError(t, err)

	payees, err := s.ListPayees(ctx)
	require.NoError(t, err)
	require.Len(t, payees, 1)
	assert.Equal(t, "Kept", payees[0].FirstName)
}

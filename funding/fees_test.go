package funding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func schedule(highPriority, sameDayACH, wire, thirdParty float64) *funding.ClientSettings {
	return &funding.ClientSettings{
		ID:              1,
		ClientID:        1,
		HighPriorityFee: money.FromFloat(highPriority),
		SameDayACHFee:   money.FromFloat(sameDayACH),
		WireFee:         money.FromFloat(wire),
		ThirdPartyFee:   money.FromFloat(thirdParty),
	}
}

func payeeAssoc(refType funding.ClientPayeeRefType) *funding.ClientPayee {
	return &funding.ClientPayee{ID: 1, ClientID: 1, PayeeID: 1, RefType: refType}
}

func moneyp(f float64) *money.Money {
	m := money.FromFloat(f)
	return &m
}

// =============================================================================
// CLIENT FEE PRECEDENCE
// =============================================================================

func TestResolveFees_ScheduleOverridesExplicitWireFee(t *testing.T) {
	// GIVEN: a schedule with wire_fee = 10.00
	// WHEN: the payload names wire AND supplies client_fee = 5.00
	// THEN: the schedule wins

	clientFee, _ := funding.ResolveFees(funding.FeeInput{
		Settings:          schedule(0, 0, 10, 0),
		Association:       payeeAssoc(funding.ClientPayeeRefClient),
		Method:            funding.MethodWire,
		MethodProvided:    true,
		ExplicitClientFee: moneyp(5),
	})

	assert.True(t, money.FromFloat(10).Equal(clientFee),
		"schedule wire fee should override explicit client_fee, got %s", clientFee)
}

func TestResolveFees_ScheduleOverridesForSameDayACH(t *testing.T) {
	clientFee, _ := funding.ResolveFees(funding.FeeInput{
		Settings:          schedule(0, 7.5, 10, 0),
		Method:            funding.MethodSameDayACH,
		MethodProvided:    true,
		ExplicitClientFee: moneyp(1),
	})

	assert.True(t, money.FromFloat(7.5).Equal(clientFee))
}

func TestResolveFees_NoOverrideWhenMethodDefaulted(t *testing.T) {
	// The schedule only overrides when the payload actually named the
	// method; a defaulted method keeps the explicit fee.
	clientFee, _ := funding.ResolveFees(funding.FeeInput{
		Settings:          schedule(0, 0, 10, 0),
		Method:            funding.MethodWire,
		MethodProvided:    false,
		ExplicitClientFee: moneyp(5),
	})

	assert.True(t, money.FromFloat(5).Equal(clientFee))
}

func TestResolveFees_NoOverrideForCheque(t *testing.T) {
	clientFee, _ := funding.ResolveFees(funding.FeeInput{
		Settings:          schedule(0, 0, 10, 0),
		Method:            funding.MethodCheque,
		MethodProvided:    true,
		ExplicitClientFee: moneyp(5),
	})

	assert.True(t, money.FromFloat(5).Equal(clientFee))
}

func TestResolveFees_ExplicitThenPriorThenZero(t *testing.T) {
	// no schedule: explicit wins
	clientFee, _ := funding.ResolveFees(funding.FeeInput{
		ExplicitClientFee: moneyp(3),
		PriorClientFee:    moneyp(8),
	})
	assert.True(t, money.FromFloat(3).Equal(clientFee))

	// no explicit: prior wins (update path)
	clientFee, _ = funding.ResolveFees(funding.FeeInput{
		PriorClientFee: moneyp(8),
	})
	assert.True(t, money.FromFloat(8).Equal(clientFee))

	// nothing at all: zero
	clientFee, _ = funding.ResolveFees(funding.FeeInput{})
	assert.True(t, clientFee.IsZero())
}

// =============================================================================
// THIRD PARTY FEE
// =============================================================================

func TestResolveFees_ThirdPartyForcedByScheduleForPayeeAssoc(t *testing.T) {
	// A "payee" association means a true third party: the schedule's
	// third_party_fee applies even over an explicit payload value.
	_, thirdParty := funding.ResolveFees(funding.FeeInput{
		Settings:              schedule(0, 0, 0, 25),
		Association:           payeeAssoc(funding.ClientPayeeRefPayee),
		ExplicitThirdPartyFee: moneyp(2),
	})
	assert.True(t, money.FromFloat(25).Equal(thirdParty))
}

func TestResolveFees_ThirdPartyZeroForClientAssoc(t *testing.T) {
	_, thirdParty := funding.ResolveFees(funding.FeeInput{
		Settings:              schedule(0, 0, 0, 25),
		Association:           payeeAssoc(funding.ClientPayeeRefClient),
		ExplicitThirdPartyFee: moneyp(2),
	})
	assert.True(t, thirdParty.IsZero(),
		"client-association should force third_party_fee to zero, got %s", thirdParty)
}

func TestResolveFees_ThirdPartyZeroWhenNoAssociation(t *testing.T) {
	_, thirdParty := funding.ResolveFees(funding.FeeInput{
		Settings:              schedule(0, 0, 0, 25),
		ExplicitThirdPartyFee: moneyp(2),
	})
	assert.True(t, thirdParty.IsZero())
}

func TestResolveFees_ThirdPartyFallbacksWithoutSchedule(t *testing.T) {
	_, thirdParty := funding.ResolveFees(funding.FeeInput{
		ExplicitThirdPartyFee: moneyp(2),
		PriorThirdPartyFee:    moneyp(4),
	})
	assert.True(t, money.FromFloat(2).Equal(thirdParty))

	_, thirdParty = funding.ResolveFees(funding.FeeInput{
		PriorThirdPartyFee: moneyp(4),
	})
	assert.True(t, money.FromFloat(4).Equal(thirdParty))
}

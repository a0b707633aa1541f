/*
fees.go - Fee schedule resolution

PURPOSE:
  Determines the client_fee and third_party_fee for a disbursement from
  the client's fee schedule, the payment method, and the client<->payee
  association.

PRECEDENCE:
  client_fee:
    1. schedule fee, when the payload names a payment method of
       same_day_ach or wire AND the client has a fee schedule. The
       schedule wins even over an explicitly supplied client_fee for
       these two methods.
    2. explicitly supplied client_fee
    3. the previously stored fee (updates only)
    4. zero

  third_party_fee:
    When the client has a fee schedule, it decides: the schedule's
    third_party_fee if the payee association's ref_type is "payee",
    zero otherwise - an explicit payload value is ignored. Without a
    schedule: explicit, then prior, then zero.

EXAMPLE:
  schedule wire_fee = 10.00, payload client_fee = 5.00, method = wire
  => client_fee resolves to 10.00.

SEE ALSO:
  - lifecycle.go: the only caller
  - outstanding.go: aggregates resolved fees across an obligation
*/
package funding

import "github.com/aravind238/funding-sub002/money"

// =============================================================================
// FEE RESOLVER
// =============================================================================

// FeeInput carries everything fee resolution depends on. Explicit* are
// payload values (nil when the caller did not supply the field); Prior*
// are the stored values of the disbursement being updated (nil on
// create). MethodProvided distinguishes "payload named a method" from
// "method defaulted" - the schedule only overrides in the former case.
type FeeInput struct {
	Settings    *ClientSettings
	Association *ClientPayee

	Method         PaymentMethod
	MethodProvided bool

	ExplicitClientFee     *money.Money
	ExplicitThirdPartyFee *money.Money

	PriorClientFee     *money.Money
	PriorThirdPartyFee *money.Money
}

// ResolveFees applies the precedence rules above.
func ResolveFees(in FeeInput) (clientFee, thirdPartyFee money.Money) {
	// client_fee: explicit, then prior, then zero...
	switch {
	case in.ExplicitClientFee != nil:
		clientFee = *in.ExplicitClientFee
	case in.PriorClientFee != nil:
		clientFee = *in.PriorClientFee
	}

	// ...unless the schedule overrides for same_day_ach / wire.
	if in.Settings != nil && in.MethodProvided {
		switch in.Method {
		case MethodSameDayACH:
			clientFee = in.Settings.SameDayACHFee
		case MethodWire:
			clientFee = in.Settings.WireFee
		}
	}

	// third_party_fee: the schedule decides when present.
	if in.Settings != nil {
		if in.Association != nil && in.Association.RefType == ClientPayeeRefPayee {
			thirdPartyFee = in.Settings.ThirdPartyFee
		} else {
			thirdPartyFee = money.Zero()
		}
		return clientFee, thirdPartyFee
	}

	switch {
	case in.ExplicitThirdPartyFee != nil:
		thirdPartyFee = *in.ExplicitThirdPartyFee
	case in.PriorThirdPartyFee != nil:
		thirdPartyFee = *in.PriorThirdPartyFee
	}
	return clientFee, thirdPartyFee
}

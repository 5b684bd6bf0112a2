package ledger

import (
	"fmt"

	"github.com/famledger/famledger/pkg/settings"
)

// SelfName is used as counterparty when nobody else can be named.
const SelfName = "Me"

// CounterpartyPolicy decides who a ledger transaction concerns when the draft
// does not say.
type CounterpartyPolicy string

const (
	// CounterpartyFirstMember picks the first known family member, or SelfName
	// when there is none.
	CounterpartyFirstMember CounterpartyPolicy = "first_member"
	// CounterpartySelf always picks SelfName.
	CounterpartySelf CounterpartyPolicy = "self"
)

func ParseCounterpartyPolicy(value string) (CounterpartyPolicy, error) {
	switch CounterpartyPolicy(value) {
	case "", CounterpartyFirstMember:
		return CounterpartyFirstMember, nil
	case CounterpartySelf:
		return CounterpartySelf, nil
	}
	return "", fmt.Errorf("unknown counterparty default %q", value)
}

func (p CounterpartyPolicy) resolve(members settings.FamilyMembers) string {
	if p == CounterpartySelf {
		return SelfName
	}
	if first, ok := members.First(); ok {
		return first
	}
	return SelfName
}

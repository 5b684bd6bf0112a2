package settings

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Settings struct {
	LedgerName    string
	FamilyMembers FamilyMembers
	BudgetLimit   decimal.Decimal
}

// FamilyMembers is an insertion ordered set of non-empty names.
type FamilyMembers struct {
	names []string
}

func NewFamilyMembers(names ...string) FamilyMembers {
	var members FamilyMembers
	for _, name := range names {
		members, _ = members.Add(name)
	}
	return members
}

// Add returns the set with name appended. The second result is false when the
// name is blank or already present, in which case the set is unchanged.
func (f FamilyMembers) Add(name string) (FamilyMembers, bool) {
	name = strings.TrimSpace(name)
	if name == "" || f.Contains(name) {
		return f, false
	}
	names := make([]string, len(f.names), len(f.names)+1)
	copy(names, f.names)
	return FamilyMembers{names: append(names, name)}, true
}

func (f FamilyMembers) Contains(name string) bool {
	for _, n := range f.names {
		if n == name {
			return true
		}
	}
	return false
}

// First returns the earliest added member, if any.
func (f FamilyMembers) First() (string, bool) {
	if len(f.names) == 0 {
		return "", false
	}
	return f.names[0], true
}

func (f FamilyMembers) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)
	return names
}

func (f FamilyMembers) Len() int {
	return len(f.names)
}

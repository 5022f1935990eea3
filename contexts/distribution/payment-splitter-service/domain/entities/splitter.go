package entities

import (
	"fmt"
	"time"
)

// TotalShareUnits is the share denominator: a fully subscribed splitter
// assigns exactly one million units across its payees.
const TotalShareUnits uint64 = 1_000_000

// Payee is one splitter participant: either a plain address or a project ID
// whose treasury terminal receives the money. Exactly one of the two is set.
type Payee struct {
	Address    string
	ProjectID  uint64
	ShareUnits uint64
}

func (p Payee) IsProject() bool {
	return p.ProjectID != 0
}

// Key identifies the payee inside release bookkeeping.
func (p Payee) Key() string {
	if p.IsProject() {
		return fmt.Sprintf("project/%d", p.ProjectID)
	}
	return "address/" + p.Address
}

// Splitter is a named payment splitter. Its payee set is append-only; value
// accrues on its ledger account per token and is pulled out by payees in
// proportion to their share units.
type Splitter struct {
	Name   string
	Owner  string
	Payees []Payee

	// Released tracks cumulative payouts: token -> payee key -> amount.
	Released map[string]map[string]uint64
	// TotalReleased tracks cumulative payouts per token pool.
	TotalReleased map[string]uint64

	CreatedAt time.Time
}

// Account is the splitter's ledger account name.
func (s Splitter) Account() string {
	return "splitter/" + s.Name
}

// ShareOf returns the share units registered for a payee key, 0 if absent.
func (s Splitter) ShareOf(payeeKey string) uint64 {
	for _, payee := range s.Payees {
		if payee.Key() == payeeKey {
			return payee.ShareUnits
		}
	}
	return 0
}

// FindPayee resolves a payee by key.
func (s Splitter) FindPayee(payeeKey string) (Payee, bool) {
	for _, payee := range s.Payees {
		if payee.Key() == payeeKey {
			return payee, true
		}
	}
	return Payee{}, false
}

// ShareUnitsTotal sums all registered share units.
func (s Splitter) ShareUnitsTotal() uint64 {
	var total uint64
	for _, payee := range s.Payees {
		total += payee.ShareUnits
	}
	return total
}

// ReleasedTo reports the cumulative amount released to a payee for a token.
func (s Splitter) ReleasedTo(token, payeeKey string) uint64 {
	return s.Released[token][payeeKey]
}

// RecordRelease adds to the release bookkeeping for a token pool.
func (s *Splitter) RecordRelease(token, payeeKey string, amount uint64) {
	if s.Released == nil {
		s.Released = make(map[string]map[string]uint64)
	}
	if s.Released[token] == nil {
		s.Released[token] = make(map[string]uint64)
	}
	s.Released[token][payeeKey] += amount
	if s.TotalReleased == nil {
		s.TotalReleased = make(map[string]uint64)
	}
	s.TotalReleased[token] += amount
}

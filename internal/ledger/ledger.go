// Package ledger keeps each seat's side-pot account: a balance held apart
// from the table stack, part of which may be earmarked by tagged
// commitments for side games and variant liabilities.
//
// A commitment's existence is the reservation. Released commitments are
// removed, never zeroed, and Settle only ever moves committed funds.
package ledger

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
)

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrNoAccount             = errors.New("no side-pot account")
	ErrInsufficientAvailable = errors.New("insufficient available balance")
	ErrUnknownCommitment     = errors.New("unknown commitment")
)

// Commitment earmarks part of a balance against one obligation.
type Commitment struct {
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

// Account is a seat's side-pot account.
type Account struct {
	Balance     int64        `json:"balance"`
	Committed   int64        `json:"committed"`
	Commitments []Commitment `json:"commitments,omitempty"`
}

// Available is the amount that may back a new commitment.
func (a *Account) Available() int64 {
	return a.Balance - a.Committed
}

func (a *Account) committedTo(tag string) int64 {
	var sum int64
	for _, c := range a.Commitments {
		if tag == "" || c.Tag == tag {
			sum += c.Amount
		}
	}
	return sum
}

func (a *Account) validate() error {
	var sum int64
	for _, c := range a.Commitments {
		if c.Amount <= 0 {
			return fmt.Errorf("commitment %q has non-positive amount %d", c.Tag, c.Amount)
		}
		sum += c.Amount
	}
	if sum != a.Committed {
		return fmt.Errorf("committed %d does not match commitments %d", a.Committed, sum)
	}
	if a.Committed > a.Balance {
		return fmt.Errorf("committed %d exceeds balance %d", a.Committed, a.Balance)
	}
	return nil
}

func (a *Account) clone() Account {
	return Account{
		Balance:     a.Balance,
		Committed:   a.Committed,
		Commitments: slices.Clone(a.Commitments),
	}
}

// Transfer moves Amount from one seat's commitment Tag to another seat's
// balance. An empty Tag draws on the payer's commitments in order.
type Transfer struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Amount int64  `json:"amount"`
	Tag    string `json:"tag,omitempty"`
}

// SettleResult reports what a transfer actually moved.
type SettleResult struct {
	Transfer
	Moved     int64 `json:"moved"`
	Shortfall int64 `json:"shortfall"`
}

// Ledger holds the side-pot accounts of one table, keyed by seat index. It is
// not safe for concurrent use; the owning table serialises access.
type Ledger struct {
	accounts map[int]*Account
	logger   *log.Logger
}

// New creates an empty ledger.
func New(logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Default()
	}
	return &Ledger{
		accounts: make(map[int]*Account),
		logger:   logger.WithPrefix("ledger"),
	}
}

// Deposit credits a seat's balance, opening the account on first use.
func (l *Ledger) Deposit(seat int, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	acct, ok := l.accounts[seat]
	if !ok {
		acct = &Account{}
		l.accounts[seat] = acct
	}
	acct.Balance += amount
	l.verify(seat)
	return nil
}

// Withdraw debits uncommitted funds from a seat's balance.
func (l *Ledger) Withdraw(seat int, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	acct, ok := l.accounts[seat]
	if !ok {
		return ErrNoAccount
	}
	if amount > acct.Available() {
		return fmt.Errorf("%w: seat %d has %d, requested %d", ErrInsufficientAvailable, seat, acct.Available(), amount)
	}
	acct.Balance -= amount
	l.verify(seat)
	return nil
}

// Close releases every commitment of a seat, removes its account and returns
// the balance that was held.
func (l *Ledger) Close(seat int) int64 {
	acct, ok := l.accounts[seat]
	if !ok {
		return 0
	}
	delete(l.accounts, seat)
	return acct.Balance
}

// Commit earmarks amount of a seat's available balance under tag. Committing
// to an existing tag increases that commitment.
func (l *Ledger) Commit(seat int, amount int64, reason, tag string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	acct, ok := l.accounts[seat]
	if !ok {
		return fmt.Errorf("%w: seat %d", ErrNoAccount, seat)
	}
	if amount > acct.Available() {
		return fmt.Errorf("%w: seat %d has %d, needs %d", ErrInsufficientAvailable, seat, acct.Available(), amount)
	}

	if i := slices.IndexFunc(acct.Commitments, func(c Commitment) bool { return c.Tag == tag }); i >= 0 {
		acct.Commitments[i].Amount += amount
	} else {
		acct.Commitments = append(acct.Commitments, Commitment{Tag: tag, Reason: reason, Amount: amount})
	}
	acct.Committed += amount
	l.verify(seat)
	return nil
}

// Release removes every commitment of a seat carrying tag and returns the
// amount freed. Releasing an unknown tag is a no-op.
func (l *Ledger) Release(seat int, tag string) int64 {
	acct, ok := l.accounts[seat]
	if !ok {
		return 0
	}
	var freed int64
	acct.Commitments = slices.DeleteFunc(acct.Commitments, func(c Commitment) bool {
		if c.Tag != tag {
			return false
		}
		freed += c.Amount
		return true
	})
	acct.Committed -= freed
	l.verify(seat)
	return freed
}

// ReleaseAll removes the commitments carrying tag from every account.
func (l *Ledger) ReleaseAll(tag string) int64 {
	var freed int64
	for _, seat := range l.Seats() {
		freed += l.Release(seat, tag)
	}
	return freed
}

// Reprice sets the commitment under tag to amount. Lowering releases the
// difference back to available balance; raising commits more and fails if
// the seat cannot cover it. A zero amount removes the commitment.
func (l *Ledger) Reprice(seat int, tag string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	acct, ok := l.accounts[seat]
	if !ok {
		return fmt.Errorf("%w: seat %d", ErrNoAccount, seat)
	}
	i := slices.IndexFunc(acct.Commitments, func(c Commitment) bool { return c.Tag == tag })
	if i < 0 {
		return fmt.Errorf("%w: seat %d tag %q", ErrUnknownCommitment, seat, tag)
	}

	current := acct.Commitments[i].Amount
	switch {
	case amount == 0:
		l.Release(seat, tag)
		return nil
	case amount < current:
		acct.Commitments[i].Amount = amount
		acct.Committed -= current - amount
	case amount > current:
		if amount-current > acct.Available() {
			return fmt.Errorf("%w: seat %d has %d, needs %d more", ErrInsufficientAvailable, seat, acct.Available(), amount-current)
		}
		acct.Commitments[i].Amount = amount
		acct.Committed += amount - current
	}
	l.verify(seat)
	return nil
}

// Settle applies transfers in order. Each moves at most the payer's
// commitment to the tag and never more than its balance; anything beyond
// that is a shortfall, logged and reported but never an error. Moved funds
// come out of the commitment they were drawn from.
func (l *Ledger) Settle(transfers []Transfer) []SettleResult {
	results := make([]SettleResult, 0, len(transfers))
	for _, tr := range transfers {
		res := SettleResult{Transfer: tr}
		if tr.Amount <= 0 || tr.From == tr.To {
			results = append(results, res)
			continue
		}

		from, ok := l.accounts[tr.From]
		if ok {
			res.Moved = min(tr.Amount, from.committedTo(tr.Tag), from.Balance)
		}
		res.Shortfall = tr.Amount - res.Moved

		if res.Moved > 0 {
			consume(from, tr.Tag, res.Moved)
			from.Balance -= res.Moved

			to, ok := l.accounts[tr.To]
			if !ok {
				to = &Account{}
				l.accounts[tr.To] = to
			}
			to.Balance += res.Moved
			l.verify(tr.From)
			l.verify(tr.To)
		}

		if res.Shortfall > 0 {
			l.logger.Warn("Settlement shortfall",
				"from", tr.From, "to", tr.To, "tag", tr.Tag,
				"requested", tr.Amount, "moved", res.Moved, "shortfall", res.Shortfall)
		}
		results = append(results, res)
	}
	return results
}

func consume(acct *Account, tag string, amount int64) {
	remaining := amount
	for i := range acct.Commitments {
		if remaining == 0 {
			break
		}
		c := &acct.Commitments[i]
		if tag != "" && c.Tag != tag {
			continue
		}
		take := min(c.Amount, remaining)
		c.Amount -= take
		remaining -= take
	}
	acct.Committed -= amount - remaining
	acct.Commitments = slices.DeleteFunc(acct.Commitments, func(c Commitment) bool { return c.Amount == 0 })
}

// Available returns the uncommitted balance of a seat.
func (l *Ledger) Available(seat int) int64 {
	if acct, ok := l.accounts[seat]; ok {
		return acct.Available()
	}
	return 0
}

// Balance returns the total balance of a seat.
func (l *Ledger) Balance(seat int) int64 {
	if acct, ok := l.accounts[seat]; ok {
		return acct.Balance
	}
	return 0
}

// Committed returns how much a seat has committed under tag.
func (l *Ledger) Committed(seat int, tag string) int64 {
	if acct, ok := l.accounts[seat]; ok {
		return acct.committedTo(tag)
	}
	return 0
}

// Account returns a copy of a seat's account.
func (l *Ledger) Account(seat int) (Account, bool) {
	acct, ok := l.accounts[seat]
	if !ok {
		return Account{}, false
	}
	return acct.clone(), true
}

// Seats returns the seats holding an account in ascending order.
func (l *Ledger) Seats() []int {
	return slices.Sorted(maps.Keys(l.accounts))
}

// Total is the sum of every balance, used for conservation checks.
func (l *Ledger) Total() int64 {
	var total int64
	for _, acct := range l.accounts {
		total += acct.Balance
	}
	return total
}

// Snapshot copies every account.
func (l *Ledger) Snapshot() map[int]Account {
	out := make(map[int]Account, len(l.accounts))
	for seat, acct := range l.accounts {
		out[seat] = acct.clone()
	}
	return out
}

// Check validates every account and returns the first violation.
func (l *Ledger) Check() error {
	for _, seat := range l.Seats() {
		if err := l.accounts[seat].validate(); err != nil {
			return fmt.Errorf("seat %d: %w", seat, err)
		}
	}
	return nil
}

func (l *Ledger) verify(seat int) {
	if acct, ok := l.accounts[seat]; ok {
		if err := acct.validate(); err != nil {
			l.logger.Error("Ledger invariant violated", "seat", seat, "error", err)
		}
	}
}

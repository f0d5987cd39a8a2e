// Package auction implements the bidding state machine of a bridge deal.
//
// An Auction starts in Bidding with the opening seat to call and accepts one
// call at a time from the seat whose turn it is. It ends either Complete, with
// a contract, declarer and dummy, or PassedOut when the first four calls are
// all passes.
package auction

import (
	"errors"
	"fmt"

	"github.com/lox/bridgetable/internal/bridge"
)

// State is the lifecycle stage of an auction.
type State int

const (
	Idle State = iota
	Bidding
	Complete
	PassedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Bidding:
		return "bidding"
	case Complete:
		return "complete"
	case PassedOut:
		return "passed_out"
	default:
		return "unknown"
	}
}

var (
	// ErrIllegalBid is returned for a call that the current auction does not allow.
	ErrIllegalBid = errors.New("illegal bid")
	// ErrOutOfTurn is returned when a seat calls out of rotation.
	ErrOutOfTurn = errors.New("not this seat's turn to call")
	// ErrNotBidding is returned once the auction has ended.
	ErrNotBidding = errors.New("auction is not in progress")
)

// Call is a bid made by a seat.
type Call struct {
	Seat bridge.Seat `json:"seat" toml:"seat"`
	Bid  bridge.Bid  `json:"bid" toml:"bid"`
}

func (c Call) String() string {
	return c.Seat.String() + ":" + c.Bid.String()
}

// Auction tracks the calls of one deal.
type Auction struct {
	state  State
	dealer bridge.Seat
	turn   bridge.Seat
	calls  []Call
	passes int // consecutive passes at the end of calls
}

// New starts an auction with dealer to call first.
func New(dealer bridge.Seat) *Auction {
	return &Auction{
		state:  Bidding,
		dealer: dealer,
		turn:   dealer,
	}
}

// State returns the auction state.
func (a *Auction) State() State { return a.state }

// Dealer returns the seat that made the first call.
func (a *Auction) Dealer() bridge.Seat { return a.dealer }

// Turn returns the seat to call next.
func (a *Auction) Turn() bridge.Seat { return a.turn }

// Calls returns a copy of the bidding history.
func (a *Auction) Calls() []Call {
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

// Check reports whether seat may make bid now without changing the auction.
func (a *Auction) Check(seat bridge.Seat, bid bridge.Bid) error {
	if a.state != Bidding {
		return ErrNotBidding
	}
	if seat != a.turn {
		return ErrOutOfTurn
	}
	return a.legal(seat, bid)
}

func (a *Auction) legal(seat bridge.Seat, bid bridge.Bid) error {
	switch bid.Kind {
	case bridge.KindPass:
		return nil

	case bridge.KindLevel:
		if bid.Level < 1 || bid.Level > 7 || bid.Strain < bridge.StrainClubs || bid.Strain > bridge.NoTrump {
			return fmt.Errorf("%w: %s is not a call", ErrIllegalBid, bid)
		}
		if high, ok := a.highest(); ok && !bid.Higher(high.Bid) {
			return fmt.Errorf("%w: %s does not outrank %s", ErrIllegalBid, bid, high.Bid)
		}
		return nil

	case bridge.KindDouble:
		last, ok := a.lastNonPass()
		if !ok || !last.Bid.IsLevel() || last.Seat.Partnership() == seat.Partnership() {
			return fmt.Errorf("%w: double needs an undoubled opposing bid", ErrIllegalBid)
		}
		return nil

	case bridge.KindRedouble:
		last, ok := a.lastNonPass()
		if !ok || last.Bid.Kind != bridge.KindDouble || last.Seat.Partnership() == seat.Partnership() {
			return fmt.Errorf("%w: redouble needs an opposing double", ErrIllegalBid)
		}
		return nil
	}

	return fmt.Errorf("%w: unknown call", ErrIllegalBid)
}

// Bid applies a call. Illegal calls leave the auction untouched.
func (a *Auction) Bid(seat bridge.Seat, bid bridge.Bid) error {
	if err := a.Check(seat, bid); err != nil {
		return err
	}

	a.calls = append(a.calls, Call{Seat: seat, Bid: bid})
	if bid.Kind == bridge.KindPass {
		a.passes++
	} else {
		a.passes = 0
	}
	a.turn = seat.Next()

	switch {
	case a.passes == 4 && len(a.calls) == 4:
		a.state = PassedOut
	case a.passes == 3 && len(a.calls) > 3:
		a.state = Complete
	}
	return nil
}

// LegalBids lists every call the seat to act could make, in bid order.
func (a *Auction) LegalBids() []bridge.Bid {
	if a.state != Bidding {
		return nil
	}
	var out []bridge.Bid
	for _, bid := range bridge.AllBids() {
		if a.legal(a.turn, bid) == nil {
			out = append(out, bid)
		}
	}
	return out
}

// Contract returns the contract as it currently stands: the highest level bid,
// its doubling, and the seat that would declare it. After Complete it is the
// final contract. ok is false while no level bid has been made.
func (a *Auction) Contract() (contract bridge.Contract, ok bool) {
	idx := -1
	for i := len(a.calls) - 1; i >= 0; i-- {
		if a.calls[i].Bid.IsLevel() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return bridge.Contract{}, false
	}

	high := a.calls[idx]
	contract = bridge.Contract{
		Level:    high.Bid.Level,
		Strain:   high.Bid.Strain,
		Declarer: high.Seat,
	}
	for _, c := range a.calls[idx+1:] {
		switch c.Bid.Kind {
		case bridge.KindDouble:
			contract.Doubling = bridge.Doubled
		case bridge.KindRedouble:
			contract.Doubling = bridge.Redoubled
		}
	}

	side := high.Seat.Partnership()
	for _, c := range a.calls[:idx+1] {
		if c.Bid.IsLevel() && c.Bid.Strain == high.Bid.Strain && c.Seat.Partnership() == side {
			contract.Declarer = c.Seat
			break
		}
	}
	return contract, true
}

func (a *Auction) highest() (Call, bool) {
	for i := len(a.calls) - 1; i >= 0; i-- {
		if a.calls[i].Bid.IsLevel() {
			return a.calls[i], true
		}
	}
	return Call{}, false
}

func (a *Auction) lastNonPass() (Call, bool) {
	for i := len(a.calls) - 1; i >= 0; i-- {
		if a.calls[i].Bid.Kind != bridge.KindPass {
			return a.calls[i], true
		}
	}
	return Call{}, false
}

package table

import (
	"maps"
	"slices"

	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/scoring"
)

// State is a deep copy of the session taken after a committed action. It is
// the only input to view projection and may be read freely.
type State struct {
	Phase Phase
	Board int

	Seats      [bridge.NumSeats]ConnID
	Held       [bridge.NumSeats]bool
	Ready      [bridge.NumSeats]bool
	Spectators []ConnID
	Observers  map[ConnID]Observation
	Paused     bool
	PausedBy   bridge.Seat

	// Hands are the cards each seat still holds.
	Hands  [bridge.NumSeats][]bridge.Card
	Dealer bridge.Seat
	Calls  []auction.Call
	// Contract is provisional while bidding and final afterwards.
	Contract    bridge.Contract
	HasContract bool
	// Turn is meaningful while HasTurn is set (Bidding and Playing).
	Turn       bridge.Seat
	HasTurn    bool
	LegalBids  []bridge.Bid
	LegalCards []bridge.Card

	CurrentTrick []play.Play
	Tricks       []play.Trick
	LastTrick    *play.Trick
	TrickCount   [2]int
	OpeningLead  bool

	Tally scoring.Tally
}

// OpenSeats lists seats that are neither bound nor held.
func (st State) OpenSeats() []bridge.Seat {
	var open []bridge.Seat
	for _, seat := range bridge.Seats {
		if st.Seats[seat] == "" && !st.Held[seat] {
			open = append(open, seat)
		}
	}
	return open
}

// SeatOf returns the seat bound to conn.
func (st State) SeatOf(conn ConnID) (bridge.Seat, bool) {
	if conn == "" {
		return 0, false
	}
	for _, seat := range bridge.Seats {
		if st.Seats[seat] == conn {
			return seat, true
		}
	}
	return 0, false
}

// Snapshot copies the current state.
func (s *Session) Snapshot() State {
	st := State{
		Phase:     s.phase,
		Board:     s.board,
		Seats:     s.seats,
		Held:      s.held,
		Ready:     s.ready,
		Observers: maps.Clone(s.observers),
		Paused:    s.Paused(),
		Tally:     s.tally,
	}
	if st.Paused {
		st.PausedBy = s.holds[0]
	}

	for conn := range s.conns {
		if _, seated := s.SeatOf(conn); !seated {
			st.Spectators = append(st.Spectators, conn)
		}
	}
	slices.Sort(st.Spectators)

	if s.auction != nil {
		st.Dealer = s.auction.Dealer()
		st.Calls = s.auction.Calls()
		st.Contract, st.HasContract = s.auction.Contract()
	}

	switch {
	case s.play != nil:
		st.Hands = s.play.Hands()
		st.Contract, st.HasContract = s.play.Contract(), true
		current := s.play.CurrentTrick()
		st.CurrentTrick = current.Plays
		st.Tricks = s.play.History()
		if last, ok := s.play.LastTrick(); ok {
			st.LastTrick = &last
		}
		st.TrickCount = s.play.TrickCount()
		st.OpeningLead = s.play.OpeningLeadMade()
		if s.phase == Playing {
			st.Turn, st.HasTurn = s.play.Turn(), true
			st.LegalCards = s.play.LegalCards()
		}
	case s.auction != nil:
		for i, h := range s.deal {
			st.Hands[i] = append([]bridge.Card(nil), h...)
		}
		if s.phase == Bidding {
			st.Turn, st.HasTurn = s.auction.Turn(), true
			st.LegalBids = s.auction.LegalBids()
		}
	}
	return st
}

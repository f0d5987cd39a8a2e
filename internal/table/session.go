// Package table holds the authoritative state of a single bridge table.
//
// A Session is not safe for concurrent use. It is owned by one goroutine (the
// server hub) which applies actions one at a time, drains the resulting events
// and projects a Snapshot for every viewer. Every action either commits in
// full or fails with an *ActionError and leaves the session untouched.
package table

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/lox/bridgetable/internal/scoring"
)

// ConnID identifies a client connection. It carries no identity beyond that.
type ConnID string

// Phase is the table-level stage of play.
type Phase int

const (
	Lobby Phase = iota
	Bidding
	Playing
	Scoring
)

func (p Phase) String() string {
	switch p {
	case Lobby:
		return "lobby"
	case Bidding:
		return "bidding"
	case Playing:
		return "playing"
	case Scoring:
		return "scoring"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{Lobby, Bidding, Playing, Scoring} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("table: unknown phase %q", text)
}

// Observation is a privileged view grant: one seat's hand, or every hand.
type Observation struct {
	All  bool
	Seat bridge.Seat
}

// Config controls a Session.
type Config struct {
	// OpeningSeat makes the first call of every deal.
	OpeningSeat bridge.Seat
	// AllowObservers enables the observe action.
	AllowObservers bool
	// Scorer defaults to a fresh rubber score sheet.
	Scorer scoring.Scorer
	// Rand shuffles the deals; defaults to a time-seeded source.
	Rand *rand.Rand
	// NewToken issues seat reconnect tokens; defaults to random UUIDs.
	NewToken func() string
}

// Session is the single mutable aggregate for one table.
type Session struct {
	cfg    Config
	rng    *rand.Rand
	scorer scoring.Scorer

	phase  Phase
	conns  map[ConnID]bool
	seats  [bridge.NumSeats]ConnID
	tokens [bridge.NumSeats]string
	held   [bridge.NumSeats]bool
	// holds lists held seats in disconnect order; the first is reported as pausedBy.
	holds     []bridge.Seat
	observers map[ConnID]Observation
	ready     [bridge.NumSeats]bool

	board   int
	deal    [bridge.NumSeats][]bridge.Card
	auction *auction.Auction
	play    *play.Engine
	tally   scoring.Tally

	events []Event
	fault  error
}

// New creates a session in the Lobby with all seats open.
func New(cfg Config) *Session {
	if cfg.Scorer == nil {
		cfg.Scorer = scoring.NewRubberScorer()
	}
	if cfg.Rand == nil {
		cfg.Rand, _ = randutil.Resolve(nil)
	}
	if cfg.NewToken == nil {
		cfg.NewToken = uuid.NewString
	}
	if !cfg.OpeningSeat.Valid() {
		cfg.OpeningSeat = bridge.North
	}
	return &Session{
		cfg:       cfg,
		rng:       cfg.Rand,
		scorer:    cfg.Scorer,
		phase:     Lobby,
		conns:     make(map[ConnID]bool),
		observers: make(map[ConnID]Observation),
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Board returns the number of the current or most recent deal.
func (s *Session) Board() int { return s.board }

// Fault returns the invariant violation that stopped the session, if any.
func (s *Session) Fault() error { return s.fault }

// Paused reports whether a seat is held for a disconnected player.
func (s *Session) Paused() bool { return len(s.holds) > 0 }

// SeatOf returns the seat bound to conn.
func (s *Session) SeatOf(conn ConnID) (bridge.Seat, bool) {
	for _, seat := range bridge.Seats {
		if s.seats[seat] == conn && conn != "" {
			return seat, true
		}
	}
	return 0, false
}

// DrainEvents returns and clears the queued events.
func (s *Session) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

func (s *Session) emit(e Event) {
	s.events = append(s.events, e)
}

// apply runs op as one atomic action: on failure its events are discarded, and
// after success the invariants are verified. A violation faults the session
// for good and nothing it produced is published.
func (s *Session) apply(op func() error) error {
	if s.fault != nil {
		return fail(ReasonFaulted, "table halted: %v", s.fault)
	}
	mark := len(s.events)
	if err := op(); err != nil {
		s.events = s.events[:mark]
		return err
	}
	if err := s.check(); err != nil {
		s.fault = err
		s.events = s.events[:mark]
		return wrap(ReasonFaulted, err)
	}
	return nil
}

// Connect registers a new connection as a spectator.
func (s *Session) Connect(conn ConnID) error {
	return s.apply(func() error {
		if conn == "" {
			return fail(ReasonBadRequest, "empty connection id")
		}
		if s.conns[conn] {
			return nil
		}
		s.conns[conn] = true
		s.emit(Event{Kind: EventRosterChanged})
		return nil
	})
}

// Disconnect removes conn. A seat it held is freed in the Lobby and held for
// reconnection in any other phase, which pauses the table.
func (s *Session) Disconnect(conn ConnID) error {
	if s.fault != nil {
		delete(s.conns, conn)
		delete(s.observers, conn)
		return nil
	}
	return s.apply(func() error {
		if !s.conns[conn] {
			return nil
		}
		delete(s.conns, conn)
		delete(s.observers, conn)

		seat, seated := s.SeatOf(conn)
		if seated {
			s.seats[seat] = ""
			if s.phase == Lobby {
				s.tokens[seat] = ""
				if s.ready[seat] {
					s.ready[seat] = false
					s.emit(Event{Kind: EventReadinessChanged})
				}
			} else {
				s.held[seat] = true
				s.holds = append(s.holds, seat)
				s.emit(Event{Kind: EventPaused, Seat: seat})
			}
		}
		s.emit(Event{Kind: EventRosterChanged})
		return nil
	})
}

// RequestSeat binds conn to seat and returns the seat's reconnect token.
// In the Lobby a connection that already holds a seat moves to the new one.
func (s *Session) RequestSeat(conn ConnID, seat bridge.Seat) (string, error) {
	var token string
	err := s.apply(func() error {
		if !s.conns[conn] {
			return fail(ReasonBadRequest, "unknown connection")
		}
		if !seat.Valid() {
			return fail(ReasonInvalidSeat, "no such seat")
		}
		if s.seats[seat] == conn {
			token = s.tokens[seat]
			return nil
		}
		if s.seats[seat] != "" {
			return fail(ReasonSeatTaken, "%s is taken", seat.Name())
		}
		if s.held[seat] {
			return fail(ReasonSeatTaken, "%s is held for a disconnected player", seat.Name())
		}

		current, seated := s.SeatOf(conn)
		if seated && s.phase != Lobby {
			return fail(ReasonPhaseMismatch, "cannot change seats during %s", s.phase)
		}
		if seated {
			s.seats[current] = ""
			s.tokens[current] = ""
			if s.ready[current] {
				s.ready[current] = false
				s.emit(Event{Kind: EventReadinessChanged})
			}
		}

		s.seats[seat] = conn
		s.tokens[seat] = s.cfg.NewToken()
		delete(s.observers, conn)
		token = s.tokens[seat]

		s.emit(Event{Kind: EventRosterChanged})
		s.maybeStart()
		return nil
	})
	return token, err
}

// Reconnect rebinds a held seat to conn when token matches the one issued for
// the seat. Reconnecting a seat already bound to conn is a no-op.
func (s *Session) Reconnect(conn ConnID, seat bridge.Seat, token string) error {
	return s.apply(func() error {
		if !s.conns[conn] {
			return fail(ReasonBadRequest, "unknown connection")
		}
		if !seat.Valid() {
			return fail(ReasonInvalidSeat, "no such seat")
		}
		if s.seats[seat] == conn {
			return nil
		}
		if !s.held[seat] {
			if s.seats[seat] != "" {
				return fail(ReasonSeatTaken, "%s is taken", seat.Name())
			}
			return fail(ReasonBadToken, "%s is not held", seat.Name())
		}
		if token == "" || token != s.tokens[seat] {
			return fail(ReasonBadToken, "token does not match %s", seat.Name())
		}
		if other, seated := s.SeatOf(conn); seated {
			return fail(ReasonSeatTaken, "connection already sits %s", other.Name())
		}

		s.seats[seat] = conn
		s.held[seat] = false
		s.holds = slices.DeleteFunc(s.holds, func(h bridge.Seat) bool { return h == seat })
		delete(s.observers, conn)

		s.emit(Event{Kind: EventResumed, Seat: seat})
		s.emit(Event{Kind: EventRosterChanged})
		return nil
	})
}

// ToggleReady flips the ready flag of conn's seat.
func (s *Session) ToggleReady(conn ConnID) error {
	return s.apply(func() error {
		if s.phase != Lobby {
			return fail(ReasonPhaseMismatch, "readiness only applies in the lobby")
		}
		seat, ok := s.SeatOf(conn)
		if !ok {
			return fail(ReasonNotSeated, "take a seat first")
		}
		s.ready[seat] = !s.ready[seat]
		s.emit(Event{Kind: EventReadinessChanged})
		s.maybeStart()
		return nil
	})
}

// Observe grants conn a privileged view. It must be enabled in the Config and
// is never available to a seated connection.
func (s *Session) Observe(conn ConnID, grant Observation) error {
	return s.apply(func() error {
		if !s.cfg.AllowObservers {
			return fail(ReasonObserverDisabled, "observer mode is disabled")
		}
		if !s.conns[conn] {
			return fail(ReasonBadRequest, "unknown connection")
		}
		if _, seated := s.SeatOf(conn); seated {
			return fail(ReasonObserverDisabled, "seated players cannot observe")
		}
		if !grant.All && !grant.Seat.Valid() {
			return fail(ReasonInvalidSeat, "no such seat")
		}
		s.observers[conn] = grant
		return nil
	})
}

func (s *Session) maybeStart() {
	if s.phase != Lobby {
		return
	}
	for _, seat := range bridge.Seats {
		if s.seats[seat] == "" || !s.ready[seat] {
			return
		}
	}
	s.ready = [bridge.NumSeats]bool{}
	s.emit(Event{Kind: EventReadinessChanged})
	s.startDeal()
}

// startDeal deals a fresh board and opens the auction.
func (s *Session) startDeal() {
	s.board++
	s.deal = bridge.Deal(s.rng)
	s.auction = auction.New(s.cfg.OpeningSeat)
	s.play = nil
	s.phase = Bidding
	s.emit(Event{Kind: EventPhaseChanged, Phase: Bidding, Board: s.board})
	s.emit(Event{Kind: EventDealt, Board: s.board})
}

// check verifies the invariants that must hold after every committed action.
func (s *Session) check() error {
	bound := make(map[ConnID]bridge.Seat)
	for _, seat := range bridge.Seats {
		conn := s.seats[seat]
		if conn == "" {
			continue
		}
		if other, dup := bound[conn]; dup {
			return fmt.Errorf("connection %s bound to both %s and %s", conn, other, seat)
		}
		bound[conn] = seat
		if s.held[seat] {
			return fmt.Errorf("seat %s is both held and bound", seat)
		}
	}
	if len(s.holds) > 0 && s.phase == Lobby {
		return fmt.Errorf("seats held in the lobby")
	}

	switch s.phase {
	case Bidding:
		if s.auction == nil || s.auction.State() != auction.Bidding {
			return fmt.Errorf("bidding phase without an open auction")
		}
		if err := bridge.CheckPartition(s.deal[:]...); err != nil {
			return fmt.Errorf("deal: %w", err)
		}
	case Playing, Scoring:
		if s.play == nil {
			return fmt.Errorf("%s phase without play", s.phase)
		}
		hands := s.play.Hands()
		groups := append(hands[:], s.play.Played())
		if err := bridge.CheckPartition(groups...); err != nil {
			return fmt.Errorf("board %d: %w", s.board, err)
		}
		if n := len(s.play.CurrentTrick().Plays); n >= bridge.NumSeats {
			return fmt.Errorf("current trick holds %d cards", n)
		}
		counts := s.play.TrickCount()
		if counts[0]+counts[1] != len(s.play.History()) {
			return fmt.Errorf("trick count %v disagrees with %d tricks", counts, len(s.play.History()))
		}
		if s.phase == Scoring && s.play.State() != play.HandComplete {
			return fmt.Errorf("scoring before the hand is complete")
		}
	}
	return nil
}

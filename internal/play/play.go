// Package play implements the trick-taking phase of a bridge deal.
package play

import (
	"errors"
	"fmt"

	"github.com/lox/bridgetable/internal/bridge"
)

// TricksPerHand is the number of tricks in a deal.
const TricksPerHand = bridge.HandSize

// State is the lifecycle stage of the play.
type State int

const (
	// Leading waits for the opening lead.
	Leading State = iota
	// TrickInProgress has one to three cards on the table.
	TrickInProgress
	// TrickComplete has just resolved a trick; the winner leads next.
	TrickComplete
	// HandComplete has played all thirteen tricks.
	HandComplete
)

func (s State) String() string {
	switch s {
	case Leading:
		return "leading"
	case TrickInProgress:
		return "trick_in_progress"
	case TrickComplete:
		return "trick_complete"
	case HandComplete:
		return "hand_complete"
	default:
		return "unknown"
	}
}

var (
	ErrIllegalCard  = errors.New("illegal card")
	ErrOutOfTurn    = errors.New("not this seat's turn to play")
	ErrHandComplete = errors.New("hand is complete")
)

// Play is a card played by a seat.
type Play struct {
	Seat bridge.Seat `json:"seat" toml:"seat"`
	Card bridge.Card `json:"card" toml:"card"`
}

// Trick is one round of up to four plays. Winner is only meaningful once the
// trick holds four plays.
type Trick struct {
	Leader bridge.Seat `json:"leader" toml:"leader"`
	Plays  []Play      `json:"plays" toml:"plays"`
	Winner bridge.Seat `json:"winner" toml:"winner"`
}

// Complete reports whether all four seats have played.
func (t Trick) Complete() bool {
	return len(t.Plays) == bridge.NumSeats
}

// Led returns the suit of the first card; ok is false for an empty trick.
func (t Trick) Led() (bridge.Suit, bool) {
	if len(t.Plays) == 0 {
		return 0, false
	}
	return t.Plays[0].Card.Suit, true
}

// Cards returns the cards of the trick in play order.
func (t Trick) Cards() []bridge.Card {
	cards := make([]bridge.Card, len(t.Plays))
	for i, p := range t.Plays {
		cards[i] = p.Card
	}
	return cards
}

func (t Trick) clone() Trick {
	t.Plays = append([]Play(nil), t.Plays...)
	return t
}

// Winner returns the seat that wins plays: the highest trump if any trump was
// played, otherwise the highest card of the led suit.
func Winner(plays []Play, contract bridge.Contract) bridge.Seat {
	if len(plays) == 0 {
		return contract.Declarer.Next()
	}
	trump, hasTrump := contract.Trump()
	best := plays[0]
	for _, p := range plays[1:] {
		if beats(p.Card, best.Card, trump, hasTrump) {
			best = p
		}
	}
	return best.Seat
}

// beats reports whether c wins over the currently winning card.
func beats(c, winning bridge.Card, trump bridge.Suit, hasTrump bool) bool {
	if c.Suit == winning.Suit {
		return c.Rank > winning.Rank
	}
	return hasTrump && c.Suit == trump
}

// Engine runs the play of one deal. It owns copies of the four hands and
// removes cards from them as they are played.
type Engine struct {
	contract bridge.Contract
	hands    [bridge.NumSeats][]bridge.Card
	state    State
	turn     bridge.Seat
	current  Trick
	history  []Trick
	tricks   [2]int
}

// New starts the play of contract with the given hands. The seat to the left of
// declarer makes the opening lead.
func New(contract bridge.Contract, hands [bridge.NumSeats][]bridge.Card) *Engine {
	e := &Engine{
		contract: contract,
		state:    Leading,
		turn:     contract.Declarer.Next(),
	}
	for i, h := range hands {
		e.hands[i] = append([]bridge.Card(nil), h...)
	}
	e.current = Trick{Leader: e.turn}
	return e
}

func (e *Engine) State() State { return e.state }

// Turn returns the seat to play next.
func (e *Engine) Turn() bridge.Seat { return e.turn }

func (e *Engine) Contract() bridge.Contract { return e.contract }

// TrickCount returns the tricks won, indexed by partnership.
func (e *Engine) TrickCount() [2]int { return e.tricks }

// OpeningLeadMade reports whether the first card of the hand has been played.
func (e *Engine) OpeningLeadMade() bool { return e.state != Leading }

// CurrentTrick returns the trick being played.
func (e *Engine) CurrentTrick() Trick { return e.current.clone() }

// Hand returns a copy of the cards seat still holds.
func (e *Engine) Hand(s bridge.Seat) []bridge.Card {
	return append([]bridge.Card(nil), e.hands[s]...)
}

// Hands returns copies of the cards still held by each seat.
func (e *Engine) Hands() [bridge.NumSeats][]bridge.Card {
	var out [bridge.NumSeats][]bridge.Card
	for i := range e.hands {
		out[i] = e.Hand(bridge.Seat(i))
	}
	return out
}

// History returns the completed tricks in order.
func (e *Engine) History() []Trick {
	out := make([]Trick, len(e.history))
	for i, t := range e.history {
		out[i] = t.clone()
	}
	return out
}

// LastTrick returns the most recently completed trick.
func (e *Engine) LastTrick() (Trick, bool) {
	if len(e.history) == 0 {
		return Trick{}, false
	}
	return e.history[len(e.history)-1].clone(), true
}

// Played returns every card played so far, completed tricks first.
func (e *Engine) Played() []bridge.Card {
	var out []bridge.Card
	for _, t := range e.history {
		out = append(out, t.Cards()...)
	}
	return append(out, e.current.Cards()...)
}

// LegalCards returns the cards the seat to act may play.
func (e *Engine) LegalCards() []bridge.Card {
	if e.state == HandComplete {
		return nil
	}
	hand := e.hands[e.turn]
	led, ok := e.current.Led()
	if !ok || !bridge.HasSuit(hand, led) {
		return append([]bridge.Card(nil), hand...)
	}
	var out []bridge.Card
	for _, c := range hand {
		if c.Suit == led {
			out = append(out, c)
		}
	}
	return out
}

// Check validates that seat may play card now without changing the engine.
func (e *Engine) Check(seat bridge.Seat, card bridge.Card) error {
	if e.state == HandComplete {
		return ErrHandComplete
	}
	if seat != e.turn {
		return ErrOutOfTurn
	}
	hand := e.hands[seat]
	if !bridge.Contains(hand, card) {
		return fmt.Errorf("%w: %s is not in %s's hand", ErrIllegalCard, card, seat.Name())
	}
	if led, ok := e.current.Led(); ok && card.Suit != led && bridge.HasSuit(hand, led) {
		return fmt.Errorf("%w: must follow %s", ErrIllegalCard, led.Symbol())
	}
	return nil
}

// Play plays card from seat. When the card completes a trick the resolved
// trick is returned.
func (e *Engine) Play(seat bridge.Seat, card bridge.Card) (*Trick, error) {
	if err := e.Check(seat, card); err != nil {
		return nil, err
	}

	e.hands[seat] = bridge.Remove(e.hands[seat], card)
	e.current.Plays = append(e.current.Plays, Play{Seat: seat, Card: card})

	if !e.current.Complete() {
		e.state = TrickInProgress
		e.turn = seat.Next()
		return nil, nil
	}

	done := e.current
	done.Winner = Winner(done.Plays, e.contract)
	e.history = append(e.history, done)
	e.tricks[done.Winner.Partnership()]++
	e.turn = done.Winner
	e.current = Trick{Leader: done.Winner}

	if len(e.history) == TricksPerHand {
		e.state = HandComplete
	} else {
		e.state = TrickComplete
	}

	resolved := done.clone()
	return &resolved, nil
}

// DeclarerTricks returns the tricks won by declarer's side.
func (e *Engine) DeclarerTricks() int {
	return e.tricks[e.contract.Declarer.Partnership()]
}

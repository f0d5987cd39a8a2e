package bridge

import (
	"fmt"
	"slices"
	"strings"
)

// Suit represents a card suit, ordered Clubs < Diamonds < Hearts < Spades.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// String returns the one-letter suit code used on the wire.
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Symbol returns the suit glyph for display.
func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed returns true for Hearts and Diamonds.
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank; Ace is high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankCodes = "23456789TJQKA"

// String returns the one-character rank code.
func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string(rankCodes[r-Two])
}

// Card represents a playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the two-character card code, rank then suit ("AS", "TD").
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Pretty returns the card with its suit glyph ("A♠").
func (c Card) Pretty() string {
	return c.Rank.String() + c.Suit.Symbol()
}

// Valid reports whether c is one of the 52 cards.
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Clubs && c.Suit <= Spades
}

// Index maps the card onto 0..51.
func (c Card) Index() int {
	return int(c.Suit)*13 + int(c.Rank-Two)
}

// MarshalText encodes the card as its code.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("bridge: invalid card %d/%d", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card code.
func (c *Card) UnmarshalText(text []byte) error {
	card, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ParseCard parses a rank+suit code such as "AS", "td" or "10H".
func ParseCard(code string) (Card, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	if strings.HasPrefix(s, "10") {
		s = "T" + s[2:]
	}
	if len(s) != 2 {
		return Card{}, fmt.Errorf("bridge: invalid card code %q", code)
	}

	idx := strings.IndexByte(rankCodes, s[0])
	if idx < 0 {
		return Card{}, fmt.Errorf("bridge: invalid rank in card %q", code)
	}

	var suit Suit
	switch s[1] {
	case 'C':
		suit = Clubs
	case 'D':
		suit = Diamonds
	case 'H':
		suit = Hearts
	case 'S':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("bridge: invalid suit in card %q", code)
	}

	return Card{Rank: Two + Rank(idx), Suit: suit}, nil
}

// MustParseCards parses space separated card codes and panics on error.
// Intended for tests and fixtures.
func MustParseCards(codes string) []Card {
	fields := strings.Fields(codes)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

// Codes returns the wire codes for cards.
func Codes(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// SortHand orders cards for display: spades, hearts, diamonds, clubs, high to low.
func SortHand(cards []Card) {
	slices.SortFunc(cards, func(a, b Card) int {
		if a.Suit != b.Suit {
			return int(b.Suit) - int(a.Suit)
		}
		return int(b.Rank) - int(a.Rank)
	})
}

// Contains reports whether cards holds c.
func Contains(cards []Card, c Card) bool {
	return slices.Contains(cards, c)
}

// HasSuit reports whether any card in cards is of suit s.
func HasSuit(cards []Card, s Suit) bool {
	for _, c := range cards {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// Remove returns cards without c, preserving order. The input is not modified.
func Remove(cards []Card, c Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, x := range cards {
		if x != c {
			out = append(out, x)
		}
	}
	return out
}

package bridge

import (
	"fmt"
	"strings"
)

// Strain is the denomination named in a bid: a suit or no-trump.
// Strains are ordered Clubs < Diamonds < Hearts < Spades < NoTrump.
type Strain int

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	NoTrump
)

// String returns the strain token used in bid codes.
func (s Strain) String() string {
	if s == NoTrump {
		return "NT"
	}
	if s >= StrainClubs && s <= StrainSpades {
		return Suit(s).String()
	}
	return "?"
}

// Suit returns the trump suit for a suit strain; ok is false for no-trump.
func (s Strain) Suit() (suit Suit, ok bool) {
	if s >= StrainClubs && s <= StrainSpades {
		return Suit(s), true
	}
	return 0, false
}

// MarshalText encodes the strain token.
func (s Strain) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strain token.
func (s *Strain) UnmarshalText(text []byte) error {
	strain, err := parseStrain(string(text))
	if err != nil {
		return err
	}
	*s = strain
	return nil
}

func parseStrain(tok string) (Strain, error) {
	switch strings.ToUpper(tok) {
	case "C":
		return StrainClubs, nil
	case "D":
		return StrainDiamonds, nil
	case "H":
		return StrainHearts, nil
	case "S":
		return StrainSpades, nil
	case "NT", "N":
		return NoTrump, nil
	}
	return 0, fmt.Errorf("bridge: unknown strain %q", tok)
}

// BidKind distinguishes the special calls from level bids.
type BidKind int

const (
	KindPass BidKind = iota
	KindDouble
	KindRedouble
	KindLevel
)

// Bid is a single call in the auction.
type Bid struct {
	Kind   BidKind
	Level  int
	Strain Strain
}

var (
	Pass     = Bid{Kind: KindPass}
	Double   = Bid{Kind: KindDouble}
	Redouble = Bid{Kind: KindRedouble}
)

// LevelBid returns the level/strain bid.
func LevelBid(level int, strain Strain) Bid {
	return Bid{Kind: KindLevel, Level: level, Strain: strain}
}

// IsLevel reports whether b names a level and strain.
func (b Bid) IsLevel() bool {
	return b.Kind == KindLevel
}

// rank positions a level bid in the total bid ordering.
func (b Bid) rank() int {
	return (b.Level-1)*5 + int(b.Strain)
}

// Higher reports whether level bid b outranks level bid other.
func (b Bid) Higher(other Bid) bool {
	return b.rank() > other.rank()
}

// String returns the bid code: "1C".."7NT", "PASS", "DOUBLE" or "REDOUBLE".
func (b Bid) String() string {
	switch b.Kind {
	case KindPass:
		return "PASS"
	case KindDouble:
		return "DOUBLE"
	case KindRedouble:
		return "REDOUBLE"
	default:
		return fmt.Sprintf("%d%s", b.Level, b.Strain)
	}
}

// MarshalText encodes the bid code.
func (b Bid) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a bid code.
func (b *Bid) UnmarshalText(text []byte) error {
	bid, err := ParseBid(string(text))
	if err != nil {
		return err
	}
	*b = bid
	return nil
}

// ParseBid parses a bid code. X and XX are accepted for DOUBLE and REDOUBLE.
func ParseBid(code string) (Bid, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	switch s {
	case "PASS", "P":
		return Pass, nil
	case "DOUBLE", "X":
		return Double, nil
	case "REDOUBLE", "XX":
		return Redouble, nil
	}

	if len(s) < 2 || s[0] < '1' || s[0] > '7' {
		return Bid{}, fmt.Errorf("bridge: invalid bid %q", code)
	}
	strain, err := parseStrain(s[1:])
	if err != nil {
		return Bid{}, fmt.Errorf("bridge: invalid bid %q", code)
	}
	return LevelBid(int(s[0]-'0'), strain), nil
}

// AllBids lists every call: PASS, 1C through 7NT, DOUBLE, REDOUBLE.
func AllBids() []Bid {
	bids := make([]Bid, 0, 38)
	bids = append(bids, Pass)
	for level := 1; level <= 7; level++ {
		for strain := StrainClubs; strain <= NoTrump; strain++ {
			bids = append(bids, LevelBid(level, strain))
		}
	}
	return append(bids, Double, Redouble)
}

// BidCodes returns the wire codes for bids.
func BidCodes(bids []Bid) []string {
	out := make([]string, len(bids))
	for i, b := range bids {
		out[i] = b.String()
	}
	return out
}

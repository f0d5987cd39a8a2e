package bridge

import (
	"fmt"
	"strings"
)

// Doubling records whether a contract was doubled or redoubled.
type Doubling int

const (
	Undoubled Doubling = iota
	Doubled
	Redoubled
)

func (d Doubling) String() string {
	switch d {
	case Doubled:
		return "X"
	case Redoubled:
		return "XX"
	default:
		return ""
	}
}

// MarshalText encodes the doubling suffix.
func (d Doubling) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a doubling suffix.
func (d *Doubling) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "":
		*d = Undoubled
	case "X":
		*d = Doubled
	case "XX":
		*d = Redoubled
	default:
		return fmt.Errorf("bridge: invalid doubling %q", text)
	}
	return nil
}

// Contract is the final commitment produced by the auction.
type Contract struct {
	Level    int      `json:"level" toml:"level"`
	Strain   Strain   `json:"strain" toml:"strain"`
	Doubling Doubling `json:"doubling" toml:"doubling"`
	Declarer Seat     `json:"declarer" toml:"declarer"`
}

// Code returns the contract without declarer, e.g. "4HX".
func (c Contract) Code() string {
	return fmt.Sprintf("%d%s%s", c.Level, c.Strain, c.Doubling)
}

// String returns the contract with declarer, e.g. "4HX by S".
func (c Contract) String() string {
	return c.Code() + " by " + c.Declarer.String()
}

// Dummy returns declarer's partner.
func (c Contract) Dummy() Seat {
	return c.Declarer.Partner()
}

// Trump returns the trump suit; ok is false in no-trump.
func (c Contract) Trump() (Suit, bool) {
	return c.Strain.Suit()
}

// TricksRequired is the number of tricks declarer needs to make the contract.
func (c Contract) TricksRequired() int {
	return c.Level + 6
}

// ParseContractCode parses the output of Code, e.g. "4HX", with the given
// declarer.
func ParseContractCode(code string, declarer Seat) (Contract, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	doubling := Undoubled
	switch {
	case strings.HasSuffix(s, "XX"):
		doubling, s = Redoubled, strings.TrimSuffix(s, "XX")
	case strings.HasSuffix(s, "X"):
		doubling, s = Doubled, strings.TrimSuffix(s, "X")
	}
	bid, err := ParseBid(s)
	if err != nil || !bid.IsLevel() {
		return Contract{}, fmt.Errorf("bridge: invalid contract %q", code)
	}
	return Contract{Level: bid.Level, Strain: bid.Strain, Doubling: doubling, Declarer: declarer}, nil
}

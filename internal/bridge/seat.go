package bridge

import (
	"fmt"
	"strings"
)

// Seat is one of the four fixed table positions.
type Seat int

const (
	North Seat = iota
	East
	South
	West
)

// NumSeats is the number of seats at a bridge table.
const NumSeats = 4

// Seats lists every seat in rotation order starting from North.
var Seats = [NumSeats]Seat{North, East, South, West}

// String returns the one-letter seat code.
func (s Seat) String() string {
	switch s {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}

// Name returns the full seat name.
func (s Seat) Name() string {
	switch s {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the four seats.
func (s Seat) Valid() bool {
	return s >= North && s <= West
}

// Next returns the seat to the left, i.e. the next seat in rotation.
func (s Seat) Next() Seat {
	return (s + 1) % NumSeats
}

// Partner returns the seat opposite s.
func (s Seat) Partner() Seat {
	return (s + 2) % NumSeats
}

// Partnership returns the side s plays for.
func (s Seat) Partnership() Partnership {
	return Partnership(s % 2)
}

// MarshalText encodes the seat as its one-letter code.
func (s Seat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("bridge: invalid seat %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a seat code.
func (s *Seat) UnmarshalText(text []byte) error {
	seat, err := ParseSeat(string(text))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

// ParseSeat accepts a seat code ("N") or name ("north"), case-insensitively.
func ParseSeat(code string) (Seat, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return 0, fmt.Errorf("bridge: unknown seat %q", code)
}

// Partnership identifies a side: North-South or East-West.
type Partnership int

const (
	NorthSouth Partnership = iota
	EastWest
)

func (p Partnership) String() string {
	if p == NorthSouth {
		return "NS"
	}
	return "EW"
}

// Opponents returns the other side.
func (p Partnership) Opponents() Partnership {
	return 1 - p
}

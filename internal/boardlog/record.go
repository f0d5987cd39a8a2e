// Package boardlog persists a TOML record of every board played at the table.
package boardlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/table"
)

const fileExt = ".toml"

// Record is one board as written to disk. Cards, seats and calls use their
// wire codes so the files are readable by hand.
type Record struct {
	Board     int                 `toml:"board"`
	Played    time.Time           `toml:"played"`
	Dealer    string              `toml:"dealer"`
	PassedOut bool                `toml:"passed_out"`
	Contract  string              `toml:"contract,omitempty"`
	Declarer  string              `toml:"declarer,omitempty"`
	Hands     map[string][]string `toml:"hands"`
	Auction   []string            `toml:"auction"`
	Tricks    []Trick             `toml:"tricks,omitempty"`
	TricksNS  int                 `toml:"tricks_ns"`
	TricksEW  int                 `toml:"tricks_ew"`
	Score     int                 `toml:"score"`
	TotalNS   int                 `toml:"total_ns"`
	TotalEW   int                 `toml:"total_ew"`
}

// Trick is one completed trick, cards in play order.
type Trick struct {
	Leader string   `toml:"leader"`
	Cards  []string `toml:"cards"`
	Winner string   `toml:"winner"`
}

// FromSummary converts a finished board into a record stamped at.
func FromSummary(sum *table.BoardSummary, at time.Time) Record {
	rec := Record{
		Board:     sum.Board,
		Played:    at.UTC(),
		Dealer:    sum.Dealer.String(),
		PassedOut: sum.Result.PassedOut,
		Hands:     make(map[string][]string, bridge.NumSeats),
		TricksNS:  sum.Result.Tricks[bridge.NorthSouth],
		TricksEW:  sum.Result.Tricks[bridge.EastWest],
		Score:     sum.Score,
		TotalNS:   sum.Tally.Total[bridge.NorthSouth],
		TotalEW:   sum.Tally.Total[bridge.EastWest],
	}
	if !rec.PassedOut {
		rec.Contract = sum.Result.Contract.Code()
		rec.Declarer = sum.Result.Contract.Declarer.String()
	}
	for _, seat := range bridge.Seats {
		rec.Hands[seat.String()] = bridge.Codes(sum.Hands[seat])
	}
	for _, call := range sum.Calls {
		rec.Auction = append(rec.Auction, call.String())
	}
	for _, t := range sum.Tricks {
		rec.Tricks = append(rec.Tricks, Trick{
			Leader: t.Leader.String(),
			Cards:  bridge.Codes(t.Cards()),
			Winner: t.Winner.String(),
		})
	}
	return rec
}

// Result returns a one-line outcome such as "4HX by S, 10 tricks".
func (r Record) Result() string {
	if r.PassedOut {
		return "passed out"
	}
	tricks := r.TricksNS
	if r.Declarer == bridge.East.String() || r.Declarer == bridge.West.String() {
		tricks = r.TricksEW
	}
	return fmt.Sprintf("%s by %s, %d tricks", r.Contract, r.Declarer, tricks)
}

// Encode writes the record as TOML.
func Encode(w io.Writer, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("boardlog: record is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(rec)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(rec *Record) ([]byte, error) {
	var buf strings.Builder
	if err := Encode(&buf, rec); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// Load reads every record in dir ordered by play time, then board number.
func Load(dir string) ([]Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("boardlog: list %s: %w", dir, err)
	}

	records := make([]Record, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("boardlog: read %s: %w", path, err)
		}
		var rec Record
		if _, err := toml.Decode(string(data), &rec); err != nil {
			return nil, fmt.Errorf("boardlog: decode %s: %w", path, err)
		}
		records = append(records, rec)
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		if c := a.Played.Compare(b.Played); c != 0 {
			return c
		}
		return a.Board - b.Board
	})
	return records, nil
}

// Package statistics summarises a run of recorded boards.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/bridgetable/internal/boardlog"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/scoring"
)

// BoardResult is the outcome of one board as far as the statistics care.
type BoardResult struct {
	PassedOut bool
	Contract  bridge.Contract
	// Tricks is the number of tricks won by the declaring side.
	Tricks int
	// Score is declarer's signed duplicate score.
	Score int
}

// Declarer is the partnership that played the contract.
func (r BoardResult) Declarer() bridge.Partnership {
	return r.Contract.Declarer.Partnership()
}

// Made reports whether the contract was made.
func (r BoardResult) Made() bool {
	return !r.PassedOut && r.Tricks >= r.Contract.TricksRequired()
}

// NetNS is the board's score from North-South's side of the table.
func (r BoardResult) NetNS() int {
	switch {
	case r.PassedOut:
		return 0
	case r.Declarer() == bridge.NorthSouth:
		return r.Score
	default:
		return -r.Score
	}
}

// FromRecord extracts the result of a recorded board.
func FromRecord(rec boardlog.Record) (BoardResult, error) {
	if rec.PassedOut {
		return BoardResult{PassedOut: true}, nil
	}
	seat, err := bridge.ParseSeat(rec.Declarer)
	if err != nil {
		return BoardResult{}, fmt.Errorf("board %d: %w", rec.Board, err)
	}
	contract, err := bridge.ParseContractCode(rec.Contract, seat)
	if err != nil {
		return BoardResult{}, fmt.Errorf("board %d: %w", rec.Board, err)
	}

	tricks := rec.TricksNS
	if seat.Partnership() == bridge.EastWest {
		tricks = rec.TricksEW
	}
	return BoardResult{
		Contract: contract,
		Tricks:   tricks,
		Score:    rec.Score,
	}, nil
}

// SideStats tracks one partnership's declaring record.
type SideStats struct {
	Declared int
	Made     int
	Defeated int
	Games    int // game contracts bid, made or not
	Slams    int
}

// MakeRate is the fraction of declared contracts that were made.
func (s SideStats) MakeRate() float64 {
	if s.Declared == 0 {
		return 0
	}
	return float64(s.Made) / float64(s.Declared)
}

// Statistics accumulates board results. Scores are taken from North-South's
// side; East-West's are the negation.
type Statistics struct {
	Boards    int
	PassedOut int
	Sides     [2]SideStats

	SumNS  float64
	SumNS2 float64 // Sum of squares for variance calculation
	Values []float64
}

// Add incorporates a board.
func (s *Statistics) Add(r BoardResult) {
	s.Boards++
	net := float64(r.NetNS())
	s.SumNS += net
	s.SumNS2 += net * net
	s.Values = append(s.Values, net)

	if r.PassedOut {
		s.PassedOut++
		return
	}

	side := &s.Sides[r.Declarer()]
	side.Declared++
	if r.Made() {
		side.Made++
	} else {
		side.Defeated++
	}
	if scoring.TrickScore(r.Contract) >= scoring.GamePoints {
		side.Games++
	}
	if r.Contract.Level >= 6 {
		side.Slams++
	}
}

// AddRecords adds every record, stopping at the first one that cannot be read.
func (s *Statistics) AddRecords(records []boardlog.Record) error {
	for _, rec := range records {
		r, err := FromRecord(rec)
		if err != nil {
			return err
		}
		s.Add(r)
	}
	return nil
}

// Mean returns North-South's average score per board.
func (s *Statistics) Mean() float64 {
	if s.Boards == 0 {
		return 0
	}
	return s.SumNS / float64(s.Boards)
}

// Variance returns the sample variance of the per-board scores.
func (s *Statistics) Variance() float64 {
	if s.Boards < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNS2 - float64(s.Boards)*mean*mean) / float64(s.Boards-1)
}

// StdDev returns the sample standard deviation.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Boards == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Boards))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median per-board score.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the score at p, between 0 and 1, interpolating between
// neighbouring boards.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks that the counters agree with each other.
func (s *Statistics) Validate() error {
	if len(s.Values) != s.Boards {
		return fmt.Errorf("values length (%d) does not match boards (%d)", len(s.Values), s.Boards)
	}
	declared := 0
	for p, side := range s.Sides {
		if side.Made+side.Defeated != side.Declared {
			return fmt.Errorf("%s: made %d + defeated %d != declared %d",
				bridge.Partnership(p), side.Made, side.Defeated, side.Declared)
		}
		declared += side.Declared
	}
	if declared+s.PassedOut != s.Boards {
		return fmt.Errorf("declared %d + passed out %d != boards %d", declared, s.PassedOut, s.Boards)
	}
	return nil
}

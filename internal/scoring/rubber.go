package scoring

import (
	"github.com/lox/bridgetable/internal/bridge"
)

// GamePoints is the below-the-line total that makes a game.
const GamePoints = 100

const (
	twoGameRubber     = 700
	threeGameRubber   = 500
	gamesToWinRubber  = 2
	partScoreBonus    = 50
	nonVulnerableGame = 300
	vulnerableGame    = 500
)

func trickValues(s bridge.Strain) (first, rest int) {
	switch s {
	case bridge.NoTrump:
		return 40, 30
	case bridge.StrainSpades, bridge.StrainHearts:
		return 30, 30
	default:
		return 20, 20
	}
}

func multiplier(d bridge.Doubling) int {
	switch d {
	case bridge.Doubled:
		return 2
	case bridge.Redoubled:
		return 4
	default:
		return 1
	}
}

// TrickScore is the below-the-line value of the contracted tricks.
func TrickScore(c bridge.Contract) int {
	first, rest := trickValues(c.Strain)
	return (first + rest*(c.Level-1)) * multiplier(c.Doubling)
}

// OvertrickScore values the tricks made beyond the contract.
func OvertrickScore(c bridge.Contract, over int, vulnerable bool) int {
	_, rest := trickValues(c.Strain)
	switch c.Doubling {
	case bridge.Doubled:
		if vulnerable {
			return over * 200
		}
		return over * 100
	case bridge.Redoubled:
		if vulnerable {
			return over * 400
		}
		return over * 200
	}
	return over * rest
}

// InsultBonus is paid for making a doubled or redoubled contract.
func InsultBonus(c bridge.Contract) int {
	return 50 * (multiplier(c.Doubling) / 2)
}

// SlamBonus is paid for bidding and making six or seven.
func SlamBonus(c bridge.Contract, vulnerable bool) int {
	switch c.Level {
	case 6:
		if vulnerable {
			return 750
		}
		return 500
	case 7:
		if vulnerable {
			return 1500
		}
		return 1000
	}
	return 0
}

// UndertrickPenalty is what the defenders score when declarer goes down.
func UndertrickPenalty(c bridge.Contract, down int, vulnerable bool) int {
	total := 0
	for i := 1; i <= down; i++ {
		total += undertrick(i, c.Doubling, vulnerable)
	}
	return total
}

func undertrick(n int, d bridge.Doubling, vulnerable bool) int {
	if d == bridge.Undoubled {
		if vulnerable {
			return 100
		}
		return 50
	}

	var v int
	switch {
	case n == 1 && vulnerable:
		v = 200
	case n == 1:
		v = 100
	case vulnerable, n > 3:
		v = 300
	default:
		v = 200
	}
	if d == bridge.Redoubled {
		v *= 2
	}
	return v
}

// DuplicateScore is declarer's signed score for one board with game and
// part-score bonuses awarded per board. It is recorded in the board log.
func DuplicateScore(c bridge.Contract, declarerTricks int, vulnerable bool) int {
	over := declarerTricks - c.TricksRequired()
	if over < 0 {
		return -UndertrickPenalty(c, -over, vulnerable)
	}

	trick := TrickScore(c)
	score := trick + OvertrickScore(c, over, vulnerable) + InsultBonus(c) + SlamBonus(c, vulnerable)
	switch {
	case trick < GamePoints:
		score += partScoreBonus
	case vulnerable:
		score += vulnerableGame
	default:
		score += nonVulnerableGame
	}
	return score
}

// RubberScorer keeps a rubber bridge score sheet. A side that wins a game
// becomes vulnerable; the first side to two games wins the rubber and the
// sheet starts over on the next board.
type RubberScorer struct {
	tally  Tally
	banked [2]int
}

// NewRubberScorer returns a scorer with an empty sheet.
func NewRubberScorer() *RubberScorer {
	return &RubberScorer{}
}

// Score records res and returns the updated tally.
func (r *RubberScorer) Score(res Result) Tally {
	if r.tally.RubberOver {
		r.tally = Tally{}
		r.banked = [2]int{}
	}
	t := &r.tally
	t.Board = res.Board
	t.Hand = [2]int{}
	t.HandVulnerable = t.Vulnerable

	if !res.PassedOut {
		r.record(res)
	}

	for side := range t.Total {
		t.Total[side] = r.banked[side] + t.Below[side] + t.Above[side]
	}
	return *t
}

func (r *RubberScorer) record(res Result) {
	t := &r.tally
	c := res.Contract
	side := c.Declarer.Partnership()
	opp := side.Opponents()
	vulnerable := t.Vulnerable[side]

	over := res.DeclarerTricks() - c.TricksRequired()
	if over < 0 {
		penalty := UndertrickPenalty(c, -over, vulnerable)
		t.Above[opp] += penalty
		t.Hand[opp] = penalty
		return
	}

	below := TrickScore(c)
	above := OvertrickScore(c, over, vulnerable) + InsultBonus(c) + SlamBonus(c, vulnerable)
	t.Below[side] += below
	t.Above[side] += above
	t.Hand[side] = below + above

	if t.Below[side] < GamePoints {
		return
	}

	// Game won: both sides' part-scores are banked and a new game starts.
	for i := range t.Below {
		r.banked[i] += t.Below[i]
		t.Below[i] = 0
	}
	t.Games[side]++
	t.Vulnerable[side] = true

	if t.Games[side] == gamesToWinRubber {
		bonus := threeGameRubber
		if t.Games[opp] == 0 {
			bonus = twoGameRubber
		}
		t.Above[side] += bonus
		t.Hand[side] += bonus
		t.RubberOver = true
	}
}

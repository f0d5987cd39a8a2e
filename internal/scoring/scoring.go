// Package scoring turns played boards into partnership scores.
//
// The session only depends on the Scorer interface; RubberScorer is the
// default implementation and keeps standard rubber bridge accounts.
package scoring

import (
	"github.com/lox/bridgetable/internal/bridge"
)

// Result is the outcome of one board as seen by the scorer.
type Result struct {
	Board     int             `json:"board" toml:"board"`
	PassedOut bool            `json:"passedOut" toml:"passed_out"`
	Contract  bridge.Contract `json:"contract" toml:"contract"`
	// Tricks won, indexed by partnership.
	Tricks [2]int `json:"tricks" toml:"tricks"`
}

// DeclarerTricks returns the tricks won by declarer's side.
func (r Result) DeclarerTricks() int {
	return r.Tricks[r.Contract.Declarer.Partnership()]
}

// Tally is the running score after a board. All arrays are indexed by
// partnership (NorthSouth, EastWest).
type Tally struct {
	Board int `json:"board" toml:"board"`
	// Hand is what each side scored on the latest board.
	Hand [2]int `json:"hand" toml:"hand"`
	// Below is trick score toward the game in progress.
	Below      [2]int  `json:"below" toml:"below"`
	Above      [2]int  `json:"above" toml:"above"`
	Games      [2]int  `json:"games" toml:"games"`
	Vulnerable [2]bool `json:"vulnerable" toml:"vulnerable"`
	// HandVulnerable is the vulnerability the latest board was scored at.
	HandVulnerable [2]bool `json:"handVulnerable" toml:"hand_vulnerable"`
	Total      [2]int  `json:"total" toml:"total"`
	RubberOver bool    `json:"rubberOver" toml:"rubber_over"`
}

// Scorer consumes board results and reports the running tally.
type Scorer interface {
	Score(Result) Tally
}

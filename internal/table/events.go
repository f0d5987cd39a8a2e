package table

import (
	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/scoring"
)

// EventKind identifies a one-shot announcement produced by a committed action.
type EventKind int

const (
	// EventRosterChanged fires when a seat binding or the spectator set changes.
	EventRosterChanged EventKind = iota
	EventReadinessChanged
	EventPhaseChanged
	// EventDealt fires when fresh hands are dealt, including after a pass-out.
	EventDealt
	EventPaused
	EventResumed
	EventTrickCompleted
	EventHandFinished
	EventRubberFinished
	EventPassedOut
	// EventBoardFinished carries the record of a board that was played out or
	// passed out.
	EventBoardFinished
)

func (k EventKind) String() string {
	switch k {
	case EventRosterChanged:
		return "roster_changed"
	case EventReadinessChanged:
		return "readiness_changed"
	case EventPhaseChanged:
		return "phase_changed"
	case EventDealt:
		return "dealt"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventTrickCompleted:
		return "trick_completed"
	case EventHandFinished:
		return "hand_finished"
	case EventRubberFinished:
		return "rubber_finished"
	case EventPassedOut:
		return "passed_out"
	case EventBoardFinished:
		return "board_finished"
	default:
		return "unknown"
	}
}

// Event is queued by the session and drained by the broadcaster after each
// committed action. Only the fields relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Phase Phase
	Seat  bridge.Seat
	Board int
	Trick *play.Trick
	Tally scoring.Tally
	// Summary is set for EventBoardFinished.
	Summary *BoardSummary
}

// BoardSummary is everything that happened on one board.
type BoardSummary struct {
	Board  int
	Dealer bridge.Seat
	Hands  [bridge.NumSeats][]bridge.Card
	Calls  []auction.Call
	Result scoring.Result
	Tricks []play.Trick
	// Score is declarer's duplicate score; zero for a passed-out board.
	Score int
	Tally scoring.Tally
}

package client

import (
	"fmt"

	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/scoring"
	"github.com/lox/bridgetable/internal/table"
	"github.com/lox/bridgetable/internal/view"
)

// State is the table as this client knows it. Apply never modifies the
// receiver; every message yields a new value.
type State struct {
	Seat  bridge.Seat
	Token string

	Phase      table.Phase
	Board      int
	OpenSeats  []bridge.Seat
	Ready      map[bridge.Seat]bool
	Spectators int
	Paused     bool
	PausedBy   bridge.Seat

	Turn     *bridge.Seat
	Contract *bridge.Contract
	Auction  []auction.Call
	Hand     []bridge.Card

	LegalBids  []bridge.Bid
	LegalCards []bridge.Card

	Hands           map[bridge.Seat]view.HandView
	CurrentTrick    []play.Play
	LastTrick       *play.Trick
	Tricks          []play.Trick
	TrickCount      [2]int
	PlayingSeat     *bridge.Seat
	DummyController table.ConnID

	Scores    *scoring.Tally
	Final     *scoring.Tally
	LastError *protocol.ActionFailed
}

// NewState returns the state of a client that has just connected.
func NewState() State {
	return State{Seat: -1, Phase: table.Lobby}
}

// Seated reports whether this client holds a seat.
func (s State) Seated() bool { return s.Seat.Valid() }

// CanBid reports whether the server offered this client any calls.
func (s State) CanBid() bool { return len(s.LegalBids) > 0 }

// CanPlay reports whether the server offered this client any cards.
func (s State) CanPlay() bool { return len(s.LegalCards) > 0 }

// Apply folds one server message into the state.
func (s State) Apply(msg *protocol.Message) (State, error) {
	next := s
	next.LastError = nil

	switch msg.Type {
	case protocol.TypeAvailableRoles:
		var p protocol.AvailableRoles
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.OpenSeats = p.Seats
		// Every refresh starts here; gamePaused follows if the table is
		// still paused.
		next.Paused = false

	case protocol.TypeRoleAssigned:
		var p protocol.RoleAssigned
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Seat, next.Token = p.Seat, p.Token

	case protocol.TypeActionFailed:
		var p protocol.ActionFailed
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.LastError = &p

	case protocol.TypeLobbyPhase, protocol.TypeBiddingPhase, protocol.TypePlayPhase, protocol.TypeScorePhase:
		var p protocol.PhaseChange
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next = next.enterPhase(p.Phase, p.Board)

	case protocol.TypeLobbyStatus:
		var p protocol.LobbyStatus
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Ready, next.Spectators = p.Ready, p.Spectators

	case protocol.TypeGamePaused:
		var p protocol.GamePaused
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Paused, next.PausedBy = true, p.Seat

	case protocol.TypeGameResumed:
		next.Paused = false

	case protocol.TypeAuctionUpdate:
		var p protocol.AuctionUpdate
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Phase = table.Bidding
		next.Turn, next.Contract = p.Turn, p.Contract
		next.LegalBids, next.Auction = p.LegalBids, p.BiddingHistory
		next.Hands = p.HandsView

	case protocol.TypeOwnHandUpdate:
		var p protocol.OwnHandUpdate
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Hand = p.Cards

	case protocol.TypePlayUpdate:
		var p protocol.PlayUpdate
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Phase = table.Playing
		next.Turn, next.Contract = p.Turn, p.Contract
		next.TrickCount = p.TrickCount
		next.CurrentTrick = p.CurrentTrick
		next.Hands = p.HandsView
		next.LegalCards = p.LegalHand
		next.LastTrick = p.LastCompletedTrick
		next.Tricks = p.Tricks
		next.DummyController = p.DummyControllerConnection
		next.PlayingSeat = p.CurrentPlayingSeat
		next.LegalBids = nil

	case protocol.TypeScoreUpdate:
		var p protocol.ScoreUpdate
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Phase = table.Scoring
		next.TrickCount, next.Contract, next.Scores = p.TrickCount, p.Contract, p.Scores
		next.LegalCards, next.Turn = nil, nil

	case protocol.TypeHandFinished:
		// The score messages that follow carry the result.

	case protocol.TypeFinalScores:
		var p protocol.FinalScores
		if err := msg.Bind(&p); err != nil {
			return s, err
		}
		next.Final = &p.Scores

	default:
		return s, fmt.Errorf("unexpected message %q", msg.Type)
	}
	return next, nil
}

// enterPhase clears what belonged to the previous phase.
func (s State) enterPhase(phase table.Phase, board int) State {
	s.Phase = phase
	if board > 0 {
		s.Board = board
	}
	switch phase {
	case table.Lobby:
		s.Hand, s.Auction, s.Contract, s.Turn = nil, nil, nil, nil
		s.Hands, s.CurrentTrick, s.LastTrick, s.Tricks = nil, nil, nil, nil
		s.LegalBids, s.LegalCards = nil, nil
		s.TrickCount = [2]int{}
		s.Scores = nil
	case table.Bidding:
		s.Auction, s.Contract = nil, nil
		s.Hands, s.CurrentTrick, s.LastTrick, s.Tricks = nil, nil, nil, nil
		s.LegalCards = nil
		s.TrickCount = [2]int{}
		s.Scores, s.Final = nil, nil
	case table.Playing:
		s.LegalBids = nil
	case table.Scoring:
		s.LegalBids, s.LegalCards = nil, nil
	}
	return s
}

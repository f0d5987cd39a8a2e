// Package view projects the authoritative table state onto what one viewer is
// entitled to see.
//
// Project is pure: it reads a table.State snapshot and never touches the
// session. Hidden hands are reduced to a card count, so nothing a viewer may
// not see ever leaves this package.
package view

import (
	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/scoring"
	"github.com/lox/bridgetable/internal/table"
)

// Role describes how a viewer relates to the table.
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
	RoleObserver  Role = "observer"
)

// Viewer identifies who the projection is for.
type Viewer struct {
	Conn table.ConnID
}

// HandView is one seat's hand as the viewer sees it. Cards is only set when
// Visible; Count is always the number of cards the seat holds.
type HandView struct {
	Seat    bridge.Seat   `json:"seat"`
	Visible bool          `json:"visible"`
	Cards   []bridge.Card `json:"cards,omitempty"`
	Count   int           `json:"count"`
}

// View is the per-viewer projection of the table.
type View struct {
	Phase table.Phase  `json:"phase"`
	Board int          `json:"board"`
	Role  Role         `json:"role"`
	Seat  *bridge.Seat `json:"seat,omitempty"`

	OpenSeats  []bridge.Seat        `json:"openSeats"`
	Ready      map[bridge.Seat]bool `json:"ready"`
	Spectators int                  `json:"spectators"`
	Paused     bool                 `json:"paused"`
	PausedBy   *bridge.Seat         `json:"pausedBy,omitempty"`

	Turn           *bridge.Seat     `json:"turn,omitempty"`
	Contract       *bridge.Contract `json:"contract,omitempty"`
	BiddingHistory []auction.Call   `json:"biddingHistory"`
	LegalBids      []bridge.Bid     `json:"legalBids,omitempty"`

	OwnHand            []bridge.Card            `json:"ownHand,omitempty"`
	Hands              map[bridge.Seat]HandView `json:"handsView"`
	CurrentTrick       []play.Play              `json:"currentTrick"`
	LastCompletedTrick *play.Trick              `json:"lastCompletedTrick,omitempty"`
	Tricks             []play.Trick             `json:"tricks"`
	TrickCount         [2]int                   `json:"trickCount"`
	LegalCards         []bridge.Card            `json:"legalHand,omitempty"`
	DummyController    table.ConnID             `json:"dummyControllerConnection,omitempty"`
	CurrentPlayingSeat *bridge.Seat             `json:"currentPlayingSeat,omitempty"`
	DummyVisible       bool                     `json:"dummyVisible"`
	Scores             *scoring.Tally           `json:"scores,omitempty"`
}

func seatPtr(s bridge.Seat) *bridge.Seat { return &s }

// Project computes what viewer may see of st.
func Project(st table.State, viewer Viewer) View {
	v := View{
		Phase:          st.Phase,
		Board:          st.Board,
		Role:           RoleSpectator,
		OpenSeats:      st.OpenSeats(),
		Ready:          make(map[bridge.Seat]bool, bridge.NumSeats),
		Spectators:     len(st.Spectators),
		Paused:         st.Paused,
		BiddingHistory: append([]auction.Call(nil), st.Calls...),
		Hands:          make(map[bridge.Seat]HandView, bridge.NumSeats),
		CurrentTrick:   append([]play.Play(nil), st.CurrentTrick...),
		TrickCount:     st.TrickCount,
	}
	for _, seat := range bridge.Seats {
		v.Ready[seat] = st.Ready[seat]
	}
	if st.Paused {
		v.PausedBy = seatPtr(st.PausedBy)
	}

	seat, seated := st.SeatOf(viewer.Conn)
	grant, observing := st.Observers[viewer.Conn]
	switch {
	case seated:
		v.Role = RolePlayer
		v.Seat = seatPtr(seat)
	case observing:
		v.Role = RoleObserver
	}

	inPlay := st.Phase == table.Playing || st.Phase == table.Scoring
	if st.HasContract {
		c := st.Contract
		v.Contract = &c
	}
	v.DummyVisible = inPlay && st.OpeningLead

	canSee := func(s bridge.Seat) bool {
		switch {
		case seated && s == seat:
			return true
		case observing && (grant.All || grant.Seat == s):
			return true
		case v.DummyVisible && s == st.Contract.Dummy():
			return true
		}
		return false
	}

	if st.Phase != table.Lobby {
		for _, s := range bridge.Seats {
			hv := HandView{Seat: s, Count: len(st.Hands[s])}
			if canSee(s) {
				hv.Visible = true
				hv.Cards = append([]bridge.Card{}, st.Hands[s]...)
			}
			v.Hands[s] = hv
		}
		if seated {
			v.OwnHand = append([]bridge.Card{}, st.Hands[seat]...)
		}
	}

	if st.LastTrick != nil {
		last := copyTrick(*st.LastTrick)
		v.LastCompletedTrick = &last
	}
	// Played cards are public, so every viewer gets the whole history.
	for _, trick := range st.Tricks {
		v.Tricks = append(v.Tricks, copyTrick(trick))
	}

	if st.HasTurn {
		v.Turn = seatPtr(st.Turn)
	}

	switch st.Phase {
	case table.Bidding:
		if seated && st.HasTurn && seat == st.Turn && !st.Paused {
			v.LegalBids = append([]bridge.Bid(nil), st.LegalBids...)
		}
	case table.Playing:
		v.CurrentPlayingSeat = seatPtr(st.Turn)
		v.DummyController = st.Seats[st.Contract.Declarer]
		if seated && !st.Paused && controls(seat, st.Turn, st.Contract) {
			v.LegalCards = append([]bridge.Card(nil), st.LegalCards...)
		}
	case table.Scoring:
		tally := st.Tally
		v.Scores = &tally
	}
	return v
}

func copyTrick(t play.Trick) play.Trick {
	t.Plays = append([]play.Play(nil), t.Plays...)
	return t
}

// controls reports whether the player in seat acts for turn: their own seat,
// or dummy's seat when they are declarer.
func controls(seat, turn bridge.Seat, c bridge.Contract) bool {
	if turn == c.Dummy() {
		return seat == c.Declarer
	}
	return seat == turn
}

package protocol

import (
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/table"
	"github.com/lox/bridgetable/internal/view"
)

// Outbound is a message waiting for its envelope.
type Outbound struct {
	Type MessageType
	Data any
}

// PhaseType maps a phase to its announcement.
func PhaseType(p table.Phase) MessageType {
	switch p {
	case table.Bidding:
		return TypeBiddingPhase
	case table.Playing:
		return TypePlayPhase
	case table.Scoring:
		return TypeScorePhase
	default:
		return TypeLobbyPhase
	}
}

// StateMessages renders a projected view as the messages that bring a client
// fully up to date for the current phase.
func StateMessages(v view.View) []Outbound {
	out := []Outbound{
		{Type: TypeAvailableRoles, Data: AvailableRoles{Seats: nonNil(v.OpenSeats)}},
	}
	if v.Paused && v.PausedBy != nil {
		out = append(out, Outbound{Type: TypeGamePaused, Data: GamePaused{Seat: *v.PausedBy}})
	}

	switch v.Phase {
	case table.Lobby:
		out = append(out, Outbound{Type: TypeLobbyStatus, Data: LobbyStatus{Ready: v.Ready, Spectators: v.Spectators}})

	case table.Bidding:
		update := AuctionUpdate{
			Turn:           v.Turn,
			Contract:       v.Contract,
			LegalBids:      nonNil(v.LegalBids),
			BiddingHistory: nonNil(v.BiddingHistory),
		}
		if v.Role == view.RoleObserver {
			update.HandsView = v.Hands
		}
		out = append(out, Outbound{Type: TypeAuctionUpdate, Data: update})
		if v.Role == view.RolePlayer {
			out = append(out, Outbound{Type: TypeOwnHandUpdate, Data: OwnHandUpdate{Cards: nonNil(v.OwnHand)}})
		}

	case table.Playing:
		out = append(out, Outbound{Type: TypePlayUpdate, Data: PlayUpdate{
			Turn:                      v.Turn,
			TrickCount:                v.TrickCount,
			CurrentTrick:              nonNil(v.CurrentTrick),
			HandsView:                 v.Hands,
			LegalHand:                 nonNil(v.LegalCards),
			LastCompletedTrick:        v.LastCompletedTrick,
			Tricks:                    nonNil(v.Tricks),
			DummyControllerConnection: v.DummyController,
			CurrentPlayingSeat:        v.CurrentPlayingSeat,
			Contract:                  v.Contract,
		}})
		if v.Role == view.RolePlayer {
			out = append(out, Outbound{Type: TypeOwnHandUpdate, Data: OwnHandUpdate{Cards: nonNil(v.OwnHand)}})
		}

	case table.Scoring:
		out = append(out, Outbound{Type: TypeScoreUpdate, Data: ScoreUpdate{
			TrickCount: v.TrickCount,
			Contract:   v.Contract,
			Scores:     v.Scores,
		}})
	}
	return out
}

// RoleMessage tells a connection which seat it holds.
func RoleMessage(seat bridge.Seat, token string) Outbound {
	return Outbound{Type: TypeRoleAssigned, Data: RoleAssigned{Seat: seat, Token: token}}
}

// Failure reports a rejected action to its originator.
func Failure(err *table.ActionError) Outbound {
	return Outbound{Type: TypeActionFailed, Data: ActionFailed{Reason: err.Reason, Message: err.Message}}
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Package protocol defines the JSON event protocol spoken over the table
// websocket. Every frame is a Message envelope whose Data holds one of the
// payload types below.
package protocol

import (
	"fmt"
	"strings"

	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/scoring"
	"github.com/lox/bridgetable/internal/table"
	"github.com/lox/bridgetable/internal/view"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeChooseRole        MessageType = "chooseRole"
	TypeToggleReady       MessageType = "toggleReady"
	TypeMakeBid           MessageType = "makeBid"
	TypePlayCard          MessageType = "playCard"
	TypeAcknowledgeScores MessageType = "acknowledgeScores"
	TypeReconnect         MessageType = "reconnect"
	TypeObserve           MessageType = "observe"

	// Server -> Client
	TypeAvailableRoles MessageType = "availableRoles"
	TypeRoleAssigned   MessageType = "roleAssigned"
	TypeActionFailed   MessageType = "actionFailed"
	TypeLobbyPhase     MessageType = "lobbyPhase"
	TypeLobbyStatus    MessageType = "lobbyStatus"
	TypeGamePaused     MessageType = "gamePaused"
	TypeGameResumed    MessageType = "gameResumed"
	TypeBiddingPhase   MessageType = "biddingPhase"
	TypeAuctionUpdate  MessageType = "auctionUpdate"
	TypeOwnHandUpdate  MessageType = "ownHandUpdate"
	TypePlayPhase      MessageType = "playPhase"
	TypePlayUpdate     MessageType = "playUpdate"
	TypeScoreUpdate    MessageType = "scoreUpdate"
	TypeScorePhase     MessageType = "scorePhase"
	TypeHandFinished   MessageType = "handFinished"
	TypeFinalScores    MessageType = "finalScores"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Client -> Server Messages

type ChooseRole struct {
	Seat bridge.Seat `json:"seat"`
}

type ToggleReady struct{}

type MakeBid struct {
	Bid bridge.Bid `json:"bid"`
}

type PlayCard struct {
	Card bridge.Card `json:"card"`
}

type AcknowledgeScores struct{}

// Reconnect reclaims a held seat with the token from roleAssigned.
type Reconnect struct {
	Seat  bridge.Seat `json:"seat"`
	Token string      `json:"token"`
}

// Observe asks for a privileged view of one seat ("N") or every seat ("ALL").
type Observe struct {
	Seat string `json:"seat"`
}

// Observation converts the request into a table grant.
func (o Observe) Observation() (table.Observation, error) {
	if strings.EqualFold(strings.TrimSpace(o.Seat), "ALL") {
		return table.Observation{All: true}, nil
	}
	seat, err := bridge.ParseSeat(o.Seat)
	if err != nil {
		return table.Observation{}, fmt.Errorf("observe: %w", err)
	}
	return table.Observation{Seat: seat}, nil
}

// Server -> Client Messages

type AvailableRoles struct {
	Seats []bridge.Seat `json:"seats"`
}

type RoleAssigned struct {
	Seat  bridge.Seat `json:"seat"`
	Token string      `json:"token"`
}

type ActionFailed struct {
	Reason  table.Reason `json:"reason"`
	Message string       `json:"message,omitempty"`
}

// PhaseChange is the payload of the four phase announcements.
type PhaseChange struct {
	Phase table.Phase `json:"phase"`
	Board int         `json:"board"`
}

type LobbyStatus struct {
	Ready      map[bridge.Seat]bool `json:"ready"`
	Spectators int                  `json:"spectators"`
}

type GamePaused struct {
	Seat bridge.Seat `json:"seat"`
}

type GameResumed struct {
	Seat bridge.Seat `json:"seat"`
}

type AuctionUpdate struct {
	Turn           *bridge.Seat     `json:"turn,omitempty"`
	Contract       *bridge.Contract `json:"contract,omitempty"`
	LegalBids      []bridge.Bid     `json:"legalBids"`
	BiddingHistory []auction.Call   `json:"biddingHistory"`
	// HandsView is only sent to observers, whose grants cover the auction too.
	HandsView map[bridge.Seat]view.HandView `json:"handsView,omitempty"`
}

type OwnHandUpdate struct {
	Cards []bridge.Card `json:"cards"`
}

type PlayUpdate struct {
	Turn                      *bridge.Seat                  `json:"turn,omitempty"`
	TrickCount                [2]int                        `json:"trickCount"`
	CurrentTrick              []play.Play                   `json:"currentTrick"`
	HandsView                 map[bridge.Seat]view.HandView `json:"handsView"`
	LegalHand                 []bridge.Card                 `json:"legalHand"`
	LastCompletedTrick        *play.Trick                   `json:"lastCompletedTrick,omitempty"`
	Tricks                    []play.Trick                  `json:"tricks"`
	DummyControllerConnection table.ConnID                  `json:"dummyControllerConnection"`
	CurrentPlayingSeat        *bridge.Seat                  `json:"currentPlayingSeat,omitempty"`
	Contract                  *bridge.Contract              `json:"contract,omitempty"`
}

type ScoreUpdate struct {
	TrickCount [2]int           `json:"trickCount"`
	Contract   *bridge.Contract `json:"contract,omitempty"`
	Scores     *scoring.Tally   `json:"scores,omitempty"`
}

type HandFinished struct {
	Board int `json:"board"`
}

type FinalScores struct {
	Scores scoring.Tally `json:"scores"`
}

package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/table"
	"github.com/lox/bridgetable/internal/view"
)

func TestDecodeInboundActions(t *testing.T) {
	tests := []struct {
		frame string
		want  any
	}{
		{frame: `{"type":"chooseRole","data":{"seat":"S"}}`, want: &ChooseRole{Seat: bridge.South}},
		{frame: `{"type":"toggleReady"}`, want: &ToggleReady{}},
		{frame: `{"type":"makeBid","data":{"bid":"1NT"}}`, want: &MakeBid{Bid: bridge.LevelBid(1, bridge.NoTrump)}},
		{frame: `{"type":"makeBid","data":{"bid":"XX"}}`, want: &MakeBid{Bid: bridge.Redouble}},
		{frame: `{"type":"makeBid","data":{"bid":"PASS"}}`, want: &MakeBid{Bid: bridge.Pass}},
		{frame: `{"type":"playCard","data":{"card":"TD"}}`, want: &PlayCard{Card: bridge.Card{Rank: bridge.Ten, Suit: bridge.Diamonds}}},
		{frame: `{"type":"acknowledgeScores","data":{}}`, want: &AcknowledgeScores{}},
		{frame: `{"type":"reconnect","data":{"seat":"W","token":"abc"}}`, want: &Reconnect{Seat: bridge.West, Token: "abc"}},
		{frame: `{"type":"observe","data":{"seat":"ALL"}}`, want: &Observe{Seat: "ALL"}},
	}

	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			got, err := DecodeAction(msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{name: "unknown type", frame: `{"type":"shuffle"}`},
		{name: "bad card", frame: `{"type":"playCard","data":{"card":"ZZ"}}`},
		{name: "missing card", frame: `{"type":"playCard","data":{}}`},
		{name: "missing bid", frame: `{"type":"makeBid","data":{}}`},
		{name: "bad bid", frame: `{"type":"makeBid","data":{"bid":"8NT"}}`},
		{name: "bad seat", frame: `{"type":"chooseRole","data":{"seat":"Q"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			_, err = DecodeAction(msg)
			assert.Error(t, err)
		})
	}

	_, err := Decode([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestChooseRoleWithoutSeatIsInvalid(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"chooseRole"}`))
	require.NoError(t, err)
	got, err := DecodeAction(msg)
	require.NoError(t, err)
	assert.False(t, got.(*ChooseRole).Seat.Valid())
}

func TestObserveTarget(t *testing.T) {
	grant, err := Observe{Seat: "all"}.Observation()
	require.NoError(t, err)
	assert.True(t, grant.All)

	grant, err = Observe{Seat: "e"}.Observation()
	require.NoError(t, err)
	assert.Equal(t, table.Observation{Seat: bridge.East}, grant)

	_, err = Observe{Seat: "nobody"}.Observation()
	assert.Error(t, err)
}

func TestNewMessageEnvelope(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := NewMessage(TypeRoleAssigned, RoleAssigned{Seat: bridge.North, Token: "t"}, now)
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"roleAssigned","data":{"seat":"N","token":"t"},"timestamp":"2024-03-01T12:00:00Z"}`, string(data))

	empty, err := NewMessage(TypeLobbyPhase, nil, now)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty.Data))
}

func TestStateMessagesPerPhase(t *testing.T) {
	north := bridge.North
	tests := []struct {
		name string
		v    view.View
		want []MessageType
	}{
		{
			name: "lobby",
			v:    view.View{Phase: table.Lobby},
			want: []MessageType{TypeAvailableRoles, TypeLobbyStatus},
		},
		{
			name: "bidding player",
			v:    view.View{Phase: table.Bidding, Role: view.RolePlayer, Turn: &north},
			want: []MessageType{TypeAvailableRoles, TypeAuctionUpdate, TypeOwnHandUpdate},
		},
		{
			name: "bidding spectator",
			v:    view.View{Phase: table.Bidding, Role: view.RoleSpectator},
			want: []MessageType{TypeAvailableRoles, TypeAuctionUpdate},
		},
		{
			name: "paused play",
			v:    view.View{Phase: table.Playing, Role: view.RolePlayer, Paused: true, PausedBy: &north},
			want: []MessageType{TypeAvailableRoles, TypeGamePaused, TypePlayUpdate, TypeOwnHandUpdate},
		},
		{
			name: "scoring",
			v:    view.View{Phase: table.Scoring, Role: view.RolePlayer},
			want: []MessageType{TypeAvailableRoles, TypeScoreUpdate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []MessageType
			for _, o := range StateMessages(tt.v) {
				got = append(got, o.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObserverHandsDuringAuction(t *testing.T) {
	west := view.HandView{Seat: bridge.West, Visible: true, Cards: []bridge.Card{{Rank: bridge.Ace, Suit: bridge.Spades}}, Count: 13}
	hands := map[bridge.Seat]view.HandView{bridge.West: west}

	out := StateMessages(view.View{Phase: table.Bidding, Role: view.RoleObserver, Hands: hands})
	require.Len(t, out, 2)
	update, ok := out[1].Data.(AuctionUpdate)
	require.True(t, ok)
	assert.Equal(t, hands, update.HandsView)

	for _, role := range []view.Role{view.RolePlayer, view.RoleSpectator} {
		out := StateMessages(view.View{Phase: table.Bidding, Role: role, Hands: hands})
		update, ok := out[1].Data.(AuctionUpdate)
		require.True(t, ok)
		assert.Nil(t, update.HandsView, "role %s", role)
	}
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	out := StateMessages(view.View{Phase: table.Bidding})
	msg, err := NewMessage(out[1].Type, out[1].Data, time.Now())
	require.NoError(t, err)
	assert.JSONEq(t, `{"legalBids":[],"biddingHistory":[]}`, string(msg.Data))
}

func TestFailurePayload(t *testing.T) {
	o := Failure(&table.ActionError{Reason: table.ReasonNotYourTurn, Message: "East to call"})
	assert.Equal(t, TypeActionFailed, o.Type)
	assert.Equal(t, ActionFailed{Reason: table.ReasonNotYourTurn, Message: "East to call"}, o.Data)
}

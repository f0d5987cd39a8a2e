package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/lox/bridgetable/internal/table"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type fakeSender struct {
	id     table.ConnID
	mu     sync.Mutex
	msgs   []*protocol.Message
	closed bool
}

func (f *fakeSender) ID() table.ConnID { return f.id }

func (f *fakeSender) Send(msg *protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnectionClosed
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) types() []protocol.MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.MessageType, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Type)
	}
	return out
}

// last returns the most recent message of type mt, or nil.
func (f *fakeSender) last(mt protocol.MessageType) *protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].Type == mt {
			return f.msgs[i]
		}
	}
	return nil
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = nil
}

type fakeRecorder struct {
	boards []*table.BoardSummary
}

func (r *fakeRecorder) RecordBoard(sum *table.BoardSummary) error {
	r.boards = append(r.boards, sum)
	return nil
}

type hubFixture struct {
	t        *testing.T
	hub      *Hub
	clock    *quartz.Mock
	recorder *fakeRecorder
	senders  map[table.ConnID]*fakeSender
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	n := 0
	session := table.New(table.Config{
		Rand: randutil.New(7),
		NewToken: func() string {
			n++
			return fmt.Sprintf("token-%d", n)
		},
	})
	clock := quartz.NewMock(t)
	recorder := &fakeRecorder{}
	return &hubFixture{
		t:        t,
		hub:      NewHub(session, testLogger(), clock, recorder),
		clock:    clock,
		recorder: recorder,
		senders:  make(map[table.ConnID]*fakeSender),
	}
}

func (f *hubFixture) connect(id table.ConnID) *fakeSender {
	s := &fakeSender{id: id}
	f.senders[id] = s
	f.hub.process(inbound{kind: inboundConnect, conn: id, sender: s})
	return s
}

func (f *hubFixture) disconnect(id table.ConnID) {
	f.hub.process(inbound{kind: inboundDisconnect, conn: id})
}

func (f *hubFixture) send(id table.ConnID, mt protocol.MessageType, data any) {
	f.t.Helper()
	frame := map[string]any{"type": mt}
	if data != nil {
		frame["data"] = data
	}
	raw, err := json.Marshal(frame)
	require.NoError(f.t, err)
	f.hub.process(inbound{kind: inboundFrame, conn: id, frame: raw})
}

func (f *hubFixture) resetAll() {
	for _, s := range f.senders {
		s.reset()
	}
}

// seatAll connects n, e, s, w, seats them and readies everyone.
func (f *hubFixture) seatAll() map[bridge.Seat]*fakeSender {
	seats := make(map[bridge.Seat]*fakeSender)
	for _, seat := range bridge.Seats {
		id := table.ConnID(seat.Name())
		seats[seat] = f.connect(id)
		f.send(id, protocol.TypeChooseRole, map[string]string{"seat": seat.String()})
	}
	for _, seat := range bridge.Seats {
		f.send(seats[seat].id, protocol.TypeToggleReady, nil)
	}
	return seats
}

func bind[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var v T
	require.NoError(t, msg.Bind(&v))
	return v
}

func TestHubConnectSendsLobbyState(t *testing.T) {
	f := newHubFixture(t)
	s := f.connect("alice")

	assert.Equal(t, []protocol.MessageType{protocol.TypeAvailableRoles, protocol.TypeLobbyStatus}, s.types())
	roles := bind[protocol.AvailableRoles](t, s.last(protocol.TypeAvailableRoles))
	assert.Equal(t, bridge.Seats[:], roles.Seats)
	status := bind[protocol.LobbyStatus](t, s.last(protocol.TypeLobbyStatus))
	assert.Equal(t, 1, status.Spectators)
}

func TestHubChooseRole(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("alice")
	bob := f.connect("bob")
	f.resetAll()

	f.send("alice", protocol.TypeChooseRole, map[string]string{"seat": "S"})
	role := bind[protocol.RoleAssigned](t, alice.last(protocol.TypeRoleAssigned))
	assert.Equal(t, bridge.South, role.Seat)
	assert.Equal(t, "token-1", role.Token)
	assert.Nil(t, bob.last(protocol.TypeRoleAssigned), "role assignment is private")

	roles := bind[protocol.AvailableRoles](t, bob.last(protocol.TypeAvailableRoles))
	assert.Equal(t, []bridge.Seat{bridge.North, bridge.East, bridge.West}, roles.Seats)

	f.resetAll()
	f.send("bob", protocol.TypeChooseRole, map[string]string{"seat": "S"})
	failed := bind[protocol.ActionFailed](t, bob.last(protocol.TypeActionFailed))
	assert.Equal(t, table.ReasonSeatTaken, failed.Reason)
	assert.Empty(t, alice.types(), "failures go to the originator only")
}

func TestHubRejectsMalformedFrames(t *testing.T) {
	f := newHubFixture(t)
	s := f.connect("alice")
	s.reset()

	f.hub.process(inbound{kind: inboundFrame, conn: "alice", frame: []byte("{nope")})
	failed := bind[protocol.ActionFailed](t, s.last(protocol.TypeActionFailed))
	assert.Equal(t, table.ReasonBadRequest, failed.Reason)

	f.send("alice", "shuffle", nil)
	assert.Len(t, s.types(), 2)

	f.send("alice", protocol.TypeObserve, map[string]string{"seat": "somewhere"})
	failed = bind[protocol.ActionFailed](t, s.last(protocol.TypeActionFailed))
	assert.Equal(t, table.ReasonBadRequest, failed.Reason)
}

func TestHubDealAnnouncesBidding(t *testing.T) {
	f := newHubFixture(t)
	rail := f.connect("rail")
	seats := f.seatAll()

	for seat, s := range seats {
		phase := bind[protocol.PhaseChange](t, s.last(protocol.TypeBiddingPhase))
		assert.Equal(t, table.Bidding, phase.Phase)
		assert.Equal(t, 1, phase.Board)

		hand := bind[protocol.OwnHandUpdate](t, s.last(protocol.TypeOwnHandUpdate))
		assert.Len(t, hand.Cards, bridge.HandSize, seat.Name())
	}

	assert.NotNil(t, rail.last(protocol.TypeBiddingPhase))
	assert.Nil(t, rail.last(protocol.TypeOwnHandUpdate), "spectators hold no hand")

	north := bind[protocol.AuctionUpdate](t, seats[bridge.North].last(protocol.TypeAuctionUpdate))
	require.NotNil(t, north.Turn)
	assert.Equal(t, bridge.North, *north.Turn)
	assert.Len(t, north.LegalBids, 36)

	east := bind[protocol.AuctionUpdate](t, seats[bridge.East].last(protocol.TypeAuctionUpdate))
	assert.Empty(t, east.LegalBids)
}

func TestHubPassOutRecordsBoardAndRedeals(t *testing.T) {
	f := newHubFixture(t)
	seats := f.seatAll()
	f.resetAll()

	for _, seat := range bridge.Seats {
		f.send(seats[seat].id, protocol.TypeMakeBid, map[string]string{"bid": "PASS"})
	}

	require.Len(t, f.recorder.boards, 1)
	assert.True(t, f.recorder.boards[0].Result.PassedOut)
	assert.Equal(t, 1, f.recorder.boards[0].Board)

	phase := bind[protocol.PhaseChange](t, seats[bridge.South].last(protocol.TypeBiddingPhase))
	assert.Equal(t, 2, phase.Board)
}

func TestHubPauseAndReconnect(t *testing.T) {
	f := newHubFixture(t)
	seats := f.seatAll()
	f.send(seats[bridge.North].id, protocol.TypeMakeBid, map[string]string{"bid": "1C"})

	f.disconnect(seats[bridge.East].id)
	paused := bind[protocol.GamePaused](t, seats[bridge.South].last(protocol.TypeGamePaused))
	assert.Equal(t, bridge.East, paused.Seat)

	f.resetAll()
	f.send(seats[bridge.South].id, protocol.TypeMakeBid, map[string]string{"bid": "PASS"})
	failed := bind[protocol.ActionFailed](t, seats[bridge.South].last(protocol.TypeActionFailed))
	assert.Equal(t, table.ReasonPaused, failed.Reason)

	back := f.connect("east-again")
	f.send("east-again", protocol.TypeReconnect, map[string]string{"seat": "E", "token": "wrong"})
	failed = bind[protocol.ActionFailed](t, back.last(protocol.TypeActionFailed))
	assert.Equal(t, table.ReasonBadToken, failed.Reason)

	f.resetAll()
	f.send("east-again", protocol.TypeReconnect, map[string]string{"seat": "E", "token": "token-2"})
	role := bind[protocol.RoleAssigned](t, back.last(protocol.TypeRoleAssigned))
	assert.Equal(t, bridge.East, role.Seat)

	resumed := bind[protocol.GameResumed](t, seats[bridge.West].last(protocol.TypeGameResumed))
	assert.Equal(t, bridge.East, resumed.Seat)
	assert.Nil(t, seats[bridge.West].last(protocol.TypeGamePaused))

	auction := bind[protocol.AuctionUpdate](t, back.last(protocol.TypeAuctionUpdate))
	require.NotNil(t, auction.Turn)
	assert.Equal(t, bridge.East, *auction.Turn)
	assert.Len(t, auction.BiddingHistory, 1)
}

func TestHubTimestampsFromClock(t *testing.T) {
	f := newHubFixture(t)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	f.clock.Set(at)

	s := f.connect("alice")
	msg := s.last(protocol.TypeAvailableRoles)
	require.NotNil(t, msg)
	assert.Equal(t, at, msg.Timestamp)
}

func TestHubRunStopsAndClosesSenders(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.hub.Run(ctx) }()

	s := &fakeSender{id: "alice"}
	require.NoError(t, f.hub.Connect(ctx, s))
	require.Eventually(t, func() bool { return len(s.types()) > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	s.mu.Lock()
	assert.True(t, s.closed)
	s.mu.Unlock()
	assert.ErrorIs(t, f.hub.Deliver(context.Background(), "alice", []byte(`{}`)), ErrHubClosed)
}

package table

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/randutil"
	"github.com/lox/bridgetable/internal/scoring"
)

var players = [bridge.NumSeats]ConnID{"north", "east", "south", "west"}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(7)
	}
	n := 0
	cfg.NewToken = func() string {
		n++
		return fmt.Sprintf("token-%d", n)
	}
	return New(cfg)
}

// seatAll seats the four players and readies them, starting the first deal.
func seatAll(t *testing.T, s *Session) [bridge.NumSeats]string {
	t.Helper()
	var tokens [bridge.NumSeats]string
	for _, seat := range bridge.Seats {
		require.NoError(t, s.Connect(players[seat]))
		token, err := s.RequestSeat(players[seat], seat)
		require.NoError(t, err)
		tokens[seat] = token
	}
	for _, seat := range bridge.Seats {
		require.NoError(t, s.ToggleReady(players[seat]))
	}
	require.Equal(t, Bidding, s.Phase())
	s.DrainEvents()
	return tokens
}

func bid(t *testing.T, s *Session, codes ...string) {
	t.Helper()
	for _, code := range codes {
		b, err := bridge.ParseBid(code)
		require.NoError(t, err)
		turn := s.Snapshot().Turn
		require.NoError(t, s.MakeBid(players[turn], b), "%s calls %s", turn, code)
	}
}

// controller returns the connection that plays for the seat to act.
func controller(st State) ConnID {
	if st.Turn == st.Contract.Dummy() {
		return st.Seats[st.Contract.Declarer]
	}
	return st.Seats[st.Turn]
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestRequestSeat(t *testing.T) {
	s := newTestSession(t, Config{})
	require.NoError(t, s.Connect("a"))
	require.NoError(t, s.Connect("b"))
	s.DrainEvents()

	token, err := s.RequestSeat("a", bridge.North)
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, []EventKind{EventRosterChanged}, kinds(s.DrainEvents()))

	_, err = s.RequestSeat("b", bridge.North)
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.Empty(t, s.DrainEvents(), "failures are never announced")

	again, err := s.RequestSeat("a", bridge.North)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	_, err = s.RequestSeat("b", bridge.Seat(9))
	assert.ErrorIs(t, err, ErrInvalidSeat)

	_, err = s.RequestSeat("a", bridge.East)
	require.NoError(t, err)
	st := s.Snapshot()
	assert.Equal(t, []bridge.Seat{bridge.North, bridge.South, bridge.West}, st.OpenSeats())
	assert.Equal(t, []ConnID{"b"}, st.Spectators)
}

func TestMovingSeatClearsReadiness(t *testing.T) {
	s := newTestSession(t, Config{})
	require.NoError(t, s.Connect("a"))
	_, err := s.RequestSeat("a", bridge.South)
	require.NoError(t, err)
	require.NoError(t, s.ToggleReady("a"))

	_, err = s.RequestSeat("a", bridge.West)
	require.NoError(t, err)
	assert.Equal(t, [bridge.NumSeats]bool{}, s.Snapshot().Ready)
}

func TestToggleReadyRequiresSeat(t *testing.T) {
	s := newTestSession(t, Config{})
	require.NoError(t, s.Connect("spectator"))
	assert.ErrorIs(t, s.ToggleReady("spectator"), ErrNotSeated)
}

func TestDealStartsWhenAllFourReady(t *testing.T) {
	s := newTestSession(t, Config{})
	for _, seat := range bridge.Seats {
		require.NoError(t, s.Connect(players[seat]))
		_, err := s.RequestSeat(players[seat], seat)
		require.NoError(t, err)
	}
	for _, seat := range bridge.Seats[:3] {
		require.NoError(t, s.ToggleReady(players[seat]))
	}
	assert.Equal(t, Lobby, s.Phase())

	// Toggling off and on again still gates the deal.
	require.NoError(t, s.ToggleReady(players[bridge.North]))
	require.NoError(t, s.ToggleReady(players[bridge.West]))
	assert.Equal(t, Lobby, s.Phase())
	s.DrainEvents()

	require.NoError(t, s.ToggleReady(players[bridge.North]))
	assert.Equal(t, Bidding, s.Phase())
	assert.Contains(t, kinds(s.DrainEvents()), EventDealt)

	st := s.Snapshot()
	assert.Equal(t, 1, st.Board)
	assert.Equal(t, [bridge.NumSeats]bool{}, st.Ready)
	assert.Equal(t, bridge.North, st.Turn)
	assert.Empty(t, st.Calls)
	for _, hand := range st.Hands {
		assert.Len(t, hand, bridge.HandSize)
	}
	require.NoError(t, bridge.CheckPartition(st.Hands[:]...))
}

func TestOpeningSeatIsConfigurable(t *testing.T) {
	s := newTestSession(t, Config{OpeningSeat: bridge.East})
	seatAll(t, s)
	assert.Equal(t, bridge.East, s.Snapshot().Turn)
}

func TestFourPassesRedeal(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)
	first := s.Snapshot().Hands

	bid(t, s, "PASS", "PASS", "PASS", "PASS")

	st := s.Snapshot()
	assert.Equal(t, Bidding, st.Phase, "a passed-out board never reaches play")
	assert.False(t, st.HasContract)
	assert.Equal(t, 2, st.Board)
	assert.Empty(t, st.Calls)
	assert.NotEqual(t, first, st.Hands)
	assert.Equal(t, bridge.North, st.Turn)

	events := s.DrainEvents()
	assert.Equal(t, []EventKind{EventPassedOut, EventBoardFinished, EventPhaseChanged, EventDealt}, kinds(events))
	summary := events[1].Summary
	require.NotNil(t, summary)
	assert.True(t, summary.Result.PassedOut)
	assert.Len(t, summary.Calls, 4)
	assert.Equal(t, first, summary.Hands)
}

func TestAuctionProducesContract(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)

	bid(t, s, "1NT", "PASS", "PASS", "PASS")

	st := s.Snapshot()
	require.Equal(t, Playing, st.Phase)
	assert.Equal(t, "1NT", st.Contract.Code())
	assert.Equal(t, bridge.North, st.Contract.Declarer)
	assert.Equal(t, bridge.South, st.Contract.Dummy())
	assert.Equal(t, bridge.East, st.Turn, "left of declarer leads")
	assert.False(t, st.OpeningLead)
}

func TestBidRejections(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)
	require.NoError(t, s.Connect("spectator"))
	bid(t, s, "2H")
	before := s.Snapshot()
	s.DrainEvents()

	tests := []struct {
		name string
		conn ConnID
		bid  bridge.Bid
		want error
	}{
		{name: "wrong seat", conn: players[bridge.South], bid: bridge.Pass, want: ErrNotYourTurn},
		{name: "insufficient", conn: players[bridge.East], bid: bridge.LevelBid(2, bridge.StrainClubs), want: ErrIllegalBid},
		{name: "redouble without double", conn: players[bridge.East], bid: bridge.Redouble, want: ErrIllegalBid},
		{name: "spectator", conn: "spectator", bid: bridge.Pass, want: ErrNotSeated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.MakeBid(tt.conn, tt.bid)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, s.Snapshot())
			assert.Empty(t, s.DrainEvents())
		})
	}

	card := before.Hands[bridge.East][0]
	assert.ErrorIs(t, s.PlayCard(players[bridge.East], card), ErrPhaseMismatch)
	assert.ErrorIs(t, s.AcknowledgeScores(players[bridge.East]), ErrPhaseMismatch)
	assert.ErrorIs(t, s.ToggleReady(players[bridge.East]), ErrPhaseMismatch)
}

func TestDummyControl(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)
	bid(t, s, "1NT", "PASS", "PASS", "PASS")

	st := s.Snapshot()
	lead := st.LegalCards[0]
	require.NoError(t, s.PlayCard(players[bridge.East], lead))

	st = s.Snapshot()
	require.Equal(t, bridge.South, st.Turn)
	assert.True(t, st.OpeningLead)
	card := st.LegalCards[0]

	err := s.PlayCard(players[bridge.South], card)
	assert.ErrorIs(t, err, ErrUnauthorizedDummyPlay)
	err = s.PlayCard(players[bridge.West], card)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	require.NoError(t, s.PlayCard(players[bridge.North], card))
	st = s.Snapshot()
	assert.Equal(t, bridge.West, st.Turn)
	assert.NotContains(t, st.Hands[bridge.South], card)
}

func TestIllegalCard(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)
	bid(t, s, "1NT", "PASS", "PASS", "PASS")

	st := s.Snapshot()
	notHeld := st.Hands[bridge.West][0]
	assert.ErrorIs(t, s.PlayCard(players[bridge.East], notHeld), ErrIllegalCard)

	// Lead a suit dummy holds alongside at least one other suit, so dummy
	// has both a card that follows and a card that would revoke.
	dummy := st.Hands[bridge.South]
	var lead, revoke bridge.Card
	found := false
	for _, c := range st.Hands[bridge.East] {
		if !bridge.HasSuit(dummy, c.Suit) {
			continue
		}
		for _, d := range dummy {
			if d.Suit != c.Suit {
				lead, revoke, found = c, d, true
				break
			}
		}
		if found {
			break
		}
	}
	require.True(t, found, "deal gives dummy a suit to follow and one to revoke with")
	require.NoError(t, s.PlayCard(players[bridge.East], lead))

	st = s.Snapshot()
	require.Equal(t, bridge.South, st.Turn)
	assert.ErrorIs(t, s.PlayCard(players[bridge.North], revoke), ErrIllegalCard)
	assert.Equal(t, st, s.Snapshot())
	for _, c := range st.LegalCards {
		assert.Equal(t, lead.Suit, c.Suit)
	}
}

func TestPauseAndReconnect(t *testing.T) {
	s := newTestSession(t, Config{})
	tokens := seatAll(t, s)
	bid(t, s, "1NT", "PASS", "PASS", "PASS")
	s.DrainEvents()

	require.NoError(t, s.Disconnect(players[bridge.West]))
	assert.Equal(t, []EventKind{EventPaused, EventRosterChanged}, kinds(s.DrainEvents()))

	before := s.Snapshot()
	assert.True(t, before.Paused)
	assert.Equal(t, bridge.West, before.PausedBy)
	assert.Empty(t, before.OpenSeats(), "held seats are not open")

	lead := before.LegalCards[0]
	assert.ErrorIs(t, s.PlayCard(players[bridge.East], lead), ErrPaused)
	assert.ErrorIs(t, s.MakeBid(players[bridge.North], bridge.Pass), ErrPaused)

	require.NoError(t, s.Connect("west-again"))
	_, err := s.RequestSeat("west-again", bridge.West)
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.ErrorIs(t, s.Reconnect("west-again", bridge.West, "wrong"), ErrBadToken)
	assert.ErrorIs(t, s.Reconnect("west-again", bridge.East, tokens[bridge.East]), ErrSeatTaken)
	s.DrainEvents()

	require.NoError(t, s.Reconnect("west-again", bridge.West, tokens[bridge.West]))
	assert.Equal(t, []EventKind{EventResumed, EventRosterChanged}, kinds(s.DrainEvents()))
	require.NoError(t, s.Reconnect("west-again", bridge.West, tokens[bridge.West]), "reconnecting twice is a no-op")

	after := s.Snapshot()
	assert.False(t, after.Paused)
	assert.Equal(t, before.Hands, after.Hands)
	assert.Equal(t, before.Turn, after.Turn)

	require.NoError(t, s.PlayCard(players[bridge.East], lead))
}

func TestPauseHoldsUntilEveryHeldSeatReturns(t *testing.T) {
	s := newTestSession(t, Config{})
	tokens := seatAll(t, s)

	require.NoError(t, s.Disconnect(players[bridge.East]))
	require.NoError(t, s.Disconnect(players[bridge.South]))
	assert.Equal(t, bridge.East, s.Snapshot().PausedBy)

	require.NoError(t, s.Connect("e2"))
	require.NoError(t, s.Reconnect("e2", bridge.East, tokens[bridge.East]))
	st := s.Snapshot()
	assert.True(t, st.Paused)
	assert.Equal(t, bridge.South, st.PausedBy)
	assert.ErrorIs(t, s.MakeBid(players[bridge.North], bridge.Pass), ErrPaused)
}

func TestDisconnectInLobbyFreesSeat(t *testing.T) {
	s := newTestSession(t, Config{})
	require.NoError(t, s.Connect("a"))
	_, err := s.RequestSeat("a", bridge.North)
	require.NoError(t, err)
	require.NoError(t, s.ToggleReady("a"))

	require.NoError(t, s.Disconnect("a"))
	st := s.Snapshot()
	assert.False(t, st.Paused)
	assert.Len(t, st.OpenSeats(), 4)
	assert.Equal(t, [bridge.NumSeats]bool{}, st.Ready)
}

func TestFullHandThroughScoring(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)
	bid(t, s, "3NT", "PASS", "PASS", "PASS")

	var events []Event
	for s.Phase() == Playing {
		st := s.Snapshot()
		require.NotEmpty(t, st.LegalCards)
		require.NoError(t, s.PlayCard(controller(st), st.LegalCards[0]))

		after := s.Snapshot()
		groups := append(after.Hands[:], playedCards(after))
		require.NoError(t, bridge.CheckPartition(groups...))
		events = append(events, s.DrainEvents()...)
	}

	st := s.Snapshot()
	require.Equal(t, Scoring, st.Phase)
	assert.Len(t, st.Tricks, 13)
	assert.Equal(t, 13, st.TrickCount[0]+st.TrickCount[1])
	assert.False(t, st.HasTurn)

	got := kinds(events)
	assert.Contains(t, got, EventHandFinished)
	assert.Contains(t, got, EventBoardFinished)
	trickEvents := 0
	for _, e := range events {
		if e.Kind == EventTrickCompleted {
			trickEvents++
		}
		if e.Kind == EventBoardFinished {
			require.NotNil(t, e.Summary)
			assert.Len(t, e.Summary.Tricks, 13)
			assert.Equal(t, "3NT", e.Summary.Result.Contract.Code())
		}
	}
	assert.Equal(t, 13, trickEvents)

	require.NoError(t, s.Connect("spectator"))
	require.NoError(t, s.AcknowledgeScores("spectator"))
	st = s.Snapshot()
	assert.Equal(t, Lobby, st.Phase)
	assert.Equal(t, players, st.Seats, "seats are retained")
	assert.Equal(t, [bridge.NumSeats]bool{}, st.Ready)
	assert.Equal(t, 1, st.Board)

	for _, seat := range bridge.Seats {
		require.NoError(t, s.ToggleReady(players[seat]))
	}
	assert.Equal(t, 2, s.Board())
}

func TestBoardScoreAfterRubberEnds(t *testing.T) {
	made := func(code string, declarer bridge.Seat, tricks int) scoring.Result {
		c, err := bridge.ParseContractCode(code, declarer)
		require.NoError(t, err)
		return scoring.Result{Contract: c, Tricks: [2]int{tricks, 13 - tricks}}
	}
	scorer := scoring.NewRubberScorer()
	scorer.Score(made("4S", bridge.North, 10))
	ended := scorer.Score(made("3NT", bridge.South, 9))
	require.True(t, ended.RubberOver)
	require.True(t, ended.Vulnerable[bridge.NorthSouth])

	s := newTestSession(t, Config{Scorer: scorer})
	s.tally = ended
	seatAll(t, s)
	bid(t, s, "3NT", "PASS", "PASS", "PASS")
	for s.Phase() == Playing {
		st := s.Snapshot()
		require.NoError(t, s.PlayCard(controller(st), st.LegalCards[0]))
	}

	var summary *BoardSummary
	for _, e := range s.DrainEvents() {
		if e.Kind == EventBoardFinished {
			summary = e.Summary
		}
	}
	require.NotNil(t, summary)
	c := summary.Result.Contract
	require.Equal(t, bridge.North, c.Declarer)
	assert.Equal(t, scoring.DuplicateScore(c, summary.Result.DeclarerTricks(), false), summary.Score)
	assert.Equal(t, [2]bool{false, false}, summary.Tally.HandVulnerable)
}

func TestAcknowledgeReleasesHeldSeats(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)
	bid(t, s, "7NT", "PASS", "PASS", "PASS")
	for s.Phase() == Playing {
		st := s.Snapshot()
		require.NoError(t, s.PlayCard(controller(st), st.LegalCards[0]))
	}
	require.NoError(t, s.Disconnect(players[bridge.East]))
	require.True(t, s.Paused())

	require.NoError(t, s.AcknowledgeScores(players[bridge.North]))
	st := s.Snapshot()
	assert.False(t, st.Paused)
	assert.Equal(t, []bridge.Seat{bridge.East}, st.OpenSeats())
}

func TestObserve(t *testing.T) {
	s := newTestSession(t, Config{})
	require.NoError(t, s.Connect("watcher"))
	assert.ErrorIs(t, s.Observe("watcher", Observation{All: true}), ErrObserverDisabled)

	s = newTestSession(t, Config{AllowObservers: true})
	require.NoError(t, s.Connect("watcher"))
	require.NoError(t, s.Observe("watcher", Observation{Seat: bridge.East}))
	assert.Equal(t, Observation{Seat: bridge.East}, s.Snapshot().Observers["watcher"])
	assert.ErrorIs(t, s.Observe("watcher", Observation{Seat: bridge.Seat(7)}), ErrInvalidSeat)

	_, err := s.RequestSeat("watcher", bridge.North)
	require.NoError(t, err)
	assert.NotContains(t, s.Snapshot().Observers, ConnID("watcher"), "taking a seat drops the grant")
	assert.ErrorIs(t, s.Observe("watcher", Observation{All: true}), ErrObserverDisabled)
}

func TestInvariantViolationFaultsSession(t *testing.T) {
	s := newTestSession(t, Config{})
	seatAll(t, s)

	// Lose a card from North's hand behind the session's back.
	s.deal[bridge.North] = s.deal[bridge.North][1:]

	err := s.MakeBid(players[bridge.North], bridge.Pass)
	require.ErrorIs(t, err, ErrFaulted)
	assert.Error(t, s.Fault())
	assert.Empty(t, s.DrainEvents(), "a faulted mutation is never published")

	assert.ErrorIs(t, s.MakeBid(players[bridge.East], bridge.Pass), ErrFaulted)
	assert.ErrorIs(t, s.Connect("late"), ErrFaulted)
	assert.NoError(t, s.Disconnect(players[bridge.South]))
}

func playedCards(st State) []bridge.Card {
	var out []bridge.Card
	for _, trick := range st.Tricks {
		out = append(out, trick.Cards()...)
	}
	for _, p := range st.CurrentTrick {
		out = append(out, p.Card)
	}
	return out
}

package table

import (
	"errors"

	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/scoring"
)

// actor resolves the seat conn acts for in a turn-based phase. Checks run in a
// fixed order: pause, phase, seat, then turn in the caller.
func (s *Session) actor(conn ConnID, phase Phase) (bridge.Seat, error) {
	if s.Paused() {
		return 0, fail(ReasonPaused, "waiting for %s to reconnect", s.holds[0].Name())
	}
	if s.phase != phase {
		return 0, fail(ReasonPhaseMismatch, "not in %s", phase)
	}
	seat, ok := s.SeatOf(conn)
	if !ok {
		return 0, fail(ReasonNotSeated, "spectators cannot act")
	}
	return seat, nil
}

// MakeBid makes a call for conn's seat.
func (s *Session) MakeBid(conn ConnID, bid bridge.Bid) error {
	return s.apply(func() error {
		seat, err := s.actor(conn, Bidding)
		if err != nil {
			return err
		}
		if seat != s.auction.Turn() {
			return fail(ReasonNotYourTurn, "%s to call", s.auction.Turn().Name())
		}
		if err := s.auction.Bid(seat, bid); err != nil {
			if errors.Is(err, auction.ErrIllegalBid) {
				return wrap(ReasonIllegalBid, err)
			}
			return wrap(ReasonPhaseMismatch, err)
		}

		switch s.auction.State() {
		case auction.Complete:
			contract, _ := s.auction.Contract()
			s.play = play.New(contract, s.deal)
			s.phase = Playing
			s.emit(Event{Kind: EventPhaseChanged, Phase: Playing, Board: s.board})
		case auction.PassedOut:
			s.passOut()
		}
		return nil
	})
}

// passOut records a board with no contract and deals again at once.
func (s *Session) passOut() {
	tally := s.scorer.Score(scoring.Result{Board: s.board, PassedOut: true})
	s.tally = tally
	summary := s.summary(scoring.Result{Board: s.board, PassedOut: true}, 0, tally)
	s.emit(Event{Kind: EventPassedOut, Board: s.board})
	s.emit(Event{Kind: EventBoardFinished, Board: s.board, Summary: summary})
	s.startDeal()
}

// PlayCard plays card for the seat to act. When dummy is to play, only
// declarer's connection may play dummy's card.
func (s *Session) PlayCard(conn ConnID, card bridge.Card) error {
	return s.apply(func() error {
		seat, err := s.actor(conn, Playing)
		if err != nil {
			return err
		}

		contract := s.play.Contract()
		turn := s.play.Turn()
		switch {
		case turn == contract.Dummy() && seat == contract.Dummy():
			return fail(ReasonUnauthorizedDummyPlay, "declarer plays dummy's cards")
		case turn == contract.Dummy() && seat == contract.Declarer:
			// declarer plays for dummy
		case seat != turn:
			return fail(ReasonNotYourTurn, "%s to play", turn.Name())
		}

		trick, err := s.play.Play(turn, card)
		if err != nil {
			if errors.Is(err, play.ErrIllegalCard) {
				return wrap(ReasonIllegalCard, err)
			}
			return wrap(ReasonPhaseMismatch, err)
		}
		if trick != nil {
			s.emit(Event{Kind: EventTrickCompleted, Seat: trick.Winner, Trick: trick})
		}
		if s.play.State() == play.HandComplete {
			s.finishHand()
		}
		return nil
	})
}

func (s *Session) finishHand() {
	contract := s.play.Contract()
	result := scoring.Result{
		Board:    s.board,
		Contract: contract,
		Tricks:   s.play.TrickCount(),
	}
	s.tally = s.scorer.Score(result)
	vulnerable := s.tally.HandVulnerable[contract.Declarer.Partnership()]
	score := scoring.DuplicateScore(contract, result.DeclarerTricks(), vulnerable)
	s.phase = Scoring

	s.emit(Event{Kind: EventPhaseChanged, Phase: Scoring, Board: s.board})
	s.emit(Event{Kind: EventHandFinished, Board: s.board, Tally: s.tally})
	if s.tally.RubberOver {
		s.emit(Event{Kind: EventRubberFinished, Board: s.board, Tally: s.tally})
	}
	s.emit(Event{Kind: EventBoardFinished, Board: s.board, Summary: s.summary(result, score, s.tally)})
}

func (s *Session) summary(result scoring.Result, score int, tally scoring.Tally) *BoardSummary {
	sum := &BoardSummary{
		Board:  s.board,
		Dealer: s.auction.Dealer(),
		Calls:  s.auction.Calls(),
		Result: result,
		Score:  score,
		Tally:  tally,
	}
	for i, h := range s.deal {
		sum.Hands[i] = append([]bridge.Card(nil), h...)
	}
	if s.play != nil {
		sum.Tricks = s.play.History()
	}
	return sum
}

// AcknowledgeScores ends the scoring phase and returns the table to the Lobby.
// Seats stay bound, readiness is cleared and seats held for players who never
// came back are released.
func (s *Session) AcknowledgeScores(conn ConnID) error {
	return s.apply(func() error {
		if s.phase != Scoring {
			return fail(ReasonPhaseMismatch, "no scores to acknowledge")
		}

		for _, seat := range s.holds {
			s.held[seat] = false
			s.tokens[seat] = ""
		}
		s.holds = nil
		s.ready = [bridge.NumSeats]bool{}
		s.deal = [bridge.NumSeats][]bridge.Card{}
		s.auction = nil
		s.play = nil
		s.phase = Lobby

		s.emit(Event{Kind: EventPhaseChanged, Phase: Lobby, Board: s.board})
		s.emit(Event{Kind: EventReadinessChanged})
		s.emit(Event{Kind: EventRosterChanged})
		return nil
	})
}

package server

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/table"
	"github.com/lox/bridgetable/internal/view"
)

var ErrHubClosed = errors.New("hub closed")

// Sender is the outbound half of a client connection.
type Sender interface {
	ID() table.ConnID
	// Send queues msg without blocking.
	Send(msg *protocol.Message) error
	Close() error
}

// BoardRecorder receives every finished board.
type BoardRecorder interface {
	RecordBoard(sum *table.BoardSummary) error
}

type inboundKind int

const (
	inboundConnect inboundKind = iota
	inboundDisconnect
	inboundFrame
)

type inbound struct {
	kind   inboundKind
	conn   table.ConnID
	sender Sender
	frame  []byte
}

// Hub owns the session. Every connection funnels its frames through one
// channel and a single goroutine applies them in arrival order, then pushes
// the resulting state to each connection.
type Hub struct {
	session  *table.Session
	logger   *log.Logger
	clock    quartz.Clock
	recorder BoardRecorder

	inbound chan inbound
	done    chan struct{}
	senders map[table.ConnID]Sender

	faultReported bool
}

// NewHub wraps session. recorder may be nil.
func NewHub(session *table.Session, logger *log.Logger, clock quartz.Clock, recorder BoardRecorder) *Hub {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Hub{
		session:  session,
		logger:   logger.WithPrefix("hub"),
		clock:    clock,
		recorder: recorder,
		inbound:  make(chan inbound, 64),
		done:     make(chan struct{}),
		senders:  make(map[table.ConnID]Sender),
	}
}

// Connect registers a sender as a new spectator.
func (h *Hub) Connect(ctx context.Context, s Sender) error {
	return h.enqueue(ctx, inbound{kind: inboundConnect, conn: s.ID(), sender: s})
}

// Disconnect removes a connection.
func (h *Hub) Disconnect(ctx context.Context, conn table.ConnID) error {
	return h.enqueue(ctx, inbound{kind: inboundDisconnect, conn: conn})
}

// Deliver hands a raw inbound frame to the hub.
func (h *Hub) Deliver(ctx context.Context, conn table.ConnID, frame []byte) error {
	return h.enqueue(ctx, inbound{kind: inboundFrame, conn: conn, frame: frame})
}

func (h *Hub) enqueue(ctx context.Context, item inbound) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.inbound <- item:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes inbound items until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for _, s := range h.senders {
			_ = s.Close()
		}
	}()

	h.logger.Info("Hub started")
	for {
		select {
		case item := <-h.inbound:
			h.process(item)
		case <-ctx.Done():
			h.logger.Info("Hub stopping", "connections", len(h.senders))
			return nil
		}
	}
}

func (h *Hub) process(item inbound) {
	switch item.kind {
	case inboundConnect:
		h.senders[item.conn] = item.sender
		h.logger.Info("Client connected", "conn", item.conn, "total", len(h.senders))
		if err := h.session.Connect(item.conn); err != nil {
			h.reject(item.conn, err)
			return
		}
		h.publish()

	case inboundDisconnect:
		if _, ok := h.senders[item.conn]; !ok {
			return
		}
		delete(h.senders, item.conn)
		h.logger.Info("Client disconnected", "conn", item.conn, "total", len(h.senders))
		if err := h.session.Disconnect(item.conn); err != nil {
			h.reject(item.conn, err)
			return
		}
		h.publish()

	case inboundFrame:
		if _, ok := h.senders[item.conn]; !ok {
			return
		}
		if err := h.handleFrame(item.conn, item.frame); err != nil {
			h.reject(item.conn, err)
			return
		}
		h.publish()
	}
}

func (h *Hub) handleFrame(conn table.ConnID, frame []byte) error {
	msg, err := protocol.Decode(frame)
	if err != nil {
		return table.NewBadRequest(err)
	}
	action, err := protocol.DecodeAction(msg)
	if err != nil {
		return table.NewBadRequest(err)
	}
	h.logger.Debug("Received message", "conn", conn, "type", msg.Type)

	switch a := action.(type) {
	case *protocol.ChooseRole:
		token, err := h.session.RequestSeat(conn, a.Seat)
		if err != nil {
			return err
		}
		h.logger.Info("Seat assigned", "conn", conn, "seat", a.Seat)
		h.send(conn, protocol.RoleMessage(a.Seat, token))

	case *protocol.ToggleReady:
		return h.session.ToggleReady(conn)

	case *protocol.MakeBid:
		return h.session.MakeBid(conn, a.Bid)

	case *protocol.PlayCard:
		return h.session.PlayCard(conn, a.Card)

	case *protocol.AcknowledgeScores:
		return h.session.AcknowledgeScores(conn)

	case *protocol.Reconnect:
		if err := h.session.Reconnect(conn, a.Seat, a.Token); err != nil {
			return err
		}
		h.logger.Info("Seat reclaimed", "conn", conn, "seat", a.Seat)
		h.send(conn, protocol.RoleMessage(a.Seat, a.Token))

	case *protocol.Observe:
		grant, err := a.Observation()
		if err != nil {
			return table.NewBadRequest(err)
		}
		return h.session.Observe(conn, grant)
	}
	return nil
}

// reject reports a failed action to its originator only.
func (h *Hub) reject(conn table.ConnID, err error) {
	var actionErr *table.ActionError
	if !errors.As(err, &actionErr) {
		actionErr = table.NewBadRequest(err)
	}

	if actionErr.Reason == table.ReasonFaulted {
		if !h.faultReported {
			h.faultReported = true
			h.logger.Error("Session faulted, refusing further actions", "error", h.session.Fault())
		}
	} else {
		h.logger.Debug("Action rejected", "conn", conn, "reason", actionErr.Reason, "message", actionErr.Message)
	}
	h.send(conn, protocol.Failure(actionErr))
}

// publish broadcasts the one-shot announcements queued by the last action,
// then refreshes every connection with its own projection.
func (h *Hub) publish() {
	if h.session.Fault() != nil {
		h.session.DrainEvents()
		return
	}

	var announcements []protocol.Outbound
	for _, e := range h.session.DrainEvents() {
		switch e.Kind {
		case table.EventPhaseChanged:
			announcements = append(announcements, protocol.Outbound{
				Type: protocol.PhaseType(e.Phase),
				Data: protocol.PhaseChange{Phase: e.Phase, Board: e.Board},
			})
		case table.EventResumed:
			announcements = append(announcements, protocol.Outbound{
				Type: protocol.TypeGameResumed,
				Data: protocol.GameResumed{Seat: e.Seat},
			})
		case table.EventHandFinished:
			announcements = append(announcements, protocol.Outbound{
				Type: protocol.TypeHandFinished,
				Data: protocol.HandFinished{Board: e.Board},
			})
		case table.EventRubberFinished:
			announcements = append(announcements, protocol.Outbound{
				Type: protocol.TypeFinalScores,
				Data: protocol.FinalScores{Scores: e.Tally},
			})
		case table.EventBoardFinished:
			h.record(e.Summary)
		case table.EventPaused:
			// gamePaused is part of every state refresh while paused.
			h.logger.Info("Table paused", "seat", e.Seat)
		default:
			h.logger.Debug("Session event", "kind", e.Kind, "board", e.Board)
		}
	}

	st := h.session.Snapshot()
	for _, id := range slices.Sorted(maps.Keys(h.senders)) {
		for _, o := range announcements {
			h.send(id, o)
		}
		for _, o := range protocol.StateMessages(view.Project(st, view.Viewer{Conn: id})) {
			h.send(id, o)
		}
	}
}

func (h *Hub) record(sum *table.BoardSummary) {
	if h.recorder == nil || sum == nil {
		return
	}
	if err := h.recorder.RecordBoard(sum); err != nil {
		h.logger.Warn("Failed to record board", "board", sum.Board, "error", err)
	}
}

func (h *Hub) send(conn table.ConnID, o protocol.Outbound) {
	s, ok := h.senders[conn]
	if !ok {
		return
	}
	msg, err := protocol.NewMessage(o.Type, o.Data, h.clock.Now())
	if err != nil {
		h.logger.Error("Failed to create message", "type", o.Type, "error", err)
		return
	}
	if err := s.Send(msg); err != nil {
		h.logger.Warn("Failed to send message", "conn", conn, "type", o.Type, "error", err)
	}
}

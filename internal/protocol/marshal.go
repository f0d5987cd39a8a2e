package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMalformedMessage   = errors.New("malformed message")
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps data in an envelope stamped with now.
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	if data == nil {
		data = struct{}{}
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", messageType, err)
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now.UTC(),
	}, nil
}

// Bind decodes the payload into v. An absent payload leaves v untouched.
func (m *Message) Bind(v any) error {
	if len(m.Data) == 0 || string(m.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedMessage, m.Type, err)
	}
	return nil
}

// Decode parses a raw frame into an envelope.
func Decode(frame []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return &m, nil
}

// DecodeAction returns the typed payload of an inbound message.
func DecodeAction(m *Message) (any, error) {
	var payload any
	switch m.Type {
	case TypeChooseRole:
		payload = &ChooseRole{Seat: -1}
	case TypeToggleReady:
		payload = &ToggleReady{}
	case TypeMakeBid:
		payload = &MakeBid{}
	case TypePlayCard:
		payload = &PlayCard{}
	case TypeAcknowledgeScores:
		payload = &AcknowledgeScores{}
	case TypeReconnect:
		payload = &Reconnect{Seat: -1}
	case TypeObserve:
		payload = &Observe{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, m.Type)
	}

	if err := m.Bind(payload); err != nil {
		return nil, err
	}
	switch p := payload.(type) {
	case *MakeBid:
		// The zero Bid is PASS, so a missing field must be caught explicitly.
		if !hasField(m.Data, "bid") {
			return nil, fmt.Errorf("%w: makeBid needs a bid", ErrMalformedMessage)
		}
	case *PlayCard:
		if !p.Card.Valid() {
			return nil, fmt.Errorf("%w: playCard needs a card", ErrMalformedMessage)
		}
	}
	return payload, nil
}

func hasField(data json.RawMessage, name string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}

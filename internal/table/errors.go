package table

import "fmt"

// Reason is the machine-readable code reported to a client in actionFailed.
type Reason string

const (
	ReasonSeatTaken             Reason = "SeatTaken"
	ReasonNotYourTurn           Reason = "NotYourTurn"
	ReasonIllegalBid            Reason = "IllegalBid"
	ReasonIllegalCard           Reason = "IllegalCard"
	ReasonUnauthorizedDummyPlay Reason = "UnauthorizedDummyPlay"
	ReasonPhaseMismatch         Reason = "PhaseMismatch"
	ReasonPaused                Reason = "Paused"
	ReasonNotSeated             Reason = "NotSeated"
	ReasonInvalidSeat           Reason = "InvalidSeat"
	ReasonBadToken              Reason = "BadToken"
	ReasonObserverDisabled      Reason = "ObserverDisabled"
	ReasonFaulted               Reason = "Faulted"
	ReasonBadRequest            Reason = "BadRequest"
)

// ActionError is a rejected action. Rejections never change session state.
// Two ActionErrors match under errors.Is when their reasons are equal, so the
// Err* sentinels below can be used to classify any failure.
type ActionError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Message
}

func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Reason == e.Reason
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

var (
	ErrSeatTaken             = &ActionError{Reason: ReasonSeatTaken}
	ErrNotYourTurn           = &ActionError{Reason: ReasonNotYourTurn}
	ErrIllegalBid            = &ActionError{Reason: ReasonIllegalBid}
	ErrIllegalCard           = &ActionError{Reason: ReasonIllegalCard}
	ErrUnauthorizedDummyPlay = &ActionError{Reason: ReasonUnauthorizedDummyPlay}
	ErrPhaseMismatch         = &ActionError{Reason: ReasonPhaseMismatch}
	ErrPaused                = &ActionError{Reason: ReasonPaused}
	ErrNotSeated             = &ActionError{Reason: ReasonNotSeated}
	ErrInvalidSeat           = &ActionError{Reason: ReasonInvalidSeat}
	ErrBadToken              = &ActionError{Reason: ReasonBadToken}
	ErrObserverDisabled      = &ActionError{Reason: ReasonObserverDisabled}
	ErrFaulted               = &ActionError{Reason: ReasonFaulted}
	ErrBadRequest            = &ActionError{Reason: ReasonBadRequest}
)

func fail(reason Reason, format string, args ...any) *ActionError {
	return &ActionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func wrap(reason Reason, err error) *ActionError {
	return &ActionError{Reason: reason, Message: err.Error(), Err: err}
}

// NewBadRequest reports a malformed inbound message.
func NewBadRequest(err error) *ActionError {
	return wrap(ReasonBadRequest, err)
}

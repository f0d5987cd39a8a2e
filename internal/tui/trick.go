package tui

import (
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/bridgetable/internal/play"
)

// TrickHold keeps a completed trick on screen for a while before the table
// clears for the next lead. It only affects presentation.
type TrickHold struct {
	clock    quartz.Clock
	duration time.Duration
	onExpire func()

	mu    sync.Mutex
	trick *play.Trick
	timer *quartz.Timer
}

// NewTrickHold creates a hold. onExpire runs on the clock's goroutine when a
// shown trick times out.
func NewTrickHold(clock quartz.Clock, d time.Duration, onExpire func()) *TrickHold {
	return &TrickHold{clock: clock, duration: d, onExpire: onExpire}
}

// Show displays t, replacing any trick still on screen.
func (h *TrickHold) Show(t play.Trick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if h.duration <= 0 {
		h.trick = nil
		return
	}

	h.trick = &t
	shown := h.trick
	h.timer = h.clock.AfterFunc(h.duration, func() {
		h.mu.Lock()
		if h.trick != shown {
			h.mu.Unlock()
			return
		}
		h.trick, h.timer = nil, nil
		h.mu.Unlock()
		if h.onExpire != nil {
			h.onExpire()
		}
	}, "tui", "trick")
}

// Current returns the trick on display, if any.
func (h *TrickHold) Current() (play.Trick, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.trick == nil {
		return play.Trick{}, false
	}
	return *h.trick, true
}

// Clear removes the trick immediately.
func (h *TrickHold) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.trick = nil
}

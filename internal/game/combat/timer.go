package combat

import (
	"sync"
	"time"
)

// TurnTimer fires a callback once per armed turn unless stopped or re-armed first.
// It is safe for concurrent use.
type TurnTimer struct {
	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
}

// NewTurnTimer creates an idle timer.
func NewTurnTimer() *TurnTimer {
	return &TurnTimer{}
}

// Arm cancels any pending callback and schedules onFire after duration.
// onFire runs on its own goroutine.
//
// Precondition: duration > 0; onFire must not be nil.
// Postcondition: onFire will be called after duration unless Stop or Arm is called first.
func (t *TurnTimer) Arm(duration time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.generation++
	gen := t.generation
	t.timer = time.AfterFunc(duration, func() {
		t.mu.Lock()
		current := t.generation == gen
		t.mu.Unlock()
		if current {
			onFire()
		}
	})
}

// Stop prevents any pending callback from firing. Safe to call multiple times
// and on an idle timer.
//
// Postcondition: no callback armed before Stop will start after Stop returns.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
	}
}

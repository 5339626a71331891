package battle

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Phase is a session lifecycle stage.
type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseSelection   Phase = "selection"
	PhaseProcessing  Phase = "processing"
	PhaseEnded       Phase = "ended"
)

const (
	eventStart   = "start"
	eventResolve = "resolve"
	eventNext    = "next"
	eventEnd     = "end"
)

// newPhaseMachine builds the transition table. Phases only move forward except
// for the selection/processing cycle.
func newPhaseMachine(logger *zap.Logger) *fsm.FSM {
	return fsm.NewFSM(
		string(PhasePreparation),
		fsm.Events{
			{Name: eventStart, Src: []string{string(PhasePreparation)}, Dst: string(PhaseSelection)},
			{Name: eventResolve, Src: []string{string(PhaseSelection)}, Dst: string(PhaseProcessing)},
			{Name: eventNext, Src: []string{string(PhaseProcessing)}, Dst: string(PhaseSelection)},
			{
				Name: eventEnd,
				Src:  []string{string(PhasePreparation), string(PhaseSelection), string(PhaseProcessing)},
				Dst:  string(PhaseEnded),
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("phase transition",
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)
}

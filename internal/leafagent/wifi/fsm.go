package wifi

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/looplab/fsm"

	"github.com/autopeer-io/leaf/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/leaf/internal/pkg/util/fsm"
)

// State is the connection state of one wake cycle.
type State string

const (
	StateIdle              State = "idle"
	StateInitializing      State = "initializing"
	StateConnecting        State = "connecting"
	StateWaitingForAddress State = "waiting_for_address"
	StateConnected         State = "connected"
	StateFailed            State = "failed"
)

const (
	// EventInit starts stack initialization.
	EventInit = "init"
	// EventAssociate applies credentials and powers the radio.
	EventAssociate = "associate"
	// EventAwait blocks on address assignment.
	EventAwait = "await"
	// EventAcquire records the assigned address.
	EventAcquire = "acquire"
	// EventFail ends the attempt.
	EventFail = "fail"
	// EventReset returns to idle at the start of a cycle and after disconnect.
	EventReset = "reset"
)

type stateMachine struct {
	*fsm.FSM

	logger logr.Logger
}

func newStateMachine(logger logr.Logger) *stateMachine {
	sm := &stateMachine{logger: logger}

	events := fsm.Events{
		{Name: EventInit, Src: []string{string(StateIdle)}, Dst: string(StateInitializing)},
		{Name: EventAssociate, Src: []string{string(StateInitializing)}, Dst: string(StateConnecting)},
		{Name: EventAwait, Src: []string{string(StateConnecting)}, Dst: string(StateWaitingForAddress)},
		{Name: EventAcquire, Src: []string{string(StateWaitingForAddress)}, Dst: string(StateConnected)},
		{Name: EventFail, Src: []string{
			string(StateIdle),
			string(StateInitializing),
			string(StateConnecting),
			string(StateWaitingForAddress),
		}, Dst: string(StateFailed)},

		{Name: EventReset, Src: []string{
			string(StateIdle),
			string(StateInitializing),
			string(StateConnecting),
			string(StateWaitingForAddress),
			string(StateConnected),
			string(StateFailed),
		}, Dst: string(StateIdle)},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(sm.actionEnterState),
	}

	sm.FSM = fsm.NewFSM(string(StateIdle), events, callbacks)
	return sm
}

// actionEnterState logs every transition and mirrors it into the connection gauge.
func (sm *stateMachine) actionEnterState(ctx context.Context, e *fsm.Event) error {
	fsmutil.LogTransitions(sm.logger)(ctx, e)

	if State(e.Dst) == StateConnected {
		metrics.ConnectionState.Set(1)
	} else {
		metrics.ConnectionState.Set(0)
	}
	return nil
}

// fire triggers event. Resetting an idle machine is not an error.
func (sm *stateMachine) fire(ctx context.Context, event string) error {
	return fsmutil.IgnoreNoTransition(sm.Event(ctx, event))
}

func (sm *stateMachine) state() State {
	return State(sm.Current())
}

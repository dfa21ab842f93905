package fsm

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning handler to a looplab callback. A non-nil
// error is stored on the event so the caller of Event sees it.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// LogTransitions returns an enter_state callback that logs every transition.
func LogTransitions(logger logr.Logger) fsm.Callback {
	return func(_ context.Context, e *fsm.Event) {
		logger.V(1).Info("State transition", "event", e.Event, "from", e.Src, "to", e.Dst)
	}
}

// IgnoreNoTransition drops the error looplab returns when an event leaves the
// machine in the state it was already in.
func IgnoreNoTransition(err error) error {
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}

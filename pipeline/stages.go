// Package pipeline: standard steps for common stage patterns.

package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Noop returns a step that always succeeds. Useful as a placeholder.
func Noop(name string) CommandStep {
	return CommandStep{Name: name, Action: func(context.Context, *Scope, int) (bool, error) {
		return true, nil
	}}
}

// Fail returns a step that always fails with a fault built from format.
func Fail(format string, args ...any) CommandStep {
	msg := fmt.Sprintf(format, args...)
	return CommandStep{Name: "fail", Action: func(context.Context, *Scope, int) (bool, error) {
		return false, fmt.Errorf("%s", msg)
	}}
}

// Tap returns a step that calls fn with the resolved scope and succeeds.
// Use for logging or recording settings without affecting the outcome.
func Tap(name string, fn func(context.Context, *Scope)) CommandStep {
	return CommandStep{Name: name, Action: func(ctx context.Context, sc *Scope, _ int) (bool, error) {
		fn(ctx, sc)
		return true, nil
	}}
}

// Require returns a step that fails unless every key resolves to a
// non-empty value. Handy as the first step of a stage that needs a secret.
func Require(keys ...string) CommandStep {
	return CommandStep{Name: "require env", Action: func(_ context.Context, sc *Scope, _ int) (bool, error) {
		env := sc.Env()
		for _, k := range keys {
			if env[k] == "" {
				return false, fmt.Errorf("require: %s is not set", k)
			}
		}
		return true, nil
	}}
}

// WithTimeout wraps inner so it runs with a context deadline of now+timeout,
// independent of the stage's step timeout. The cause is a *TimeoutError.
func WithTimeout(inner CommandStep, timeout time.Duration) CommandStep {
	return CommandStep{Name: inner.Name, Action: func(ctx context.Context, sc *Scope, index int) (bool, error) {
		ctx, cancel := context.WithTimeoutCause(ctx, timeout, &TimeoutError{Scope: "step", Name: inner.Name, Timeout: timeout})
		defer cancel()
		ok, err := inner.Action(ctx, sc, index)
		if !ok && ctx.Err() != nil && (err == nil || isCancellation(ctx, err)) {
			return false, context.Cause(ctx)
		}
		return ok, err
	}}
}

// Sleep returns a step that waits for d or until cancelled.
func Sleep(d time.Duration) CommandStep {
	return CommandStep{Name: fmt.Sprintf("sleep %s", d), Action: func(ctx context.Context, _ *Scope, _ int) (bool, error) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return true, nil
		case <-ctx.Done():
			return false, context.Cause(ctx)
		}
	}}
}

// Package saga runs an ordered list of steps inside one database transaction and
// re-runs the whole list from a fresh transaction when the store reports a transient
// fault. Files written by a failed attempt are removed again.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
)

var errNoAttachmentStore = errors.New("saga has no attachment store")

// Step is one unit of a saga. Steps run in order; later steps read ids that earlier
// steps stored in State.
type Step struct {
	Name string
	Run  func(ctx context.Context, st *State) error
}

type Policy struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    4,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
		Timeout:        30 * time.Second,
	}
}

type Coordinator struct {
	uow    ports.UnitOfWork
	files  ports.AttachmentStore
	policy Policy
}

func NewCoordinator(uow ports.UnitOfWork, files ports.AttachmentStore, policy Policy) *Coordinator {
	defaults := DefaultPolicy()
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = defaults.MaxAttempts
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = defaults.InitialBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	return &Coordinator{uow: uow, files: files, policy: policy}
}

// Run executes steps atomically and returns the State of the attempt that committed.
// A transient failure re-runs every step; exhausting the budget is a concurrency conflict.
func (c *Coordinator) Run(ctx context.Context, name string, steps ...Step) (*State, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if c.uow == nil {
		return nil, errors.New("saga coordinator has no unit of work")
	}
	if len(steps) == 0 {
		return nil, errs.Validation("saga %s has no steps", name)
	}

	runCtx := logging.WithAttrs(ctx, slog.String("component", "saga"), slog.String("saga", name))
	cancel := func() {}
	if c.policy.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, c.policy.Timeout)
	}
	defer cancel()

	attempts := 0
	var lastTransient error
	state, err := backoff.Retry(runCtx, func() (*State, error) {
		attempts++
		st := newState(attempts, c.files)
		attemptCtx := logging.WithAttrs(runCtx, slog.Int("attempt", attempts))

		err := c.attempt(attemptCtx, st, steps)
		if err == nil {
			return st, nil
		}
		if errs.IsTransient(err) {
			lastTransient = err
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, c.retryOptions(runCtx)...)
	if err != nil {
		if errs.IsTransient(err) || (lastTransient != nil && errors.Is(err, context.DeadlineExceeded)) {
			logging.Warn(runCtx, "saga retry budget exhausted",
				slog.Int("attempts", attempts),
				slog.Any("err", errs.Loggable(err)),
			)
			return nil, errs.Conflict(err, fmt.Sprintf("%s gave up after %d attempts", name, attempts))
		}
		if errs.KindOf(err) == errs.KindUnexpected {
			err = errs.WithStack(err)
		}
		return nil, err
	}

	c.flushDeletes(runCtx, state)
	logging.Info(runCtx, "saga committed",
		slog.Int("attempts", attempts),
		slog.Int("files_written", len(state.written)),
	)
	return state, nil
}

func (c *Coordinator) retryOptions(ctx context.Context) []backoff.RetryOption {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.policy.InitialBackoff
	policy.MaxInterval = c.policy.MaxBackoff

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.policy.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.Warn(ctx, "saga attempt failed, retrying",
				slog.Duration("backoff", next),
				slog.Any("err", errs.Loggable(err)),
			)
		}),
	}
	if c.policy.Timeout > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.policy.Timeout))
	}
	return opts
}

func (c *Coordinator) attempt(ctx context.Context, st *State, steps []Step) error {
	err := c.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, step := range steps {
			if err := txCtx.Err(); err != nil {
				return err
			}
			if err := step.Run(txCtx, st); err != nil {
				return errs.Wrapf(err, "step %s", step.Name)
			}
			if st.finished {
				break
			}
		}
		return nil
	})
	if err != nil {
		c.compensate(ctx, st, err)
		return err
	}
	return nil
}

// compensate removes files written by a failed attempt. It runs detached from ctx so a
// cancelled saga still cleans up.
func (c *Coordinator) compensate(ctx context.Context, st *State, cause error) {
	st.deferred = nil
	if len(st.written) == 0 {
		return
	}

	cleanupCtx := context.WithoutCancel(ctx)
	for _, path := range st.written {
		if _, err := c.files.Delete(cleanupCtx, path); err != nil {
			logging.Error(ctx, "compensating delete failed",
				slog.String("path", path),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
	logging.Warn(ctx, "saga attempt rolled back",
		slog.Int("files_removed", len(st.written)),
		slog.Any("cause", errs.Loggable(cause)),
	)
}

// flushDeletes runs deletes scheduled by the committed attempt. Failures leave an
// orphaned file behind and are only logged.
func (c *Coordinator) flushDeletes(ctx context.Context, st *State) {
	if len(st.deferred) == 0 || c.files == nil {
		return
	}
	cleanupCtx := context.WithoutCancel(ctx)
	for _, ref := range st.deferred {
		if _, err := c.files.Delete(cleanupCtx, ref); err != nil {
			logging.Warn(ctx, "post-commit delete failed",
				slog.String("path", ref),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

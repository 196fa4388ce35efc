// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package jobs runs one long-lived computation at a time with
// start/poll/cancel semantics. Backtests and parameter sweeps take
// minutes; HTTP handlers start them here and poll for the outcome
// instead of holding a request open.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrJobRunning indicates a start attempt while a job is in flight.
	// One at a time is deliberate: the computations saturate the data
	// store and there is no point queueing them.
	ErrJobRunning = errors.New("a job is already running")

	// ErrNoJob indicates no job has been started yet.
	ErrNoJob = errors.New("no job")
)

// State is the lifecycle phase of a job.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Fn is the work a job performs. It must honor ctx cancellation and may
// return a partial result alongside a nil error when cancelled
// cooperatively.
type Fn func(ctx context.Context) (any, error)

// Status is a point-in-time snapshot of the most recent job.
type Status struct {
	// ID is the job's unique identifier.
	ID string `json:"id"`

	// Kind names the computation, e.g. "backtest" or "optimize".
	Kind string `json:"kind"`

	// State is the lifecycle phase at snapshot time.
	State State `json:"state"`

	// StartedAt is when the job began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the job ended; zero while running.
	FinishedAt time.Time `json:"finished_at"`

	// Error is the failure message for StateFailed.
	Error string `json:"error,omitempty"`

	// Result is the job's return value once finished.
	Result any `json:"result,omitempty"`
}

// job is the runner's internal record; guarded by the runner's mutex
// except for done, which the worker goroutine closes exactly once.
type job struct {
	id        string
	kind      string
	state     State
	startedAt time.Time
	finished  time.Time
	err       error
	result    any
	cancel    context.CancelFunc
	done      chan struct{}
}

// Runner owns at most one in-flight job and remembers the last finished
// one for polling. Safe for concurrent use.
type Runner struct {
	logger zerolog.Logger

	mu      sync.Mutex
	current *job
}

// NewRunner creates an idle runner.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger.With().Str("component", "jobs").Logger()}
}

// Start launches fn as the new current job and returns its ID. Fails
// with ErrJobRunning while another job is in flight. The job's context
// is detached from the caller's: it ends only via Cancel or process
// shutdown, not when the starting HTTP request completes.
func (r *Runner) Start(kind string, fn Fn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && r.current.state == StateRunning {
		return "", ErrJobRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:        uuid.NewString(),
		kind:      kind,
		state:     StateRunning,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.current = j

	r.logger.Info().Str("job_id", j.id).Str("kind", kind).Msg("job started")

	go r.run(ctx, j, fn)
	return j.id, nil
}

func (r *Runner) run(ctx context.Context, j *job, fn Fn) {
	defer j.cancel()

	result, err := fn(ctx)

	r.mu.Lock()
	j.result = result
	j.err = err
	j.finished = time.Now()
	switch {
	case err == nil:
		j.state = StateCompleted
	case errors.Is(err, context.Canceled):
		j.state = StateCancelled
	default:
		j.state = StateFailed
	}
	state := j.state
	r.mu.Unlock()

	close(j.done)

	r.logger.Info().
		Str("job_id", j.id).
		Str("kind", j.kind).
		Str("state", string(state)).
		Dur("elapsed", j.finished.Sub(j.startedAt)).
		Err(err).
		Msg("job finished")
}

// Status returns a snapshot of the current or most recently finished
// job, or ErrNoJob when nothing was ever started.
func (r *Runner) Status() (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return Status{}, ErrNoJob
	}

	j := r.current
	status := Status{
		ID:         j.id,
		Kind:       j.kind,
		State:      j.state,
		StartedAt:  j.startedAt,
		FinishedAt: j.finished,
	}
	if j.err != nil {
		status.Error = j.err.Error()
	}
	if j.state != StateRunning {
		status.Result = j.result
	}
	return status, nil
}

// Cancel requests cooperative cancellation of the in-flight job. The
// job keeps its "running" state until its function returns with the
// partial result. Fails with ErrNoJob when nothing is running.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.state != StateRunning {
		return ErrNoJob
	}

	r.logger.Info().Str("job_id", r.current.id).Msg("job cancellation requested")
	r.current.cancel()
	return nil
}

// Done returns a channel closed when the current job finishes, or nil
// when nothing was ever started. Used by shutdown paths that want to
// wait briefly for an in-flight job after cancelling it.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}
	return r.current.done
}

package portfolio

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Status is the materialization job state visible to callers.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// ErrAlreadyRunning is returned when a run is triggered while another is in
// progress. Callers get a conflict, never a silently queued second run.
var ErrAlreadyRunning = errors.New("portfolio calculation already running")

// Runner owns the job state of the materializer: at most one run per
// portfolio at a time, with an idle/running/failed status flag behind a
// mutex. Callers interact only through trigger and query operations.
type Runner struct {
	mu     sync.Mutex
	status Status

	materializer *Materializer
	repo         *Repository
	logger       *zap.Logger
}

// NewRunner creates a new Runner in the idle state.
func NewRunner(materializer *Materializer, repo *Repository, logger *zap.Logger) *Runner {
	return &Runner{
		status:       StatusIdle,
		materializer: materializer,
		repo:         repo,
		logger:       logger,
	}
}

// Status returns the current job state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// TryRun executes one materialization synchronously. It returns
// ErrAlreadyRunning when a run is already in progress.
func (r *Runner) TryRun(ctx context.Context) error {
	if err := r.claim(); err != nil {
		return err
	}

	err := r.materializer.Run(ctx)
	r.release(err)
	return err
}

// TryRunAsync starts a materialization in the background. The conflict check
// happens before returning; the outcome is observable through Status.
func (r *Runner) TryRunAsync(ctx context.Context) error {
	if err := r.claim(); err != nil {
		return err
	}

	// The trigger request's context is canceled as soon as its response is
	// written; the background run must outlive it.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		err := r.materializer.Run(runCtx)
		if err != nil {
			r.logger.Error("Background portfolio calculation failed", zap.Error(err))
		}
		r.release(err)
	}()
	return nil
}

// Wipe deletes all persisted output so the next run recomputes everything.
// It is rejected while a run is in progress.
func (r *Runner) Wipe() error {
	r.mu.Lock()
	if r.status == StatusRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.mu.Unlock()

	if err := r.repo.Wipe(); err != nil {
		return err
	}
	r.logger.Info("All persisted portfolio output wiped")
	return nil
}

func (r *Runner) claim() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusRunning {
		return ErrAlreadyRunning
	}
	r.status = StatusRunning
	return nil
}

func (r *Runner) release(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.status = StatusFailed
	} else {
		r.status = StatusIdle
	}
}

// Name implements the scheduler Job interface.
func (r *Runner) Name() string {
	return "portfolio-calculation"
}

// Run implements the scheduler Job interface. A scheduled tick that overlaps
// a running job is skipped, not queued.
func (r *Runner) Run() error {
	err := r.TryRun(context.Background())
	if errors.Is(err, ErrAlreadyRunning) {
		r.logger.Info("Skipping scheduled run, calculation already in progress")
		return nil
	}
	return err
}

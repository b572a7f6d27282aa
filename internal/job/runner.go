package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/redact"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers execute jobs
	WorkerCount int

	// QueueSize bounds the in-memory buffer between the poll loop and workers
	QueueSize int

	// PollInterval is how often the poll loop looks for due jobs when it has
	// not been nudged by Submit
	PollInterval time.Duration

	// StuckJobAge is how long a job may stay processing before it is reset
	StuckJobAge time.Duration

	// StuckJobCheckInterval is how often the stuck-job monitor runs
	StuckJobCheckInterval time.Duration

	// MaxAttempts is the number of executions before a job is marked failed
	MaxAttempts int

	// RetryDelay is multiplied by the attempt count to compute the backoff
	RetryDelay time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		PollInterval:          5 * time.Second,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
		MaxAttempts:           5,
		RetryDelay:            30 * time.Second,
	}
}

// RunnerConfigFrom maps the jobs section of the application config.
func RunnerConfigFrom(cfg config.JobsConfig) RunnerConfig {
	rc := DefaultRunnerConfig()
	rc.WorkerCount = cfg.WorkerCount
	rc.QueueSize = cfg.QueueSize
	rc.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	rc.StuckJobAge = time.Duration(cfg.StuckJobAgeMinutes) * time.Minute
	rc.MaxAttempts = cfg.MaxAttempts
	rc.RetryDelay = time.Duration(cfg.RetryDelaySeconds) * time.Second
	return rc
}

// Runner claims due jobs from the Store and executes them with registered
// handlers.
type Runner struct {
	store    Store
	handlers map[string]Handler
	queue    chan *Job
	wake     chan struct{}
	config   RunnerConfig
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a new Runner. Handlers must be registered before Start.
func NewRunner(store Store, config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultRunnerConfig().PollInterval
	}
	if config.StuckJobCheckInterval <= 0 {
		config.StuckJobCheckInterval = DefaultRunnerConfig().StuckJobCheckInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:    store,
		handlers: make(map[string]Handler),
		queue:    make(chan *Job, config.QueueSize),
		wake:     make(chan struct{}, 1),
		config:   config,
		logger:   logger.With(slog.String("component", "job_runner")),
		now:      func() time.Time { return time.Now().UTC() },
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register binds a handler to a job type, replacing any previous one.
func (r *Runner) Register(jobType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// Submit persists the job and nudges the poll loop. It does not wait for
// execution.
func (r *Runner) Submit(ctx context.Context, job *Job) error {
	if err := r.store.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case r.wake <- struct{}{}:
	default:
	}

	r.logger.Debug("job submitted",
		"job_id", job.ID,
		"job_type", job.Type,
		"run_at", job.RunAt)
	return nil
}

// Start recovers jobs abandoned by a previous process and launches the
// workers, the poll loop and the stuck-job monitor.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("job runner already started")
	}

	if err := r.recover(); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(2)
	go r.pollLoop()
	go r.stuckJobMonitor()

	r.started = true
	r.logger.Info("job runner started",
		"worker_count", r.config.WorkerCount,
		"poll_interval", r.config.PollInterval.String())
	return nil
}

// Stop cancels the background loops and waits for in-flight jobs to finish.
// Jobs still buffered in memory remain processing in the store and are
// picked up again once they are older than StuckJobAge.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("job runner stopped")
}

// Shutdown is Stop with a deadline, for use with shutdown orchestration.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job runner shutdown: %w", ctx.Err())
	}
}

// recover returns processing jobs older than StuckJobAge to pending. Younger
// ones may belong to another instance that is still running them.
func (r *Runner) recover() error {
	n, err := r.store.ResetProcessing(r.ctx, r.config.StuckJobAge)
	if err != nil {
		return err
	}
	if n > 0 {
		r.logger.Info("recovered interrupted jobs", "count", n)
	}
	return nil
}

func (r *Runner) pollLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	r.dispatchDue()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.dispatchDue()
		case <-r.wake:
			r.dispatchDue()
		}
	}
}

// dispatchDue claims no more jobs than the queue can hold, so the sends
// below never block for long. The poll loop is the only producer.
func (r *Runner) dispatchDue() {
	free := cap(r.queue) - len(r.queue)
	if free <= 0 {
		return
	}

	jobs, err := r.store.ClaimDue(r.ctx, r.now(), free)
	if err != nil {
		if r.ctx.Err() == nil {
			r.logger.Error("failed to claim due jobs", "error", err)
		}
		return
	}

	for _, j := range jobs {
		select {
		case r.queue <- j:
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)
	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		case j := <-r.queue:
			r.process(j, id)
		}
	}
}

func (r *Runner) process(j *Job, workerID int) {
	// Status writes use a detached context so an in-flight job can still be
	// recorded while the runner is stopping.
	ctx := context.WithoutCancel(r.ctx)
	log := r.logger.With(
		"job_id", j.ID,
		"job_type", j.Type,
		"attempt", j.Attempts,
		"worker_id", workerID,
	)

	r.mu.Lock()
	h, ok := r.handlers[j.Type]
	r.mu.Unlock()
	if !ok {
		log.Error("no handler registered for job type")
		if err := r.store.MarkFailed(ctx, j.ID, ErrUnknownType.Error()); err != nil {
			log.Error("failed to mark job failed", "error", err)
		}
		return
	}

	err := r.execute(ctx, h, j)
	if err == nil {
		log.Info("job completed")
		if err := r.store.MarkCompleted(ctx, j.ID); err != nil {
			log.Error("failed to mark job completed", "error", err)
		}
		return
	}

	if j.Attempts >= r.config.MaxAttempts {
		log.Error("job failed permanently", "error", err)
		if markErr := r.store.MarkFailed(ctx, j.ID, redact.Error(err)); markErr != nil {
			log.Error("failed to mark job failed", "error", markErr)
		}
		return
	}

	runAt := r.now().Add(time.Duration(j.Attempts) * r.config.RetryDelay)
	log.Warn("job failed, scheduling retry", "error", err, "retry_at", runAt)
	if err := r.store.Reschedule(ctx, j.ID, runAt, redact.Error(err)); err != nil {
		log.Error("failed to reschedule job", "error", err)
	}
}

func (r *Runner) execute(ctx context.Context, h Handler, j *Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job handler panicked: %v", p)
		}
	}()
	return h.Handle(ctx, j)
}

func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.ResetProcessing(r.ctx, r.config.StuckJobAge)
			if err != nil {
				if r.ctx.Err() == nil {
					r.logger.Error("failed to reset stuck jobs", "error", err)
				}
				continue
			}
			if n > 0 {
				r.logger.Info("reset stuck jobs", "count", n)
				select {
				case r.wake <- struct{}{}:
				default:
				}
			}
		}
	}
}

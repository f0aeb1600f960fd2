package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/relaycycle/internal/cycle"
)

// jobTimeout bounds a single job run.
const jobTimeout = 30 * time.Second

// Snapshotter returns the running state to persist.
type Snapshotter interface {
	Snapshot() map[cycle.ID]cycle.RunState
}

// RunningStore persists the running state.
type RunningStore interface {
	SaveRunning(ctx context.Context, states map[cycle.ID]cycle.RunState) error
}

// StatusSaver persists relay statuses.
type StatusSaver interface {
	SaveStatuses(ctx context.Context) error
}

// HistoryPruner deletes history older than a cutoff.
type HistoryPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds job schedules in robfig/cron syntax ("@every 5s", "@daily",
// "0 3 * * *").
type Config struct {
	SnapshotSchedule string
	PruneSchedule    string
	// Retention is how long history is kept. Zero disables pruning.
	Retention time.Duration
}

// Deps are the components the jobs act on. History may be nil.
type Deps struct {
	Scheduler Snapshotter
	Running   RunningStore
	Relays    StatusSaver
	History   HistoryPruner
}

// Service owns the cron runner.
type Service struct {
	cron   *cron.Cron
	cfg    Config
	deps   Deps
	logger Logger
	now    func() time.Time
}

// New builds the service and registers its jobs. Invalid schedules are
// rejected here rather than at Start.
func New(cfg Config, deps Deps, logger Logger) (*Service, error) {
	if deps.Scheduler == nil || deps.Running == nil || deps.Relays == nil {
		return nil, errors.New("maintenance: scheduler, running store and relays are required")
	}

	cl := cronLogger{logger: logger}
	s := &Service{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.SnapshotSchedule, s.snapshotJob); err != nil {
		return nil, fmt.Errorf("snapshot schedule %q: %w", cfg.SnapshotSchedule, err)
	}

	if deps.History != nil && cfg.Retention > 0 {
		if _, err := s.cron.AddFunc(cfg.PruneSchedule, s.pruneJob); err != nil {
			return nil, fmt.Errorf("prune schedule %q: %w", cfg.PruneSchedule, err)
		}
	}
	return s, nil
}

// Start runs the jobs in the background.
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("maintenance jobs started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs or ctx, whichever is
// first.
func (s *Service) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// SaveSnapshot persists the running cycles and relay statuses. Both writes
// are attempted even if the first fails.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	states := s.deps.Scheduler.Snapshot()

	var errs []error
	if err := s.deps.Running.SaveRunning(ctx, states); err != nil {
		errs = append(errs, fmt.Errorf("saving running cycles: %w", err))
	}
	if err := s.deps.Relays.SaveStatuses(ctx); err != nil {
		errs = append(errs, fmt.Errorf("saving relay statuses: %w", err))
	}
	return errors.Join(errs...)
}

// PruneHistory deletes relay history older than the retention window.
func (s *Service) PruneHistory(ctx context.Context) (int64, error) {
	if s.deps.History == nil || s.cfg.Retention <= 0 {
		return 0, nil
	}
	return s.deps.History.Prune(ctx, s.now().Add(-s.cfg.Retention))
}

func (s *Service) snapshotJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.SaveSnapshot(ctx); err != nil {
		s.logger.Error("snapshot failed", "error", err)
		return
	}
	s.logger.Debug("snapshot saved")
}

func (s *Service) pruneJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.PruneHistory(ctx)
	if err != nil {
		s.logger.Error("history prune failed", "error", err)
		return
	}
	s.logger.Info("relay history pruned", "deleted", n)
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

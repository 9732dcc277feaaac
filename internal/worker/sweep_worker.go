package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/service"
)

// DefaultSweepTimeout bounds a single scheduled sweep.
const DefaultSweepTimeout = 10 * time.Minute

// Sweeper runs one orphan sweep.
type Sweeper interface {
	Run(ctx context.Context) (*service.SweepReport, error)
}

// SweepWorker runs the orphan sweep on a cron schedule. Overlapping runs are skipped.
type SweepWorker struct {
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	log      zerolog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	runs int
}

// NewSweepWorker creates a SweepWorker that runs sweeper on schedule, a
// cron expression or a descriptor such as @hourly. Each run is bounded by
// DefaultSweepTimeout.
func NewSweepWorker(sweeper Sweeper, schedule string, log zerolog.Logger) *SweepWorker {
	return &SweepWorker{
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  DefaultSweepTimeout,
		log:      log.With().Str("component", "sweep_worker").Logger(),
	}
}

// RunOnce performs a single sweep and logs its report.
func (w *SweepWorker) RunOnce(ctx context.Context) (*service.SweepReport, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	report, err := w.sweeper.Run(ctx)

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	if err != nil {
		w.log.Error().Err(err).Msg("Orphan sweep failed")
		return nil, err
	}

	ev := w.log.Info()
	if report.Failures > 0 {
		ev = w.log.Warn()
	}
	ev.Int("submissions_deleted", report.SubmissionsDeleted).
		Int("analyses_deleted", report.AnalysesDeleted).
		Int("quizzes_repaired", report.QuizzesRepaired).
		Int("quizzes_deactivated", report.QuizzesDeactivated).
		Int("dangling_refs_removed", report.DanglingRefsRemoved).
		Int("failures", report.Failures).
		Dur("duration", report.Duration).
		Msg("Orphan sweep finished")
	return report, nil
}

// Start schedules the sweep. It returns an error for an invalid schedule.
func (w *SweepWorker) Start() error {
	logger := cronLogger{log: w.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(w.schedule, func() {
		_, _ = w.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", w.schedule, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	c.Start()
	w.log.Info().Str("schedule", w.schedule).Msg("SweepWorker started")
	return nil
}

// Stop halts scheduling and waits for a running sweep, up to ctx.
func (w *SweepWorker) Stop(ctx context.Context) {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
		w.log.Info().Msg("SweepWorker stopped")
	case <-ctx.Done():
		w.log.Warn().Msg("SweepWorker stop timed out with a sweep still running")
	}
}

// Runs reports how many sweeps have completed or failed.
func (w *SweepWorker) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

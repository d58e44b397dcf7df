package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/notifier"
	"InsiderSentinel/internal/recorder"
	"InsiderSentinel/internal/report"
	"InsiderSentinel/internal/runstate"
)

// ErrRunInProgress is returned when a batch is requested while one is running.
var ErrRunInProgress = errors.New("batch already running")

// BatchRunner simulates a list of tickers.
type BatchRunner interface {
	Run(ctx context.Context, symbols []string) []model.TickerResult
}

// Notifier delivers run summaries.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// RunObserver is told about every finished batch.
type RunObserver interface {
	ObserveRun(run *model.RunSummary)
}

// Scheduler manages the daily batch and on-demand runs.
type Scheduler struct {
	Cron      *cron.Cron
	Batch     BatchRunner
	Tickers   []string
	Recorder  recorder.Recorder
	Notifier  Notifier // nil disables notifications
	State     *runstate.Manager
	Observer  RunObserver // nil disables run metrics
	ReportDir string      // empty disables report files
	Ctx       context.Context
	log       *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, batch BatchRunner, tickers []string, rec recorder.Recorder, state *runstate.Manager, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Batch:    batch,
		Tickers:  tickers,
		Recorder: rec,
		State:    state,
		Ctx:      ctx,
		log:      log,
		now:      time.Now,
	}
}

// RegisterDaily registers the daily batch on a six-field cron spec.
func (s *Scheduler) RegisterDaily(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) dailyTask() {
	if _, err := s.RunNow(); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.log.Error("daily batch", zap.Error(err))
	}
}

// RunNow executes one batch over all tickers. The summary is returned even
// when persisting it failed.
func (s *Scheduler) RunNow() (*model.RunSummary, error) {
	if !s.State.TryStart() {
		s.log.Warn("skipping batch, previous run still active")
		return nil, ErrRunInProgress
	}

	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))
	log.Info("running batch", zap.Int("tickers", len(s.Tickers)))

	started := s.now()
	results := s.Batch.Run(s.Ctx, s.Tickers)
	sum := report.Summarize(runID, results, started, s.now())
	trades := report.Trades(results)

	var errs []error
	if err := s.Recorder.RecordRun(&sum); err != nil {
		errs = append(errs, fmt.Errorf("record run: %w", err))
	}
	if err := recorder.RecordResults(s.Recorder, runID, results); err != nil {
		errs = append(errs, fmt.Errorf("record results: %w", err))
	}
	if s.ReportDir != "" {
		csvPath, jsonPath, err := report.WriteFiles(s.ReportDir, sum, trades)
		if err != nil {
			errs = append(errs, fmt.Errorf("write report: %w", err))
		} else {
			log.Info("report written", zap.String("csv", csvPath), zap.String("json", jsonPath))
		}
	}
	if s.Observer != nil {
		s.Observer.ObserveRun(&sum)
	}
	s.trySend(notifier.FormatRunSummary(&sum, trades))

	err := errors.Join(errs...)
	s.State.Finish(&sum, err)
	log.Info("batch finished",
		zap.Int("trades", sum.Trades),
		zap.Int("failed", sum.Failed),
		zap.Float64("win_rate", sum.WinRate),
		zap.Duration("elapsed", sum.FinishedAt.Sub(sum.StartedAt)))
	return &sum, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		if s.State.Running() {
			return "⏳ A batch is already running"
		}
		go s.dailyTask()
		return "🚀 Batch started"
	case "/last":
		state := s.State.GetState()
		if state.LastRun == nil {
			return "No batch has finished yet"
		}
		return notifier.FormatRunSummary(state.LastRun, nil)
	case "/status":
		state := s.State.GetState()
		return notifier.FormatRunState(&state, s.State.Running())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}

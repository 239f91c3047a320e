package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/dental-clinic-platform/internal/messaging"
	"github.com/wolfman30/dental-clinic-platform/internal/observability/metrics"
	"github.com/wolfman30/dental-clinic-platform/internal/settings"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// ErrCycleInProgress is returned when a cycle is requested while another runs.
var ErrCycleInProgress = errors.New("reminders: cycle already in progress")

// DefaultScanInterval is used when no interval is configured.
const DefaultScanInterval = 5 * time.Minute

// ConfigLoader returns the settings snapshot for one cycle.
type ConfigLoader interface {
	ReminderConfig(ctx context.Context) (settings.ReminderConfig, error)
}

// SenderFactory binds a cycle's gateway credentials to a sender.
type SenderFactory func(creds messaging.GatewayCredentials) (SMSSender, error)

// ThresholdDispatcher runs the dispatch loop for one threshold.
type ThresholdDispatcher interface {
	Dispatch(ctx context.Context, t Threshold, cfg settings.ReminderConfig, sender SMSSender) ([]AppointmentResult, error)
}

// Scheduler triggers reminder cycles on a fixed interval. At most one cycle
// runs at a time per Scheduler; ticks that arrive while a cycle is running
// are dropped, not queued. The guard is in-process only.
type Scheduler struct {
	configs    ConfigLoader
	dispatcher ThresholdDispatcher
	newSender  SenderFactory
	metrics    *metrics.ReminderMetrics
	logger     *logging.Logger
	tracer     trace.Tracer
	interval   time.Duration
	loc        *time.Location

	running     atomic.Bool
	initialized atomic.Bool

	mu    sync.Mutex
	cron  *cron.Cron
	ticks sync.WaitGroup
}

// NewScheduler wires a scheduler. The interval is capped at MaxScanInterval
// so consecutive scans never step over a threshold window.
func NewScheduler(configs ConfigLoader, dispatcher ThresholdDispatcher, newSender SenderFactory, m *metrics.ReminderMetrics, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		configs:    configs,
		dispatcher: dispatcher,
		newSender:  newSender,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("dental.internal.reminders.scheduler"),
		interval:   DefaultScanInterval,
		loc:        time.UTC,
	}
}

// WithInterval sets the tick spacing.
func (s *Scheduler) WithInterval(d time.Duration) *Scheduler {
	if d <= 0 {
		return s
	}
	if limit := MaxScanInterval(); d > limit {
		s.logger.Warn("reminders: scan interval wider than narrowest window, capping",
			"requested", d.String(), "cap", limit.String())
		d = limit
	}
	s.interval = d
	return s
}

// WithLocation sets the zone the cron clock runs in.
func (s *Scheduler) WithLocation(loc *time.Location) *Scheduler {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Interval returns the effective tick spacing.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Status reports whether the scheduler is started and whether a cycle is running.
func (s *Scheduler) Status() Status {
	return Status{
		Initialized:  s.initialized.Load(),
		IsProcessing: s.running.Load(),
	}
}

// Start registers the recurring job and runs a first cycle immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("reminders: scheduler already started")
	}
	c := cron.New(cron.WithLocation(s.loc))
	job := func() {
		s.ticks.Add(1)
		defer s.ticks.Done()
		s.tick(ctx)
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), job); err != nil {
		return fmt.Errorf("reminders: schedule job: %w", err)
	}
	c.Start()
	s.cron = c
	s.initialized.Store(true)
	s.logger.Info("reminders: scheduler started", "interval", s.interval.String())

	s.ticks.Add(1)
	go func() {
		defer s.ticks.Done()
		s.tick(ctx)
	}()
	return nil
}

// Stop halts future ticks and waits for a running cycle, including the one
// Start launched, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	s.initialized.Store(false)
	cronDone := c.Stop()
	done := make(chan struct{})
	go func() {
		// Cron adds to ticks only from its own jobs, so once they are
		// finished nothing can race with Wait.
		<-cronDone.Done()
		s.ticks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("reminders: stop timed out waiting for running cycle")
	}
	s.logger.Info("reminders: scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Stop(stopCtx)
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrCycleInProgress):
		return
	case err != nil:
		s.logger.Error("reminders: cycle failed", "error", err)
	case result.SkippedReason != "":
		s.logger.Info("reminders: cycle skipped", "reason", result.SkippedReason)
	default:
		s.logger.Info("reminders: cycle finished",
			"processed", result.ProcessedCount, "sent", result.SentCount, "failed", result.FailedCount)
	}
}

// RunCycle runs one scan-and-dispatch cycle synchronously. It returns
// ErrCycleInProgress without doing anything if another cycle holds the flag.
func (s *Scheduler) RunCycle(ctx context.Context) (result *CycleResult, err error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("reminders: previous cycle still running, skipping")
		s.metrics.ObserveSkippedTick()
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	ctx, span := s.tracer.Start(ctx, "reminders.cycle")
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reminders: cycle panicked", "panic", fmt.Sprint(r))
			result, err = nil, fmt.Errorf("reminders: cycle panicked: %v", r)
		}
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
			span.RecordError(err)
		case result != nil && result.SkippedReason != "":
			outcome = "skipped"
		}
		if result != nil {
			span.SetAttributes(
				attribute.Int("dental.reminders.processed", result.ProcessedCount),
				attribute.Int("dental.reminders.sent", result.SentCount),
			)
		}
		s.metrics.ObserveCycle(outcome, time.Since(start))
	}()

	return s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) (*CycleResult, error) {
	cfg, err := s.configs.ReminderConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminders: load config: %w", err)
	}

	result := &CycleResult{Results: []AppointmentResult{}}
	if !cfg.HasCredentials() {
		s.logger.Warn("reminders: sms gateway credentials missing, skipping cycle")
		result.SkippedReason = SkipCredentialsMissing
		return result, nil
	}

	sender, err := s.newSender(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("reminders: build sender: %w", err)
	}

	for _, t := range Thresholds() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		results, err := s.dispatchThreshold(ctx, t, cfg, sender)
		result.add(results)
		if err != nil {
			s.logger.Error("reminders: threshold dispatch failed", "threshold", t.Name, "error", err)
		}
	}
	return result, nil
}

// dispatchThreshold keeps a failure or panic in one threshold from reaching
// the others.
func (s *Scheduler) dispatchThreshold(ctx context.Context, t Threshold, cfg settings.ReminderConfig, sender SMSSender) (results []AppointmentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminders: %s dispatch panicked: %v", t.Name, r)
		}
	}()
	return s.dispatcher.Dispatch(ctx, t, cfg, sender)
}

// GatewaySenderFactory binds each cycle's credentials to a GatewayClient that
// shares opts' transport.
func GatewaySenderFactory(opts messaging.GatewayOptions) SenderFactory {
	return func(creds messaging.GatewayCredentials) (SMSSender, error) {
		client, err := messaging.NewGatewayClient(creds, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/verify"
)

// EndpointChecker runs the ruleset canaries against an endpoint.
type EndpointChecker interface {
	Check(ctx context.Context, endpoint string) verify.Result
}

// VerifyJob re-verifies the configured endpoint.
type VerifyJob struct {
	config  VerifyJobConfig
	store   config.Store
	checker EndpointChecker
	logger  zerolog.Logger

	metrics *VerifyMetrics
}

// VerifyMetrics tracks watchdog statistics.
type VerifyMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns         int64
	SkippedRuns       int64
	SuccessfulRuns    int64
	RulesetFailures   int64
	TransportFailures int64
	ConfigFailures    int64

	// Last run
	LastRunAt       time.Time
	LastRunDuration time.Duration
	LastEndpoint    string
	LastOutcome     string
	LastError       string
}

// VerifyJobOptions holds configuration for creating a VerifyJob.
type VerifyJobOptions struct {
	Config  VerifyJobConfig
	Store   config.Store
	Checker EndpointChecker
	Logger  zerolog.Logger
}

// NewVerifyJob creates a new endpoint watchdog.
func NewVerifyJob(opts VerifyJobOptions) *VerifyJob {
	return &VerifyJob{
		config:  opts.Config.withDefaults(),
		store:   opts.Store,
		checker: opts.Checker,
		logger:  opts.Logger,
		metrics: &VerifyMetrics{},
	}
}

// VerifyResult contains the result of one run.
type VerifyResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Endpoint  string

	// Skipped is set when no endpoint is configured.
	Skipped bool

	Outcome verify.Outcome
	Err     error
}

// Run loads the stored endpoint and checks it. It returns an error only when
// the config cannot be loaded; verification failures are reported in the
// result.
func (j *VerifyJob) Run(ctx context.Context) (*VerifyResult, error) {
	startTime := time.Now()
	result := &VerifyResult{StartTime: startTime}

	cfg, err := j.store.Load(ctx)
	if err != nil {
		j.recordConfigFailure(startTime, err)
		j.logger.Error().Err(err).Msg("failed to load config")
		return nil, fmt.Errorf("load config: %w", err)
	}

	if !cfg.IsConfigured() {
		result.Skipped = true
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.updateMetrics(result)
		j.logger.Debug().Msg("no endpoint configured, skipping verification")
		return result, nil
	}

	result.Endpoint = cfg.Endpoint

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	check := j.checker.Check(runCtx, cfg.Endpoint)
	result.Outcome = check.Outcome
	result.Err = check.Err
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	var event *zerolog.Event
	switch result.Outcome {
	case verify.OutcomeOK:
		event = j.logger.Info()
	case verify.OutcomeRulesetMisconfigured:
		event = j.logger.Warn()
	default:
		event = j.logger.Error()
	}
	event.
		Err(result.Err).
		Str("endpoint", result.Endpoint).
		Stringer("outcome", result.Outcome).
		Dur("duration", result.Duration).
		Msg("endpoint verification completed")

	return result, nil
}

// Start runs the job once, then on every interval until ctx is done.
func (j *VerifyJob) Start(ctx context.Context) {
	j.logger.Info().
		Dur("interval", j.config.Interval).
		Msg("starting endpoint watchdog")

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		_, _ = j.Run(ctx)

		select {
		case <-ctx.Done():
			j.logger.Info().Msg("endpoint watchdog stopped")
			return
		case <-ticker.C:
		}
	}
}

func (j *VerifyJob) recordConfigFailure(at time.Time, err error) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.ConfigFailures++
	j.metrics.LastRunAt = at
	j.metrics.LastRunDuration = time.Since(at)
	j.metrics.LastOutcome = "config_error"
	j.metrics.LastError = err.Error()
}

func (j *VerifyJob) updateMetrics(result *VerifyResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.LastEndpoint = result.Endpoint
	j.metrics.LastError = ""

	if result.Skipped {
		j.metrics.SkippedRuns++
		j.metrics.LastOutcome = "skipped"
		return
	}

	j.metrics.LastOutcome = result.Outcome.String()
	if result.Err != nil {
		j.metrics.LastError = result.Err.Error()
	}

	switch result.Outcome {
	case verify.OutcomeOK:
		j.metrics.SuccessfulRuns++
	case verify.OutcomeRulesetMisconfigured:
		j.metrics.RulesetFailures++
	default:
		j.metrics.TransportFailures++
	}
}

// GetMetrics returns a copy of the current metrics.
func (j *VerifyJob) GetMetrics() VerifyMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return VerifyMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SkippedRuns:       j.metrics.SkippedRuns,
		SuccessfulRuns:    j.metrics.SuccessfulRuns,
		RulesetFailures:   j.metrics.RulesetFailures,
		TransportFailures: j.metrics.TransportFailures,
		ConfigFailures:    j.metrics.ConfigFailures,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		LastEndpoint:      j.metrics.LastEndpoint,
		LastOutcome:       j.metrics.LastOutcome,
		LastError:         j.metrics.LastError,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *VerifyJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()

	snapshot := map[string]interface{}{
		"total_runs":         m.TotalRuns,
		"skipped_runs":       m.SkippedRuns,
		"successful_runs":    m.SuccessfulRuns,
		"ruleset_failures":   m.RulesetFailures,
		"transport_failures": m.TransportFailures,
		"config_failures":    m.ConfigFailures,
		"last_outcome":       m.LastOutcome,
	}
	if !m.LastRunAt.IsZero() {
		snapshot["last_run_at"] = m.LastRunAt.UTC().Format(time.RFC3339)
		snapshot["last_run_duration_ms"] = m.LastRunDuration.Milliseconds()
	}
	if m.LastEndpoint != "" {
		snapshot["last_endpoint"] = m.LastEndpoint
	}
	if m.LastError != "" {
		snapshot["last_error"] = m.LastError
	}
	return snapshot
}

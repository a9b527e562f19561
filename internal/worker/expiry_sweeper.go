package worker

import (
	"context"
	"time"

	"verkstad/internal/domain"
	"verkstad/internal/events"
	"verkstad/internal/metrics"
	"verkstad/internal/models"

	"github.com/rs/zerolog"
)

// ExpirySweeper backstops lazy expiry checks: it periodically moves requests
// whose bidding window has passed from IN_BIDDING to BIDDING_CLOSED, so stale
// requests disappear from feeds even when nobody reads them.
type ExpirySweeper struct {
	repo        domain.Repository
	eventBus    domain.EventPublisher
	interval    time.Duration
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
}

func NewExpirySweeper(repo domain.Repository, eventBus domain.EventPublisher, intervalMinutes int, retry RetryPolicy, logger *zerolog.Logger) *ExpirySweeper {
	if intervalMinutes <= 0 {
		intervalMinutes = models.DefaultSweepIntervalMinutes
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExpirySweeper{
		repo:        repo,
		eventBus:    eventBus,
		interval:    time.Duration(intervalMinutes) * time.Minute,
		retryPolicy: retry,
		logger:      logger,
	}
}

// Run blocks until ctx is cancelled. One sweep fires immediately on start.
func (w *ExpirySweeper) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("expiry sweeper started")

	if err := w.SweepOnce(ctx); err != nil {
		w.logger.Error().Err(err).Msg("initial sweep failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("expiry sweeper stopped")
			return
		case <-ticker.C:
			if err := w.SweepOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// SweepOnce closes everything expired as of now, retrying transient failures.
func (w *ExpirySweeper) SweepOnce(ctx context.Context) error {
	var expired []string
	var err error

	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		expired, err = w.repo.CloseExpiredRequests(ctx, time.Now().UTC())
		if err == nil {
			break
		}
		if attempt == w.retryPolicy.MaxRetries {
			return err
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("close expired requests failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if len(expired) == 0 {
		return nil
	}

	metrics.AddRequestsExpired(len(expired))
	w.logger.Info().Int("count", len(expired)).Msg("expired requests closed")

	if w.eventBus != nil {
		for _, id := range expired {
			payload := events.RequestEventPayload{
				RequestID: id,
				Status:    models.RequestStatusBiddingClosed,
			}
			if err := w.eventBus.PublishJSON(events.EventRequestExpired, payload); err != nil {
				w.logger.Error().Err(err).Str("request_id", id).Msg("publish event error")
			}
		}
	}

	return nil
}

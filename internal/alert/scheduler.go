package alert

import (
	"context"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/types"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultInterval     = 60 * time.Second
	DefaultDelay        = 10 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

// ErrFetchTimeout is returned when a price lookup exceeds the per-call timeout
var ErrFetchTimeout = errors.New("price lookup timed out")

// PriceSource returns the current quote for an asset
type PriceSource interface {
	Fetch(ctx context.Context, asset string) (types.Quote, error)
}

// Notifier delivers a text message to a user
type Notifier interface {
	Send(ctx context.Context, user types.UserID, text string) error
}

// SchedulerConfig configures the evaluation loop
type SchedulerConfig struct {
	Interval     time.Duration
	Delay        time.Duration
	FetchTimeout time.Duration
	Policy       DeliveryPolicy
	Metrics      *metrics.Metrics
}

// Report summarises one tick
type Report struct {
	Evaluated        int
	Triggered        int
	Pending          int
	Retained         int
	FetchFailures    int
	DeliveryFailures int
}

// Scheduler periodically evaluates every pending alert against the price source
type Scheduler struct {
	registry *Registry
	source   PriceSource
	notifier Notifier
	config   SchedulerConfig

	// tickMutex ensures only one tick runs at a time
	tickMutex sync.Mutex
}

// NewScheduler creates a scheduler; zero durations fall back to the defaults
func NewScheduler(registry *Registry, source PriceSource, notifier Notifier, c SchedulerConfig) *Scheduler {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}

	return &Scheduler{
		registry: registry,
		source:   source,
		notifier: notifier,
		config:   c,
	}
}

// Run evaluates alerts after the warm-up delay and then every interval until ctx is done.
// The next tick is scheduled only after the previous one returns.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Infof("🚀 Alert service started (interval %s, delay %s, policy %s)", s.config.Interval, s.config.Delay, s.config.Policy)

	timer := time.NewTimer(s.config.Delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Alert service stopped")
			return nil
		case <-timer.C:
		}

		s.Tick(ctx)
		timer.Reset(s.config.Interval)
	}
}

// Tick evaluates every alert in a registry snapshot exactly once
func (s *Scheduler) Tick(ctx context.Context) Report {
	s.tickMutex.Lock()
	defer s.tickMutex.Unlock()

	started := time.Now()
	log.Debug("🔄 Checking alerts...")

	snapshot := s.registry.Snapshot()
	users := make([]types.UserID, 0, len(snapshot))
	for user := range snapshot {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	var report Report

evaluation:
	for _, user := range users {
		for _, a := range snapshot[user] {
			if err := ctx.Err(); err != nil {
				log.WithFields(log.Fields{
					"user":   user,
					"asset":  a.Asset,
					"target": a.Target,
				}).WithError(err).Error("Alert check aborted")
				break evaluation
			}
			s.evaluate(ctx, user, a, &report)
		}
	}

	pending := s.registry.Len()
	s.config.Metrics.ObserveTick(time.Since(started), pending)

	log.Debugf("✅ Alert check completed: %+v", report)
	return report
}

func (s *Scheduler) evaluate(ctx context.Context, user types.UserID, a types.Alert, report *Report) {
	report.Evaluated++
	logger := log.WithFields(log.Fields{
		"user":   user,
		"asset":  a.Asset,
		"target": a.Target,
	})

	quote, err := s.fetch(ctx, a.Asset)
	if err != nil {
		report.FetchFailures++
		s.config.Metrics.FetchFailed(a.Asset)
		logger.WithError(err).Warn("⚠️ Failed to fetch price, will retry next tick")
		return
	}

	logger.Debugf("🔍 Checking price alert | Current: %.2f", quote.Price)

	if quote.Price < a.Target {
		report.Pending++
		return
	}

	report.Triggered++
	s.config.Metrics.AlertTriggered(a.Asset)

	result := deliveryResult(s.notifier.Send(ctx, user, Notification(a, quote.Price)))
	if result.Status == DeliveryFailed {
		report.DeliveryFailures++
		s.config.Metrics.DeliveryFailed()
		logger.WithError(result.Err).Error("❌ Failed to send price alert notification")
	} else {
		logger.Debug("✅ Price alert notification sent")
	}

	if s.config.Policy.keep(result) {
		report.Retained++
		logger.Info("Alert kept pending for redelivery")
		return
	}

	s.registry.Remove(user, a)
}

// fetch bounds the lookup by FetchTimeout even when the source ignores ctx
func (s *Scheduler) fetch(ctx context.Context, asset string) (types.Quote, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	type result struct {
		quote types.Quote
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: errors.Errorf("price source panic: %v", r)}
			}
		}()
		q, err := s.source.Fetch(fetchCtx, asset)
		done <- result{quote: q, err: err}
	}()

	select {
	case r := <-done:
		return r.quote, r.err
	case <-fetchCtx.Done():
		if ctx.Err() != nil {
			return types.Quote{}, ctx.Err()
		}
		return types.Quote{}, errors.Wrapf(ErrFetchTimeout, "fetch %s", asset)
	}
}

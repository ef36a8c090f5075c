package liveness

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cleanair-labs/aqmon/internal/clock"
	"github.com/cleanair-labs/aqmon/internal/watchdog"
)

// Metrics exposes the runner's own behavior on the scrape surface so a
// pending starvation is visible before the reset happens.
type Metrics struct {
	fedTotal     prometheus.Counter
	skippedTotal prometheus.Counter
	feedErrors   prometheus.Counter
	checkHealthy *prometheus.GaugeVec
}

// NewMetrics registers the runner metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqmon_watchdog_fed_total",
			Help: "Ticks on which the hardware watchdog was fed.",
		}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqmon_watchdog_skipped_total",
			Help: "Ticks on which the feed was withheld due to staleness.",
		}),
		feedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqmon_watchdog_feed_errors_total",
			Help: "Failed kicks of the watchdog device.",
		}),
		checkHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aqmon_liveness_check_healthy",
			Help: "Per-check liveness outcome at the last tick (1 healthy, 0 stale).",
		}, []string{"check"}),
	}
	reg.MustRegister(m.fedTotal, m.skippedTotal, m.feedErrors, m.checkHealthy)
	return m
}

func (m *Metrics) observe(d Decision, feedErr error) {
	if m == nil {
		return
	}
	boolGauge := func(check string, ok bool) {
		v := 0.0
		if ok {
			v = 1.0
		}
		m.checkHealthy.WithLabelValues(check).Set(v)
	}
	boolGauge("connectivity", d.ConnectivityOK)
	boolGauge("sensors", d.SensorsOK)
	boolGauge("scrape", d.ScrapeOK)
	if !d.Feed() {
		m.skippedTotal.Inc()
		return
	}
	if feedErr != nil {
		m.feedErrors.Inc()
		return
	}
	m.fedTotal.Inc()
}

// Runner evaluates liveness on a fixed period and feeds or withholds the
// watchdog accordingly.
type Runner struct {
	eval    *Evaluator
	feeder  watchdog.Feeder
	clk     clock.Clock
	tick    time.Duration
	logger  *zap.Logger
	metrics *Metrics
}

// NewRunner creates a runner. metrics may be nil.
func NewRunner(eval *Evaluator, feeder watchdog.Feeder, clk clock.Clock, tick time.Duration, logger *zap.Logger, metrics *Metrics) *Runner {
	return &Runner{
		eval:    eval,
		feeder:  feeder,
		clk:     clk,
		tick:    tick,
		logger:  logger,
		metrics: metrics,
	}
}

// Run blocks until the context is cancelled. Each tick is logged so a
// starvation that ends in a hardware reset leaves a postmortem trail.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Runner) step() {
	d := r.eval.Evaluate(r.clk.Now())

	if !d.Feed() {
		r.logger.Warn("System unhealthy, withholding watchdog feed", d.LogFields()...)
		r.metrics.observe(d, nil)
		return
	}

	err := r.feeder.Feed()
	if err != nil {
		r.logger.Error("Watchdog feed failed", zap.Error(err))
	} else {
		r.logger.Debug("Fed watchdog", d.LogFields()...)
	}
	r.metrics.observe(d, err)
}

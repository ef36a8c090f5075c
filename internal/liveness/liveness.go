// Package liveness implements the watchdog decision core. On each tick it
// compares three tracked ages — connectivity, per-channel sensor data,
// metrics scrapes — against configured timeouts and decides whether to
// feed the hardware watchdog. It never resets anything itself: software
// decides eligibility, hardware enforces.
package liveness

import (
	"time"

	"go.uber.org/zap"

	"github.com/cleanair-labs/aqmon/internal/store"
	"github.com/cleanair-labs/aqmon/internal/track"
)

// Policy holds the staleness timeouts, immutable for the process lifetime.
// Each age is compared strictly: exceeding the timeout is stale.
type Policy struct {
	MaxConnectivityAge time.Duration
	MaxSensorAge       time.Duration
	MaxScrapeAge       time.Duration
	// StartupGrace bounds the initial window during which absent data
	// (no scrape yet, no reading yet, no address yet) does not count as
	// staleness. The deadline is boot time + StartupGrace, absolute and
	// never re-armed, so it cannot mask a real failure indefinitely.
	StartupGrace time.Duration
}

// Decision is the outcome of one evaluation tick.
type Decision struct {
	ConnectivityOK bool
	SensorsOK      bool
	ScrapeOK       bool
	// StaleChannels lists the channels that failed the sensor check,
	// for diagnostics.
	StaleChannels []store.ChannelID
}

// Feed reports whether the watchdog should be fed this tick: the
// conjunction of all three checks, no short-circuit side effects.
func (d Decision) Feed() bool {
	return d.ConnectivityOK && d.SensorsOK && d.ScrapeOK
}

// Evaluator computes feed decisions from tracker state. Every input has a
// defined default (infinite age), so evaluation itself cannot fail.
type Evaluator struct {
	policy        Policy
	graceDeadline time.Time
	readings      *store.Store
	connectivity  *track.Tracker
	scrapes       *track.Tracker
}

// NewEvaluator creates an evaluator over the given trackers. bootTime
// anchors the startup grace deadline.
func NewEvaluator(policy Policy, bootTime time.Time, readings *store.Store, connectivity, scrapes *track.Tracker) *Evaluator {
	return &Evaluator{
		policy:        policy,
		graceDeadline: bootTime.Add(policy.StartupGrace),
		readings:      readings,
		connectivity:  connectivity,
		scrapes:       scrapes,
	}
}

// Evaluate computes the decision for the given instant. It is a pure
// function of now and the trackers' stored timestamps; it mutates nothing.
func (e *Evaluator) Evaluate(now time.Time) Decision {
	inGrace := !now.After(e.graceDeadline)

	d := Decision{
		ConnectivityOK: e.fresh(e.connectivity, e.policy.MaxConnectivityAge, now) || inGrace,
		ScrapeOK:       e.fresh(e.scrapes, e.policy.MaxScrapeAge, now) || inGrace,
		SensorsOK:      true,
	}

	for _, id := range store.AllChannels() {
		age, known := e.readings.AgeOf(id, now)
		if (known && age <= e.policy.MaxSensorAge) || inGrace {
			continue
		}
		d.SensorsOK = false
		d.StaleChannels = append(d.StaleChannels, id)
	}

	return d
}

// fresh reports whether the tracker has a confirmation younger than max.
// A tracker that has never been marked has infinite age and is never fresh.
func (e *Evaluator) fresh(t *track.Tracker, max time.Duration, now time.Time) bool {
	age, known := t.Age(now)
	return known && age <= max
}

// LogFields renders the decision for structured logging.
func (d Decision) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.Bool("connectivity_ok", d.ConnectivityOK),
		zap.Bool("sensors_ok", d.SensorsOK),
		zap.Bool("scrape_ok", d.ScrapeOK),
	}
	if len(d.StaleChannels) > 0 {
		stale := make([]string, len(d.StaleChannels))
		for i, id := range d.StaleChannels {
			stale[i] = string(id)
		}
		fields = append(fields, zap.Strings("stale_channels", stale))
	}
	return fields
}

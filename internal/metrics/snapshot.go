// Package metrics assembles point-in-time snapshots of sensor and system
// state and bridges them to the prometheus exposition surface. The text
// encoding itself belongs to the prometheus registry; this package only
// decides what a scrape contains.
package metrics

import (
	"time"

	"github.com/cleanair-labs/aqmon/internal/device"
	"github.com/cleanair-labs/aqmon/internal/store"
	"github.com/cleanair-labs/aqmon/internal/sysinfo"
)

// Snapshot is an immutable copy of all channel states plus process facts,
// built fresh per scrape and discarded after rendering.
type Snapshot struct {
	TakenAt  time.Time
	Uptime   time.Duration
	Facts    sysinfo.Facts
	Device   device.Info
	Channels []store.ChannelState
}

// Builder constructs snapshots from the reading store and startup facts.
type Builder struct {
	readings *store.Store
	dev      device.Info
	bootTime time.Time
}

// NewBuilder creates a builder. bootTime anchors the uptime fact.
func NewBuilder(readings *store.Store, dev device.Info, bootTime time.Time) *Builder {
	return &Builder{readings: readings, dev: dev, bootTime: bootTime}
}

// Build copies the current channel states into a snapshot. It is a pure
// read: no tracker is touched, so building a snapshot is never itself a
// scrape success. Process facts are supplied by the caller so construction
// performs no I/O.
func (b *Builder) Build(now time.Time, facts sysinfo.Facts) *Snapshot {
	return &Snapshot{
		TakenAt:  now,
		Uptime:   now.Sub(b.bootTime),
		Facts:    facts,
		Device:   b.dev,
		Channels: b.readings.Channels(),
	}
}

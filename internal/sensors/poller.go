package sensors

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cleanair-labs/aqmon/internal/clock"
	"github.com/cleanair-labs/aqmon/internal/store"
)

// Poller runs one driver on a fixed interval and records each outcome in
// the store. One poller per channel keeps the single-writer-per-channel
// discipline: the store is only ever written for a channel by its poller.
type Poller struct {
	driver   Driver
	readings *store.Store
	clk      clock.Clock
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller creates a poller for the driver's channel.
func NewPoller(driver Driver, readings *store.Store, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		driver:   driver,
		readings: readings,
		clk:      clk,
		interval: interval,
		logger:   logger.With(zap.String("channel", string(driver.Channel()))),
	}
}

// Run polls immediately, then on every interval, until the context is
// cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll performs one acquisition. The store write happens after the read
// completes, as a single assignment: a read that fails or is cancelled
// mid-flight records either an error or nothing.
func (p *Poller) poll(ctx context.Context) {
	v, err := p.driver.Read(ctx)
	now := p.clk.Now()
	if err != nil {
		kind := KindOf(err)
		p.readings.RecordError(p.driver.Channel(), kind, now)
		p.logger.Warn("Sensor read failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}
	p.readings.RecordValue(p.driver.Channel(), v, now)
	p.logger.Debug("Recorded reading")
}

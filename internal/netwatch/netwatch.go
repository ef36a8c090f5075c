// Package netwatch confirms the device holds a usable network address and
// marks the connectivity tracker on each confirmation. It only ever
// reports positives: staleness is derived from time since the last
// confirmation by the liveness evaluator, so no disconnect event needs to
// be tracked here.
package netwatch

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	psnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/cleanair-labs/aqmon/internal/clock"
	"github.com/cleanair-labs/aqmon/internal/track"
)

// Watcher probes the host's interfaces for a usable address.
type Watcher struct {
	tracker  *track.Tracker
	clk      clock.Clock
	interval time.Duration
	iface    string // optional: restrict the probe to one interface
	logger   *zap.Logger
}

// New creates a watcher that marks tracker on every successful probe.
// iface may be empty to accept any interface.
func New(tracker *track.Tracker, clk clock.Clock, interval time.Duration, iface string, logger *zap.Logger) *Watcher {
	return &Watcher{
		tracker:  tracker,
		clk:      clk,
		interval: interval,
		iface:    iface,
		logger:   logger,
	}
}

// Run probes until the context is cancelled. While no address is held the
// probe backs off exponentially; after a success it returns to the steady
// interval.
func (w *Watcher) Run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = w.interval
	bo.MaxElapsedTime = 0 // never give up

	for {
		var wait time.Duration
		if w.probe(ctx) {
			w.tracker.Mark(w.clk.Now())
			bo.Reset()
			wait = w.interval
			w.logger.Debug("Confirmed network address")
		} else {
			wait = bo.NextBackOff()
			w.logger.Warn("No usable network address", zap.Duration("retry_in", wait))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// probe reports whether any accepted interface is up with a usable address.
func (w *Watcher) probe(ctx context.Context) bool {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		w.logger.Warn("Interface enumeration failed", zap.Error(err))
		return false
	}

	for _, ifc := range ifaces {
		if w.iface != "" && ifc.Name != w.iface {
			continue
		}
		if !hasFlag(ifc.Flags, "up") || hasFlag(ifc.Flags, "loopback") {
			continue
		}
		for _, addr := range ifc.Addrs {
			if usableAddr(addr.Addr) {
				return true
			}
		}
	}
	return false
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

// usableAddr reports whether a CIDR-style interface address is a real,
// routable assignment rather than loopback or link-local noise.
func usableAddr(cidr string) bool {
	host := cidr
	if i := strings.IndexByte(cidr, '/'); i >= 0 {
		host = cidr[:i]
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast() && !ip.IsUnspecified()
}

// Package sensors defines the driver contract and the pollers that feed
// the reading store. Wire-protocol drivers for real hardware implement
// Driver; this package ships simulated drivers for bench use.
package sensors

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleanair-labs/aqmon/internal/store"
)

// Driver acquires readings for exactly one channel.
type Driver interface {
	// Channel returns the channel this driver produces readings for.
	Channel() store.ChannelID

	// Read performs one acquisition and returns a typed store value.
	// Failures should be a DriverError so the error kind survives onto
	// the metrics surface.
	Read(ctx context.Context) (store.Value, error)
}

// DriverError carries the machine-readable error kind alongside the cause.
type DriverError struct {
	Kind store.ErrorKind
	Err  error
}

func (e *DriverError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// KindOf extracts the error kind from a driver failure, defaulting to
// "read_failed" for errors that carry no kind.
func KindOf(err error) store.ErrorKind {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Kind
	}
	return store.ErrorKind("read_failed")
}

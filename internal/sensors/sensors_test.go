package sensors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cleanair-labs/aqmon/internal/store"
)

var boot = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// scriptedDriver returns queued outcomes in order.
type scriptedDriver struct {
	channel store.ChannelID
	values  []store.Value
	errs    []error
	calls   int
}

func (d *scriptedDriver) Channel() store.ChannelID { return d.channel }

func (d *scriptedDriver) Read(ctx context.Context) (store.Value, error) {
	i := d.calls
	d.calls++
	if d.errs[i] != nil {
		return nil, d.errs[i]
	}
	return d.values[i], nil
}

func TestPoller_RecordsValuesAndErrors(t *testing.T) {
	readings := store.New()
	driver := &scriptedDriver{
		channel: store.ChannelCO2,
		values:  []store.Value{store.CO2Value{PPM: 510}, nil},
		errs:    []error{nil, &DriverError{Kind: "read_timeout", Err: errors.New("uart silent")}},
	}
	p := NewPoller(driver, readings, fixedClock(boot), time.Second, zap.NewNop())

	p.poll(context.Background())
	cs := channelState(t, readings, store.ChannelCO2)
	if cs.ErrorKind != "" {
		t.Errorf("error = %q after successful read, want none", cs.ErrorKind)
	}
	if v, ok := cs.Value.(store.CO2Value); !ok || v.PPM != 510 {
		t.Errorf("value = %#v, want CO2Value{510}", cs.Value)
	}

	p.poll(context.Background())
	cs = channelState(t, readings, store.ChannelCO2)
	if cs.ErrorKind != "read_timeout" {
		t.Errorf("error = %q after failed read, want read_timeout", cs.ErrorKind)
	}
	if v, ok := cs.Value.(store.CO2Value); !ok || v.PPM != 510 {
		t.Errorf("value = %#v, want previous reading retained", cs.Value)
	}
}

func TestKindOf(t *testing.T) {
	if kind := KindOf(&DriverError{Kind: "checksum_mismatch"}); kind != "checksum_mismatch" {
		t.Errorf("kind = %q, want checksum_mismatch", kind)
	}
	if kind := KindOf(errors.New("plain failure")); kind != "read_failed" {
		t.Errorf("kind = %q, want read_failed fallback", kind)
	}

	wrapped := fmt.Errorf("poll: %w", &DriverError{Kind: "read_timeout"})
	if kind := KindOf(wrapped); kind != "read_timeout" {
		t.Errorf("kind = %q through wrapping, want read_timeout", kind)
	}
}

func TestSimDriver_ProducesTypedValues(t *testing.T) {
	for _, tc := range []struct {
		channel store.ChannelID
		check   func(store.Value) bool
	}{
		{store.ChannelPM, func(v store.Value) bool { _, ok := v.(store.PMValue); return ok }},
		{store.ChannelCO2, func(v store.Value) bool { _, ok := v.(store.CO2Value); return ok }},
		{store.ChannelVOCNOx, func(v store.Value) bool { _, ok := v.(store.IndexValue); return ok }},
		{store.ChannelClimate, func(v store.Value) bool { _, ok := v.(store.ClimateValue); return ok }},
	} {
		d := NewSimDriver(tc.channel, 1)
		for i := 0; i < 10; i++ {
			v, err := d.Read(context.Background())
			if err != nil {
				t.Fatalf("%s: read failed: %v", tc.channel, err)
			}
			if !tc.check(v) {
				t.Fatalf("%s: wrong value type %#v", tc.channel, v)
			}
		}
	}
}

func TestSimDriver_CO2StaysInRange(t *testing.T) {
	d := NewSimDriver(store.ChannelCO2, 7)
	for i := 0; i < 1000; i++ {
		v, err := d.Read(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		ppm := v.(store.CO2Value).PPM
		if ppm < 400 || ppm > 5000 {
			t.Fatalf("co2 = %d out of range", ppm)
		}
	}
}

func channelState(t *testing.T, s *store.Store, id store.ChannelID) store.ChannelState {
	t.Helper()
	for _, cs := range s.Channels() {
		if cs.ID == id {
			return cs
		}
	}
	t.Fatalf("channel %s not found", id)
	return store.ChannelState{}
}

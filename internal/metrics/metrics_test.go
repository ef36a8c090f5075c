package metrics

import (
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/cleanair-labs/aqmon/internal/device"
	"github.com/cleanair-labs/aqmon/internal/store"
	"github.com/cleanair-labs/aqmon/internal/sysinfo"
)

var boot = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

var testDevice = device.Info{
	MACAddress:  "AA:BB:CC:DD:EE:FF",
	DeviceID:    "aabbccddeeff",
	Serial:      "test-serial",
	ResetReason: "power_on",
	Version:     "test",
	Commit:      "deadbeef",
}

func TestBuild_IsPureRead(t *testing.T) {
	readings := store.New()
	readings.RecordValue(store.ChannelCO2, store.CO2Value{PPM: 600}, boot)
	readings.RecordError(store.ChannelPM, "read_timeout", boot)

	b := NewBuilder(readings, testDevice, boot)
	now := boot.Add(30 * time.Second)
	facts := sysinfo.Facts{HeapUsedBytes: 1}

	first := b.Build(now, facts)
	second := b.Build(now, facts)

	if !reflect.DeepEqual(first.Channels, second.Channels) {
		t.Error("two builds with no intervening writes differ")
	}
	if first.Uptime != 30*time.Second {
		t.Errorf("uptime = %v, want 30s", first.Uptime)
	}
}

func TestBuild_CopiesCurrentState(t *testing.T) {
	readings := store.New()
	b := NewBuilder(readings, testDevice, boot)

	before := b.Build(boot, sysinfo.Facts{})
	readings.RecordValue(store.ChannelCO2, store.CO2Value{PPM: 600}, boot)
	after := b.Build(boot, sysinfo.Facts{})

	if reflect.DeepEqual(before.Channels, after.Channels) {
		t.Error("snapshot did not observe the write")
	}
	for _, cs := range before.Channels {
		if cs.Value != nil {
			t.Errorf("earlier snapshot mutated retroactively: %+v", cs)
		}
	}
}

func TestCollector_EmitsValueAndErrorSeries(t *testing.T) {
	readings := store.New()
	readings.RecordValue(store.ChannelCO2, store.CO2Value{PPM: 600}, boot)
	readings.RecordValue(store.ChannelClimate, store.ClimateValue{TempC: 21.5, HumidityPct: 40}, boot)

	families := gather(t, readings)

	for _, name := range []string{
		"aqmon_info",
		"aqmon_uptime_seconds",
		"aqmon_heap_used_bytes",
		"aqmon_co2_ppm",
		"aqmon_temperature_celsius",
		"aqmon_humidity_percent",
		"aqmon_sensor_error",
		"aqmon_sensor_age_seconds",
	} {
		if _, ok := families[name]; !ok {
			t.Errorf("metric %s missing from scrape", name)
		}
	}

	if co2 := families["aqmon_co2_ppm"].GetMetric()[0].GetGauge().GetValue(); co2 != 600 {
		t.Errorf("co2 = %v, want 600", co2)
	}
}

func TestCollector_NeverSampledEmitsNoValueSeries(t *testing.T) {
	families := gather(t, store.New())

	for _, name := range []string{"aqmon_co2_ppm", "aqmon_pm2d5_ugm3", "aqmon_temperature_celsius"} {
		if _, ok := families[name]; ok {
			t.Errorf("metric %s emitted for never-sampled channel", name)
		}
	}

	errFamily, ok := families["aqmon_sensor_error"]
	if !ok {
		t.Fatal("aqmon_sensor_error missing")
	}
	if n := len(errFamily.GetMetric()); n != len(store.AllChannels()) {
		t.Fatalf("error series = %d, want one per channel", n)
	}
	for _, m := range errFamily.GetMetric() {
		if m.GetGauge().GetValue() != 1 {
			t.Errorf("sensor error = %v for never-sampled channel, want 1", m.GetGauge().GetValue())
		}
		for _, l := range m.GetLabel() {
			if l.GetName() == "error" && l.GetValue() != string(store.ErrNotYetSampled) {
				t.Errorf("error label = %q, want %q", l.GetValue(), store.ErrNotYetSampled)
			}
		}
	}
}

// gather registers a collector over the store and returns the scrape
// output keyed by family name.
func gather(t *testing.T, readings *store.Store) map[string]*dto.MetricFamily {
	t.Helper()

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(NewBuilder(readings, testDevice, boot), fixedClock(boot.Add(time.Minute))))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

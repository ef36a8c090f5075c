package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cleanair-labs/aqmon/internal/clock"
	"github.com/cleanair-labs/aqmon/internal/store"
	"github.com/cleanair-labs/aqmon/internal/sysinfo"
)

// Collector adapts snapshots to the prometheus scrape model: every scrape
// builds a fresh snapshot and emits it as const metrics. Channels that
// have never produced a value emit no value series, only their error
// series, so a scraper can tell "no data yet" from "zero".
type Collector struct {
	builder *Builder
	clk     clock.Clock

	info        *prometheus.Desc
	uptime      *prometheus.Desc
	heapUsed    *prometheus.Desc
	heapSys     *prometheus.Desc
	memUsed     *prometheus.Desc
	memTotal    *prometheus.Desc
	sensorError *prometheus.Desc
	sensorAge   *prometheus.Desc
	values      map[string]*prometheus.Desc
}

// NewCollector creates a collector over the builder.
func NewCollector(builder *Builder, clk clock.Clock) *Collector {
	gauge := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, nil, nil)
	}
	return &Collector{
		builder: builder,
		clk:     clk,
		info: prometheus.NewDesc("aqmon_info", "Device info.",
			[]string{"version", "commit", "serial", "device_id", "mac_address", "reset_reason"}, nil),
		uptime:   gauge("aqmon_uptime_seconds", "Time since process start."),
		heapUsed: gauge("aqmon_heap_used_bytes", "Heap memory in use."),
		heapSys:  gauge("aqmon_heap_sys_bytes", "Heap memory obtained from the OS."),
		memUsed:  gauge("aqmon_mem_used_bytes", "System memory in use."),
		memTotal: gauge("aqmon_mem_total_bytes", "Total system memory."),
		sensorError: prometheus.NewDesc("aqmon_sensor_error", "Sensor error status (1 when errored).",
			[]string{"sensor", "error"}, nil),
		sensorAge: prometheus.NewDesc("aqmon_sensor_age_seconds", "Age of the channel's last update.",
			[]string{"sensor"}, nil),
		values: map[string]*prometheus.Desc{
			"pm0d3_p100ml":        gauge("aqmon_pm0d3_p100ml", "PM0.3 particle count per 100ml."),
			"pm0d5_p100ml":        gauge("aqmon_pm0d5_p100ml", "PM0.5 particle count per 100ml."),
			"pm1_p100ml":          gauge("aqmon_pm1_p100ml", "PM1.0 particle count per 100ml."),
			"pm2d5_p100ml":        gauge("aqmon_pm2d5_p100ml", "PM2.5 particle count per 100ml."),
			"pm1_ugm3":            gauge("aqmon_pm1_ugm3", "PM1.0 mass concentration."),
			"pm2d5_ugm3":          gauge("aqmon_pm2d5_ugm3", "PM2.5 mass concentration."),
			"pm10_ugm3":           gauge("aqmon_pm10_ugm3", "PM10 mass concentration."),
			"co2_ppm":             gauge("aqmon_co2_ppm", "CO2 concentration."),
			"tvoc_index":          gauge("aqmon_tvoc_index", "TVOC index."),
			"nox_index":           gauge("aqmon_nox_index", "NOx index."),
			"temperature_celsius": gauge("aqmon_temperature_celsius", "Ambient temperature."),
			"humidity_percent":    gauge("aqmon_humidity_percent", "Relative humidity."),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	now := c.clk.Now()
	snap := c.builder.Build(now, sysinfo.Capture(context.Background()))

	g := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	dev := snap.Device
	g(c.info, 1, dev.Version, dev.Commit, dev.Serial, dev.DeviceID, dev.MACAddress, dev.ResetReason)
	g(c.uptime, snap.Uptime.Seconds())
	g(c.heapUsed, float64(snap.Facts.HeapUsedBytes))
	g(c.heapSys, float64(snap.Facts.HeapSysBytes))
	g(c.memUsed, float64(snap.Facts.MemUsedBytes))
	g(c.memTotal, float64(snap.Facts.MemTotalBytes))

	for _, cs := range snap.Channels {
		c.collectValue(ch, cs)

		errVal, errLabel := 0.0, ""
		if cs.ErrorKind != "" {
			errVal, errLabel = 1.0, string(cs.ErrorKind)
		}
		g(c.sensorError, errVal, string(cs.ID), errLabel)

		if cs.HasUpdate {
			g(c.sensorAge, snap.TakenAt.Sub(cs.UpdatedAt).Seconds(), string(cs.ID))
		}
	}
}

// collectValue emits the kind-specific value series for one channel.
// A nil value means the channel has never been sampled; nothing is emitted.
func (c *Collector) collectValue(ch chan<- prometheus.Metric, cs store.ChannelState) {
	g := func(key string, v float64) {
		ch <- prometheus.MustNewConstMetric(c.values[key], prometheus.GaugeValue, v)
	}

	switch v := cs.Value.(type) {
	case store.PMValue:
		g("pm0d3_p100ml", float64(v.Count03))
		g("pm0d5_p100ml", float64(v.Count05))
		g("pm1_p100ml", float64(v.Count10))
		g("pm2d5_p100ml", float64(v.Count25))
		g("pm1_ugm3", float64(v.PM1))
		g("pm2d5_ugm3", float64(v.PM25))
		g("pm10_ugm3", float64(v.PM10))
	case store.CO2Value:
		g("co2_ppm", float64(v.PPM))
	case store.IndexValue:
		g("tvoc_index", float64(v.VOC))
		g("nox_index", float64(v.NOx))
	case store.ClimateValue:
		g("temperature_celsius", v.TempC)
		g("humidity_percent", v.HumidityPct)
	}
}

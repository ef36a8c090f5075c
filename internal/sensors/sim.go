package sensors

import (
	"context"
	"math/rand"

	"github.com/cleanair-labs/aqmon/internal/store"
)

// SimDriver generates plausible readings for one channel so the daemon
// runs end-to-end without attached hardware. Values follow a bounded
// random walk around typical outdoor baselines.
type SimDriver struct {
	channel store.ChannelID
	rng     *rand.Rand

	pm    float64
	co2   float64
	voc   float64
	nox   float64
	temp  float64
	humid float64
}

// NewSimDriver creates a simulated driver for the given channel.
func NewSimDriver(channel store.ChannelID, seed int64) *SimDriver {
	return &SimDriver{
		channel: channel,
		rng:     rand.New(rand.NewSource(seed)),
		pm:      8,
		co2:     420,
		voc:     100,
		nox:     1,
		temp:    18,
		humid:   55,
	}
}

// Channel returns the simulated channel.
func (d *SimDriver) Channel() store.ChannelID { return d.channel }

// Read produces the next reading in the walk.
func (d *SimDriver) Read(ctx context.Context) (store.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DriverError{Kind: "read_cancelled", Err: err}
	}

	switch d.channel {
	case store.ChannelPM:
		d.pm = walk(d.rng, d.pm, 1.5, 0, 500)
		mass := uint16(d.pm)
		return store.PMValue{
			Count03: mass * 90,
			Count05: mass * 30,
			Count10: mass * 5,
			Count25: mass * 2,
			PM1:     mass,
			PM25:    mass + uint16(d.rng.Intn(3)),
			PM10:    mass + uint16(d.rng.Intn(6)),
		}, nil
	case store.ChannelCO2:
		d.co2 = walk(d.rng, d.co2, 10, 400, 5000)
		return store.CO2Value{PPM: uint16(d.co2)}, nil
	case store.ChannelVOCNOx:
		d.voc = walk(d.rng, d.voc, 4, 1, 500)
		d.nox = walk(d.rng, d.nox, 0.5, 1, 500)
		return store.IndexValue{VOC: int32(d.voc), NOx: int32(d.nox)}, nil
	case store.ChannelClimate:
		d.temp = walk(d.rng, d.temp, 0.2, -40, 60)
		d.humid = walk(d.rng, d.humid, 0.8, 0, 100)
		return store.ClimateValue{TempC: d.temp, HumidityPct: d.humid}, nil
	default:
		return nil, &DriverError{Kind: "unknown_channel"}
	}
}

// walk takes one bounded random step.
func walk(rng *rand.Rand, v, step, lo, hi float64) float64 {
	v += (rng.Float64()*2 - 1) * step
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// Package store implements the sensor reading store: the most recent
// successfully parsed value (or error) per physical sensor channel,
// with the age bookkeeping the liveness evaluator depends on.
package store

import (
	"sync"
	"time"
)

// ChannelID identifies one physical measurement stream.
type ChannelID string

// Known channels. Every channel exists from process start and lives for
// the process lifetime.
const (
	ChannelPM      ChannelID = "pm"
	ChannelCO2     ChannelID = "co2"
	ChannelVOCNOx  ChannelID = "voc_nox"
	ChannelClimate ChannelID = "climate"
)

// AllChannels returns every channel the store tracks.
func AllChannels() []ChannelID {
	return []ChannelID{ChannelPM, ChannelCO2, ChannelVOCNOx, ChannelClimate}
}

// ErrorKind is a short machine-readable code for a channel's error state.
// It surfaces as the "error" label on the sensor error metric.
type ErrorKind string

// ErrNotYetSampled marks a channel that has produced nothing since boot.
// It is distinct from driver failures so first-boot silence can be treated
// differently from a sensor dying mid-run.
const ErrNotYetSampled ErrorKind = "not_yet_sampled"

// Value is one typed reading. Concrete types are PMValue, CO2Value,
// IndexValue and ClimateValue; consumers type-switch.
type Value interface{}

// PMValue holds a particle counter reading: particle counts per 100ml
// and mass concentrations in µg/m³.
type PMValue struct {
	Count03 uint16
	Count05 uint16
	Count10 uint16
	Count25 uint16
	PM1     uint16
	PM25    uint16
	PM10    uint16
}

// CO2Value holds a CO2 concentration reading in ppm.
type CO2Value struct {
	PPM uint16
}

// IndexValue holds VOC and NOx index readings.
type IndexValue struct {
	VOC int32
	NOx int32
}

// ClimateValue holds temperature (°C) and relative humidity (%).
type ClimateValue struct {
	TempC       float64
	HumidityPct float64
}

// channelState is the (value, error, timestamp) unit. It is always read
// and written as a whole under the store lock so no reader can observe a
// half-written pair.
type channelState struct {
	value   Value
	errKind ErrorKind // "" when healthy
	updated time.Time
	hasTime bool
}

// ChannelState is a read-only copy of one channel's current state.
type ChannelState struct {
	ID        ChannelID
	Value     Value // nil until the first successful reading
	ErrorKind ErrorKind
	UpdatedAt time.Time
	HasUpdate bool
}

// Store holds one state cell per channel. Each channel has exactly one
// writer (its polling task) and any number of readers.
type Store struct {
	mu       sync.RWMutex
	channels map[ChannelID]*channelState
}

// New creates a store with every known channel present, no value, and an
// error state of ErrNotYetSampled.
func New() *Store {
	s := &Store{channels: make(map[ChannelID]*channelState)}
	for _, id := range AllChannels() {
		s.channels[id] = &channelState{errKind: ErrNotYetSampled}
	}
	return s
}

// RecordValue overwrites the channel's value, clears its error state and
// sets its last-updated instant. Unknown channels are ignored.
func (s *Store) RecordValue(id ChannelID, v Value, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.channels[id]
	if !ok {
		return
	}
	st.value = v
	st.errKind = ""
	st.updated = ts
	st.hasTime = true
}

// RecordError sets the channel's error state and last-updated instant but
// preserves the previous numeric value, so stale-but-present data stays
// exposable while flagged as errored.
func (s *Store) RecordError(id ChannelID, kind ErrorKind, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.channels[id]
	if !ok {
		return
	}
	st.errKind = kind
	st.updated = ts
	st.hasTime = true
}

// AgeOf returns the elapsed time since the channel's last update. The
// second return is false when the channel has never been updated, which
// callers must treat as infinite age.
func (s *Store) AgeOf(id ChannelID, now time.Time) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.channels[id]
	if !ok || !st.hasTime {
		return 0, false
	}
	return now.Sub(st.updated), true
}

// Channels returns a copy of every channel's current state, ordered as
// AllChannels. The copy is safe to hold across writes.
func (s *Store) Channels() []ChannelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChannelState, 0, len(s.channels))
	for _, id := range AllChannels() {
		st := s.channels[id]
		out = append(out, ChannelState{
			ID:        id,
			Value:     st.value,
			ErrorKind: st.errKind,
			UpdatedAt: st.updated,
			HasUpdate: st.hasTime,
		})
	}
	return out
}

// Package sensors owns the sensor hardware handles and caches readings so
// slow buses (1-wire, I2C, ADC) are polled on their own cadence instead of
// on every consumer call. Each channel keeps the previous value alongside
// the current one, which gives rules edge detection.
package sensors

import (
	"sync"
	"time"
)

// Channel identifies one cached sensor channel.
type Channel string

const (
	ChannelTemperature Channel = "temperature"
	ChannelHumidity    Channel = "humidity"
	ChannelLight       Channel = "light"
	ChannelSwitch      Channel = "switch"
	ChannelResetSwitch Channel = "reset_switch"
)

// ClimateReader reads the combined temperature/humidity sensor.
type ClimateReader interface {
	Read() (tempC, humidity float64, err error)
}

// LightReader reads the analog light sensor in ADC counts.
type LightReader interface {
	Read() (int, error)
}

// SwitchReader reads a digital switch input.
type SwitchReader interface {
	Read() (bool, error)
}

// Intervals holds the per-channel refresh throttles.
type Intervals struct {
	Climate time.Duration
	Light   time.Duration
	Switch  time.Duration
}

// DefaultIntervals matches the sensor hardware: the climate sensor needs
// 2 s between conversions, light is cheap, switches are polled fast enough
// to debounce.
func DefaultIntervals() Intervals {
	return Intervals{
		Climate: 2000 * time.Millisecond,
		Light:   500 * time.Millisecond,
		Switch:  50 * time.Millisecond,
	}
}

type reading[T any] struct {
	cur         T
	prev        T
	ok          bool
	prevOK      bool
	lastRefresh time.Time
	lastErr     error
}

// refresh moves cur to prev and installs the new value. Called only with
// the cache mutex held so a concurrent reader never sees a half-swap.
func (r *reading[T]) refresh(v T, now time.Time) {
	r.prev, r.prevOK = r.cur, r.ok
	r.cur, r.ok = v, true
	r.lastRefresh = now
}

// fail keeps cur and prev untouched, only recording the failure time so the
// channel is not retried before its interval elapses again.
func (r *reading[T]) fail(err error, now time.Time) {
	r.lastErr = err
	r.lastRefresh = now
}

// Cache is the throttled sensor cache. A nil reader means the hardware is
// absent; its channel then reports no value rather than a stale zero.
type Cache struct {
	mu sync.RWMutex

	climate ClimateReader
	light   LightReader
	sw      SwitchReader
	reset   SwitchReader

	intervals Intervals
	clock     func() time.Time

	temperature reading[float64]
	humidity    reading[float64]
	lightLevel  reading[int]
	switchState reading[bool]
	resetState  reading[bool]
}

// New builds a cache over the given readers. Any reader may be nil.
// clock defaults to time.Now when nil.
func New(climate ClimateReader, light LightReader, sw, reset SwitchReader, iv Intervals, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		climate:   climate,
		light:     light,
		sw:        sw,
		reset:     reset,
		intervals: iv,
		clock:     clock,
	}
}

// RefreshDue reports whether the channel's interval has elapsed at now.
// Temperature and humidity share the climate sensor and its stamp.
func (c *Cache) RefreshDue(ch Channel, now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshDueLocked(ch, now)
}

func (c *Cache) refreshDueLocked(ch Channel, now time.Time) bool {
	var last time.Time
	var iv time.Duration
	switch ch {
	case ChannelTemperature, ChannelHumidity:
		last, iv = c.temperature.lastRefresh, c.intervals.Climate
	case ChannelLight:
		last, iv = c.lightLevel.lastRefresh, c.intervals.Light
	case ChannelSwitch:
		last, iv = c.switchState.lastRefresh, c.intervals.Switch
	case ChannelResetSwitch:
		last, iv = c.resetState.lastRefresh, c.intervals.Switch
	default:
		return false
	}
	return last.IsZero() || now.Sub(last) >= iv
}

// UpdateAll refreshes every channel whose interval has elapsed. Read
// failures stay inside this boundary: the channel keeps its current and
// previous values and only the error is recorded.
func (c *Cache) UpdateAll(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.climate != nil && c.refreshDueLocked(ChannelTemperature, now) {
		t, h, err := c.climate.Read()
		if err != nil {
			c.temperature.fail(err, now)
			c.humidity.fail(err, now)
		} else {
			c.temperature.refresh(t, now)
			c.humidity.refresh(h, now)
		}
	}

	if c.light != nil && c.refreshDueLocked(ChannelLight, now) {
		v, err := c.light.Read()
		if err != nil {
			c.lightLevel.fail(err, now)
		} else {
			c.lightLevel.refresh(v, now)
		}
	}

	if c.sw != nil && c.refreshDueLocked(ChannelSwitch, now) {
		v, err := c.sw.Read()
		if err != nil {
			c.switchState.fail(err, now)
		} else {
			c.switchState.refresh(v, now)
		}
	}

	if c.reset != nil && c.refreshDueLocked(ChannelResetSwitch, now) {
		v, err := c.reset.Read()
		if err != nil {
			c.resetState.fail(err, now)
		} else {
			c.resetState.refresh(v, now)
		}
	}
}

// Temperature returns the current temperature in °C.
func (c *Cache) Temperature() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.temperature.cur, c.temperature.ok
}

// LastTemperature returns the reading before the current one.
func (c *Cache) LastTemperature() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.temperature.prev, c.temperature.prevOK
}

// Humidity returns the current relative humidity in percent.
func (c *Cache) Humidity() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.humidity.cur, c.humidity.ok
}

func (c *Cache) LastHumidity() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.humidity.prev, c.humidity.prevOK
}

// LightLevel returns the current light reading in ADC counts.
func (c *Cache) LightLevel() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lightLevel.cur, c.lightLevel.ok
}

func (c *Cache) LastLightLevel() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lightLevel.prev, c.lightLevel.prevOK
}

// SwitchState returns the current user switch state.
func (c *Cache) SwitchState() (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.switchState.cur, c.switchState.ok
}

func (c *Cache) LastSwitchState() (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.switchState.prev, c.switchState.prevOK
}

// ResetSwitch returns the current reset-switch state.
func (c *Cache) ResetSwitch() (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetState.cur, c.resetState.ok
}

// TimeSeconds returns the wall-clock time as seconds since midnight.
func (c *Cache) TimeSeconds() int {
	t := c.clock()
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// Snapshot returns the flat object served by GET /api/sensors. Channels
// without a value (absent or never-read hardware) appear as null.
func (c *Cache) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := map[string]any{
		"temperature":  nil,
		"humidity":     nil,
		"light_level":  nil,
		"switch_state": nil,
		"reset_switch": nil,
	}
	if c.temperature.ok {
		snap["temperature"] = c.temperature.cur
	}
	if c.humidity.ok {
		snap["humidity"] = c.humidity.cur
	}
	if c.lightLevel.ok {
		snap["light_level"] = c.lightLevel.cur
	}
	if c.switchState.ok {
		snap["switch_state"] = c.switchState.cur
	}
	if c.resetState.ok {
		snap["reset_switch"] = c.resetState.cur
	}
	snap["time_seconds"] = c.TimeSeconds()
	return snap
}

package sensors

import (
	"errors"
	"testing"
	"time"
)

// ---- Test doubles ----

type climateStub struct {
	temp, hum float64
	err       error
	calls     int
}

func (c *climateStub) Read() (float64, float64, error) {
	c.calls++
	return c.temp, c.hum, c.err
}

type lightStub struct {
	level int
	err   error
	calls int
}

func (l *lightStub) Read() (int, error) {
	l.calls++
	return l.level, l.err
}

type switchStub struct {
	state bool
	err   error
	calls int
}

func (s *switchStub) Read() (bool, error) {
	s.calls++
	return s.state, s.err
}

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// ---- Tests ----

func TestUpdateAll_ThrottlesPerChannel(t *testing.T) {
	clock := newClock()
	climate := &climateStub{temp: 21, hum: 45}
	light := &lightStub{level: 500}
	sw := &switchStub{}

	c := New(climate, light, sw, nil, DefaultIntervals(), clock.Now)

	// 3 s of 10 ms ticks. Climate refreshes at most once per 2 s, light
	// once per 500 ms, the switch once per 50 ms.
	steps := 300
	for i := 0; i < steps; i++ {
		c.UpdateAll(clock.Now())
		clock.Advance(10 * time.Millisecond)
	}

	if climate.calls > 2 {
		t.Fatalf("climate read %d times in 3s, throttle allows at most 2", climate.calls)
	}
	if light.calls > 7 {
		t.Fatalf("light read %d times in 3s, throttle allows at most 7", light.calls)
	}
	if sw.calls > 61 {
		t.Fatalf("switch read %d times in 3s, throttle allows at most 61", sw.calls)
	}
	if climate.calls == 0 || light.calls == 0 || sw.calls == 0 {
		t.Fatalf("every channel should refresh at least once: %d/%d/%d",
			climate.calls, light.calls, sw.calls)
	}
}

func TestRefresh_KeepsPreviousValue(t *testing.T) {
	clock := newClock()
	climate := &climateStub{temp: 20, hum: 40}
	c := New(climate, nil, nil, nil, DefaultIntervals(), clock.Now)

	c.UpdateAll(clock.Now())

	if _, ok := c.LastTemperature(); ok {
		t.Fatalf("no previous value after a single refresh")
	}
	if v, ok := c.Temperature(); !ok || v != 20 {
		t.Fatalf("current temperature: got %v/%v", v, ok)
	}

	climate.temp = 22
	clock.Advance(2100 * time.Millisecond)
	c.UpdateAll(clock.Now())

	if v, ok := c.Temperature(); !ok || v != 22 {
		t.Fatalf("current after second refresh: got %v/%v", v, ok)
	}
	if v, ok := c.LastTemperature(); !ok || v != 20 {
		t.Fatalf("previous after second refresh: got %v/%v", v, ok)
	}
}

func TestReadFailure_KeepsCurrentAndPrevious(t *testing.T) {
	clock := newClock()
	climate := &climateStub{temp: 20, hum: 40}
	c := New(climate, nil, nil, nil, DefaultIntervals(), clock.Now)

	c.UpdateAll(clock.Now())
	climate.temp = 22
	clock.Advance(2100 * time.Millisecond)
	c.UpdateAll(clock.Now())

	climate.err = errors.New("bus timeout")
	clock.Advance(2100 * time.Millisecond)
	c.UpdateAll(clock.Now())

	if v, ok := c.Temperature(); !ok || v != 22 {
		t.Fatalf("failed read must keep current value: got %v/%v", v, ok)
	}
	if v, ok := c.LastTemperature(); !ok || v != 20 {
		t.Fatalf("failed read must keep previous value: got %v/%v", v, ok)
	}

	// The failed attempt still consumes the interval: an immediate retry
	// does not hit the hardware again.
	before := climate.calls
	c.UpdateAll(clock.Now())
	if climate.calls != before {
		t.Fatalf("retry before interval elapsed")
	}
}

func TestSnapshot_AbsentChannelsAreNull(t *testing.T) {
	clock := newClock()
	c := New(nil, &lightStub{level: 321}, nil, nil, DefaultIntervals(), clock.Now)
	c.UpdateAll(clock.Now())

	snap := c.Snapshot()

	if snap["temperature"] != nil || snap["humidity"] != nil {
		t.Fatalf("absent climate must be null: %v", snap)
	}
	if snap["switch_state"] != nil || snap["reset_switch"] != nil {
		t.Fatalf("absent switches must be null: %v", snap)
	}
	if snap["light_level"] != 321 {
		t.Fatalf("light_level: got %v", snap["light_level"])
	}
}

func TestTimeSeconds_SecondsSinceMidnight(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 6, 30, 15, 0, time.Local)}
	c := New(nil, nil, nil, nil, DefaultIntervals(), clock.Now)

	want := 6*3600 + 30*60 + 15
	if got := c.TimeSeconds(); got != want {
		t.Fatalf("TimeSeconds: got %d, want %d", got, want)
	}
	if got := c.Snapshot()["time_seconds"]; got != want {
		t.Fatalf("snapshot time_seconds: got %v, want %d", got, want)
	}
}

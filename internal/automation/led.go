package automation

import (
	"context"
	"time"

	"homenode/internal/hardware"
	"homenode/internal/models"
)

// frameInterval is the LED animation frame rate.
const frameInterval = 250 * time.Millisecond

// LED animates the status RGB LED from the health signal: slow green
// blink when normal, fast yellow blink on warnings, solid red on errors.
// Any line may be nil (single-color or absent LED hardware).
type LED struct {
	red    hardware.OutputLine
	green  hardware.OutputLine
	blue   hardware.OutputLine
	health func() models.Health
}

func NewLED(red, green, blue hardware.OutputLine, health func() models.Health) *LED {
	return &LED{red: red, green: green, blue: blue, health: health}
}

// Run animates until ctx is canceled, then blanks the LED.
func (l *LED) Run(ctx context.Context) {
	t := time.NewTicker(frameInterval)
	defer t.Stop()
	frame := 0
	for {
		select {
		case <-ctx.Done():
			l.apply(0, 0, 0)
			return
		case <-t.C:
			l.renderFrame(frame)
			frame++
		}
	}
}

func (l *LED) renderFrame(frame int) {
	switch l.health() {
	case models.HealthError:
		l.apply(1, 0, 0)
	case models.HealthWarning:
		// yellow, toggling every frame
		v := frame % 2
		l.apply(v, v, 0)
	default:
		// green, on for one second out of two
		v := 0
		if frame%8 < 4 {
			v = 1
		}
		l.apply(0, v, 0)
	}
}

// apply drives the lines, skipping absent ones. LED write failures are
// cosmetic and deliberately dropped.
func (l *LED) apply(r, g, b int) {
	if l.red != nil {
		_ = l.red.SetLevel(r)
	}
	if l.green != nil {
		_ = l.green.SetLevel(g)
	}
	if l.blue != nil {
		_ = l.blue.SetLevel(b)
	}
}

package sensors

import (
	"math/rand"

	"homenode/internal/hardware"
)

// LineSwitch reads a switch wired to a GPIO input (closed pulls high).
type LineSwitch struct {
	Line hardware.InputLine
}

func (s *LineSwitch) Read() (bool, error) {
	v, err := s.Line.Level()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// SimClimate produces plausible indoor climate readings for boards without
// the sensor attached. Values wander slightly around the base points.
type SimClimate struct {
	BaseTempC    float64
	BaseHumidity float64
}

func (s *SimClimate) Read() (float64, float64, error) {
	t := s.BaseTempC + (rand.Float64()*4 - 2)
	h := s.BaseHumidity + (rand.Float64()*20 - 10)
	return t, h, nil
}

// SimLight produces plausible ADC light readings.
type SimLight struct {
	Base int
}

func (s *SimLight) Read() (int, error) {
	return s.Base + rand.Intn(401) - 200, nil
}

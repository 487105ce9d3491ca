package rules

import (
	"errors"
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// sandboxFunctions is the entire surface a rule can call: current and
// previous sensor accessors, the time-of-day helpers, and a tiny numeric
// toolbox. No ambient I/O, no relay or config access.
func sandboxFunctions(src SensorSource) map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"get_temperature":      floatAccessor("temperature", src.Temperature),
		"get_last_temperature": floatAccessor("temperature", src.LastTemperature),
		"get_humidity":         floatAccessor("humidity", src.Humidity),
		"get_last_humidity":    floatAccessor("humidity", src.LastHumidity),
		"get_light_level":      intAccessor("light level", src.LightLevel),
		"get_last_light_level": intAccessor("light level", src.LastLightLevel),
		"get_switch_state":     boolAccessor("switch state", src.SwitchState),
		"get_last_switch_state": boolAccessor(
			"switch state", src.LastSwitchState),

		"get_time": func(args ...any) (any, error) {
			if len(args) != 0 {
				return nil, errors.New("get_time takes no arguments")
			}
			return float64(src.TimeSeconds()), nil
		},

		// time(h[, m[, s]]) -> seconds since midnight
		"time": func(args ...any) (any, error) {
			if len(args) < 1 || len(args) > 3 {
				return nil, errors.New("time expects 1 to 3 arguments")
			}
			parts := [3]float64{}
			for i, a := range args {
				n, ok := a.(float64)
				if !ok {
					return nil, fmt.Errorf("time: argument %d is not a number", i+1)
				}
				parts[i] = n
			}
			return parts[0]*3600 + parts[1]*60 + parts[2], nil
		},

		"abs": func(args ...any) (any, error) {
			n, err := oneNumber("abs", args)
			if err != nil {
				return nil, err
			}
			return math.Abs(n), nil
		},
		"round": func(args ...any) (any, error) {
			n, err := oneNumber("round", args)
			if err != nil {
				return nil, err
			}
			return math.Round(n), nil
		},
		"min": func(args ...any) (any, error) {
			return pickNumber("min", args, func(a, b float64) bool { return b < a })
		},
		"max": func(args ...any) (any, error) {
			return pickNumber("max", args, func(a, b float64) bool { return b > a })
		},
	}
}

func floatAccessor(what string, get func() (float64, bool)) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%s accessor takes no arguments", what)
		}
		v, ok := get()
		if !ok {
			return nil, fmt.Errorf("%s reading unavailable", what)
		}
		return v, nil
	}
}

func intAccessor(what string, get func() (int, bool)) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%s accessor takes no arguments", what)
		}
		v, ok := get()
		if !ok {
			return nil, fmt.Errorf("%s reading unavailable", what)
		}
		return float64(v), nil
	}
}

func boolAccessor(what string, get func() (bool, bool)) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%s accessor takes no arguments", what)
		}
		v, ok := get()
		if !ok {
			return nil, fmt.Errorf("%s reading unavailable", what)
		}
		return v, nil
	}
}

func oneNumber(fn string, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s expects exactly one argument", fn)
	}
	n, ok := args[0].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: argument is not a number", fn)
	}
	return n, nil
}

func pickNumber(fn string, args []any, better func(cur, cand float64) bool) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%s expects at least two arguments", fn)
	}
	best, ok := args[0].(float64)
	if !ok {
		return nil, fmt.Errorf("%s: argument 1 is not a number", fn)
	}
	for i, a := range args[1:] {
		n, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is not a number", fn, i+2)
		}
		if better(best, n) {
			best = n
		}
	}
	return best, nil
}

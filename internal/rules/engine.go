// Package rules compiles and evaluates user-authored relay automation
// rules. Rules are govaluate expressions over a fixed namespace of sensor
// accessor functions; nothing outside that namespace is reachable from
// rule text, so a bad rule can fail its own relay but cannot touch the
// rest of the process.
//
// Two shapes are accepted:
//
//	get_temperature() > 25 && get_humidity() < 60
//
// or a short sequence of bindings whose last meaningful name is "result":
//
//	warm = get_temperature() > 25
//	dark = get_light_level() < 300
//	result = warm && dark
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Knetic/govaluate"
)

// Outcome is the decision a rule evaluation yields for its relay.
type Outcome int

const (
	// NoChange leaves the relay exactly as it is.
	NoChange Outcome = iota
	// TurnOn requests logical ON.
	TurnOn
	// TurnOff requests logical OFF.
	TurnOff
)

func (o Outcome) String() string {
	switch o {
	case TurnOn:
		return "turn_on"
	case TurnOff:
		return "turn_off"
	default:
		return "no_change"
	}
}

// SensorSource is the read-only sensor surface exposed to rules.
type SensorSource interface {
	Temperature() (float64, bool)
	LastTemperature() (float64, bool)
	Humidity() (float64, bool)
	LastHumidity() (float64, bool)
	LightLevel() (int, bool)
	LastLightLevel() (int, bool)
	SwitchState() (bool, bool)
	LastSwitchState() (bool, bool)
	TimeSeconds() int
}

// ErrEmptyRule rejects empty or whitespace-only rule text.
var ErrEmptyRule = errors.New("rule is empty")

// DefaultDeniedTokens is the first-line deny-list applied before
// compilation. The real sandbox is the closed function namespace; this
// list just fails obviously hostile text early with a clear reason.
var DefaultDeniedTokens = []string{
	"import", "exec", "eval", "compile", "open",
	"globals", "locals", "setattr", "getattr", "delattr", "__",
}

type statement struct {
	name string
	expr *govaluate.EvaluableExpression
}

// program is one compiled rule: either a single expression or a
// statement sequence, never both.
type program struct {
	expr  *govaluate.EvaluableExpression
	stmts []statement
}

// Engine compiles rules lazily and caches them by verbatim source text,
// so identical text never recompiles until the cache is cleared.
type Engine struct {
	mu       sync.Mutex
	denied   []string
	funcs    map[string]govaluate.ExpressionFunction
	cache    map[string]*program
	compiles int
}

// New builds an engine over the given sensor source. A nil denied list
// selects DefaultDeniedTokens.
func New(src SensorSource, denied []string) *Engine {
	if denied == nil {
		denied = DefaultDeniedTokens
	}
	return &Engine{
		denied: denied,
		funcs:  sandboxFunctions(src),
		cache:  make(map[string]*program),
	}
}

// IsNoOp reports whether text is an empty rule or the dashboard's
// explicit no-op marker.
func IsNoOp(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || t == `["NOP"]`
}

// Validate rejects empty text and denied tokens, then attempts a
// compilation without touching the cache.
func (e *Engine) Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyRule
	}
	if IsNoOp(text) {
		return nil
	}
	lower := strings.ToLower(text)
	for _, tok := range e.denied {
		if strings.Contains(lower, tok) {
			return fmt.Errorf("forbidden token %q", tok)
		}
	}
	_, err := e.compileProgram(text)
	return err
}

// Evaluate compiles (or reuses) the rule and evaluates it against live
// sensor state. A boolean result maps to TurnOn/TurnOff; any other
// result, including a bound non-boolean, is NoChange.
func (e *Engine) Evaluate(text string) (Outcome, error) {
	if IsNoOp(text) {
		return NoChange, nil
	}

	prog, err := e.compiled(text)
	if err != nil {
		return NoChange, err
	}

	var result any
	if prog.expr != nil {
		result, err = prog.expr.Evaluate(nil)
		if err != nil {
			return NoChange, err
		}
	} else {
		params := make(map[string]any, len(prog.stmts))
		for _, st := range prog.stmts {
			v, err := st.expr.Evaluate(params)
			if err != nil {
				return NoChange, err
			}
			params[st.name] = v
		}
		result = params["result"]
	}

	if b, ok := result.(bool); ok {
		if b {
			return TurnOn, nil
		}
		return TurnOff, nil
	}
	return NoChange, nil
}

// EvaluateSafe never raises: any compile or runtime failure, including a
// panic, yields NoChange and a non-empty reason for the relay's
// last_error. An empty reason means the evaluation succeeded.
func (e *Engine) EvaluateSafe(text string) (out Outcome, reason string) {
	defer func() {
		if r := recover(); r != nil {
			out, reason = NoChange, fmt.Sprintf("rule panic: %v", r)
		}
	}()
	o, err := e.Evaluate(text)
	if err != nil {
		return NoChange, err.Error()
	}
	return o, ""
}

// ClearCache drops all compiled programs. Callers invoke this whenever
// persisted rule text changes.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*program)
}

// CompileCount returns how many rule compilations have happened, for
// cache idempotence checks.
func (e *Engine) CompileCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compiles
}

func (e *Engine) compiled(text string) (*program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prog, ok := e.cache[text]; ok {
		return prog, nil
	}
	prog, err := e.compileProgram(text)
	if err != nil {
		return nil, err
	}
	e.compiles++
	e.cache[text] = prog
	return prog, nil
}

// assignRe matches "name = expr" where the = is an assignment, not part
// of a comparison operator.
var assignRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=].*)$`)

func splitStatements(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) compileProgram(text string) (*program, error) {
	lines := splitStatements(text)
	if len(lines) == 0 {
		return nil, ErrEmptyRule
	}

	if len(lines) == 1 && !assignRe.MatchString(lines[0]) {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(lines[0], e.funcs)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		return &program{expr: expr}, nil
	}

	stmts := make([]statement, 0, len(lines))
	boundResult := false
	for i, line := range lines {
		m := assignRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: expected assignment of the form name = expression", i+1)
		}
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(m[2], e.funcs)
		if err != nil {
			return nil, fmt.Errorf("line %d: compile: %w", i+1, err)
		}
		stmts = append(stmts, statement{name: m[1], expr: expr})
		if m[1] == "result" {
			boundResult = true
		}
	}
	if !boundResult {
		return nil, errors.New(`statement rules must bind a "result" variable`)
	}
	return &program{stmts: stmts}, nil
}

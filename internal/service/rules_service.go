package service

import (
	"fmt"

	"homenode/internal/rules"
)

// RuleService validates user-supplied rule text against the live sensor
// state without touching any relay.
type RuleService struct {
	engine *rules.Engine
}

func NewRuleService(engine *rules.Engine) *RuleService {
	return &RuleService{engine: engine}
}

// Check compiles the rule and trial-runs it. A failing trial run is not an
// error: the rule may simply reference a sensor that is currently absent.
func (s *RuleService) Check(text string) (string, error) {
	if err := s.engine.Validate(text); err != nil {
		return "", err
	}
	if rules.IsNoOp(text) {
		return "rule is a no-op placeholder", nil
	}
	outcome, reason := s.engine.EvaluateSafe(text)
	if reason != "" {
		return fmt.Sprintf("rule is valid, but cannot be evaluated right now: %s", reason), nil
	}
	return fmt.Sprintf("rule is valid, currently evaluates to %s", outcome), nil
}

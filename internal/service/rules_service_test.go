package service

import (
	"strings"
	"testing"

	"homenode/internal/models"
	"homenode/internal/rules"
)

func newRuleService() *RuleService {
	return NewRuleService(rules.New(sourceStub{temp: 21}, nil))
}

func TestRuleService_CheckValidRule(t *testing.T) {
	svc := newRuleService()

	msg, err := svc.Check("get_temperature() < 19")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(msg, "turn_off") {
		t.Errorf("expected evaluation outcome in message, got %q", msg)
	}
}

func TestRuleService_CheckNoOpRule(t *testing.T) {
	svc := newRuleService()

	msg, err := svc.Check(models.NoOpRule)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(msg, "no-op") {
		t.Errorf("expected no-op message, got %q", msg)
	}
}

func TestRuleService_CheckInvalidRule(t *testing.T) {
	svc := newRuleService()

	if _, err := svc.Check("get_temperature() <"); err == nil {
		t.Fatal("expected error for broken rule text")
	}
	if _, err := svc.Check("   "); err == nil {
		t.Fatal("expected error for blank rule text")
	}
}

func TestRuleService_CheckUnavailableReading(t *testing.T) {
	svc := newRuleService()

	// The stub source has no light sensor attached.
	msg, err := svc.Check("get_light_level() < 300")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(msg, "cannot be evaluated right now") {
		t.Errorf("expected unavailable-reading message, got %q", msg)
	}
}

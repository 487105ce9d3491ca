package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"homenode/internal/models"
	"homenode/internal/relays"
)

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestGetRelayConfig(t *testing.T) {
	s, rel, _ := defaultService()
	rel.list = []models.Relay{
		{Pin: 17, Label: "heater", Value: true, Auto: true},
		{Pin: 27, Label: "fan"},
	}
	r := newTestRouter(s, Options{})

	w := doJSON(r, http.MethodGet, "/api/relays/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count  int            `json:"count"`
		Relays []models.Relay `json:"relays"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Relays) != 2 || resp.Relays[0].Label != "heater" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestControlRelay(t *testing.T) {
	s, rel, _ := defaultService()
	r := newTestRouter(s, Options{})

	t.Run("switches and reports", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/relays/control",
			map[string]any{"label": "heater", "state": true})
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if rel.lastLabel != "heater" || !rel.lastState {
			t.Fatalf("service not called correctly: %q/%v", rel.lastLabel, rel.lastState)
		}
	})

	t.Run("state false is a valid body", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/relays/control",
			map[string]any{"label": "heater", "state": false})
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if rel.lastState {
			t.Fatalf("state false not passed through")
		}
	})

	t.Run("missing state is 400", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/relays/control",
			map[string]any{"label": "heater"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown label is 404", func(t *testing.T) {
		rel.controlErr = fmt.Errorf("%w: %q", relays.ErrNotFound, "ghost")
		defer func() { rel.controlErr = nil }()
		w := doJSON(r, http.MethodPost, "/api/relays/control",
			map[string]any{"label": "ghost", "state": true})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("hardware failure is 500", func(t *testing.T) {
		rel.controlErr = errors.New("drive pin 17: i/o failure")
		defer func() { rel.controlErr = nil }()
		w := doJSON(r, http.MethodPost, "/api/relays/control",
			map[string]any{"label": "heater", "state": true})
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})
}

func TestReplaceRelayConfig(t *testing.T) {
	s, rel, _ := defaultService()
	r := newTestRouter(s, Options{})

	body := []map[string]any{
		{"pin": 17, "label": "heater", "default_auto": true, "rule": "get_temperature() < 19"},
	}

	t.Run("valid config is accepted", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/relays/config", body)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if rel.replaces != 1 || len(rel.lastReplace) != 1 || rel.lastReplace[0].Label != "heater" {
			t.Fatalf("replace not passed through: %+v", rel.lastReplace)
		}
	})

	t.Run("invalid config is 400", func(t *testing.T) {
		rel.replaceErr = fmt.Errorf("%w: duplicate relay label %q", relays.ErrInvalid, "heater")
		defer func() { rel.replaceErr = nil }()
		w := doJSON(r, http.MethodPost, "/api/relays/config", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("persist failure is 500", func(t *testing.T) {
		rel.replaceErr = errors.New("persist relay config: disk full")
		defer func() { rel.replaceErr = nil }()
		w := doJSON(r, http.MethodPost, "/api/relays/config", body)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})
}

func TestGetAvailablePins(t *testing.T) {
	s, rel, _ := defaultService()
	rel.pins = []int{4, 5, 12}
	r := newTestRouter(s, Options{})

	w := doJSON(r, http.MethodGet, "/api/gpio/available", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Pins []int `json:"pins"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Pins) != 3 || resp.Pins[0] != 4 {
		t.Fatalf("unexpected pins: %v", resp.Pins)
	}
}

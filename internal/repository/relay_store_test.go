package repository

import (
	"os"
	"path/filepath"
	"testing"

	"homenode/internal/models"
)

func TestRelayStore_MissingFileIsEmptyConfig(t *testing.T) {
	t.Parallel()

	store := NewFileRelayStore(filepath.Join(t.TempDir(), "relays.json"))
	got, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty config, got %d relays", len(got))
	}
}

func TestRelayStore_CorruptFileReturnsEmptyAndError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relays.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileRelayStore(path)
	got, err := store.Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty config alongside the error, got %#v", got)
	}
}

func TestRelayStore_SaveLoadKeepsDeclarativeFieldsOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relays.json")
	store := NewFileRelayStore(path)

	in := []models.Relay{
		{
			Pin:          17,
			Label:        "heater",
			Inverted:     true,
			DefaultValue: true,
			DefaultAuto:  true,
			Rule:         "get_temperature() < 19",
			// runtime state must not survive a round trip
			Value:     true,
			Auto:      false,
			LastError: "transient",
		},
		{Pin: 27, Label: "fan"},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 relays, got %d", len(got))
	}

	h := got[0]
	if h.Pin != 17 || h.Label != "heater" || !h.Inverted || !h.DefaultValue || !h.DefaultAuto {
		t.Fatalf("declarative fields lost: %+v", h)
	}
	if h.Rule != "get_temperature() < 19" {
		t.Fatalf("rule lost: %q", h.Rule)
	}
	if h.Value || h.Auto || h.LastError != "" {
		t.Fatalf("runtime fields leaked into the file: %+v", h)
	}
}

func TestRelayStore_SaveIsAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relays.json")
	store := NewFileRelayStore(path)

	if err := store.Save([]models.Relay{{Pin: 5, Label: "a"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"homenode/internal/models"
)

// persistedRelay is the declarative on-disk shape. Runtime fields (value,
// auto, last_error) never reach the file.
type persistedRelay struct {
	Pin          int    `json:"pin"`
	Label        string `json:"label"`
	Inverted     bool   `json:"inverted"`
	DefaultValue bool   `json:"default_value"`
	DefaultAuto  bool   `json:"default_auto"`
	Rule         string `json:"rule,omitempty"`
}

type relayDocument struct {
	Relays []persistedRelay `json:"relays"`
}

// FileRelayStore loads and saves relay declarations as a JSON document,
// the format the dashboard and the board tooling share.
type FileRelayStore struct {
	path string
}

func NewFileRelayStore(path string) *FileRelayStore {
	return &FileRelayStore{path: path}
}

// Load reads the relay declarations. A missing file is an empty
// configuration, not an error; a corrupt file returns the empty
// configuration together with the parse error so the caller can log it
// and still start.
func (s *FileRelayStore) Load() ([]models.Relay, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Relay{}, nil
		}
		return []models.Relay{}, fmt.Errorf("read relay config %s: %w", s.path, err)
	}

	var doc relayDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []models.Relay{}, fmt.Errorf("parse relay config %s: %w", s.path, err)
	}

	out := make([]models.Relay, len(doc.Relays))
	for i, p := range doc.Relays {
		out[i] = models.Relay{
			Pin:          p.Pin,
			Label:        p.Label,
			Inverted:     p.Inverted,
			DefaultValue: p.DefaultValue,
			DefaultAuto:  p.DefaultAuto,
			Rule:         p.Rule,
		}
	}
	return out, nil
}

// Save writes the declarative fields back, atomically via a sibling temp
// file so a power cut mid-write cannot corrupt the config.
func (s *FileRelayStore) Save(relays []models.Relay) error {
	doc := relayDocument{Relays: make([]persistedRelay, len(relays))}
	for i, r := range relays {
		doc.Relays[i] = persistedRelay{
			Pin:          r.Pin,
			Label:        r.Label,
			Inverted:     r.Inverted,
			DefaultValue: r.DefaultValue,
			DefaultAuto:  r.DefaultAuto,
			Rule:         r.Rule,
		}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode relay config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write relay config %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace relay config %s: %w", s.path, err)
	}
	return nil
}

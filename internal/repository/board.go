package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"homenode/internal/models"
)

// LoadBoardProfile reads a board pin-map JSON document. A board that
// cannot be loaded degrades to a permissive profile (no pin validation)
// rather than refusing to start.
func LoadBoardProfile(path string) (*models.BoardProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board profile %s: %w", path, err)
	}
	var b models.BoardProfile
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse board profile %s: %w", path, err)
	}
	return &b, nil
}

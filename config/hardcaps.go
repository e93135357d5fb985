package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	hardCaps     map[string]float64
	hardCapsLock sync.RWMutex
)

// LoadHardCaps loads the hard-cap rule table from a JSON file mapping
// lower-cased "brand model" or "brand" (plus an optional "default" entry)
// to an absolute price ceiling. A missing file leaves the table empty,
// since hard caps are optional.
func LoadHardCaps(path string) error {
	hardCapsLock.Lock()
	defer hardCapsLock.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		hardCaps = map[string]float64{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hard cap rules: %v", err)
	}

	var rules map[string]float64
	if err := json.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("failed to parse hard cap rules: %v", err)
	}

	hardCaps = rules
	return nil
}

// GetHardCaps returns a copy of the current rule table.
func GetHardCaps() map[string]float64 {
	hardCapsLock.RLock()
	defer hardCapsLock.RUnlock()

	out := make(map[string]float64, len(hardCaps))
	for k, v := range hardCaps {
		out[k] = v
	}
	return out
}

// SetHardCaps replaces the rule table in memory.
func SetHardCaps(rules map[string]float64) {
	hardCapsLock.Lock()
	defer hardCapsLock.Unlock()

	hardCaps = make(map[string]float64, len(rules))
	for k, v := range rules {
		hardCaps[k] = v
	}
}

// SaveHardCaps writes the current rule table back to the JSON file.
func SaveHardCaps(path string) error {
	hardCapsLock.RLock()
	defer hardCapsLock.RUnlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := json.MarshalIndent(hardCaps, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal hard cap rules: %v", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write hard cap rules: %v", err)
	}

	return nil
}

// Package edgecases degrades generated phantom studies the way real
// exports are degraded: missing geometry or pixel data on some slices,
// contours pointing at slices that are not in the series, awkward region
// names and a missing study date.
package edgecases

import (
	"fmt"
	"strings"
)

// EdgeCaseType represents a category of edge case
type EdgeCaseType string

const (
	// MissingGeometry drops spacing, orientation or position from a slice.
	MissingGeometry EdgeCaseType = "missing-geometry"
	// MissingPixels drops the pixel data element from a slice.
	MissingPixels EdgeCaseType = "missing-pixels"
	// StaleContours adds contours that reference an unknown slice.
	StaleContours EdgeCaseType = "stale-contours"
	// OddNames renames regions with accents, separators or LO-length names.
	OddNames EdgeCaseType = "odd-names"
	// MissingDate omits StudyDate.
	MissingDate EdgeCaseType = "missing-date"
)

// AllEdgeCaseTypes returns all valid edge case types
func AllEdgeCaseTypes() []EdgeCaseType {
	return []EdgeCaseType{MissingGeometry, MissingPixels, StaleContours, OddNames, MissingDate}
}

// sliceTypes are applied per slice, subject to Config.Percentage.
var sliceTypes = []EdgeCaseType{MissingGeometry, MissingPixels}

// Config holds edge case generation settings
type Config struct {
	Percentage int            // 0-100, share of slices hit by per-slice edge cases
	Types      []EdgeCaseType // Which edge case types to enable
}

// ParseTypes parses comma-separated edge case types.
// The special value "all" enables every type.
func ParseTypes(input string) ([]EdgeCaseType, error) {
	if input == "" {
		return nil, nil
	}
	valid := make(map[EdgeCaseType]bool)
	for _, t := range AllEdgeCaseTypes() {
		valid[t] = true
	}

	parts := strings.Split(input, ",")
	result := make([]EdgeCaseType, 0, len(parts))
	seen := make(map[EdgeCaseType]bool)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "all" {
			return AllEdgeCaseTypes(), nil
		}
		t := EdgeCaseType(p)
		if !valid[t] {
			return nil, fmt.Errorf("unknown edge case type %q, valid types: %v (or 'all')", p, AllEdgeCaseTypes())
		}
		if !seen[t] {
			result = append(result, t)
			seen[t] = true
		}
	}
	return result, nil
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	if c.Percentage < 0 || c.Percentage > 100 {
		return fmt.Errorf("edge-cases percentage must be 0-100, got %d", c.Percentage)
	}
	if c.Percentage > 0 && len(c.Types) == 0 {
		return fmt.Errorf("edge-cases enabled but no types specified")
	}
	return nil
}

// IsEnabled returns true if any edge case type is enabled
func (c *Config) IsEnabled() bool {
	return len(c.Types) > 0
}

// HasType checks if a specific edge case type is enabled
func (c *Config) HasType(t EdgeCaseType) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}

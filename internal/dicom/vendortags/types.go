// Package vendortags builds the private element blocks that scanner
// vendors add to CT images. Exported slices must carry them through
// unchanged.
package vendortags

import (
	"fmt"
	"strings"
)

// Vendor names a scanner vendor whose private blocks can be generated.
type Vendor string

const (
	Siemens Vendor = "siemens"
	GE      Vendor = "ge"
	Philips Vendor = "philips"
)

// AllVendors returns all valid vendors
func AllVendors() []Vendor {
	return []Vendor{Siemens, GE, Philips}
}

// Config holds the vendors whose blocks are written into each slice.
type Config struct {
	Vendors []Vendor
}

// ParseVendors parses comma-separated vendor names.
// The special value "all" enables every vendor.
func ParseVendors(input string) ([]Vendor, error) {
	if input == "" {
		return nil, nil
	}

	valid := make(map[Vendor]bool)
	for _, v := range AllVendors() {
		valid[v] = true
	}

	parts := strings.Split(input, ",")
	result := make([]Vendor, 0, len(parts))
	seen := make(map[Vendor]bool)
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "all" {
			return AllVendors(), nil
		}
		v := Vendor(p)
		if !valid[v] {
			return nil, fmt.Errorf("unknown vendor %q, valid vendors: %v (or 'all')", p, AllVendors())
		}
		if !seen[v] {
			result = append(result, v)
			seen[v] = true
		}
	}
	return result, nil
}

// ForManufacturer maps a Manufacturer value to its vendor.
func ForManufacturer(manufacturer string) (Vendor, bool) {
	m := strings.ToUpper(manufacturer)
	switch {
	case strings.HasPrefix(m, "SIEMENS"):
		return Siemens, true
	case strings.HasPrefix(m, "GE"):
		return GE, true
	case strings.HasPrefix(m, "PHILIPS"):
		return Philips, true
	}
	return "", false
}

// IsEnabled returns true if any vendor block is written
func (c *Config) IsEnabled() bool {
	return len(c.Vendors) > 0
}

// HasVendor checks if a vendor is enabled
func (c *Config) HasVendor(v Vendor) bool {
	for _, cv := range c.Vendors {
		if cv == v {
			return true
		}
	}
	return false
}

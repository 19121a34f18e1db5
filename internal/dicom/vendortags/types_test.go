package vendortags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVendors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Vendor
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "siemens", want: []Vendor{Siemens}},
		{name: "mixed case and spaces", input: " GE , philips", want: []Vendor{GE, Philips}},
		{name: "duplicates", input: "ge,ge", want: []Vendor{GE}},
		{name: "all", input: "ge,all", want: AllVendors()},
		{name: "unknown", input: "toshiba", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVendors(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForManufacturer(t *testing.T) {
	tests := map[string]Vendor{
		"SIEMENS":            Siemens,
		"Siemens Healthcare": Siemens,
		"GE MEDICAL SYSTEMS": GE,
		"Philips":            Philips,
	}
	for in, want := range tests {
		got, ok := ForManufacturer(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ForManufacturer("CANON")
	assert.False(t, ok)
}

func TestConfig_HasVendor(t *testing.T) {
	var empty Config
	assert.False(t, empty.IsEnabled())

	c := Config{Vendors: []Vendor{GE}}
	assert.True(t, c.IsEnabled())
	assert.True(t, c.HasVendor(GE))
	assert.False(t, c.HasVendor(Siemens))
}

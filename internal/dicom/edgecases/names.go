package edgecases

import (
	"math/rand/v2"
	"strings"
)

// DICOMLOMaxLength is the maximum length of an LO value such as ROIName.
const DICOMLOMaxLength = 64

var specialRegionNames = []string{
	"PTV 60Gy (boost)",
	"CTV*70 #1",
	"Lung L/R",
	"Œsophage",
	"Moelle épinière",
	"GTV-Primär",
	"Parotid_D'",
	"Rectum & Anus",
}

var longRegionWords = []string{
	"PLANNING", "TARGET", "VOLUME", "EXPANDED", "POSTERIOR", "MARGIN",
	"SUBTRACTED", "OPTIMIZATION", "AVOIDANCE", "STRUCTURE",
}

// GenerateSpecialRegionName returns a region name with accents, spaces or
// path separators
func GenerateSpecialRegionName(rng *rand.Rand) string {
	return specialRegionNames[rng.IntN(len(specialRegionNames))]
}

// GenerateLongRegionName pads original with words up to the LO maximum
func GenerateLongRegionName(original string, rng *rand.Rand) string {
	var sb strings.Builder
	sb.WriteString(original)
	for sb.Len() < DICOMLOMaxLength {
		sb.WriteByte('_')
		sb.WriteString(longRegionWords[rng.IntN(len(longRegionWords))])
	}
	name := sb.String()
	if len(name) > DICOMLOMaxLength {
		name = name[:DICOMLOMaxLength]
	}
	return name
}

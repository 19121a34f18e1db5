package edgecases

import "math/rand/v2"

// GeometryTags lists the slice geometry fields the burn engine falls back
// on defaults for when absent
var GeometryTags = []string{
	"PixelSpacing",
	"ImageOrientationPatient",
	"ImagePositionPatient",
}

// SelectTagsToOmit randomly selects count names from candidates
func SelectTagsToOmit(rng *rand.Rand, candidates []string, count int) []string {
	if count >= len(candidates) {
		return append([]string(nil), candidates...)
	}
	// Fisher-Yates shuffle and take first count
	indices := make([]int, len(candidates))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	result := make([]string, count)
	for i := 0; i < count; i++ {
		result[i] = candidates[indices[i]]
	}
	return result
}

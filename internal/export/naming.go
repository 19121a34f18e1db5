package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	unsafeRun  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NoROI names an archive that holds no burned region.
const NoROI = "NoROI"

// Sanitize trims s and replaces every run of characters outside
// [A-Za-z0-9._-] with a single underscore.
func Sanitize(s string) string {
	return unsafeRun.ReplaceAllString(strings.TrimSpace(s), "_")
}

// DefaultName returns CT_MMDDYY_Burn for a YYYYMMDD study date, falling
// back to now when the date is shorter than eight characters.
func DefaultName(studyDate string, now time.Time) string {
	d := strings.TrimSpace(studyDate)
	if len(d) < 8 {
		d = now.Format("20060102")
	}
	return fmt.Sprintf("CT_%s%s%s_Burn", d[4:6], d[6:8], d[2:4])
}

// FolderName is the combined-mode folder: the base name with whitespace
// runs replaced by underscores.
func FolderName(base string) string {
	return whitespace.ReplaceAllString(base, "_")
}

// SeparateFolder is the folder of one region in separate-series mode.
func SeparateFolder(base, region string) string {
	return Sanitize(base) + "__" + Sanitize(region)
}

// ArchiveName is the zip file name for a set of burned regions.
func ArchiveName(base string, regions []string) string {
	part := NoROI
	if len(regions) > 0 {
		names := make([]string, len(regions))
		for i, r := range regions {
			names[i] = Sanitize(r)
		}
		part = strings.Join(names, "_")
	}
	return Sanitize(base) + "__" + part + ".zip"
}

// Description is the exported SeriesDescription: the base name followed by
// the burned region names.
func Description(base string, regions []string) string {
	if len(regions) == 0 {
		return base
	}
	return base + " | " + strings.Join(regions, " | ")
}

// Derivation appends the burned region names to an existing derivation
// text.
func Derivation(existing string, regions []string) string {
	if len(regions) == 0 {
		return existing
	}
	burned := "Burned: " + strings.Join(regions, " | ")
	if strings.TrimSpace(existing) == "" {
		return burned
	}
	return existing + " | " + burned
}

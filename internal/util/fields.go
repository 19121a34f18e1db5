// Package util holds the field-key registry shared by the record reader and
// the CLI.
package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// FieldScope groups field keys by the level at which their value is shared.
type FieldScope int

const (
	// ScopeStudy fields are shared by every object of a study.
	ScopeStudy FieldScope = iota
	// ScopeSeries fields are shared by every slice of a series.
	ScopeSeries
	// ScopeSlice fields vary per slice.
	ScopeSlice
	// ScopeStructure fields belong to a structure set.
	ScopeStructure
)

// String returns the string representation of a FieldScope.
func (s FieldScope) String() string {
	switch s {
	case ScopeStudy:
		return "Study"
	case ScopeSeries:
		return "Series"
	case ScopeSlice:
		return "Slice"
	case ScopeStructure:
		return "Structure"
	default:
		return "Unknown"
	}
}

// FieldInfo describes one stable field key.
type FieldInfo struct {
	Name  string
	Tag   tag.Tag
	Scope FieldScope
}

// Tags that are looked up by number rather than through the generated
// dictionary constants.
var (
	BurnedInAnnotation    = tag.Tag{Group: 0x0028, Element: 0x0301}
	DerivationDescription = tag.Tag{Group: 0x0008, Element: 0x2111}
	StructureSetLabel     = tag.Tag{Group: 0x3006, Element: 0x0002}
	StructureSetROISeq    = tag.Tag{Group: 0x3006, Element: 0x0020}
	ROINumber             = tag.Tag{Group: 0x3006, Element: 0x0022}
	ROIName               = tag.Tag{Group: 0x3006, Element: 0x0026}
	ROIDisplayColor       = tag.Tag{Group: 0x3006, Element: 0x002A}
	ROIContourSeq         = tag.Tag{Group: 0x3006, Element: 0x0039}
	ContourSeq            = tag.Tag{Group: 0x3006, Element: 0x0040}
	ContourImageSeq       = tag.Tag{Group: 0x3006, Element: 0x0016}
	ContourGeometricType  = tag.Tag{Group: 0x3006, Element: 0x0042}
	NumberOfContourPoints = tag.Tag{Group: 0x3006, Element: 0x0046}
	ContourData           = tag.Tag{Group: 0x3006, Element: 0x0050}
	ReferencedROINumber   = tag.Tag{Group: 0x3006, Element: 0x0084}
	ReferencedSOPClass    = tag.Tag{Group: 0x0008, Element: 0x1150}
	ReferencedSOPInstance = tag.Tag{Group: 0x0008, Element: 0x1155}
)

// fieldRegistry maps lowercase field keys to their FieldInfo.
var fieldRegistry = map[string]FieldInfo{
	"patientname":           {Name: "PatientName", Tag: tag.PatientName, Scope: ScopeStudy},
	"patientid":             {Name: "PatientID", Tag: tag.PatientID, Scope: ScopeStudy},
	"studyinstanceuid":      {Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID, Scope: ScopeStudy},
	"studydate":             {Name: "StudyDate", Tag: tag.StudyDate, Scope: ScopeStudy},
	"modality":              {Name: "Modality", Tag: tag.Modality, Scope: ScopeSeries},
	"seriesinstanceuid":     {Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID, Scope: ScopeSeries},
	"seriesdescription":     {Name: "SeriesDescription", Tag: tag.SeriesDescription, Scope: ScopeSeries},
	"frameofreferenceuid":   {Name: "FrameOfReferenceUID", Tag: tag.FrameOfReferenceUID, Scope: ScopeSeries},
	"rows":                  {Name: "Rows", Tag: tag.Rows, Scope: ScopeSeries},
	"columns":               {Name: "Columns", Tag: tag.Columns, Scope: ScopeSeries},
	"pixelspacing":          {Name: "PixelSpacing", Tag: tag.PixelSpacing, Scope: ScopeSeries},
	"slicethickness":        {Name: "SliceThickness", Tag: tag.SliceThickness, Scope: ScopeSeries},
	"imageorientation":      {Name: "ImageOrientationPatient", Tag: tag.ImageOrientationPatient, Scope: ScopeSeries},
	"rescaleslope":          {Name: "RescaleSlope", Tag: tag.RescaleSlope, Scope: ScopeSlice},
	"rescaleintercept":      {Name: "RescaleIntercept", Tag: tag.RescaleIntercept, Scope: ScopeSlice},
	"imageposition":         {Name: "ImagePositionPatient", Tag: tag.ImagePositionPatient, Scope: ScopeSlice},
	"sopinstanceuid":        {Name: "SOPInstanceUID", Tag: tag.SOPInstanceUID, Scope: ScopeSlice},
	"instancenumber":        {Name: "InstanceNumber", Tag: tag.InstanceNumber, Scope: ScopeSlice},
	"windowcenter":          {Name: "WindowCenter", Tag: tag.WindowCenter, Scope: ScopeSlice},
	"windowwidth":           {Name: "WindowWidth", Tag: tag.WindowWidth, Scope: ScopeSlice},
	"burnedinannotation":    {Name: "BurnedInAnnotation", Tag: BurnedInAnnotation, Scope: ScopeSlice},
	"derivationdescription": {Name: "DerivationDescription", Tag: DerivationDescription, Scope: ScopeSlice},
	"structuresetlabel":     {Name: "StructureSetLabel", Tag: StructureSetLabel, Scope: ScopeStructure},
}

func init() {
	// Full keywords resolve as well as the short aliases above.
	infos := make([]FieldInfo, 0, len(fieldRegistry))
	for _, info := range fieldRegistry {
		infos = append(infos, info)
	}
	for _, info := range infos {
		key := strings.ToLower(info.Name)
		if _, ok := fieldRegistry[key]; !ok {
			fieldRegistry[key] = info
		}
	}
}

// FieldByName returns the FieldInfo for a field key.
// The lookup is case-insensitive. An unknown key produces an error that
// suggests the closest known key by Levenshtein distance.
func FieldByName(name string) (FieldInfo, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	if info, ok := fieldRegistry[normalizedName]; ok {
		return info, nil
	}

	if suggestion := closestFieldName(normalizedName); suggestion != "" {
		return FieldInfo{}, fmt.Errorf("unknown field %q, did you mean %q?", name, suggestion)
	}
	return FieldInfo{}, fmt.Errorf("unknown field %q", name)
}

// FieldNames lists the canonical field names in alphabetical order.
func FieldNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, info := range fieldRegistry {
		if !seen[info.Name] {
			seen[info.Name] = true
			names = append(names, info.Name)
		}
	}
	sort.Strings(names)
	return names
}

// closestFieldName returns "" when nothing is within distance 5.
func closestFieldName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	// Sorted keys keep the suggestion deterministic on distance ties.
	keys := make([]string, 0, len(fieldRegistry))
	for key := range fieldRegistry {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if d := levenshteinDistance(input, key); d < bestDistance {
			bestDistance = d
			bestMatch = fieldRegistry[key].Name
		}
	}
	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

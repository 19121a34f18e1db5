package dicom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrsinham/roiburn/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ROIDefinition is one entry of the structure set ROI sequence.
type ROIDefinition struct {
	Number int
	Name   string
}

// ContourItem is one closed polygon on one referenced slice. Coords holds
// flat x,y,z triples in patient space.
type ContourItem struct {
	SliceUID string
	Coords   []float64
}

// ROIContour groups the contours of one referenced ROI number.
type ROIContour struct {
	ReferencedROI int
	Color         string // "r\g\b", empty when not encoded
	Items         []ContourItem
}

// StructureSet is the parsed content of an RTSTRUCT record.
type StructureSet struct {
	Path           string
	Label          string
	SOPInstanceUID string
	StudyUID       string
	ROIs           []ROIDefinition
	Contours       []ROIContour
}

// ParseStructureSet extracts ROI names, colors and contours from an RTSTRUCT record.
func ParseStructureSet(r *Record) (*StructureSet, error) {
	if m := r.Modality(); m != "RTSTRUCT" {
		return nil, fmt.Errorf("%s: modality %q is not RTSTRUCT", r.Path, m)
	}
	ds := r.Dataset()
	ss := &StructureSet{
		Path:           r.Path,
		Label:          r.String(util.StructureSetLabel),
		SOPInstanceUID: r.SOPInstanceUID(),
		StudyUID:       r.String(tag.StudyInstanceUID),
	}

	if elem, err := ds.FindElementByTag(util.StructureSetROISeq); err == nil {
		for _, item := range sequenceItems(elem) {
			ss.ROIs = append(ss.ROIs, ROIDefinition{
				Number: firstInt(findIn(item, util.ROINumber)),
				Name:   firstString(findIn(item, util.ROIName)),
			})
		}
	}

	if elem, err := ds.FindElementByTag(util.ROIContourSeq); err == nil {
		for _, item := range sequenceItems(elem) {
			rc := ROIContour{
				ReferencedROI: firstInt(findIn(item, util.ReferencedROINumber)),
				Color:         joinValues(findIn(item, util.ROIDisplayColor)),
			}
			for _, contour := range sequenceItems(findIn(item, util.ContourSeq)) {
				ci := ContourItem{Coords: parseFloats(elementStrings(findIn(contour, util.ContourData)))}
				for _, img := range sequenceItems(findIn(contour, util.ContourImageSeq)) {
					if uid := firstString(findIn(img, util.ReferencedSOPInstance)); uid != "" {
						ci.SliceUID = uid
						break
					}
				}
				rc.Items = append(rc.Items, ci)
			}
			ss.Contours = append(ss.Contours, rc)
		}
	}

	return ss, nil
}

// ReferencedSlices returns the set of slice UIDs referenced by any contour.
func (ss *StructureSet) ReferencedSlices() map[string]bool {
	refs := make(map[string]bool)
	for _, rc := range ss.Contours {
		for _, item := range rc.Items {
			if item.SliceUID != "" {
				refs[item.SliceUID] = true
			}
		}
	}
	return refs
}

func firstString(elem *dicom.Element) string {
	if v := elementStrings(elem); len(v) > 0 {
		return v[0]
	}
	return ""
}

func firstInt(elem *dicom.Element) int {
	n, err := strconv.Atoi(firstString(elem))
	if err != nil {
		return 0
	}
	return n
}

func joinValues(elem *dicom.Element) string {
	return strings.Join(elementStrings(elem), `\`)
}

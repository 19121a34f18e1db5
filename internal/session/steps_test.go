package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/mrsinham/roiburn/internal/burn"
	"github.com/mrsinham/roiburn/internal/contour"
	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/export"
	"github.com/mrsinham/roiburn/internal/geometry"
	"github.com/mrsinham/roiburn/internal/raster"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/mrsinham/roiburn/internal/volume"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// world holds state for a single scenario
type world struct {
	tmpDir   string
	session  *Session
	series   *ct.Series
	ss       *dicom.StructureSet
	result   *ct.Series
	err      error
	segments []contour.Segment
	target   Point
	ring     []r3.Vec
	dense    []r3.Vec
	exported *export.Result
}

func InitializeScenario(sc *godog.ScenarioContext) {
	w := &world{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "roiburn-bdd-*")
		if err != nil {
			return ctx, err
		}
		*w = world{tmpDir: tmpDir, session: New(), ss: &dicom.StructureSet{}}
		return ctx, nil
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if w.tmpDir != "" {
			os.RemoveAll(w.tmpDir)
		}
		return ctx, nil
	})

	// Setup
	sc.Step(`^a blank series of (\d+) slices? of (\d+) by (\d+) pixels with slope ([-\d.]+) and intercept ([-\d.]+)$`, w.aBlankSeries)
	sc.Step(`^a region "([^"]*)" on slice (\d+) with pixel contour "([^"]*)"$`, w.aRegionOnSlice)
	sc.Step(`^a region "([^"]*)" on slices (\d+) to (\d+) with pixel contour "([^"]*)"$`, w.aRegionOnSlices)
	sc.Step(`^region "([^"]*)" fills with delta (-?\d+) and no outline$`, w.regionFills)
	sc.Step(`^region "([^"]*)" is outlined at (-?\d+) HU with width ([\d.]+)$`, w.regionIsOutlined)
	sc.Step(`^the annotation band is disabled$`, w.theAnnotationBandIsDisabled)
	sc.Step(`^a phantom study of (\d+) slices$`, w.aPhantomStudy)
	sc.Step(`^the triangle "([^"]*)" in millimetres$`, w.theTriangle)

	// Actions
	sc.Step(`^I burn the selected regions$`, w.iBurnTheSelectedRegions)
	sc.Step(`^I try to burn the selected regions$`, w.iTryToBurn)
	sc.Step(`^I burn an empty region list$`, w.iBurnAnEmptyRegionList)
	sc.Step(`^I take the (sagittal|coronal) cross-section of "([^"]*)" at (\d+)$`, w.iTakeTheCrossSection)
	sc.Step(`^I navigate to "([^"]*)"$`, w.iNavigateTo)
	sc.Step(`^I densify it to ([\d.]+) mm$`, w.iDensifyItTo)
	sc.Step(`^I export to a directory$`, w.iExportToADirectory)

	// Checks
	sc.Step(`^the burned value at (\d+),(\d+) on slice (\d+) is (-?\d+)$`, w.theBurnedValueIs)
	sc.Step(`^(\d+) pixels? of slice (\d+) differs? from the original$`, w.pixelsDiffer)
	sc.Step(`^every slice is identical to the original$`, w.everySliceIsIdentical)
	sc.Step(`^the burn is refused because nothing is selected$`, w.theBurnIsRefused)
	sc.Step(`^there are (\d+) segments$`, w.thereAreSegments)
	sc.Step(`^every segment endpoint is shared by exactly (\d+) segments$`, w.everyEndpointIsShared)
	sc.Step(`^the navigation target is (\d+),(\d+),(\d+)$`, w.theNavigationTargetIs)
	sc.Step(`^the region is reported unknown$`, w.theRegionIsReportedUnknown)
	sc.Step(`^navigation is refused because the region has no contours$`, w.navigationIsRefusedForNoContours)
	sc.Step(`^it has more than (\d+) points$`, w.itHasMoreThanPoints)
	sc.Step(`^no gap exceeds ([\d.]+) mm$`, w.noGapExceeds)
	sc.Step(`^its area is unchanged$`, w.itsAreaIsUnchanged)
	sc.Step(`^the catalog lists "([^"]*)"$`, w.theCatalogLists)
	sc.Step(`^(\d+) slices are loaded$`, w.slicesAreLoaded)
	sc.Step(`^the mean intensity of "([^"]*)" rose by (-?\d+) HU$`, w.theMeanIntensityRose)
	sc.Step(`^(\d+) files are written under "([^"]*)"$`, w.filesAreWritten)
}

func sliceUID(k int) string { return fmt.Sprintf("slice-%d", k) }

func (w *world) aBlankSeries(depth, width, height int, slope, intercept float64) error {
	slices := make([]*ct.Slice, depth)
	for k := range slices {
		s := ct.NewSlice(sliceUID(k), height, width, make([]int16, width*height))
		s.Slope, s.Intercept = slope, intercept
		s.Plane.Origin = r3.Vec{Z: float64(k)}
		s.Thickness = 1
		slices[k] = s
	}
	w.series = ct.NewSeries(slices)
	w.session.Use(context.Background(), w.series, w.ss)
	return nil
}

func parsePoints(s string) ([]r2.Vec, error) {
	var out []r2.Vec
	for _, pair := range strings.Fields(s) {
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("bad point %q", pair)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, r2.Vec{X: x, Y: y})
	}
	return out, nil
}

func (w *world) aRegionOnSlice(name string, k int, points string) error {
	return w.aRegionOnSlices(name, k, k, points)
}

// aRegionOnSlices adds a region whose contour, given in pixel units, is
// repeated on every slice from first to last. The blank series has
// identity geometry with slice k at z = k.
func (w *world) aRegionOnSlices(name string, first, last int, points string) error {
	pts, err := parsePoints(points)
	if err != nil {
		return err
	}
	number := len(w.ss.ROIs) + 1
	w.ss.ROIs = append(w.ss.ROIs, dicom.ROIDefinition{Number: number, Name: name})
	rc := dicom.ROIContour{ReferencedROI: number}
	for k := first; k <= last; k++ {
		var coords []float64
		for _, p := range pts {
			coords = append(coords, p.X, p.Y, float64(k))
		}
		rc.Items = append(rc.Items, dicom.ContourItem{SliceUID: sliceUID(k), Coords: coords})
	}
	w.ss.Contours = append(w.ss.Contours, rc)
	w.session.Use(context.Background(), w.series, w.ss)
	return nil
}

func (w *world) region(name string) (*roi.Region, error) {
	r, err := w.session.Catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	r.Settings.Selected = true
	return r, nil
}

func (w *world) regionFills(name string, delta float64) error {
	r, err := w.region(name)
	if err != nil {
		return err
	}
	r.Settings.Fill = roi.Bool(true)
	r.Settings.FillDelta = roi.Float(delta)
	r.Settings.Outline = roi.Bool(false)
	return nil
}

func (w *world) regionIsOutlined(name string, hu, width float64) error {
	r, err := w.region(name)
	if err != nil {
		return err
	}
	r.Settings.TargetHU = roi.Float(hu)
	r.Settings.Width = roi.Float(width)
	r.Settings.Outline = roi.Bool(true)
	return nil
}

func (w *world) theAnnotationBandIsDisabled() error {
	w.session.Options.FooterDelta = 0
	return nil
}

func (w *world) aPhantomStudy(slices int) error {
	dir := filepath.Join(w.tmpDir, "study")
	if _, err := dicom.GeneratePhantom(dicom.PhantomOptions{
		OutputDir: dir,
		Slices:    slices,
		Rows:      32,
		Columns:   40,
		Seed:      5,
		Quiet:     true,
	}); err != nil {
		return err
	}
	_, err := w.session.Load(context.Background(), dir, dicom.LoadOptions{})
	return err
}

func (w *world) theTriangle(points string) error {
	pts, err := parsePoints(points)
	if err != nil {
		return err
	}
	for _, p := range pts {
		w.ring = append(w.ring, r3.Vec{X: p.X, Y: p.Y})
	}
	return nil
}

func (w *world) iBurnTheSelectedRegions() error {
	w.result, w.err = w.session.Burn(context.Background())
	return w.err
}

func (w *world) iTryToBurn() error {
	w.result, w.err = w.session.Burn(context.Background())
	return nil
}

func (w *world) iBurnAnEmptyRegionList() error {
	w.result, w.err = burn.Burn(context.Background(), w.series, nil, w.session.Options)
	return w.err
}

func (w *world) iTakeTheCrossSection(axis, name string, index int) error {
	a, err := volume.ParseAxis(axis)
	if err != nil {
		return err
	}
	w.segments, err = w.session.CrossSection(context.Background(), name, a, index)
	return err
}

func (w *world) iNavigateTo(name string) error {
	w.target, w.err = w.session.Navigate(context.Background(), name)
	return nil
}

func (w *world) iDensifyItTo(spacing float64) error {
	w.dense = geometry.Densify(w.ring, spacing)
	return nil
}

func (w *world) iExportToADirectory() error {
	sink, err := export.NewDirSink(filepath.Join(w.tmpDir, "out"))
	if err != nil {
		return err
	}
	w.exported, err = w.session.Export(context.Background(), sink, export.Options{Quiet: true})
	return err
}

func (w *world) theBurnedValueIs(x, y, k, want int) error {
	if w.result == nil || k >= w.result.Len() {
		return fmt.Errorf("no burned slice %d", k)
	}
	s := w.result.Slices[k]
	if got := s.Pixels()[y*s.Columns+x]; int(got) != want {
		return fmt.Errorf("burned value at (%d,%d) = %d, want %d", x, y, got, want)
	}
	return nil
}

func (w *world) pixelsDiffer(want, k int) error {
	s := w.result.Slices[k]
	got := 0
	for i, v := range s.Pixels() {
		if v != s.Stored[i] {
			got++
		}
	}
	if got != want {
		return fmt.Errorf("%d pixels differ, want %d", got, want)
	}
	return nil
}

func (w *world) everySliceIsIdentical() error {
	for i, s := range w.result.Slices {
		orig := w.series.Slices[i]
		if s.Burned != nil {
			return fmt.Errorf("slice %d carries a burned array", i)
		}
		for j, v := range s.Pixels() {
			if v != orig.Stored[j] {
				return fmt.Errorf("slice %d pixel %d = %d, want %d", i, j, v, orig.Stored[j])
			}
		}
	}
	return nil
}

func (w *world) theBurnIsRefused() error {
	if !errors.Is(w.err, ErrNoSelection) {
		return fmt.Errorf("burn error = %v, want %v", w.err, ErrNoSelection)
	}
	return nil
}

func (w *world) thereAreSegments(want int) error {
	if len(w.segments) != want {
		return fmt.Errorf("got %d segments, want %d", len(w.segments), want)
	}
	return nil
}

func (w *world) everyEndpointIsShared(want int) error {
	degree := make(map[r2.Vec]int)
	for _, s := range w.segments {
		degree[s.A]++
		degree[s.B]++
	}
	for p, d := range degree {
		if d != want {
			return fmt.Errorf("endpoint %v is shared by %d segments, want %d", p, d, want)
		}
	}
	return nil
}

func (w *world) theNavigationTargetIs(x, y, z int) error {
	if w.err != nil {
		return w.err
	}
	if want := (Point{X: x, Y: y, Z: z}); w.target != want {
		return fmt.Errorf("navigation target = %+v, want %+v", w.target, want)
	}
	return nil
}

func (w *world) theRegionIsReportedUnknown() error {
	if !errors.Is(w.err, roi.ErrUnknownRegion) {
		return fmt.Errorf("navigate error = %v, want %v", w.err, roi.ErrUnknownRegion)
	}
	return nil
}

func (w *world) navigationIsRefusedForNoContours() error {
	if !errors.Is(w.err, raster.ErrNoContours) {
		return fmt.Errorf("navigate error = %v, want %v", w.err, raster.ErrNoContours)
	}
	return nil
}

func (w *world) itHasMoreThanPoints(n int) error {
	if len(w.dense) <= n {
		return fmt.Errorf("densified ring has %d points, want more than %d", len(w.dense), n)
	}
	return nil
}

func (w *world) noGapExceeds(spacing float64) error {
	if gap := geometry.MaxGap(w.dense); gap > spacing+1e-9 {
		return fmt.Errorf("largest gap %v exceeds %v", gap, spacing)
	}
	return nil
}

func flat(ring []r3.Vec) []r2.Vec {
	out := make([]r2.Vec, len(ring))
	for i, p := range ring {
		out[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	return out
}

func (w *world) itsAreaIsUnchanged() error {
	before, after := geometry.Area(flat(w.ring)), geometry.Area(flat(w.dense))
	if math.Abs(before-after) > 1e-9 {
		return fmt.Errorf("area changed from %v to %v", before, after)
	}
	return nil
}

func (w *world) theCatalogLists(names string) error {
	if got := strings.Join(w.session.Catalog.Names(), ", "); got != names {
		return fmt.Errorf("catalog lists %q, want %q", got, names)
	}
	return nil
}

func (w *world) slicesAreLoaded(n int) error {
	if got := w.session.Original().Len(); got != n {
		return fmt.Errorf("%d slices loaded, want %d", got, n)
	}
	return nil
}

func (w *world) theMeanIntensityRose(name string, delta float64) error {
	ctx := context.Background()
	burned, err := w.session.RegionStats(ctx, name)
	if err != nil {
		return err
	}
	if err := w.session.SetView(Original); err != nil {
		return err
	}
	original, err := w.session.RegionStats(ctx, name)
	if err != nil {
		return err
	}
	if got := burned.Mean - original.Mean; math.Abs(got-delta) > 1e-6 {
		return fmt.Errorf("mean rose by %v, want %v", got, delta)
	}
	return nil
}

func (w *world) filesAreWritten(n int, folder string) error {
	entries, err := os.ReadDir(filepath.Join(w.tmpDir, "out", folder))
	if err != nil {
		return err
	}
	if len(entries) != n {
		return fmt.Errorf("%d files under %s, want %d", len(entries), folder, n)
	}
	if w.exported.Written != n {
		return fmt.Errorf("export reports %d files, want %d", w.exported.Written, n)
	}
	return nil
}

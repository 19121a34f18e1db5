package dicom

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/mrsinham/roiburn/internal/dicom/edgecases"
	"github.com/mrsinham/roiburn/internal/dicom/modalities"
	"github.com/mrsinham/roiburn/internal/dicom/vendortags"
	"github.com/mrsinham/roiburn/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SOP classes written by the phantom generator.
const (
	CTImageStorage        = "1.2.840.10008.5.1.4.1.1.2"
	RTStructureSetStorage = "1.2.840.10008.5.1.4.1.1.481.3"
)

// Phantom intensities in HU.
const (
	phantomAirHU   = -1000
	phantomWaterHU = 0
	phantomBoneHU  = 700
	phantomLabelHU = 1500
	phantomNoiseHU = 10
)

// PhantomOptions contains all parameters needed to generate a phantom study.
type PhantomOptions struct {
	OutputDir      string
	Slices         int     // Number of CT slices (default 16)
	Rows           int     // Image rows (default 64)
	Columns        int     // Image columns (default 64)
	PixelSpacing   float64 // Square pixel spacing in mm (default 1)
	SliceThickness float64 // Slice thickness and spacing in mm (default 2.5)
	Seed           int64
	Workers        int    // Number of parallel workers (0 = auto-detect based on CPU cores)
	PatientName    string // Empty = generated from seed
	StudyDate      string // YYYYMMDD (default 20240115)
	NoLabels       bool   // Skip the slice number overlay

	// Degraded inputs
	EdgeCases edgecases.Config  // Missing fields, odd names, stale contours
	Vendors   vendortags.Config // Private vendor blocks written into every slice

	// Output control
	Quiet            bool                     // Suppress progress output (for TUI integration)
	ProgressCallback func(current, total int) // Optional callback for progress updates
}

func (o PhantomOptions) withDefaults() PhantomOptions {
	if o.Slices <= 0 {
		o.Slices = 16
	}
	if o.Rows <= 0 {
		o.Rows = 64
	}
	if o.Columns <= 0 {
		o.Columns = 64
	}
	if o.PixelSpacing <= 0 {
		o.PixelSpacing = 1
	}
	if o.SliceThickness <= 0 {
		o.SliceThickness = 2.5
	}
	if o.StudyDate == "" {
		o.StudyDate = "20240115"
	}
	return o
}

// PhantomFile describes one generated CT slice.
type PhantomFile struct {
	Path           string
	SOPInstanceUID string
	InstanceNumber int
	Z              float64
	Omitted        []string // Fields left out of this slice
}

// Phantom describes a generated study.
type Phantom struct {
	Dir                 string
	StudyUID            string
	SeriesUID           string
	FrameOfReferenceUID string
	Slices              []PhantomFile
	StructureSetPath    string
	Regions             []string
	Scanner             modalities.Scanner
	StaleUID            string // Instance referenced by contours but never written
}

// phantomShape holds the analytic geometry of the phantom in patient mm,
// centered on the patient origin.
type phantomShape struct {
	bodyA, bodyB   float64 // Body ellipse semi-axes
	spineX, spineY float64
	spineR         float64
	gapX, gapY     float64
	gapR           float64
	ptvX, ptvY     float64
	ptvR, holeR    float64
}

func newPhantomShape(o PhantomOptions) phantomShape {
	a := 0.40 * float64(o.Columns) * o.PixelSpacing
	b := 0.30 * float64(o.Rows) * o.PixelSpacing
	return phantomShape{
		bodyA: a, bodyB: b,
		spineX: 0, spineY: 0.6 * b, spineR: 0.15 * b,
		gapX: -0.5 * a, gapY: -0.2 * b, gapR: 0.12 * b,
		ptvX: 0.35 * a, ptvY: -0.1 * b, ptvR: 0.3 * b, holeR: 0.12 * b,
	}
}

// hu returns the noiseless intensity at patient (u, v).
func (s phantomShape) hu(u, v float64) int {
	du, dv := u/s.bodyA, v/s.bodyB
	if du*du+dv*dv > 1 {
		return phantomAirHU
	}
	if math.Hypot(u-s.spineX, v-s.spineY) <= s.spineR {
		return phantomBoneHU
	}
	if math.Hypot(u-s.gapX, v-s.gapY) <= s.gapR {
		return phantomAirHU
	}
	return phantomWaterHU
}

// phantomTask contains all data needed to write a single CT slice.
type phantomTask struct {
	index     int
	filePath  string
	label     string
	pixelSeed uint64
	origin    [2]float64
	intercept float64
	noPixels  bool
	metadata  []*dicom.Element
	writeOpts []dicom.WriteOption
}

// GeneratePhantom writes a synthetic CT series and a matching RT structure
// set into opts.OutputDir. The same seed always produces the same UIDs and
// pixels. Slices are written in parallel.
func GeneratePhantom(opts PhantomOptions) (*Phantom, error) {
	opts = opts.withDefaults()
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if opts.EdgeCases.IsEnabled() {
		if err := opts.EdgeCases.Validate(); err != nil {
			return nil, fmt.Errorf("edge cases: %w", err)
		}
	}
	gen, err := modalities.GetGenerator(modalities.CT)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	seedKey := fmt.Sprintf("roiburn-phantom/%d", opts.Seed)
	rng := randv2.New(randv2.NewPCG(uint64(opts.Seed), uint64(opts.Seed)))
	patientName := opts.PatientName
	if patientName == "" {
		patientName = util.PatientName(rng)
	}
	patientID := fmt.Sprintf("PH%06d", rng.IntN(1000000))
	scanner := gen.Scanners()[rng.IntN(len(gen.Scanners()))]
	params := gen.GenerateSeriesParams(scanner, rng)
	edges := edgecases.NewApplicator(opts.EdgeCases, rng)
	vendors := vendortags.NewApplicator(opts.Vendors, rng)
	var writeOpts []dicom.WriteOption
	if opts.Vendors.IsEnabled() {
		writeOpts = vendortags.WriteOptions()
	}

	ph := &Phantom{
		Dir:                 opts.OutputDir,
		StudyUID:            DeterministicUID(seedKey + "/study"),
		SeriesUID:           DeterministicUID(seedKey + "/series"),
		FrameOfReferenceUID: DeterministicUID(seedKey + "/frame"),
		Scanner:             scanner,
	}
	seen := make(map[string]bool)
	for _, name := range []string{"Body", "Spine", "PTV"} {
		odd := edges.RegionName(name)
		if seen[odd] {
			odd = name
		}
		seen[odd] = true
		ph.Regions = append(ph.Regions, odd)
	}

	shape := newPhantomShape(opts)
	sp := opts.PixelSpacing
	originX := -float64(opts.Columns) / 2 * sp
	originY := -float64(opts.Rows) / 2 * sp

	common := []*dicom.Element{
		mustNewElement(tag.PatientName, []string{patientName}),
		mustNewElement(tag.PatientID, []string{patientID}),
		mustNewElement(tag.StudyInstanceUID, []string{ph.StudyUID}),
		mustNewElement(tag.StudyTime, []string{"101500"}),
		mustNewElement(tag.StudyDescription, []string{"Phantom"}),
		mustNewElement(tag.FrameOfReferenceUID, []string{ph.FrameOfReferenceUID}),
	}
	if date := edges.StudyDate(opts.StudyDate); date != "" {
		common = append(common, mustNewElement(tag.StudyDate, []string{date}))
	}

	// Labels are part of the pixel data.
	burnedIn := "YES"
	if opts.NoLabels {
		burnedIn = padField("NO", 4)
	}

	// Phase 1: Build all tasks sequentially
	tasks := make([]phantomTask, opts.Slices)
	for k := range tasks {
		z := float64(k) * opts.SliceThickness
		sopUID := DeterministicUID(fmt.Sprintf("%s/slice/%d", seedKey, k))
		path := filepath.Join(opts.OutputDir, fmt.Sprintf("CT%04d.dcm", k+1))
		omitted := edges.SliceTagsToOmit()
		ph.Slices = append(ph.Slices, PhantomFile{Path: path, SOPInstanceUID: sopUID, InstanceNumber: k + 1, Z: z, Omitted: omitted})

		metadata := []*dicom.Element{
			mustNewElement(tag.MediaStorageSOPClassUID, []string{gen.SOPClassUID()}),
			mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sopUID}),
			mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
			mustNewElement(tag.SOPClassUID, []string{gen.SOPClassUID()}),
			mustNewElement(tag.SOPInstanceUID, []string{sopUID}),
			mustNewElement(tag.Modality, []string{string(modalities.CT)}),
			mustNewElement(tag.SeriesInstanceUID, []string{ph.SeriesUID}),
			mustNewElement(tag.SeriesNumber, []string{"1"}),
			mustNewElement(tag.SeriesDescription, []string{padField("Phantom CT", 64)}),
			mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", k+1)}),
			mustNewElement(tag.ImagePositionPatient, []string{floatToDS(originX), floatToDS(originY), floatToDS(z)}),
			mustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
			mustNewElement(tag.SliceThickness, []string{floatToDS(opts.SliceThickness)}),
			mustNewElement(tag.SliceLocation, []string{floatToDS(z)}),
			mustNewElement(tag.PixelSpacing, []string{floatToDS(sp), floatToDS(sp)}),
			mustNewElement(tag.Rows, []int{opts.Rows}),
			mustNewElement(tag.Columns, []int{opts.Columns}),
			mustNewElement(tag.SamplesPerPixel, []int{1}),
			mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
			mustNewElement(tag.BitsAllocated, []int{16}),
			mustNewElement(tag.BitsStored, []int{16}),
			mustNewElement(tag.HighBit, []int{15}),
			mustNewElement(tag.PixelRepresentation, []int{1}),
			mustNewElement(tag.RescaleIntercept, []string{floatToDS(params.RescaleIntercept)}),
			mustNewElement(tag.RescaleSlope, []string{floatToDS(params.RescaleSlope)}),
			mustNewElement(tag.RescaleType, []string{"HU"}),
			mustNewElement(tag.WindowCenter, []string{padField(floatToDS(params.WindowCenter), 16)}),
			mustNewElement(tag.WindowWidth, []string{padField(floatToDS(params.WindowWidth), 16)}),
			mustNewElement(util.BurnedInAnnotation, []string{burnedIn}),
			mustNewElement(util.DerivationDescription, []string{padField("Synthetic phantom", 128)}),
		}
		metadata = append(metadata, common...)
		metadata = append(metadata, gen.ModalityElements(params)...)
		metadata = append(metadata, vendors.Elements()...)

		noPixels := false
		for _, name := range omitted {
			if name == "PixelData" {
				noPixels = true
				continue
			}
			metadata = omitElement(metadata, name)
		}

		label := ""
		if !opts.NoLabels {
			label = fmt.Sprintf("%d", k+1)
		}
		tasks[k] = phantomTask{
			index:     k,
			filePath:  path,
			label:     label,
			pixelSeed: rng.Uint64(),
			origin:    [2]float64{originX, originY},
			intercept: params.RescaleIntercept,
			noPixels:  noPixels,
			metadata:  metadata,
			writeOpts: writeOpts,
		}
	}

	// Phase 2: Process tasks in parallel
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}
	if !opts.Quiet {
		fmt.Printf("Generating %d phantom slices with %d parallel workers...\n", len(tasks), numWorkers)
	}

	taskChan := make(chan phantomTask, len(tasks))
	resultChan := make(chan struct {
		index int
		err   error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				err := writePhantomSlice(task, opts, shape)
				resultChan <- struct {
					index int
					err   error
				}{task.index, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("generate slice %d: %w", result.index+1, result.err)
		}
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(tasks))
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	ph.StructureSetPath = filepath.Join(opts.OutputDir, "RS0001.dcm")
	if edges.StaleContours() {
		ph.StaleUID = DeterministicUID(seedKey + "/stale")
	}
	if err := writePhantomStructureSet(ph, opts, shape, common); err != nil {
		return nil, fmt.Errorf("generate structure set: %w", err)
	}

	if !opts.Quiet {
		fmt.Printf("✓ %d CT slices and 1 structure set created in: %s/\n", len(ph.Slices), opts.OutputDir)
	}
	return ph, nil
}

// writePhantomSlice renders and writes one CT slice.
func writePhantomSlice(task phantomTask, opts PhantomOptions, shape phantomShape) error {
	rows, cols := opts.Rows, opts.Columns
	if task.noPixels {
		return writeDatasetToFile(task.filePath, dicom.Dataset{Elements: task.metadata}, task.writeOpts...)
	}
	rng := randv2.New(randv2.NewPCG(task.pixelSeed, task.pixelSeed))

	hu := make([]int, rows*cols)
	for y := 0; y < rows; y++ {
		v := task.origin[1] + (float64(y)+0.5)*opts.PixelSpacing
		for x := 0; x < cols; x++ {
			u := task.origin[0] + (float64(x)+0.5)*opts.PixelSpacing
			h := shape.hu(u, v)
			if h != phantomAirHU {
				h += rng.IntN(2*phantomNoiseHU+1) - phantomNoiseHU
			}
			hu[y*cols+x] = h
		}
	}
	if task.label != "" {
		stampLabel(hu, cols, rows, task.label, phantomLabelHU)
	}

	nativeFrame := frame.NewNativeFrame[uint16](16, rows, cols, rows*cols, 1)
	for i, h := range hu {
		nativeFrame.RawData[i] = uint16(int16(float64(h) - task.intercept))
	}
	pixelDataInfo := dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}

	elements := make([]*dicom.Element, len(task.metadata)+1)
	copy(elements, task.metadata)
	elements[len(task.metadata)] = mustNewElement(tag.PixelData, pixelDataInfo)

	return writeDatasetToFile(task.filePath, dicom.Dataset{Elements: elements}, task.writeOpts...)
}

// omitElement drops the named field from elements.
func omitElement(elements []*dicom.Element, name string) []*dicom.Element {
	info, err := tag.FindByName(name)
	if err != nil {
		return elements
	}
	kept := elements[:0]
	for _, e := range elements {
		if e.Tag != info.Tag {
			kept = append(kept, e)
		}
	}
	return kept
}

// stampLabel renders text in the top-left corner of an HU buffer. The
// glyphs are scaled up on wide images so they stay legible.
func stampLabel(hu []int, width, height int, text string, value int) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	textImg := image.NewAlpha(image.Rect(0, 0, textWidth, 13))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(color.Alpha{A: 255}),
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(11)},
	}
	drawer.DrawString(text)

	scale := width / 128
	if scale < 1 {
		scale = 1
	}
	scaled := image.NewAlpha(image.Rect(0, 0, textWidth*scale, 13*scale))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)

	const margin = 1
	b := scaled.Bounds()
	for sy := 0; sy < b.Dy(); sy++ {
		for sx := 0; sx < b.Dx(); sx++ {
			if scaled.AlphaAt(sx, sy).A < 128 {
				continue
			}
			x, y := margin+sx, margin+sy
			if x < width && y < height {
				hu[y*width+x] = value
			}
		}
	}
}

// writePhantomStructureSet writes the RTSTRUCT that outlines the phantom.
// Body and Spine span every slice. PTV covers the middle half of the series
// with an inner hole ring on its two central slices. PTV carries no display
// color.
func writePhantomStructureSet(ph *Phantom, opts PhantomOptions, shape phantomShape, common []*dicom.Element) error {
	sopUID := DeterministicUID(fmt.Sprintf("roiburn-phantom/%d/rtstruct", opts.Seed))

	type region struct {
		number int
		name   string
		color  []string
		rings  func(k int) [][]float64
	}
	n := len(ph.Slices)
	mid := n / 2
	circle := func(cx, cy, r float64, count int) func(z float64) []float64 {
		return func(z float64) []float64 {
			return ringCoords(count, z, func(t float64) (float64, float64) {
				return cx + r*math.Cos(t), cy + r*math.Sin(t)
			})
		}
	}
	body := func(z float64) []float64 {
		return ringCoords(48, z, func(t float64) (float64, float64) {
			return shape.bodyA * math.Cos(t), shape.bodyB * math.Sin(t)
		})
	}
	spine := circle(shape.spineX, shape.spineY, shape.spineR, 24)
	ptv := circle(shape.ptvX, shape.ptvY, shape.ptvR, 32)
	hole := circle(shape.ptvX, shape.ptvY, shape.holeR, 16)

	regions := []region{
		{1, ph.Regions[0], []string{"0", "128", "255"}, func(k int) [][]float64 {
			return [][]float64{body(ph.Slices[k].Z)}
		}},
		{2, ph.Regions[1], []string{"255", "255", "0"}, func(k int) [][]float64 {
			return [][]float64{spine(ph.Slices[k].Z)}
		}},
		{3, ph.Regions[2], nil, func(k int) [][]float64 {
			if k < n/4 || k >= n-n/4 {
				return nil
			}
			rings := [][]float64{ptv(ph.Slices[k].Z)}
			if k == mid || k == mid-1 {
				rings = append(rings, hole(ph.Slices[k].Z))
			}
			return rings
		}},
	}

	var roiItems, contourItems [][]*dicom.Element
	for _, r := range regions {
		roiItems = append(roiItems, []*dicom.Element{
			mustNewElement(util.ROINumber, []string{fmt.Sprintf("%d", r.number)}),
			mustNewElement(util.ROIName, []string{r.name}),
		})

		var contours [][]*dicom.Element
		for k, slice := range ph.Slices {
			for _, coords := range r.rings(k) {
				contours = append(contours, contourItem(slice.SOPInstanceUID, coords))
			}
		}
		// The body also outlines a slice that is not part of the series.
		if ph.StaleUID != "" && r.number == 1 {
			contours = append(contours, contourItem(ph.StaleUID, body(-opts.SliceThickness)))
		}

		item := []*dicom.Element{}
		if r.color != nil {
			item = append(item, mustNewElement(util.ROIDisplayColor, r.color))
		}
		item = append(item,
			mustNewElement(util.ContourSeq, contours),
			mustNewElement(util.ReferencedROINumber, []string{fmt.Sprintf("%d", r.number)}),
		)
		contourItems = append(contourItems, item)
	}

	elements := []*dicom.Element{
		mustNewElement(tag.MediaStorageSOPClassUID, []string{RTStructureSetStorage}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sopUID}),
		mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		mustNewElement(tag.SOPClassUID, []string{RTStructureSetStorage}),
		mustNewElement(tag.SOPInstanceUID, []string{sopUID}),
		mustNewElement(tag.Modality, []string{string(modalities.RTStruct)}),
		mustNewElement(tag.SeriesInstanceUID, []string{DeterministicUID(fmt.Sprintf("roiburn-phantom/%d/rtseries", opts.Seed))}),
		mustNewElement(tag.SeriesNumber, []string{"2"}),
		mustNewElement(util.StructureSetLabel, []string{"PHANTOM"}),
		mustNewElement(util.StructureSetROISeq, roiItems),
		mustNewElement(util.ROIContourSeq, contourItems),
	}
	elements = append(elements, common...)

	return writeDatasetToFile(ph.StructureSetPath, dicom.Dataset{Elements: elements})
}

// contourItem builds one CLOSED_PLANAR contour on the referenced slice.
func contourItem(sopUID string, coords []float64) []*dicom.Element {
	data := make([]string, len(coords))
	for i, c := range coords {
		data[i] = floatToDS(c)
	}
	return []*dicom.Element{
		mustNewElement(util.ContourImageSeq, [][]*dicom.Element{{
			mustNewElement(util.ReferencedSOPClass, []string{CTImageStorage}),
			mustNewElement(util.ReferencedSOPInstance, []string{sopUID}),
		}}),
		mustNewElement(util.ContourGeometricType, []string{"CLOSED_PLANAR"}),
		mustNewElement(util.NumberOfContourPoints, []string{fmt.Sprintf("%d", len(coords)/3)}),
		mustNewElement(util.ContourData, data),
	}
}

// ringCoords samples a closed parametric curve into flat x,y,z triples.
func ringCoords(count int, z float64, at func(t float64) (float64, float64)) []float64 {
	coords := make([]float64, 0, count*3)
	for i := 0; i < count; i++ {
		x, y := at(2 * math.Pi * float64(i) / float64(count))
		coords = append(coords, x, y, z)
	}
	return coords
}

// writeDatasetToFile writes a DICOM dataset to a file, top-level elements
// in ascending tag order.
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	sort.SliceStable(ds.Elements, func(i, j int) bool {
		a, b := ds.Elements[i].Tag, ds.Elements[j].Tag
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Element < b.Element
	})

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}

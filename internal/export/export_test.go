package export

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestNaming(t *testing.T) {
	assert.Equal(t, "PTV_1_2", Sanitize("  PTV 1/2 "))
	assert.Equal(t, "a.b-c_d", Sanitize("a.b-c_d"))
	assert.Equal(t, "CT_011524_Burn", DefaultName("20240115", time.Time{}))
	assert.Equal(t, "CT_030925_Burn", DefaultName("", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "My_Set_A", FolderName("My Set  A"))
	assert.Equal(t, "My_Set__Spinal_cord", SeparateFolder("My Set", "Spinal cord"))
	assert.Equal(t, "CT_1__PTV_Spinal_cord.zip", ArchiveName("CT 1", []string{"PTV", "Spinal cord"}))
	assert.Equal(t, "CT_1__NoROI.zip", ArchiveName("CT 1", nil))
	assert.Equal(t, "Set | PTV | Body", Description("Set", []string{"PTV", "Body"}))
	assert.Equal(t, "Set", Description("Set", nil))
	assert.Equal(t, "Synthetic | Burned: PTV | Body", Derivation("Synthetic", []string{"PTV", "Body"}))
	assert.Equal(t, "Burned: PTV", Derivation("  ", []string{"PTV"}))
	assert.Equal(t, "kept", Derivation("kept", nil))
}

func TestWindow(t *testing.T) {
	c, w := Window([]float64{-1000, 0, 3000})
	assert.Equal(t, 1000.0, c)
	assert.Equal(t, 4000.0, w)

	c, w = Window([]float64{5, 5})
	assert.Equal(t, 5.0, c)
	assert.Equal(t, 1.0, w)
}

// burnedPhantom loads a phantom series and marks pixel 0 of every slice.
func burnedPhantom(t *testing.T, slices int) (*dicom.Phantom, *ct.Series) {
	t.Helper()
	ph, err := dicom.GeneratePhantom(dicom.PhantomOptions{
		OutputDir: t.TempDir(),
		Slices:    slices,
		Rows:      32,
		Columns:   40,
		Seed:      11,
		Quiet:     true,
	})
	require.NoError(t, err)

	var records []*dicom.Record
	for _, f := range ph.Slices {
		r, err := dicom.ReadRecord(f.Path)
		require.NoError(t, err)
		records = append(records, r)
	}
	series := ct.LoadSeries(context.Background(), records)
	out := make([]*ct.Slice, series.Len())
	for i, s := range series.Slices {
		px := append([]int16(nil), s.Stored...)
		px[0] = 3024 // 2000 HU
		out[i] = s.WithBurned(px)
	}
	return ph, ct.NewSeries(out)
}

func readExported(t *testing.T, dir string) []*dicom.Record {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []*dicom.Record
	for _, e := range entries {
		r, err := dicom.ReadRecord(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func TestExport_Combined(t *testing.T) {
	ph, series := burnedPhantom(t, 3)
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	var progress int
	e := NewExporter(Options{Quiet: true, Workers: 2, ProgressCallback: func(int, int) { progress++ }})
	res, err := e.Export(context.Background(), sink, Job{Regions: []string{"PTV", "Spinal cord"}, Series: series})
	require.NoError(t, err)

	assert.Equal(t, "CT_011524_Burn", res.Base)
	assert.Equal(t, []string{"CT_011524_Burn"}, res.Folders)
	assert.Equal(t, "CT_011524_Burn__PTV_Spinal_cord.zip", res.Archive)
	assert.Equal(t, 3, res.Written)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, 3, progress)

	dir := filepath.Join(sink.Root, "CT_011524_Burn")
	for i := 1; i <= 3; i++ {
		_, err := os.Stat(filepath.Join(dir, fmt.Sprintf(FileNameFormat, i)))
		assert.NoError(t, err)
	}

	records := readExported(t, dir)
	require.Len(t, records, 3)
	sops := map[string]bool{}
	for i, r := range records {
		sop := r.SOPInstanceUID()
		assert.NotEqual(t, ph.Slices[i].SOPInstanceUID, sop)
		assert.Equal(t, sop, r.String(tag.MediaStorageSOPInstanceUID))
		assert.LessOrEqual(t, len(sop), dicom.MaxUIDLength)
		sops[sop] = true

		assert.NotEqual(t, ph.StudyUID, r.String(tag.StudyInstanceUID))
		assert.Equal(t, records[0].String(tag.StudyInstanceUID), r.String(tag.StudyInstanceUID))
		assert.Equal(t, records[0].String(tag.SeriesInstanceUID), r.String(tag.SeriesInstanceUID))
		assert.NotEqual(t, ph.FrameOfReferenceUID, r.String(tag.FrameOfReferenceUID))

		assert.Equal(t, "CT_011524_Burn | PTV | Spinal cord", r.String(tag.SeriesDescription))
		assert.Equal(t, "YES", r.String(util.BurnedInAnnotation))
		assert.Equal(t, "Synthetic phantom | Burned: PTV | Spinal cord", r.String(util.DerivationDescription))

		px, err := r.PixelInt16()
		require.NoError(t, err)
		assert.Equal(t, int16(3024), px[0])
		assert.Equal(t, series.Slices[i].Burned, px)
		assert.Len(t, r.Bytes(), len(series.Slices[i].Record.Bytes()), "layout is unchanged")
	}
	assert.Len(t, sops, 3)
}

func TestExport_Separate(t *testing.T) {
	_, series := burnedPhantom(t, 2)
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	e := NewExporter(Options{Name: "Plan A", Separate: true, Quiet: true})
	res, err := e.Export(context.Background(), sink,
		Job{Regions: []string{"PTV"}, Series: series},
		Job{Regions: []string{"Spine"}, Series: series},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan_A__PTV", "Plan_A__Spine"}, res.Folders)
	assert.Equal(t, "Plan_A__PTV_Spine.zip", res.Archive)
	assert.Equal(t, 4, res.Written)

	ptv := readExported(t, filepath.Join(sink.Root, "Plan_A__PTV"))
	spine := readExported(t, filepath.Join(sink.Root, "Plan_A__Spine"))
	require.Len(t, ptv, 2)
	require.Len(t, spine, 2)
	assert.Equal(t, "Plan A | PTV", ptv[0].String(tag.SeriesDescription))
	assert.Equal(t, "Burned: Spine", spine[1].String(util.DerivationDescription))
	assert.NotEqual(t, ptv[0].String(tag.SeriesInstanceUID), spine[0].String(tag.SeriesInstanceUID))

	_, err = e.Export(context.Background(), sink, Job{Regions: []string{"PTV", "Spine"}, Series: series})
	assert.Error(t, err)
}

func TestExport_SkipsUnburned(t *testing.T) {
	_, series := burnedPhantom(t, 3)
	slices := append([]*ct.Slice(nil), series.Slices...)
	slices[1] = slices[1].WithBurned(nil)
	memory := ct.NewSlice("memory", 2, 2, []int16{0, 0, 0, 0})
	memory.Plane.Origin.Z = 100
	slices = append(slices, memory.WithBurned([]int16{1, 1, 1, 1}))

	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)
	res, err := NewExporter(Options{Name: "S", Quiet: true}).Export(context.Background(), sink, Job{Series: ct.NewSeries(slices)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "S__NoROI.zip", res.Archive)

	entries, err := os.ReadDir(filepath.Join(sink.Root, "S"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"CT_0001.dcm", "CT_0003.dcm"}, names, "files keep their series position")
}

func TestExport_RecomputeWindow(t *testing.T) {
	_, series := burnedPhantom(t, 1)
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)
	_, err = NewExporter(Options{Name: "W", RecomputeWindow: true, Quiet: true}).Export(context.Background(), sink, Job{Regions: []string{"PTV"}, Series: series})
	require.NoError(t, err)

	records := readExported(t, filepath.Join(sink.Root, "W"))
	require.Len(t, records, 1)
	s := series.Slices[0]
	center, width := Window(s.ToHU(s.Burned))
	assert.InDelta(t, center, records[0].Float(tag.WindowCenter, 0), 0.5)
	assert.InDelta(t, width, records[0].Float(tag.WindowWidth, 0), 0.5)
}

func TestExport_Zip(t *testing.T) {
	_, series := burnedPhantom(t, 2)
	path := filepath.Join(t.TempDir(), "out", ArchiveName("Z", []string{"PTV"}))
	sink, err := NewZipSink(path)
	require.NoError(t, err)
	_, err = NewExporter(Options{Name: "Z", Quiet: true}).Export(context.Background(), sink, Job{Regions: []string{"PTV"}, Series: series})
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"Z/CT_0001.dcm", "Z/CT_0002.dcm"}, names)
}

func TestExport_Cancelled(t *testing.T) {
	_, series := burnedPhantom(t, 2)
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewExporter(Options{Quiet: true}).Export(ctx, sink, Job{Series: series})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Written)
}

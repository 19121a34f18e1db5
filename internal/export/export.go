// Package export writes burned series as patched copies of the original
// slice files. Identifiers, descriptions and the pixel payload are
// overwritten in place, bounded by the width of each existing field, so
// the container layout never changes.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/dicom"
	"github.com/mrsinham/roiburn/internal/util"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gonum.org/v1/gonum/floats"
)

// FileNameFormat names exported slices by 1-based position.
const FileNameFormat = "CT_%04d.dcm"

// Options configures an export.
type Options struct {
	Name             string // image set name; empty derives one from the study date
	Separate         bool   // one folder per region instead of one combined folder
	RecomputeWindow  bool   // rewrite WindowCenter/WindowWidth from the burned range
	Workers          int    // parallel patch workers (0 = CPU count)
	Quiet            bool   // suppress progress output
	ProgressCallback func(current, total int)
}

// Job is one burned configuration: the series burned with Regions.
type Job struct {
	Regions []string
	Series  *ct.Series
}

// Result summarizes what an export wrote.
type Result struct {
	Base    string
	Archive string
	Folders []string
	Written int
	Skipped int
}

// Exporter patches burned slices into a sink.
type Exporter struct {
	opts   Options
	newUID func(maxLen int) string
	now    func() time.Time
}

// NewExporter returns an exporter generating random 2.25 UIDs.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts, newUID: dicom.NewUID, now: time.Now}
}

// BaseName returns the configured image set name, or the default derived
// from the first slice's study date.
func (e *Exporter) BaseName(series *ct.Series) string {
	if name := strings.TrimSpace(e.opts.Name); name != "" {
		return name
	}
	date := ""
	if first := series.First(); first != nil {
		date = first.StudyDate
	}
	return DefaultName(date, e.now())
}

// Export writes every job to sink. In separate mode each job must carry
// exactly one region. Slices without a burned array or a source record are
// skipped and counted. The sink is not closed.
func (e *Exporter) Export(ctx context.Context, sink Sink, jobs ...Job) (*Result, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	res := &Result{Base: e.BaseName(jobs[0].Series)}

	var all []string
	var tasks []patchTask
	for _, job := range jobs {
		all = append(all, job.Regions...)
		folder, fields, err := e.plan(res.Base, job)
		if err != nil {
			return nil, err
		}
		res.Folders = append(res.Folders, folder)
		for i, s := range job.Series.Slices {
			if s.Record == nil || s.Burned == nil {
				res.Skipped++
				continue
			}
			tasks = append(tasks, patchTask{
				slice:  s,
				folder: folder,
				name:   fmt.Sprintf(FileNameFormat, i+1),
				fields: fields,
			})
		}
	}
	res.Archive = ArchiveName(res.Base, all)

	written, err := e.run(ctx, sink, tasks)
	res.Written = written
	res.Skipped += len(tasks) - written
	if err != nil {
		return res, err
	}
	if !e.opts.Quiet {
		fmt.Printf("✓ %d files exported to %s\n", res.Written, strings.Join(res.Folders, ", "))
	}
	return res, nil
}

// folderFields are the values shared by every slice of one folder.
type folderFields struct {
	study, series, frame string
	description          string
	derivation           func(existing string) string
}

func (e *Exporter) plan(base string, job Job) (string, folderFields, error) {
	first := firstRecord(job.Series)
	width := func(t tag.Tag) int {
		if first == nil {
			return dicom.MaxUIDLength
		}
		if w := dicom.NewPatcher(first).Width(t); w > 0 {
			return w
		}
		return dicom.MaxUIDLength
	}
	f := folderFields{
		study:  e.newUID(width(tag.StudyInstanceUID)),
		series: e.newUID(width(tag.SeriesInstanceUID)),
		frame:  e.newUID(width(tag.FrameOfReferenceUID)),
	}

	if e.opts.Separate {
		if len(job.Regions) != 1 {
			return "", f, fmt.Errorf("separate export needs one region per series, got %d", len(job.Regions))
		}
		region := job.Regions[0]
		f.description = base + " | " + region
		f.derivation = func(string) string { return "Burned: " + region }
		return SeparateFolder(base, region), f, nil
	}

	regions := append([]string(nil), job.Regions...)
	f.description = Description(base, regions)
	f.derivation = func(existing string) string { return Derivation(existing, regions) }
	return FolderName(base), f, nil
}

func firstRecord(s *ct.Series) *dicom.Record {
	for _, sl := range s.Slices {
		if sl.Record != nil {
			return sl.Record
		}
	}
	return nil
}

type patchTask struct {
	slice  *ct.Slice
	folder string
	name   string
	fields folderFields
}

// run patches tasks in parallel and hands each buffer to the sink. A patch
// failure skips the slice; a sink failure aborts the export.
func (e *Exporter) run(ctx context.Context, sink Sink, tasks []patchTask) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	numWorkers := e.opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}
	if !e.opts.Quiet {
		fmt.Printf("Exporting %d slices with %d parallel workers...\n", len(tasks), numWorkers)
	}

	type result struct {
		index   int
		skipped bool
		err     error
	}
	taskChan := make(chan int, len(tasks))
	resultChan := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				if err := ctx.Err(); err != nil {
					resultChan <- result{index: i, err: err}
					continue
				}
				t := tasks[i]
				data, err := e.patch(ctx, t)
				if err != nil {
					slog.WarnContext(ctx, "skipping slice on export", "uid", t.slice.UID, "file", t.name, "error", err)
					resultChan <- result{index: i, skipped: true}
					continue
				}
				resultChan <- result{index: i, err: sink.Put(t.folder, t.name, data)}
			}
		}()
	}
	for i := range tasks {
		taskChan <- i
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed, written := 0, 0
	var firstErr error
	for r := range resultChan {
		switch {
		case r.err != nil:
			if firstErr == nil {
				firstErr = fmt.Errorf("export %s: %w", tasks[r.index].name, r.err)
			}
		case !r.skipped:
			written++
		}
		completed++
		if e.opts.ProgressCallback != nil {
			e.opts.ProgressCallback(completed, len(tasks))
		}
	}
	return written, firstErr
}

// patch returns the slice's original bytes with the burned pixels and new
// identifiers written in place.
func (e *Exporter) patch(ctx context.Context, t patchTask) ([]byte, error) {
	s := t.slice
	p := dicom.NewPatcher(s.Record)
	if err := p.PutPixels(s.Burned); err != nil {
		return nil, err
	}

	sopWidth := p.Width(tag.SOPInstanceUID)
	if w := p.Width(tag.MediaStorageSOPInstanceUID); w > 0 && (sopWidth == 0 || w < sopWidth) {
		sopWidth = w
	}
	sop := e.newUID(sopWidth)

	uids := []struct {
		t   tag.Tag
		uid string
	}{
		{tag.StudyInstanceUID, t.fields.study},
		{tag.SeriesInstanceUID, t.fields.series},
		{tag.FrameOfReferenceUID, t.fields.frame},
		{tag.SOPInstanceUID, sop},
		{tag.MediaStorageSOPInstanceUID, sop},
	}
	for _, u := range uids {
		if p.Has(u.t) {
			if _, err := p.PutUID(u.t, u.uid); err != nil {
				return nil, err
			}
		}
	}

	if p.Has(tag.SeriesDescription) {
		if _, err := p.PutText(tag.SeriesDescription, t.fields.description); err != nil {
			return nil, err
		}
	}
	// "YES" is written only where it fits whole.
	if p.Width(util.BurnedInAnnotation) >= len("YES") {
		if _, err := p.PutText(util.BurnedInAnnotation, "YES"); err != nil {
			return nil, err
		}
	}
	if p.Has(util.DerivationDescription) {
		text := t.fields.derivation(s.Record.String(util.DerivationDescription))
		if _, err := p.PutText(util.DerivationDescription, text); err != nil {
			return nil, err
		}
	}

	if e.opts.RecomputeWindow {
		center, width := Window(s.ToHU(s.Burned))
		putDS(ctx, p, tag.WindowCenter, center)
		putDS(ctx, p, tag.WindowWidth, width)
	}
	return p.Bytes(), nil
}

// Window returns a display window covering the full intensity range.
func Window(hu []float64) (center, width float64) {
	if len(hu) == 0 {
		return 0, 1
	}
	lo, hi := floats.Min(hu), floats.Max(hu)
	return (lo + hi) / 2, max(1, hi-lo)
}

// putDS writes a decimal string only when it fits the existing field.
func putDS(ctx context.Context, p *dicom.Patcher, t tag.Tag, v float64) {
	s := strconv.FormatFloat(v, 'g', 6, 64)
	if w := p.Width(t); w < len(s) {
		slog.DebugContext(ctx, "window value does not fit in place", "tag", t.String(), "value", s, "width", w)
		return
	}
	if _, err := p.PutText(t, s); err != nil {
		slog.DebugContext(ctx, "window value not written", "tag", t.String(), "error", err)
	}
}

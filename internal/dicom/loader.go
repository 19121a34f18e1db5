package dicom

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/mrsinham/roiburn/internal/dicom/modalities"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrNoMatch is returned when no CT series can be paired with a structure set.
var ErrNoMatch = errors.New("no matching CT series and structure set")

// LoadOptions controls directory loading.
type LoadOptions struct {
	Workers          int                      // Number of parallel parsers (0 = CPU count)
	ProgressCallback func(current, total int) // Optional callback after each file
}

// Study is every CT and RTSTRUCT record found under a directory.
type Study struct {
	Dir        string
	Series     map[string][]*Record // CT records keyed by SeriesInstanceUID
	Structures []*StructureSet
	Skipped    []string // Files that were not DICOM or not CT/RTSTRUCT
}

// Match is a CT series paired with the structure set that outlines it.
type Match struct {
	SeriesUID string
	Slices    []*Record
	Structure *StructureSet
	Overlap   int // Number of series slices referenced by the structure set
}

// LoadDir parses every regular file under dir in parallel. Files that do
// not parse, and objects other than CT and RTSTRUCT, are recorded in
// Skipped and never fail the load.
func LoadDir(ctx context.Context, dir string, opts LoadOptions) (*Study, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	type result struct {
		index  int
		record *Record
		err    error
	}
	pathChan := make(chan int, len(paths))
	resultChan := make(chan result, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range pathChan {
				if ctx.Err() != nil {
					resultChan <- result{index: i, err: ctx.Err()}
					continue
				}
				r, err := ReadRecord(paths[i])
				resultChan <- result{index: i, record: r, err: err}
			}
		}()
	}
	for i := range paths {
		pathChan <- i
	}
	close(pathChan)
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	records := make([]*Record, len(paths))
	completed := 0
	for res := range resultChan {
		if res.err != nil {
			slog.DebugContext(ctx, "skipping unreadable file", "path", paths[res.index], "error", res.err)
		}
		records[res.index] = res.record
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(paths))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	study := &Study{Dir: dir, Series: make(map[string][]*Record)}
	for i, r := range records {
		if r == nil {
			study.Skipped = append(study.Skipped, paths[i])
			continue
		}
		switch modalities.Modality(r.Modality()) {
		case modalities.CT:
			uid := r.String(tag.SeriesInstanceUID)
			study.Series[uid] = append(study.Series[uid], r)
		case modalities.RTStruct:
			ss, err := ParseStructureSet(r)
			if err != nil {
				slog.WarnContext(ctx, "skipping structure set", "path", r.Path, "error", err)
				study.Skipped = append(study.Skipped, r.Path)
				continue
			}
			study.Structures = append(study.Structures, ss)
		default:
			study.Skipped = append(study.Skipped, r.Path)
		}
	}
	return study, nil
}

// SeriesUIDs returns the CT series UIDs in sorted order.
func (s *Study) SeriesUIDs() []string {
	uids := make([]string, 0, len(s.Series))
	for uid := range s.Series {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// Match pairs a structure set with the CT series holding the most slices it
// references. When no structure set references any loaded slice, a series
// from the same study is used instead.
func (s *Study) Match() (*Match, error) {
	if len(s.Series) == 0 {
		return nil, fmt.Errorf("%w: no CT images in %s", ErrNoMatch, s.Dir)
	}
	if len(s.Structures) == 0 {
		return nil, fmt.Errorf("%w: no structure set in %s", ErrNoMatch, s.Dir)
	}

	var best *Match
	for _, ss := range s.Structures {
		refs := ss.ReferencedSlices()
		for _, uid := range s.SeriesUIDs() {
			overlap := 0
			for _, r := range s.Series[uid] {
				if refs[r.SOPInstanceUID()] {
					overlap++
				}
			}
			if overlap > 0 && (best == nil || overlap > best.Overlap) {
				best = &Match{SeriesUID: uid, Slices: s.Series[uid], Structure: ss, Overlap: overlap}
			}
		}
	}
	if best != nil {
		return best, nil
	}

	for _, ss := range s.Structures {
		if ss.StudyUID == "" {
			continue
		}
		for _, uid := range s.SeriesUIDs() {
			slices := s.Series[uid]
			if slices[0].String(tag.StudyInstanceUID) == ss.StudyUID {
				return &Match{SeriesUID: uid, Slices: slices, Structure: ss}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: structure set references no loaded CT slice", ErrNoMatch)
}

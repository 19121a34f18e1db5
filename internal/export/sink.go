package export

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink receives exported files. Put may be called from several goroutines.
type Sink interface {
	Put(folder, name string, data []byte) error
	Close() error
}

// DirSink writes files under Root/<folder>/<name>.
type DirSink struct {
	Root string
}

// NewDirSink creates root if needed.
func NewDirSink(root string) (*DirSink, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirSink{Root: root}, nil
}

// Put writes one file, creating its folder.
func (s *DirSink) Put(folder, name string, data []byte) error {
	dir := filepath.Join(s.Root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create folder %s: %w", folder, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("write %s/%s: %w", folder, name, err)
	}
	return nil
}

// Close is a no-op.
func (s *DirSink) Close() error { return nil }

// ZipSink writes every file into one archive at maximum deflate level.
type ZipSink struct {
	Path string

	mu  sync.Mutex
	f   *os.File
	zw  *zip.Writer
	now time.Time
}

// NewZipSink creates the archive file at path.
func NewZipSink(path string) (*ZipSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	return &ZipSink{Path: path, f: f, zw: zw, now: time.Now()}, nil
}

// Put adds folder/name to the archive. Entries are written one at a time.
func (s *ZipSink) Put(folder, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     folder + "/" + name,
		Method:   zip.Deflate,
		Modified: s.now,
	})
	if err != nil {
		return fmt.Errorf("add %s/%s: %w", folder, name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s/%s: %w", folder, name, err)
	}
	return nil
}

// Close finishes the archive and closes the file.
func (s *ZipSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.zw.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("finish archive: %w", err)
	}
	return s.f.Close()
}

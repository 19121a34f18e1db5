package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("study", "s1"))
	ctx = AppendCtx(ctx, slog.Int("slices", 3))
	log.InfoContext(ctx, "loaded")
	log.DebugContext(ctx, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "loaded", rec["msg"])
	assert.Equal(t, "s1", rec["study"])
	assert.Equal(t, 3.0, rec["slices"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	Logger(&buf, false, slog.LevelDebug).With("component", "burn").Debug("slice skipped", "uid", "1.2")
	assert.Contains(t, buf.String(), "component=burn")
	assert.Contains(t, buf.String(), "uid=1.2")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{" WARN ", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roiburn.log")
	w := FileWriter(path, 1, 2)
	Logger(w, false, slog.LevelInfo).Info("written")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=written")
}

package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{" Error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOpenLogFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.log")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0o644))

	f, err := OpenLogFile(path)
	require.NoError(t, err)
	defer f.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size(), "log file should be truncated on open")
}

func TestDualLoggerJSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.log")
	f, err := OpenLogFile(path)
	require.NoError(t, err)

	logger := NewDualLogger("nvml-tune", "test", slog.LevelInfo, f)
	logger.Info("set fan duty", "duty", 42)
	logger.Debug("suppressed at info level")
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	var records []map[string]any
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, sc.Err())

	require.Len(t, records, 1)
	rec := records[0]
	require.Equal(t, "set fan duty", rec["msg"])
	require.Equal(t, "INFO", rec["level"])
	require.Equal(t, "nvml-tune", rec["module"])
	require.Equal(t, "test", rec["version"])
	require.NotEmpty(t, rec["run"])
	require.Equal(t, float64(42), rec["duty"])
}

func TestSetDefaultInstallsDualLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := SetDefault("nvml-tune", "test", slog.LevelWarn, nil)
	require.Same(t, logger, slog.Default())
	require.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	require.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

func TestDualLoggerNilSink(t *testing.T) {
	// Text-only logging must still work before the log file exists.
	logger := NewDualLogger("nvml-tune", "test", slog.LevelInfo, nil)
	logger.Info("stderr only")
}

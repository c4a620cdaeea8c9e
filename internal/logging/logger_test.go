package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileCores(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{Level: "debug", App: "test", Dir: dir, File: true})
	l.Debug("debug line")
	l.Error("error line")
	_ = l.Sync()

	all, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("read main log: %v", err)
	}
	if !strings.Contains(string(all), "debug line") || !strings.Contains(string(all), "error line") {
		t.Errorf("main log = %q", all)
	}

	errs, err := os.ReadFile(filepath.Join(dir, "test_error.log"))
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if strings.Contains(string(errs), "debug line") || !strings.Contains(string(errs), "ERROR") {
		t.Errorf("error log = %q", errs)
	}
}

func TestInvalidLevelFallsBack(t *testing.T) {
	l := New(Config{Level: "loud"})
	if !l.Core().Enabled(zap.InfoLevel) || l.Core().Enabled(zap.DebugLevel) {
		t.Error("invalid level should fall back to info")
	}
}

func TestWailsAdapter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := NewWails(zap.New(core))
	w.Trace("t")
	w.Warning("w")
	w.Fatal("f")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	want := []zapcore.Level{zap.DebugLevel, zap.WarnLevel, zap.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d level = %s, want %s", i, e.Level, want[i])
		}
		if e.LoggerName != "wails" {
			t.Errorf("logger name = %q", e.LoggerName)
		}
	}
}

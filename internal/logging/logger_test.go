package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitialize_Disabled(t *testing.T) {
	if err := Initialize("", Options{Enabled: false}); err != nil {
		t.Fatalf("Initialize disabled: %v", err)
	}
	defer Shutdown()

	l := Get(CategorySelection)
	if l == nil {
		t.Fatal("Get returned nil")
	}
	// Must not panic on a no-op logger
	l.Debug("ignored %d", 1)
	l.Info("ignored")
	l.Error("ignored")
}

func TestInitialize_WritesCategoryFile(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws, Options{Enabled: true, Level: "debug"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Shutdown()

	Get(CategoryFlow).Info("phase changed: %s -> %s", "exploring", "deepening")
	Shutdown()

	data, err := os.ReadFile(filepath.Join(ws, ".inquisit", "logs", "flow.log"))
	if err != nil {
		t.Fatalf("reading flow.log: %v", err)
	}
	if !strings.Contains(string(data), "exploring -> deepening") {
		t.Errorf("log file missing message, got: %s", data)
	}
}

func TestCategoryFilter(t *testing.T) {
	ws := t.TempDir()
	err := Initialize(ws, Options{
		Enabled:    true,
		Level:      "debug",
		Categories: map[string]bool{"scoring": false},
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Shutdown()

	Get(CategoryScoring).Info("should be dropped")
	Shutdown()

	if _, err := os.Stat(filepath.Join(ws, ".inquisit", "logs", "scoring.log")); !os.IsNotExist(err) {
		t.Error("scoring.log should not exist for a disabled category")
	}
}

func TestTimer(t *testing.T) {
	if err := Initialize("", Options{Enabled: false}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Shutdown()

	timer := StartTimer(CategorySelection, "SelectBest")
	d := timer.Stop()
	if d < 0 {
		t.Errorf("negative duration: %v", d)
	}
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scale-tui.log")
	logger, err := New(path, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("poll started", zap.String("view", "jobs"))
	logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"view":"jobs"`) {
		t.Errorf("log = %s", data)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "x.log"), "loud"); err == nil {
		t.Error("unknown level accepted")
	}
}

func TestEmptyPathDisables(t *testing.T) {
	logger, err := New("", "info")
	if err != nil || logger == nil {
		t.Fatalf("New = %v, %v", logger, err)
	}
}

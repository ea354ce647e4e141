package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitWritesLevelTaggedLines(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "umbrasol.log")
	if err := Init(logFile, "debug", false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Infof("system online pid=%d", 1234)
	Warnf("crash detected on startup")
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "system online pid=1234") {
		t.Errorf("missing info line, got: %s", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "crash detected") {
		t.Errorf("missing warn line, got: %s", out)
	}
}

func TestUninitializedLoggerIsSafe(t *testing.T) {
	// Must not panic before Init.
	mu.Lock()
	logger = zap.NewNop()
	sugar = logger.Sugar()
	mu.Unlock()
	Debugf("no-op %s", "ok")
	Errorf("no-op")
}

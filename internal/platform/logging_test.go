package platform

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := NewLogger(&buf, LogOptions{})
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("shown", "id", "a.md")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged without verbose: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "id=a.md") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := NewLogger(&buf, LogOptions{JSON: true, Verbose: true})
	logger.Debug("details")

	if !strings.Contains(buf.String(), `"msg":"details"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "noterelay.log")
	var buf bytes.Buffer
	logger, closer := NewLogger(&buf, LogOptions{File: path})

	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("writer should be unused when logging to a file, got %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("unexpected log file content: %q", data)
	}
}

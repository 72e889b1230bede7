package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModeFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetMode(InfoMode)

	SetMode(WarningMode)
	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warningf("warning %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("Expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, " WARNING warning 3") {
		t.Errorf("Expected warning line, got %q", out)
	}
	if !strings.Contains(out, " ERROR error 4") {
		t.Errorf("Expected error line, got %q", out)
	}

	buf.Reset()
	SetVerbose(true)
	Debugf("now visible")
	if !strings.Contains(buf.String(), " DEBUG now visible") {
		t.Errorf("Expected debug line in verbose mode, got %q", buf.String())
	}
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyperstack.log")
	Setup(Config{File: path, MaxSize: 1})
	Infof("written to %s", "file")
	Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), " INFO written to file") {
		t.Errorf("Expected log line in file, got %q", data)
	}
}

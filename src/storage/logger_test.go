package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesLeveledEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.Info("pipeline started")
	logger.Error("something went wrong")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "INFO: pipeline started") {
		t.Errorf("missing info entry in: %s", content)
	}
	if !strings.Contains(content, "ERROR: something went wrong") {
		t.Errorf("missing error entry in: %s", content)
	}
}

func TestLoggerSubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	ch := logger.Subscribe()
	logger.Warning("dataset updated")

	select {
	case msg := <-ch:
		if !strings.Contains(msg, "WARNING: dataset updated") {
			t.Errorf("unexpected message: %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestLoggerReopen(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	logger, err := NewLogger(first)
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	logger.Info("before reopen")
	if err := logger.Reopen(second); err != nil {
		t.Fatal(err)
	}
	logger.Info("after reopen")

	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "after reopen") {
		t.Errorf("second log missing entry: %s", data)
	}
}

func TestLogLevelString(t *testing.T) {
	cases := map[LogLevel]string{
		DEBUG:   "DEBUG",
		INFO:    "INFO",
		WARNING: "WARNING",
		ERROR:   "ERROR",
		FATAL:   "FATAL",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("level %d: got %s, want %s", level, got, want)
		}
	}
}

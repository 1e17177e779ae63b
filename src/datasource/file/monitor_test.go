package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetMonitorBadDirectory(t *testing.T) {
	_, err := NewDatasetMonitor(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestDatasetMonitorRunsHandlerSequentially(t *testing.T) {
	dir := t.TempDir()
	monitor, err := NewDatasetMonitor(dir)
	require.NoError(t, err)

	// seen is written by the handler without a lock: the handler runs in
	// the watch loop itself, so invocations never overlap
	var seen []string
	done := make(chan string, 4)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = monitor.Watch(func(path string) {
			seen = append(seen, path)
			done <- path
		})
	}()

	target := filepath.Join(dir, "dom_citypairs.csv")
	require.NoError(t, os.WriteFile(target, []byte("Month,City1\n2005-01,SYDNEY\n"), 0644))

	select {
	case got := <-done:
		assert.Equal(t, target, got)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not invoked for first write")
	}

	time.Sleep(50 * time.Millisecond) // distinct mtime for the rewrite
	require.NoError(t, os.WriteFile(target, []byte("Month,City1\n2005-02,SYDNEY\n"), 0644))

	select {
	case got := <-done:
		assert.Equal(t, target, got)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not invoked for rewrite")
	}

	require.NoError(t, monitor.Close())
	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("watch loop did not stop after close")
	}
	assert.Len(t, seen, 2)
}

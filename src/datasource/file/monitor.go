// monitor.go
package file

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DatasetMonitor watches the data directory and invokes a handler when a
// dataset file is rewritten, so the pipeline re-runs on fresh monthly data.
type DatasetMonitor struct {
	watchDir string
	watcher  *fsnotify.Watcher
	lastFile string
	lastMod  time.Time
	mu       sync.Mutex
}

func NewDatasetMonitor(dir string) (*DatasetMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		return nil, err
	}

	return &DatasetMonitor{
		watchDir: dir,
		watcher:  watcher,
	}, nil
}

func (m *DatasetMonitor) Watch(handler func(string)) error {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				info, err := os.Stat(event.Name)
				if err != nil {
					continue
				}

				m.mu.Lock()
				fresh := info.ModTime().After(m.lastMod)
				if fresh {
					m.lastMod = info.ModTime()
					m.lastFile = event.Name
				}
				m.mu.Unlock()

				// synchronous: one run finishes before the next event is
				// taken, so overlapping writes never race on output files
				if fresh {
					handler(event.Name)
				}
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *DatasetMonitor) Close() error {
	return m.watcher.Close()
}

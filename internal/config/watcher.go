package config

import (
	"os"
	"sync"
	"time"
)

// Watcher polls a set of files at a configurable interval.
// It uses modification times (mtime) to detect changes and debounces
// rapid successive changes into a single callback invocation, which
// receives the paths that changed.
type Watcher struct {
	files             []string
	interval          time.Duration
	callback          func(changed []string)
	lastModTimes      map[string]time.Time
	stop              chan struct{}
	done              chan struct{}
	mu                sync.Mutex
	lastGlobalTrigger time.Time
}

// NewWatcher creates a new Watcher for the provided files with the given interval.
// If interval is zero or negative, a default of 15 seconds is used.
// Missing files are tolerated and picked up once they appear.
func NewWatcher(interval time.Duration, files ...string) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	w := &Watcher{
		files:        files,
		interval:     interval,
		lastModTimes: make(map[string]time.Time),
	}
	for _, f := range files {
		w.lastModTimes[f] = modTime(f)
	}
	return w
}

func modTime(path string) time.Time {
	if fi, err := os.Stat(path); err == nil {
		return fi.ModTime()
	}
	return time.Time{}
}

// OnChange registers the callback invoked when watched files change.
func (w *Watcher) OnChange(callback func(changed []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
}

// Start begins watching in a background goroutine. Starting twice is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(w.stop, w.done)
}

// Stop terminates the watcher goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (w *Watcher) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.checkChanges(time.Now())
		}
	}
}

// checkChanges compares mtimes with the last seen values and fires the
// callback once per debounced burst.
func (w *Watcher) checkChanges(now time.Time) {
	w.mu.Lock()
	var changed []string
	for _, path := range w.files {
		cur := modTime(path)
		if cur.IsZero() {
			continue
		}
		if cur.After(w.lastModTimes[path]) {
			w.lastModTimes[path] = cur
			changed = append(changed, path)
		}
	}

	var cb func([]string)
	if len(changed) > 0 {
		if w.lastGlobalTrigger.IsZero() || now.Sub(w.lastGlobalTrigger) >= w.interval {
			w.lastGlobalTrigger = now
			cb = w.callback
		}
	}
	w.mu.Unlock()

	// outside the lock: the callback may call back into the watcher
	if cb != nil {
		cb(changed)
	}
}

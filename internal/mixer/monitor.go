package mixer

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/user/alsamixer-volume/internal/logging"
	"github.com/user/alsamixer-volume/internal/sse"
)

// DefaultPollInterval is how often the monitor reads the control.
const DefaultPollInterval = 500 * time.Millisecond

// Source is the read side of a mixer.
type Source interface {
	GetVolume() (int, bool, error)
	GetMute() (bool, bool, error)
}

// Hub interface for broadcasting events
type Hub interface {
	Broadcast(event sse.Event)
}

// State is one reading of the control. A nil field is absent.
type State struct {
	Volume *int
	Muted  *bool
}

func (s State) String() string {
	return fmt.Sprintf("volume %s, muted %s", formatPtr(s.Volume), formatPtr(s.Muted))
}

// Monitor watches the mixer control for changes made by other programs
// and broadcasts them via SSE.
type Monitor struct {
	src      Source
	hub      Hub
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu        sync.Mutex
	lastState *State

	watcher *fsnotify.Watcher
}

// NewMonitor creates a monitor polling src every interval. monitorFile, if
// set and present, is watched for ALSA configuration edits.
func NewMonitor(src Source, hub Hub, interval time.Duration, monitorFile string) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	m := &Monitor{
		src:      src,
		hub:      hub,
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	if monitorFile == "" {
		return m
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warnf("failed to create file watcher: %v", err)
		return m
	}
	if _, err := os.Stat(monitorFile); err != nil {
		logging.Infof("config file not found: %s, skipping watch", monitorFile)
		watcher.Close()
		return m
	}
	if err := watcher.Add(monitorFile); err != nil {
		logging.Warnf("failed to watch %s: %v", monitorFile, err)
		watcher.Close()
		return m
	}
	m.watcher = watcher
	return m
}

// Start begins monitoring.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.pollLoop()
	if m.watcher != nil {
		m.wg.Add(1)
		go m.watchLoop()
	}
	logging.Infof("mixer monitor started (every %s)", m.interval)
}

// Stop halts monitoring and waits for the loops to exit. It is safe to
// call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.watcher != nil {
			m.watcher.Close()
		}
		m.wg.Wait()
		logging.Infof("mixer monitor stopped")
	})
}

// Last returns the most recent reading, or nil before the first poll.
func (m *Monitor) Last() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastState
}

func (m *Monitor) pollLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll()
	for {
		select {
		case <-ticker.C:
			m.Poll()
		case <-m.stopCh:
			return
		}
	}
}

// Poll reads the control once and broadcasts whatever changed since the
// previous reading. The first reading is broadcast in full.
func (m *Monitor) Poll() {
	cur, ok := m.read()
	if !ok {
		return
	}

	m.mu.Lock()
	last := m.lastState
	m.lastState = cur
	m.mu.Unlock()

	if last == nil || !equalPtr(last.Volume, cur.Volume) {
		logging.Debugf("volume changed to %s", formatPtr(cur.Volume))
		m.hub.Broadcast(sse.Event{Type: sse.TypeVolume, Data: map[string]any{"volume": cur.Volume}})
	}
	if last == nil || !equalPtr(last.Muted, cur.Muted) {
		logging.Debugf("mute changed to %s", formatPtr(cur.Muted))
		m.hub.Broadcast(sse.Event{Type: sse.TypeMute, Data: map[string]any{"muted": cur.Muted}})
	}
}

func (m *Monitor) read() (*State, bool) {
	st := &State{}
	volume, ok, err := m.src.GetVolume()
	if err != nil {
		logging.Warnf("monitor: read volume: %v", err)
		return nil, false
	}
	if ok {
		st.Volume = &volume
	}
	muted, ok, err := m.src.GetMute()
	if err != nil {
		logging.Debugf("monitor: read mute: %v", err)
	} else if ok {
		st.Muted = &muted
	}
	return st, true
}

// watchLoop broadcasts a config-change event when the ALSA configuration
// file is written or recreated.
func (m *Monitor) watchLoop() {
	defer m.wg.Done()

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logging.Infof("ALSA config file changed: %s", event.Name)
				m.hub.Broadcast(sse.Event{Type: sse.TypeConfig, Data: map[string]any{
					"path": event.Name,
				}})
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logging.Warnf("error watching config files: %v", err)
		case <-m.stopCh:
			return
		}
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatPtr[T any](p *T) string {
	if p == nil {
		return "unknown"
	}
	return fmt.Sprint(*p)
}

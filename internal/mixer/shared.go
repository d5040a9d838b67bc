package mixer

import (
	"sync"

	"github.com/user/alsamixer-volume/internal/config"
)

// Shared serialises access to a Controller so that the HTTP handlers, the
// monitor and the TUI can use one handle concurrently.
type Shared struct {
	mu sync.Mutex
	c  *Controller
}

// NewShared wraps c.
func NewShared(c *Controller) *Shared {
	return &Shared{c: c}
}

func (s *Shared) Target() Target { return s.c.Target() }

func (s *Shared) Config() config.AlsaMixer { return s.c.Config() }

func (s *Shared) GetVolume() (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.GetVolume()
}

func (s *Shared) SetVolume(volume int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.SetVolume(volume)
}

func (s *Shared) GetMute() (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.GetMute()
}

func (s *Shared) SetMute(muted bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.SetMute(muted)
}

func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Close()
}

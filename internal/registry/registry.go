// Package registry exposes the mixer to a host through named extension
// points.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/user/alsamixer-volume/internal/alsa"
	"github.com/user/alsamixer-volume/internal/config"
	"github.com/user/alsamixer-volume/internal/mixer"
)

// PointMixer is the extension point mixers register under.
const PointMixer = "mixer"

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Mixer is the operation surface a host drives.
type Mixer interface {
	GetVolume() (volume int, ok bool, err error)
	SetVolume(volume int) (bool, error)
	GetMute() (muted bool, ok bool, err error)
	SetMute(muted bool) (bool, error)
}

// Factory builds a mixer from a validated configuration.
type Factory func(cfg *config.Config) (Mixer, error)

// Registry maps extension points to the factories registered under them.
type Registry struct {
	mu     sync.RWMutex
	points map[string][]Factory
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{points: make(map[string][]Factory)}
}

// Add registers f under point.
func (r *Registry) Add(point string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[point] = append(r.points[point], f)
}

// Get returns the factories registered under point, in registration order.
func (r *Registry) Get(point string) []Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Factory(nil), r.points[point]...)
}

// Mixers returns the factories registered under PointMixer.
func (r *Registry) Mixers() []Factory {
	return r.Get(PointMixer)
}

// Points lists the extension points that have at least one factory.
func (r *Registry) Points() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	points := make([]string, 0, len(r.points))
	for p := range r.points {
		points = append(points, p)
	}
	sort.Strings(points)
	return points
}

// Extension registers the ALSA mixer with a host.
type Extension struct {
	Name    string
	Version string

	// Hardware backs every mixer the extension builds.
	Hardware alsa.Hardware
}

// NewExtension returns the alsamixer extension backed by hw.
func NewExtension(hw alsa.Hardware) *Extension {
	return &Extension{Name: config.Section, Version: Version, Hardware: hw}
}

// DefaultConfig returns the defaults of the extension's config section.
func (e *Extension) DefaultConfig() config.AlsaMixer {
	return config.DefaultAlsaMixer()
}

// Schema returns the validation the host runs on the section before any
// mixer is built.
func (e *Extension) Schema() func(config.AlsaMixer) error {
	return config.AlsaMixer.Validate
}

// Setup registers the mixer factory.
func (e *Extension) Setup(r *Registry) {
	r.Add(PointMixer, e.newMixer)
}

func (e *Extension) newMixer(cfg *config.Config) (Mixer, error) {
	if err := e.Schema()(cfg.AlsaMixer); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	c, err := mixer.New(cfg.AlsaMixer, e.Hardware)
	if err != nil {
		return nil, err
	}
	return mixer.NewShared(c), nil
}

var (
	_ Mixer = (*mixer.Controller)(nil)
	_ Mixer = (*mixer.Shared)(nil)
)

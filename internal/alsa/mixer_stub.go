//go:build !linux

package alsa

// Mixer is a no-op stub used on platforms where ALSA is not available.
type Mixer struct{}

// NewMixer creates a stub mixer.
func NewMixer() *Mixer { return &Mixer{} }

// ListCards returns ErrUnsupported.
func (m *Mixer) ListCards() ([]Card, error) { return nil, ErrUnsupported }

// Cards returns ErrUnsupported.
func (m *Mixer) Cards() ([]int, error) { return nil, ErrUnsupported }

// Controls returns ErrUnsupported.
func (m *Mixer) Controls(card int) ([]string, error) { return nil, ErrUnsupported }

// Open returns ErrUnsupported.
func (m *Mixer) Open(card int, control string) (Control, error) { return nil, ErrUnsupported }

// Close is a no-op for the stub mixer.
func (m *Mixer) Close() error { return nil }

// IsOpen always reports false for the stub mixer.
func (m *Mixer) IsOpen() bool { return false }

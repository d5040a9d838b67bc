// Package alsatest provides an in-memory alsa.Hardware for tests.
package alsatest

import (
	"fmt"
	"sync"

	"github.com/user/alsamixer-volume/internal/alsa"
)

// OpenCall records one Hardware.Open invocation.
type OpenCall struct {
	Card    int
	Control string
}

// Hardware is a fake mixer with canned cards and controls. The zero value
// has no cards; use New for a single card 0 exposing "Master".
//
// Every opened handle shares the same Control, so tests can preset
// channel values and inspect calls in one place.
type Hardware struct {
	mu sync.Mutex

	CardList    []int
	ControlList map[int][]string
	CardsErr    error
	ControlsErr error
	OpenErr     error

	Control *Control

	opens         []OpenCall
	controlsCalls []int
}

// New returns a Hardware with card 0 exposing a stereo "Master" control.
func New() *Hardware {
	return &Hardware{
		CardList:    []int{0},
		ControlList: map[int][]string{0: {"Master"}},
		Control:     &Control{Volumes: []int{50, 50}, Mutes: []int{0, 0}},
	}
}

// Cards returns CardList or CardsErr.
func (h *Hardware) Cards() ([]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.CardsErr != nil {
		return nil, h.CardsErr
	}
	return append([]int(nil), h.CardList...), nil
}

// Controls returns ControlList[card] or ControlsErr.
func (h *Hardware) Controls(card int) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controlsCalls = append(h.controlsCalls, card)
	if h.ControlsErr != nil {
		return nil, h.ControlsErr
	}
	return append([]string(nil), h.ControlList[card]...), nil
}

// Open records the call and returns the shared Control.
func (h *Hardware) Open(card int, control string) (alsa.Control, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opens = append(h.opens, OpenCall{Card: card, Control: control})
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	if h.Control == nil {
		return nil, fmt.Errorf("alsatest: no control configured")
	}
	return h.Control, nil
}

// Opens returns every Open call so far.
func (h *Hardware) Opens() []OpenCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]OpenCall(nil), h.opens...)
}

// ControlsCalls returns the card index of every Controls call so far.
func (h *Hardware) ControlsCalls() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.controlsCalls...)
}

// Control is a fake mixer control handle.
type Control struct {
	mu sync.Mutex

	Volumes []int
	Mutes   []int

	VolumeErr    error
	SetVolumeErr error
	MuteErr      error
	SetMuteErr   error

	volumeReads int
	muteReads   int
	setVolumes  []int
	setMutes    []int
}

// Volume returns the preset per-channel volumes.
func (c *Control) Volume() ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volumeReads++
	if c.VolumeErr != nil {
		return nil, c.VolumeErr
	}
	return append([]int(nil), c.Volumes...), nil
}

// SetVolume records level and applies it to every channel.
func (c *Control) SetVolume(level int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setVolumes = append(c.setVolumes, level)
	if c.SetVolumeErr != nil {
		return c.SetVolumeErr
	}
	for i := range c.Volumes {
		c.Volumes[i] = level
	}
	return nil
}

// Mute returns the preset per-channel mute flags.
func (c *Control) Mute() ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muteReads++
	if c.MuteErr != nil {
		return nil, c.MuteErr
	}
	return append([]int(nil), c.Mutes...), nil
}

// SetMute records flag and applies it to every channel.
func (c *Control) SetMute(flag int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setMutes = append(c.setMutes, flag)
	if c.SetMuteErr != nil {
		return c.SetMuteErr
	}
	for i := range c.Mutes {
		c.Mutes[i] = flag
	}
	return nil
}

// SetChannels replaces the per-channel state under the lock, for tests that
// change hardware state while a monitor is polling.
func (c *Control) SetChannels(volumes, mutes []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Volumes = append([]int(nil), volumes...)
	c.Mutes = append([]int(nil), mutes...)
}

// VolumeReads returns how many times Volume was called.
func (c *Control) VolumeReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volumeReads
}

// MuteReads returns how many times Mute was called.
func (c *Control) MuteReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muteReads
}

// SetVolumeCalls returns the arguments of every SetVolume call.
func (c *Control) SetVolumeCalls() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.setVolumes...)
}

// SetMuteCalls returns the arguments of every SetMute call.
func (c *Control) SetMuteCalls() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.setMutes...)
}

var _ alsa.Hardware = (*Hardware)(nil)

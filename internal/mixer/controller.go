// Package mixer drives the volume and mute of one ALSA mixer control.
package mixer

import (
	"fmt"
	"slices"

	"github.com/user/alsamixer-volume/internal/alsa"
	"github.com/user/alsamixer-volume/internal/config"
	"github.com/user/alsamixer-volume/internal/logging"
)

// Target is a (card, control) pair validated against the hardware.
type Target struct {
	Card    int    `json:"card"`
	Control string `json:"control"`
}

func (t Target) String() string {
	return fmt.Sprintf("%q on card %d", t.Control, t.Card)
}

// Controller exposes the volume and mute state of one mixer control.
//
// A Controller only exists for a target that was present when it was
// built. It does no locking of its own; callers sharing one must serialise
// access.
type Controller struct {
	hw     alsa.Hardware
	cfg    config.AlsaMixer
	target Target
	handle alsa.Control
}

// New resolves the card and control of cfg against hw. It fails with a
// *ConfigError, without opening the control, when either is unknown.
func New(cfg config.AlsaMixer, hw alsa.Hardware) (*Controller, error) {
	cards, err := hw.Cards()
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if !slices.Contains(cards, cfg.Card) {
		return nil, &ConfigError{
			Field: "card",
			Value: fmt.Sprint(cfg.Card),
			Card:  cfg.Card,
			Valid: formatInts(cards),
		}
	}

	controls, err := hw.Controls(cfg.Card)
	if err != nil {
		return nil, fmt.Errorf("list controls of card %d: %w", cfg.Card, err)
	}
	if !slices.Contains(controls, cfg.Control) {
		return nil, &ConfigError{
			Field: "control",
			Value: cfg.Control,
			Card:  cfg.Card,
			Valid: controls,
		}
	}

	c := &Controller{
		hw:     hw,
		cfg:    cfg,
		target: Target{Card: cfg.Card, Control: cfg.Control},
	}
	logging.Infof("mixing with ALSA control %s", c.target)
	return c, nil
}

// Target returns the resolved card and control.
func (c *Controller) Target() Target { return c.target }

// Config returns the alsamixer section the controller was built from.
// volmin, volmax and logarithmic_volume are not applied here.
func (c *Controller) Config() config.AlsaMixer { return c.cfg }

// control opens the hardware handle on first use.
func (c *Controller) control() (alsa.Control, error) {
	if c.handle != nil {
		return c.handle, nil
	}
	h, err := c.hw.Open(c.target.Card, c.target.Control)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.target, err)
	}
	c.handle = h
	return h, nil
}

// GetVolume returns the volume in [0,100]. ok is false when the channels
// disagree or the control reports none.
func (c *Controller) GetVolume() (volume int, ok bool, err error) {
	h, err := c.control()
	if err != nil {
		return 0, false, err
	}
	channels, err := h.Volume()
	if err != nil {
		return 0, false, err
	}
	volume, ok = unanimous(channels)
	if !ok {
		logging.Debugf("volume of %s is ambiguous: %v", c.target, channels)
	}
	return volume, ok, nil
}

// SetVolume sets every channel to volume, which must be in [0,100].
func (c *Controller) SetVolume(volume int) (bool, error) {
	if volume < 0 || volume > 100 {
		return false, fmt.Errorf("%w (got %d)", ErrInvalidVolume, volume)
	}
	h, err := c.control()
	if err != nil {
		return false, err
	}
	if err := h.SetVolume(volume); err != nil {
		return false, err
	}
	logging.Debugf("set volume of %s to %d", c.target, volume)
	return true, nil
}

// GetMute reports whether the control is muted. ok is false when the
// channels disagree or the control reports none.
func (c *Controller) GetMute() (muted bool, ok bool, err error) {
	h, err := c.control()
	if err != nil {
		return false, false, err
	}
	channels, err := h.Mute()
	if err != nil {
		return false, false, err
	}
	flag, ok := unanimous(channels)
	if !ok {
		logging.Debugf("mute of %s is ambiguous: %v", c.target, channels)
		return false, false, nil
	}
	return flag != 0, true, nil
}

// SetMute mutes or unmutes every channel.
func (c *Controller) SetMute(muted bool) (bool, error) {
	h, err := c.control()
	if err != nil {
		return false, err
	}
	flag := 0
	if muted {
		flag = 1
	}
	if err := h.SetMute(flag); err != nil {
		return false, err
	}
	logging.Debugf("set mute of %s to %v", c.target, muted)
	return true, nil
}

// Close drops the cached handle. Handles that hold resources are closed.
func (c *Controller) Close() error {
	h := c.handle
	c.handle = nil
	if closer, ok := h.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// unanimous reduces per-channel values to their common value. ok is false
// for an empty slice or when any two channels differ.
func unanimous[T comparable](channels []T) (value T, ok bool) {
	if len(channels) == 0 {
		return value, false
	}
	for _, v := range channels[1:] {
		if v != channels[0] {
			return value, false
		}
	}
	return channels[0], true
}

func formatInts(ints []int) []string {
	out := make([]string, len(ints))
	for i, n := range ints {
		out[i] = fmt.Sprint(n)
	}
	return out
}

// Package alsa provides an abstraction layer for ALSA mixer operations.
package alsa

import (
	"errors"
	"strings"
)

var (
	// ErrUnsupported is returned on platforms without ALSA.
	ErrUnsupported = errors.New("alsa mixer is not supported on this platform")

	// ErrClosed is returned by operations on a closed mixer.
	ErrClosed = errors.New("mixer is closed")

	// ErrNoMuteSwitch is returned when a control has no playback switch.
	ErrNoMuteSwitch = errors.New("control has no mute switch")

	// ErrNoPlaybackElements is returned when a card lists no playback
	// simple elements.
	ErrNoPlaybackElements = errors.New("no playback simple elements")
)

// Card represents an ALSA sound card
type Card struct {
	ID   uint   // Card index
	Name string // Card name
}

// Hardware is the mixer access layer: card and control enumeration plus
// opening a handle on one simple mixer control.
type Hardware interface {
	Cards() ([]int, error)
	Controls(card int) ([]string, error)
	Open(card int, control string) (Control, error)
}

// Control is an opened handle on a single simple mixer control.
//
// Volumes are percentages in [0,100], one per channel. Mute flags are 1 for
// muted and 0 for unmuted, one per channel.
type Control interface {
	Volume() ([]int, error)
	SetVolume(level int) error
	Mute() ([]int, error)
	SetMute(flag int) error
}

var _ Hardware = (*Mixer)(nil)

// Playback element name suffixes, most specific first.
var (
	volumeSuffixes = []string{" Playback Volume", " Volume", ""}
	switchSuffixes = []string{" Playback Switch", " Switch"}
)

// ElementNames returns the ctl element names that may back the volume and
// the switch of a simple control, in lookup order.
func ElementNames(control string) (volume, sw []string) {
	for _, s := range volumeSuffixes {
		volume = append(volume, control+s)
	}
	for _, s := range switchSuffixes {
		sw = append(sw, control+s)
	}
	return volume, sw
}

// BaseName strips the playback/capture suffix from a ctl element name,
// turning "Speaker Playback Volume" into "Speaker".
func BaseName(element string) string {
	for _, suffix := range []string{
		" Playback Volume", " Playback Switch",
		" Capture Volume", " Capture Switch",
		" Volume", " Switch",
	} {
		if base, ok := strings.CutSuffix(element, suffix); ok && base != "" {
			return base
		}
	}
	return element
}

// uniqueNames drops repeated names, keeping first-seen order. An empty
// result is an error so that Controls falls back to the ctl elements.
func uniqueNames(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, ErrNoPlaybackElements
	}
	return names, nil
}

// toPercent scales a raw value in [min,max] to [0,100].
func toPercent(raw, min, max int) int {
	if max <= min {
		return 0
	}
	return (raw - min) * 100 / (max - min)
}

// toRaw scales a percentage in [0,100] to [min,max].
func toRaw(percent, min, max int) int {
	return min + (percent*(max-min))/100
}

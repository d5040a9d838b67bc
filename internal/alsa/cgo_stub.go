//go:build !linux || !cgo

package alsa

import "fmt"

// getControlNamesInOrder is unavailable without cgo and libasound; Controls
// falls back to the ctl element names.
func (m *Mixer) getControlNamesInOrder(card uint) ([]string, error) {
	return nil, fmt.Errorf("simple element names for card %d: %w", card, ErrUnsupported)
}

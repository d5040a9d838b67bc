//go:build linux

package alsa

import (
	"fmt"
	"os/exec"
	"sort"
	"sync"

	alsalib "github.com/gen2brain/alsa"

	"github.com/user/alsamixer-volume/internal/logging"
)

// Mixer implements Hardware on top of the ALSA control interface.
type Mixer struct {
	mu   sync.Mutex
	open bool
}

// NewMixer creates a new ALSA mixer instance
func NewMixer() *Mixer {
	if _, err := alsalib.EnumerateCards(); err != nil {
		logging.Warnf("ALSA enumeration failed: %v", err)
	}

	return &Mixer{open: true}
}

// ListCards enumerates all available sound cards with their names.
func (m *Mixer) ListCards() ([]Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil, ErrClosed
	}

	soundCards, err := alsalib.EnumerateCards()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cards: %w", err)
	}

	cards := make([]Card, 0, len(soundCards))
	for _, c := range soundCards {
		cards = append(cards, Card{ID: uint(c.ID), Name: c.Name})
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	return cards, nil
}

// Cards returns the indices of all available sound cards.
func (m *Mixer) Cards() ([]int, error) {
	cards, err := m.ListCards()
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = int(c.ID)
	}
	return ids, nil
}

// Controls returns the simple control names of a card in alsamixer order.
// Without libasound the names are derived from the ctl element names.
func (m *Mixer) Controls(card int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil, ErrClosed
	}
	if card < 0 {
		return nil, fmt.Errorf("invalid card index %d", card)
	}

	names, err := m.getControlNamesInOrder(uint(card))
	if err == nil {
		return names, nil
	}
	logging.Debugf("selem enumeration for card %d unavailable: %v", card, err)

	mixer, err := alsalib.MixerOpen(uint(card))
	if err != nil {
		return nil, fmt.Errorf("failed to open mixer for card %d: %w", card, err)
	}
	defer mixer.Close()

	seen := make(map[string]bool)
	names = nil
	for i := 0; i < mixer.NumCtls(); i++ {
		ctl, err := mixer.CtlByIndex(uint(i))
		if err != nil {
			continue
		}
		switch ctl.Type() {
		case alsalib.SNDRV_CTL_ELEM_TYPE_INTEGER, alsalib.SNDRV_CTL_ELEM_TYPE_BOOLEAN:
		default:
			continue
		}
		name := BaseName(ctl.Name())
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	return names, nil
}

// Open returns a handle on the named simple control of a card. The card is
// reopened on every handle call so the handle never goes stale.
func (m *Mixer) Open(card int, control string) (Control, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil, ErrClosed
	}
	if card < 0 {
		return nil, fmt.Errorf("invalid card index %d", card)
	}

	volNames, swNames := ElementNames(control)
	return &handle{mixer: m, card: uint(card), name: control, volume: volNames, sw: swNames}, nil
}

// Close cleans up resources and marks the mixer as closed
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return fmt.Errorf("mixer already closed")
	}

	m.open = false
	return nil
}

// IsOpen returns whether the mixer is open and ready for operations
func (m *Mixer) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// handle implements Control for one simple mixer control.
type handle struct {
	mixer  *Mixer
	card   uint
	name   string
	volume []string
	sw     []string
}

// lookup returns the first element found under any of names.
func lookup[T any](find func(string) (T, error), names []string) (T, string, error) {
	var (
		zero    T
		lastErr error
	)
	for _, n := range names {
		ctl, err := find(n)
		if err == nil {
			return ctl, n, nil
		}
		lastErr = err
	}
	return zero, "", lastErr
}

func (h *handle) checkOpen() error {
	if !h.mixer.IsOpen() {
		return ErrClosed
	}
	return nil
}

// Volume reads the per-channel volume as percentages.
func (h *handle) Volume() ([]int, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}

	mixer, err := alsalib.MixerOpen(h.card)
	if err != nil {
		return nil, fmt.Errorf("failed to open mixer: %w", err)
	}
	defer mixer.Close()

	ctl, elem, err := lookup(mixer.CtlByName, h.volume)
	if err != nil {
		return nil, fmt.Errorf("control '%s' not found: %w", h.name, err)
	}
	if ctl.Type() != alsalib.SNDRV_CTL_ELEM_TYPE_INTEGER {
		return nil, fmt.Errorf("control '%s' has no volume (type: %v)", elem, ctl.Type())
	}

	min, _ := ctl.RangeMin()
	max, _ := ctl.RangeMax()
	if max == min {
		return nil, fmt.Errorf("control '%s' has invalid range (min equals max)", elem)
	}

	numChannels := int(ctl.NumValues())
	values := make([]int, numChannels)

	rawValues := make([]int32, numChannels)
	if err := ctl.Array(&rawValues); err != nil {
		for i := 0; i < numChannels; i++ {
			val, err := ctl.Value(uint(i))
			if err != nil {
				return nil, fmt.Errorf("failed to get channel %d value: %w", i, err)
			}
			values[i] = toPercent(val, min, max)
		}
		return values, nil
	}

	for i := 0; i < numChannels; i++ {
		values[i] = toPercent(int(rawValues[i]), min, max)
	}

	return values, nil
}

// SetVolume applies level to all channels through amixer, falling back to a
// raw write through the library.
func (h *handle) SetVolume(level int) error {
	if err := h.checkOpen(); err != nil {
		return err
	}

	// The % suffix matters: amixer treats bare values below 100 as raw.
	cmd := exec.Command("amixer", "-q", "-c", fmt.Sprintf("%d", h.card), "sset", h.name, fmt.Sprintf("%d%%", level))
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	logging.Debugf("SetVolume: amixer failed for '%s': %v output: %s", h.name, err, string(output))

	return h.setVolumeLibrary(level)
}

// setVolumeLibrary is the fallback volume setter using the alsa library
func (h *handle) setVolumeLibrary(level int) error {
	mixer, err := alsalib.MixerOpen(h.card)
	if err != nil {
		return fmt.Errorf("failed to open mixer: %w", err)
	}
	defer mixer.Close()

	ctl, elem, err := lookup(mixer.CtlByName, h.volume)
	if err != nil {
		return fmt.Errorf("control '%s' not found: %w", h.name, err)
	}

	min, _ := ctl.RangeMin()
	max, _ := ctl.RangeMax()
	if max == min {
		return fmt.Errorf("control '%s' has invalid range (min equals max)", elem)
	}

	raw := toRaw(level, min, max)
	for i := 0; i < int(ctl.NumValues()); i++ {
		if err := ctl.SetValue(uint(i), raw); err != nil {
			return fmt.Errorf("failed to set channel %d: %w", i, err)
		}
	}

	return nil
}

// Mute reads the per-channel mute flags. A switch value of 0 means muted.
func (h *handle) Mute() ([]int, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}

	mixer, err := alsalib.MixerOpen(h.card)
	if err != nil {
		return nil, fmt.Errorf("failed to open mixer: %w", err)
	}
	defer mixer.Close()

	ctl, elem, err := lookup(mixer.CtlByName, h.sw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMuteSwitch, h.name)
	}
	if ctl.Type() != alsalib.SNDRV_CTL_ELEM_TYPE_BOOLEAN {
		return nil, fmt.Errorf("control '%s' is not boolean (type: %v)", elem, ctl.Type())
	}

	numChannels := int(ctl.NumValues())
	flags := make([]int, numChannels)
	for i := 0; i < numChannels; i++ {
		val, err := ctl.Value(uint(i))
		if err != nil {
			return nil, fmt.Errorf("failed to get channel %d value: %w", i, err)
		}
		if val == 0 {
			flags[i] = 1
		}
	}

	return flags, nil
}

// SetMute sets the mute flag on all channels.
func (h *handle) SetMute(flag int) error {
	if err := h.checkOpen(); err != nil {
		return err
	}

	mixer, err := alsalib.MixerOpen(h.card)
	if err != nil {
		return fmt.Errorf("failed to open mixer: %w", err)
	}
	defer mixer.Close()

	ctl, elem, err := lookup(mixer.CtlByName, h.sw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoMuteSwitch, h.name)
	}
	if ctl.Type() != alsalib.SNDRV_CTL_ELEM_TYPE_BOOLEAN {
		return fmt.Errorf("control '%s' is not boolean (type: %v)", elem, ctl.Type())
	}

	val := 1
	if flag != 0 {
		val = 0
	}

	for i := 0; i < int(ctl.NumValues()); i++ {
		if err := ctl.SetValue(uint(i), val); err != nil {
			return fmt.Errorf("failed to set channel %d mute: %w", i, err)
		}
	}

	return nil
}

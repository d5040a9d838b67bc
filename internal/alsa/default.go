package alsa

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SystemConfigFile is the system-wide ALSA configuration.
const SystemConfigFile = "/etc/asound.conf"

// Matches lines like:
//
//	defaults.pcm.card 1
//	defaults.ctl.card 1
var defaultCardRe = regexp.MustCompile(`(?m)^\s*defaults\.(?:pcm|ctl)\.card\s+(\S+)`)

// GetDefaultCard determines the ALSA default card index.
// Priority: ALSA_CARD env > ~/.asoundrc > /etc/asound.conf.
// Returns -1 if no preference is configured.
func GetDefaultCard() int {
	if cardStr := os.Getenv("ALSA_CARD"); cardStr != "" {
		if card, err := strconv.Atoi(cardStr); err == nil && card >= 0 {
			return card
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		if card := parseAsoundrc(filepath.Join(home, ".asoundrc")); card >= 0 {
			return card
		}
	}

	return parseAsoundrc(SystemConfigFile)
}

// parseAsoundrc returns the numeric default card of an ALSA config file,
// or -1. Named references such as "PCH" are not resolved.
func parseAsoundrc(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1
	}

	matches := defaultCardRe.FindStringSubmatch(string(data))
	if len(matches) > 1 {
		if card, err := strconv.Atoi(matches[1]); err == nil && card >= 0 {
			return card
		}
	}

	return -1
}

// ResolveDefaultCard returns the card ALSA would use by default.
// An explicit preference wins when that card exists; otherwise the first
// card that is not a loopback, null or dummy device is chosen, then the
// first card. ok is false when cards is empty.
func ResolveDefaultCard(cards []Card, defaultCard int) (id uint, ok bool) {
	if len(cards) == 0 {
		return 0, false
	}

	if defaultCard >= 0 {
		for _, c := range cards {
			if int(c.ID) == defaultCard {
				return c.ID, true
			}
		}
	}

	for _, c := range cards {
		name := strings.ToLower(c.Name)
		if !strings.Contains(name, "loopback") &&
			!strings.Contains(name, "null") &&
			!strings.Contains(name, "dummy") {
			return c.ID, true
		}
	}

	return cards[0].ID, true
}

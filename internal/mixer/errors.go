package mixer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidVolume indicates that the volume value is out of range.
var ErrInvalidVolume = errors.New("volume must be between 0 and 100")

// ConfigError reports a configured card or control that the hardware does
// not have. It is fatal: the process must not run with it.
type ConfigError struct {
	Field string   // "card" or "control"
	Value string   // configured value
	Card  int      // card the value was checked against
	Valid []string // values the hardware offered
}

func (e *ConfigError) Error() string {
	valid := "none"
	if len(e.Valid) > 0 {
		valid = strings.Join(e.Valid, ", ")
	}
	switch e.Field {
	case "card":
		return fmt.Sprintf("could not find ALSA soundcard with index %s (available: %s)", e.Value, valid)
	case "control":
		return fmt.Sprintf("could not find ALSA mixer control %q on card %d (available: %s)", e.Value, e.Card, valid)
	default:
		return fmt.Sprintf("invalid %s %q (available: %s)", e.Field, e.Value, valid)
	}
}

// Package cli is the alsamixer-volume command tree.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/alsamixer-volume/internal/alsa"
	"github.com/user/alsamixer-volume/internal/config"
	"github.com/user/alsamixer-volume/internal/logging"
	"github.com/user/alsamixer-volume/internal/registry"
)

// errUsage marks configuration that could not be loaded or validated.
var errUsage = errors.New("configuration error")

var (
	verbosity int

	// shellLevel is set by the shell's log command and wins over both
	// -v and log_level.
	shellLevel *logging.Level

	// newHardware opens the hardware layer. Tests swap in a fake.
	newHardware = func() alsa.Hardware {
		return alsa.NewMixer()
	}
)

// NewRootCmd creates the root CLI command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alsamixer-volume",
		Short:         "Volume and mute control for one ALSA mixer control",
		Long:          "Reads and sets the volume and mute state of an ALSA mixer control from the command line, a terminal UI, an interactive shell or over HTTP.",
		Version:       registry.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v, -vv, -vvv)")

	cmd.AddCommand(
		newVolumeCmd(),
		newMuteCmd(),
		newCardsCmd(),
		newServeCmd(),
		newTuiCmd(),
		newShellCmd(),
	)

	return cmd
}

// Execute runs the command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps an error returned by Execute to a process exit status:
// 2 for configuration that failed to load, 1 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		return 1
	}
}

// IsUsage reports whether err came from loading the configuration.
func IsUsage(err error) bool {
	return errors.Is(err, errUsage)
}

// loadConfig reads the configuration for cmd and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	applyLogLevel(cfg)
	return cfg, nil
}

func applyLogLevel(cfg *config.Config) {
	switch {
	case shellLevel != nil:
		logging.SetLevel(*shellLevel)
	case verbosity > 0:
		logging.SetVerbosity(verbosity)
	default:
		// validated by config.Load
		if l, err := logging.ParseLevel(cfg.LogLevel); err == nil {
			logging.SetLevel(l)
		}
	}
}

// session is an opened mixer together with what it was built from.
type session struct {
	cfg   *config.Config
	hw    alsa.Hardware
	mixer registry.Mixer
}

// Close releases the mixer and the hardware layer.
func (s *session) Close() {
	if c, ok := s.mixer.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logging.Debugf("close mixer: %v", err)
		}
	}
	if c, ok := s.hw.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logging.Debugf("close hardware: %v", err)
		}
	}
}

// openSession loads the configuration and builds the mixer through the
// registry, the way a host would.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	hw := newHardware()
	reg := registry.New()
	ext := registry.NewExtension(hw)
	ext.Setup(reg)
	logging.Debugf("extension %s %s registered %v", ext.Name, ext.Version, reg.Points())
	if cfg.AlsaMixer != ext.DefaultConfig() {
		logging.Debugf("%s section overrides defaults: %+v", ext.Name, cfg.AlsaMixer)
	}

	factories := reg.Mixers()
	if len(factories) == 0 {
		return nil, errors.New("no mixer registered")
	}
	m, err := factories[0](cfg)
	if err != nil {
		if c, ok := hw.(interface{ Close() error }); ok {
			c.Close()
		}
		return nil, err
	}
	return &session{cfg: cfg, hw: hw, mixer: m}, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/user/alsamixer-volume/internal/logging"
)

// Section is the configuration namespace of the mixer extension.
const Section = "alsamixer"

// AlsaMixer is the alsamixer section: which hardware control to drive and
// the volume options handed to the host.
type AlsaMixer struct {
	Card              int    `yaml:"card" json:"card"`
	Control           string `yaml:"control" json:"control"`
	VolMin            int    `yaml:"volmin" json:"volmin"`
	VolMax            int    `yaml:"volmax" json:"volmax"`
	LogarithmicVolume bool   `yaml:"logarithmic_volume" json:"logarithmic_volume"`
}

// Config is the whole process configuration.
type Config struct {
	Port        int       `yaml:"port"`
	BindAddr    string    `yaml:"bind"`
	LogLevel    string    `yaml:"log_level"`
	MonitorFile string    `yaml:"monitor_file"`
	AlsaMixer   AlsaMixer `yaml:"alsamixer"`

	// File is the YAML file the configuration was read from, if any.
	File string `yaml:"-"`
}

// DefaultAlsaMixer returns the documented defaults of the alsamixer section.
func DefaultAlsaMixer() AlsaMixer {
	return AlsaMixer{Card: 0, Control: "Master", VolMin: 0, VolMax: 100}
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:        8080,
		BindAddr:    "0.0.0.0",
		LogLevel:    "info",
		MonitorFile: "/etc/asound.conf",
		AlsaMixer:   DefaultAlsaMixer(),
	}
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to YAML configuration file")
	fs.IntP("card", "c", d.AlsaMixer.Card, "ALSA card index")
	fs.String("control", d.AlsaMixer.Control, "ALSA mixer control name")
	fs.Int("volmin", d.AlsaMixer.VolMin, "Minimum volume passed to the host (0-100)")
	fs.Int("volmax", d.AlsaMixer.VolMax, "Maximum volume passed to the host (0-100)")
	fs.Bool("logarithmic-volume", d.AlsaMixer.LogarithmicVolume, "Ask the host for a logarithmic volume curve")
	fs.IntP("port", "p", d.Port, "Server port")
	fs.StringP("bind", "b", d.BindAddr, "Bind address")
	fs.String("log-level", d.LogLevel, "Log level (error, warn, info, debug, trace)")
	fs.String("monitor-file", d.MonitorFile, "Path to ALSA config file to monitor")
}

// Load builds the configuration from defaults, the YAML file, the
// ALSAMIXER_* environment and the flags the user set on fs, in that order,
// and validates the result. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	path := os.Getenv("ALSAMIXER_CONFIG")
	if fs != nil && fs.Changed("config") {
		path, _ = fs.GetString("config")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFile overlays the YAML document at path. Unknown keys are rejected.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.File = path
	logging.Debugf("loaded configuration from %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"ALSAMIXER_CARD", &c.AlsaMixer.Card},
		{"ALSAMIXER_VOLMIN", &c.AlsaMixer.VolMin},
		{"ALSAMIXER_VOLMAX", &c.AlsaMixer.VolMax},
		{"ALSAMIXER_PORT", &c.Port},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %q", e.name, v)
			}
			*e.dst = n
		}
	}

	if v := os.Getenv("ALSAMIXER_LOGARITHMIC_VOLUME"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ALSAMIXER_LOGARITHMIC_VOLUME: %q", v)
		}
		c.AlsaMixer.LogarithmicVolume = b
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"ALSAMIXER_CONTROL", &c.AlsaMixer.Control},
		{"ALSAMIXER_BIND", &c.BindAddr},
		{"ALSAMIXER_LOG_LEVEL", &c.LogLevel},
		{"ALSAMIXER_MONITOR_FILE", &c.MonitorFile},
	}
	for _, e := range strs {
		if v := os.Getenv(e.name); v != "" {
			*e.dst = v
		}
	}
	return nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var errs []error
	setInt := func(name string, dst *int) {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return
		}
		v, err := fs.GetInt(name)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	setString := func(name string, dst *string) {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return
		}
		v, err := fs.GetString(name)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}

	setInt("card", &c.AlsaMixer.Card)
	setString("control", &c.AlsaMixer.Control)
	setInt("volmin", &c.AlsaMixer.VolMin)
	setInt("volmax", &c.AlsaMixer.VolMax)
	setInt("port", &c.Port)
	setString("bind", &c.BindAddr)
	setString("log-level", &c.LogLevel)
	setString("monitor-file", &c.MonitorFile)

	if fs.Lookup("logarithmic-volume") != nil && fs.Changed("logarithmic-volume") {
		v, err := fs.GetBool("logarithmic-volume")
		if err != nil {
			errs = append(errs, err)
		} else {
			c.AlsaMixer.LogarithmicVolume = v
		}
	}

	return errors.Join(errs...)
}

// HelpText renders the usage of the configuration flags.
func HelpText() string {
	fs := pflag.NewFlagSet("alsamixer-volume", pflag.ContinueOnError)
	BindFlags(fs)
	return fs.FlagUsages()
}

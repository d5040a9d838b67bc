package registry

import (
	"errors"
	"testing"

	"github.com/user/alsamixer-volume/internal/alsa/alsatest"
	"github.com/user/alsamixer-volume/internal/config"
	"github.com/user/alsamixer-volume/internal/mixer"
)

func TestSetupRegistersMixer(t *testing.T) {
	hw := alsatest.New()
	hw.Control.Volumes = []int{86}
	ext := NewExtension(hw)
	if ext.Name != "alsamixer" {
		t.Errorf("Name = %q", ext.Name)
	}

	r := New()
	ext.Setup(r)

	factories := r.Mixers()
	if len(factories) != 1 {
		t.Fatalf("Mixers() = %d factories, want 1", len(factories))
	}
	if points := r.Points(); len(points) != 1 || points[0] != PointMixer {
		t.Errorf("Points() = %v", points)
	}

	cfg := config.Default()
	m, err := factories[0](&cfg)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if v, ok, err := m.GetVolume(); err != nil || !ok || v != 86 {
		t.Errorf("GetVolume() = %d, %v, %v", v, ok, err)
	}
	if ok, err := m.SetMute(true); err != nil || !ok {
		t.Errorf("SetMute() = %v, %v", ok, err)
	}
}

func TestFactoryRejectsInvalidConfig(t *testing.T) {
	hw := alsatest.New()
	r := New()
	NewExtension(hw).Setup(r)

	cfg := config.Default()
	cfg.AlsaMixer.Control = ""
	if _, err := r.Mixers()[0](&cfg); err == nil {
		t.Fatal("expected schema error")
	}
	if n := len(hw.ControlsCalls()); n != 0 {
		t.Errorf("hardware queried %d times for invalid config", n)
	}
}

func TestFactoryReturnsConfigError(t *testing.T) {
	hw := alsatest.New()
	r := New()
	NewExtension(hw).Setup(r)

	cfg := config.Default()
	cfg.AlsaMixer.Control = "Headphone"
	_, err := r.Mixers()[0](&cfg)
	var cerr *mixer.ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "control" {
		t.Fatalf("err = %v, want control ConfigError", err)
	}
}

func TestDefaultConfigPassesSchema(t *testing.T) {
	ext := NewExtension(alsatest.New())
	if err := ext.Schema()(ext.DefaultConfig()); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := ext.DefaultConfig()
	bad.VolMax = 101
	if err := ext.Schema()(bad); err == nil {
		t.Error("volmax 101 accepted")
	}
}

func TestGetUnknownPoint(t *testing.T) {
	if got := New().Get("nothing"); len(got) != 0 {
		t.Errorf("Get() = %d factories", len(got))
	}
}

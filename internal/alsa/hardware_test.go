package alsa

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Master Playback Volume", "Master"},
		{"Master Playback Switch", "Master"},
		{"Capture Volume", "Capture"},
		{"Mic Capture Switch", "Mic"},
		{"PCM Volume", "PCM"},
		{"Speaker", "Speaker"},
		{"Auto-Mute Mode", "Auto-Mute Mode"},
		{" Volume", " Volume"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := BaseName(tt.in); got != tt.want {
				t.Errorf("BaseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestElementNames(t *testing.T) {
	vol, sw := ElementNames("Speaker")

	wantVol := []string{"Speaker Playback Volume", "Speaker Volume", "Speaker"}
	wantSw := []string{"Speaker Playback Switch", "Speaker Switch"}

	if !reflect.DeepEqual(vol, wantVol) {
		t.Errorf("volume names = %v, want %v", vol, wantVol)
	}
	if !reflect.DeepEqual(sw, wantSw) {
		t.Errorf("switch names = %v, want %v", sw, wantSw)
	}
}

func TestPercentScaling(t *testing.T) {
	tests := []struct {
		name     string
		raw      int
		min, max int
		percent  int
	}{
		{"zero range start", 0, 0, 87, 0},
		{"full scale", 87, 0, 87, 100},
		{"negative range", -6, -12, 0, 50},
		{"mid", 64, 0, 128, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toPercent(tt.raw, tt.min, tt.max); got != tt.percent {
				t.Errorf("toPercent(%d, %d, %d) = %d, want %d", tt.raw, tt.min, tt.max, got, tt.percent)
			}
		})
	}

	if got := toPercent(5, 3, 3); got != 0 {
		t.Errorf("toPercent with empty range = %d, want 0", got)
	}
	if got := toRaw(50, 0, 128); got != 64 {
		t.Errorf("toRaw(50, 0, 128) = %d, want 64", got)
	}
	if got := toRaw(100, -12, 0); got != 0 {
		t.Errorf("toRaw(100, -12, 0) = %d, want 0", got)
	}
	if got := toRaw(0, -12, 0); got != -12 {
		t.Errorf("toRaw(0, -12, 0) = %d, want -12", got)
	}
}

func TestParseAsoundrc(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"pcm card", "defaults.pcm.card 1\n", 1},
		{"ctl card indented", "  defaults.ctl.card 2\n", 2},
		{"named card", "defaults.pcm.card \"PCH\"\n", -1},
		{"no default", "pcm.!default { type hw card 0 }\n", -1},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := write(filepath.Base(t.Name())+string(rune('a'+i)), tt.content)
			if got := parseAsoundrc(p); got != tt.want {
				t.Errorf("parseAsoundrc() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := parseAsoundrc(filepath.Join(dir, "missing")); got != -1 {
		t.Errorf("parseAsoundrc(missing) = %d, want -1", got)
	}
}

func TestGetDefaultCardFromEnv(t *testing.T) {
	t.Setenv("ALSA_CARD", "3")
	if got := GetDefaultCard(); got != 3 {
		t.Errorf("GetDefaultCard() = %d, want 3", got)
	}
}

func TestGetDefaultCardFromHome(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, ".asoundrc"), []byte("defaults.pcm.card 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ALSA_CARD", "")
	t.Setenv("HOME", home)

	if got := GetDefaultCard(); got != 4 {
		t.Errorf("GetDefaultCard() = %d, want 4", got)
	}
}

func TestResolveDefaultCard(t *testing.T) {
	cards := []Card{
		{ID: 0, Name: "Loopback"},
		{ID: 1, Name: "PCH"},
		{ID: 2, Name: "SB"},
	}

	tests := []struct {
		name   string
		cards  []Card
		pref   int
		wantID uint
		wantOK bool
	}{
		{"explicit preference", cards, 2, 2, true},
		{"missing preference skips loopback", cards, 7, 1, true},
		{"no preference skips loopback", cards, -1, 1, true},
		{"only virtual cards", []Card{{ID: 5, Name: "Dummy"}}, -1, 5, true},
		{"no cards", nil, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ResolveDefaultCard(tt.cards, tt.pref)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ResolveDefaultCard() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestUniqueNames(t *testing.T) {
	got, err := uniqueNames([]string{"Master", "PCM", "Master", "Speaker"})
	if err != nil {
		t.Fatalf("uniqueNames returned error: %v", err)
	}
	want := []string{"Master", "PCM", "Speaker"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqueNames = %v, want %v", got, want)
	}
}

func TestUniqueNamesEmpty(t *testing.T) {
	for _, raw := range [][]string{nil, {}} {
		names, err := uniqueNames(raw)
		if !errors.Is(err, ErrNoPlaybackElements) {
			t.Errorf("uniqueNames(%v) error = %v, want ErrNoPlaybackElements", raw, err)
		}
		if names != nil {
			t.Errorf("uniqueNames(%v) = %v, want nil", raw, names)
		}
	}
}

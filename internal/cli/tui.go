package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"code.rocketnine.space/tslocum/cview"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/user/alsamixer-volume/internal/logging"
	"github.com/user/alsamixer-volume/internal/registry"
)

const (
	tuiStep        = 5
	tuiRefresh     = 500 * time.Millisecond
	tuiHeaderWidth = 10
)

var errAmbiguousVolume = errors.New("channels disagree; set a level with the volume command first")

func newTuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal mixer (up/down: volume, m: mute, q: quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			// log lines would scribble over the screen
			logging.SetOutput(&tuiLogSink{})
			defer logging.SetOutput(os.Stdout)

			t := newTui(s.mixer, fmt.Sprintf("card %d: %s", s.cfg.AlsaMixer.Card, s.cfg.AlsaMixer.Control))
			return t.Run()
		},
	}
}

// tuiLogSink drops log output while the terminal UI owns the screen.
type tuiLogSink struct{}

func (tuiLogSink) Write(p []byte) (int, error) { return len(p), nil }

// tuiState is what the screen shows.
type tuiState struct {
	volume   int
	volumeOK bool
	muted    bool
	muteOK   bool
	err      error
}

func (s tuiState) volumeText() string {
	if !s.volumeOK {
		return "unknown"
	}
	return fmt.Sprintf("%d %%", s.volume)
}

func (s tuiState) statusText() string {
	if s.err != nil {
		return "error: " + s.err.Error()
	}
	return muteWord(s.muted, s.muteOK)
}

// tuiController holds the key handling so it can run without a terminal.
type tuiController struct {
	mixer registry.Mixer
	state tuiState
	quit  func()
}

func (c *tuiController) read() {
	var st tuiState
	var err error
	st.volume, st.volumeOK, err = c.mixer.GetVolume()
	if err != nil {
		st.err = err
	}
	st.muted, st.muteOK, err = c.mixer.GetMute()
	if err != nil && st.err == nil {
		st.err = err
	}
	c.state = st
}

func (c *tuiController) step(delta int) {
	volume, ok, err := c.mixer.GetVolume()
	if err != nil {
		c.state.err = err
		return
	}
	if !ok {
		c.state.err = errAmbiguousVolume
		return
	}
	volume = min(max(volume+delta, 0), 100)
	if _, err := c.mixer.SetVolume(volume); err != nil {
		c.state.err = err
		return
	}
	c.read()
}

func (c *tuiController) toggleMute() {
	muted, ok, err := c.mixer.GetMute()
	if err != nil {
		c.state.err = err
		return
	}
	if _, err := c.mixer.SetMute(!ok || !muted); err != nil {
		c.state.err = err
		return
	}
	c.read()
}

// handleKey applies ev and reports whether it was consumed.
func (c *tuiController) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyRight:
		c.step(tuiStep)
	case tcell.KeyDown, tcell.KeyLeft:
		c.step(-tuiStep)
	case tcell.KeyEsc, tcell.KeyCtrlC:
		c.quit()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'm', 'M':
			c.toggleMute()
		case 'q', 'Q':
			c.quit()
		case '+', 'k':
			c.step(tuiStep)
		case '-', 'j':
			c.step(-tuiStep)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

type tui struct {
	app   *cview.Application
	ctl   *tuiController
	title string

	bar    *cview.ProgressBar
	value  *cview.TextView
	status *cview.TextView
	done   chan struct{}
}

func newTui(m registry.Mixer, title string) *tui {
	t := &tui{
		app:   cview.NewApplication(),
		title: title,
		done:  make(chan struct{}),
	}
	t.ctl = &tuiController{mixer: m, quit: t.app.Stop}
	t.layout()
	return t
}

func (t *tui) layout() {
	grid := cview.NewGrid()
	grid.SetPadding(1, 1, 2, 2)
	grid.SetColumns(tuiHeaderWidth, -1, 8)
	grid.SetRows(1, 1, 1, 1, -1, 1)
	grid.SetBorders(true)
	grid.SetBackgroundColor(cview.Styles.PrimitiveBackgroundColor)

	header := cview.NewTextView()
	header.SetText(t.title)
	grid.AddItem(header, 0, 0, 1, 3, 0, 0, false)

	label := cview.NewTextView()
	label.SetTextAlign(cview.AlignRight)
	label.SetText("Volume: ")
	grid.AddItem(label, 2, 0, 1, 1, 0, 0, false)

	t.bar = cview.NewProgressBar()
	t.bar.SetFilledRune(rune(9607))
	t.bar.SetEmptyRune(rune(9617))
	t.bar.SetEmptyColor(tcell.Color242)
	grid.AddItem(t.bar, 2, 1, 1, 1, 0, 0, false)

	t.value = cview.NewTextView()
	t.value.SetPadding(0, 0, 1, 0)
	grid.AddItem(t.value, 2, 2, 1, 1, 0, 0, false)

	muteLabel := cview.NewTextView()
	muteLabel.SetTextAlign(cview.AlignRight)
	muteLabel.SetText("Mute: ")
	grid.AddItem(muteLabel, 3, 0, 1, 1, 0, 0, false)

	t.status = cview.NewTextView()
	grid.AddItem(t.status, 3, 1, 1, 2, 0, 0, false)

	help := cview.NewTextView()
	help.SetText("↑/↓ volume ±5   m mute   q quit")
	grid.AddItem(help, 5, 0, 1, 3, 0, 0, false)

	t.app.SetRoot(grid, true)
	t.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if t.ctl.handleKey(ev) {
			t.draw()
			return nil
		}
		return ev
	})
}

// draw copies the controller state into the widgets. It must run on the
// application goroutine.
func (t *tui) draw() {
	st := t.ctl.state
	if st.volumeOK {
		t.bar.SetProgress(st.volume)
	} else {
		t.bar.SetProgress(0)
	}
	t.value.SetText(st.volumeText())
	t.status.SetText(st.statusText())
}

// refreshLoop picks up changes made by other programs.
func (t *tui) refreshLoop() {
	defer t.app.HandlePanic()

	ticker := time.NewTicker(tuiRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.app.QueueUpdateDraw(func() {
				t.ctl.read()
				t.draw()
			})
		}
	}
}

// Run blocks until the user quits.
func (t *tui) Run() error {
	defer t.app.HandlePanic()

	t.ctl.read()
	t.draw()

	go t.refreshLoop()
	defer close(t.done)

	return t.app.Run()
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/alsamixer-volume/internal/alsa"
)

func newVolumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volume [LEVEL]",
		Short: "Print the volume, or set it to LEVEL (0-100)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var level int
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid volume %q", args[0])
				}
				level = v
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				volume, ok, err := s.mixer.GetVolume()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "unknown")
					return nil
				}
				fmt.Fprintln(out, volume)
				return nil
			}

			if _, err := s.mixer.SetVolume(level); err != nil {
				return err
			}
			fmt.Fprintf(out, "volume set to %d\n", level)
			return nil
		},
	}
}

func parseMuteArg(arg string) (muted bool, toggle bool, err error) {
	switch strings.ToLower(arg) {
	case "on", "true", "yes", "1":
		return true, false, nil
	case "off", "false", "no", "0":
		return false, false, nil
	case "toggle":
		return false, true, nil
	}
	return false, false, fmt.Errorf("invalid mute state %q (want on, off or toggle)", arg)
}

func muteWord(muted, ok bool) string {
	switch {
	case !ok:
		return "unknown"
	case muted:
		return "muted"
	default:
		return "unmuted"
	}
}

func newMuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mute [on|off|toggle]",
		Short:     "Print the mute state, or change it",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var muted, toggle bool
			if len(args) == 1 {
				var err error
				if muted, toggle, err = parseMuteArg(args[0]); err != nil {
					return err
				}
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 || toggle {
				current, ok, err := s.mixer.GetMute()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					fmt.Fprintln(out, muteWord(current, ok))
					return nil
				}
				muted = !ok || !current
			}

			if _, err := s.mixer.SetMute(muted); err != nil {
				return err
			}
			fmt.Fprintln(out, muteWord(muted, true))
			return nil
		},
	}
}

func newCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "List sound cards and their mixer controls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			hw := newHardware()
			if c, ok := hw.(interface{ Close() error }); ok {
				defer c.Close()
			}

			cards, err := listCards(hw)
			if err != nil {
				return err
			}
			defaultID, hasDefault := alsa.ResolveDefaultCard(cards, alsa.GetDefaultCard())

			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "no sound cards found")
				return nil
			}
			for _, card := range cards {
				var marks []string
				if int(card.ID) == cfg.AlsaMixer.Card {
					marks = append(marks, "configured")
				}
				if hasDefault && card.ID == defaultID {
					marks = append(marks, "default")
				}
				line := fmt.Sprintf("%d: %s", card.ID, card.Name)
				if len(marks) > 0 {
					line += " (" + strings.Join(marks, ", ") + ")"
				}
				fmt.Fprintln(out, line)

				controls, err := hw.Controls(int(card.ID))
				if err != nil {
					fmt.Fprintf(out, "    error: %v\n", err)
					continue
				}
				for _, c := range controls {
					fmt.Fprintf(out, "    %s\n", c)
				}
			}
			return nil
		},
	}
}

// listCards returns the cards of hw, with names when the hardware layer
// knows them.
func listCards(hw alsa.Hardware) ([]alsa.Card, error) {
	if named, ok := hw.(interface{ ListCards() ([]alsa.Card, error) }); ok {
		return named.ListCards()
	}
	ids, err := hw.Cards()
	if err != nil {
		return nil, err
	}
	cards := make([]alsa.Card, len(ids))
	for i, id := range ids {
		cards[i] = alsa.Card{ID: uint(id), Name: fmt.Sprintf("card %d", id)}
	}
	return cards, nil
}

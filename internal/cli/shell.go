package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user/alsamixer-volume/internal/logging"
)

func newShellCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run subcommands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			return runInteractiveShell(prompt, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "alsamixer> ", "Shell prompt")
	return cmd
}

func runInteractiveShell(prompt string, out io.Writer) error {
	historyFile := filepath.Join(os.TempDir(), "alsamixer-volume-shell.history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(out, "Interactive shell. Type 'help' for commands, 'exit' to leave.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Fprintln(out)
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if !runShellLine(line, out) {
			fmt.Fprintln(out, "Bye!")
			return nil
		}
	}
}

// runShellLine executes one line of input and reports whether the shell
// should keep reading.
func runShellLine(line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case "exit", "quit":
		return false
	case "help":
		printShellHelp(out)
		return true
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(out, "Parse error: %v\n", err)
		return true
	}
	if len(tokens) == 0 {
		return true
	}

	switch tokens[0] {
	case "log":
		if err := handleShellLog(tokens[1:], out); err != nil {
			fmt.Fprintf(out, "log: %v\n", err)
		}
		return true
	case "shell":
		fmt.Fprintln(out, "Already in the shell; type a command or 'exit'.")
		return true
	}

	if err := executeArgs(tokens, out); err != nil {
		fmt.Fprintf(out, "command error: %v\n", err)
	}
	return true
}

func executeArgs(args []string, out io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.Execute()
}

func handleShellLog(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	var show bool
	fs.CountVarP(&vcount, "verbose", "v", "Increase verbosity (-v... up to 3)")
	fs.StringVar(&level, "level", "", "Log level (error|warn|info|debug|trace)")
	fs.BoolVarP(&show, "show", "s", false, "Show the current level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case level != "":
		l, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		logging.SetLevel(l)
	case vcount > 0:
		logging.SetVerbosity(vcount)
	default:
		fmt.Fprintf(out, "log level: %s\n", logging.CurrentLevel())
		return nil
	}

	l := logging.CurrentLevel()
	shellLevel = &l
	fmt.Fprintf(out, "log level set to %s\n", l)
	return nil
}

func printShellHelp(out io.Writer) {
	fmt.Fprintln(out, `Commands:
  volume                      # print the volume
  volume 40                   # set the volume
  mute [on|off|toggle]        # print or change the mute state
  cards                       # list cards and controls
  volume -c 1 --control PCM   # any command takes the global flags
  log --level debug           # change the log level
  log -vv                     # same, by count
  log --show                  # print the log level
  exit / quit                 # leave the shell`)
}

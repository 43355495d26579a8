package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/zenhumany/egalito/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "egalito [file]",
	Short: "AArch64 use-def dataflow and link-resolution toolkit",
	Long: `egalito decodes an AArch64 ELF binary, runs a use-def dataflow
analysis over its functions, resolves relocations and branch targets into
a link graph, and can serialize the result to a compact archive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
			os.Setenv("EGALITO_LOG_LEVEL", "debug")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("no-tui", "n", false, "Disable TUI/markdown rendering for piped output")
}

// Execute picks fang's enhanced rendering when stdout is a terminal and
// --no-tui wasn't requested, and falls back to plain cobra otherwise —
// the same split the teacher's Execute() makes to avoid fang rendering
// markdown into a pipe.
func Execute() {
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" {
			noTUI = true
			break
		}
	}
	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt)); err != nil {
		os.Exit(1)
	}
}

func log() *logging.LoggerCloser { return logging.Default() }

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs [file]",
	Short: "Follow an EGALITO_LOG_TO_FILE log",
	Long: `logs follows the most recently written egalito-*-debug.log file in
the current directory (the files NewLogger writes when EGALITO_LOG_TO_FILE=1),
or a specific file if one is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().Bool("follow", true, "Keep watching the file for new lines")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	path, err := logFilePath(args)
	if err != nil {
		return err
	}
	follow, _ := cmd.Flags().GetBool("follow")

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Location:  &tail.SeekInfo{Whence: io.SeekStart},
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", path, err)
	}

	for line := range t.Lines {
		if line.Err != nil {
			log().Warn("log tail error", "err", line.Err)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), line.Text)
	}
	return t.Err()
}

func logFilePath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	matches, err := filepath.Glob("egalito-*-debug.log")
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no egalito-*-debug.log files found; pass a path explicitly")
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

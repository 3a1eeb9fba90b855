package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scottviteri/r1-chat/internal/logger"
)

var skipConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove r1-chat log files",
	Long: `Removes the debug logs written by the TUI and the demo server.

It will prompt for confirmation before proceeding unless the --yes flag is used.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	return runCleanWithReader(os.Stdin, cmd.OutOrStdout())
}

// runCleanWithReader allows injecting a reader for testing
func runCleanWithReader(input io.Reader, out io.Writer) error {
	var existing []string
	for _, p := range []string{logger.DefaultLogPath, logger.DemoLogPath} {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		fmt.Fprintln(out, "Nothing to clean.")
		return nil
	}

	fmt.Fprintln(out, "This will remove:")
	for _, p := range existing {
		fmt.Fprintf(out, "  - %s\n", p)
	}

	// Confirm unless --yes flag is set
	if !skipConfirm {
		if !confirm(input, out, "Continue?") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	// The running process may hold the debug log open.
	logger.Close()
	removed, err := logger.ClearLogs()
	if err != nil {
		return fmt.Errorf("error clearing logs: %w", err)
	}
	fmt.Fprintf(out, "Removed %d log file(s).\n", removed)
	return nil
}

// confirm prompts the user for y/n confirmation
func confirm(input io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(input)
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

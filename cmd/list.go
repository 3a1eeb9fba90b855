package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scottviteri/r1-chat/internal/logger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the server's conversation ids, one per line",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()
	return listConversations(cmd.Context(), newClient(cfg, ""), cmd.OutOrStdout())
}

// conversationLister is the part of the backend client list needs.
type conversationLister interface {
	ListConversations(ctx context.Context) ([]string, error)
}

func listConversations(ctx context.Context, c conversationLister, out io.Writer) error {
	ids, err := c.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("error listing conversations: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

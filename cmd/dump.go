package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/logger"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <conversation-id>",
	Short: "Print the server's debug snapshot of a conversation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()
	return dumpConversation(cmd.Context(), newClient(cfg, ""), args[0], cmd.OutOrStdout())
}

// debugDumper is the part of the backend client dump needs.
type debugDumper interface {
	DebugDump(ctx context.Context, conversationID string) (backend.DebugDump, error)
}

func dumpConversation(ctx context.Context, c debugDumper, conversationID string, out io.Writer) error {
	raw, err := c.DebugDump(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("error fetching debug snapshot: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not JSON; print it as the server sent it.
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err = out.Write(buf.Bytes())
	return err
}

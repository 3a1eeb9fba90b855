package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/demo"
	"github.com/scottviteri/r1-chat/internal/logger"
)

var (
	demoDelay time.Duration
	demoAddr  string
	demoSeed  bool
	demoDB    string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run r1-chat against a built-in demo server",
	Long: `Run the TUI against an in-process server that speaks the chat protocol and
streams scripted replies. Nothing leaves the machine.

Available subcommands:
  serve     - Serve the demo backend over HTTP for other clients`,
	RunE: runDemo,
}

var demoServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo backend over HTTP",
	RunE:  runDemoServe,
}

func init() {
	demoCmd.PersistentFlags().DurationVar(&demoDelay, "delay", 60*time.Millisecond, "Pause between streamed fragments")
	demoCmd.PersistentFlags().BoolVar(&demoSeed, "seed", true, "Start with a sample conversation")
	demoServeCmd.Flags().StringVar(&demoAddr, "addr", "127.0.0.1:5000", "Listen address")
	demoServeCmd.Flags().StringVar(&demoDB, "db", "", "Persist conversations to this SQLite file")

	demoCmd.AddCommand(demoServeCmd)
	rootCmd.AddCommand(demoCmd)
}

const welcomeID = "welcome"

// newDemoServer builds the demo backend with the command-line options. With a
// store, saved conversations are restored and the sample is only added once.
func newDemoServer(ctx context.Context, st demo.Store) (*demo.Server, error) {
	opts := []demo.Option{demo.WithFragmentDelay(demoDelay)}
	if st != nil {
		opts = append(opts, demo.WithStore(st))
	}
	srv := demo.NewServer(opts...)
	if err := srv.Restore(ctx); err != nil {
		return nil, err
	}
	if _, ok := srv.Conversation(welcomeID); demoSeed && !ok {
		srv.Seed(welcomeID, []backend.Message{
			{Role: backend.RoleUser, Content: "What is $\\sqrt{16}$?"},
			{Role: backend.RoleAssistant, Content: "<think>\nThe square root of 16 is 4.\n</think>\n\n$\\sqrt{16} = 4$"},
		})
	}
	return srv, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.DemoLogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logger.Close()

	srv, err := newDemoServer(cmd.Context(), nil)
	if err != nil {
		return err
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	return runProgram(cfg, newClient(cfg, ts.URL))
}

func runDemoServe(cmd *cobra.Command, args []string) error {
	if err := logger.Init(logger.DemoLogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st demo.Store
	if demoDB != "" {
		sqlite, err := demo.OpenSQLiteStore(demoDB)
		if err != nil {
			return fmt.Errorf("error opening %s: %w", demoDB, err)
		}
		defer sqlite.Close()
		st = sqlite
	}
	srv, err := newDemoServer(ctx, st)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", demoAddr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", demoAddr, err)
	}

	server := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Demo server listening on http://%s (Ctrl+C to stop)\n", ln.Addr())
	logger.Info("Demo server listening on %s", ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("demo server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error stopping demo server: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("Demo server stopped.")
	return nil
}

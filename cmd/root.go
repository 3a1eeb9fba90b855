package cmd

import (
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/scottviteri/r1-chat/internal/app"
	"github.com/scottviteri/r1-chat/internal/backend"
	"github.com/scottviteri/r1-chat/internal/config"
	"github.com/scottviteri/r1-chat/internal/logger"
)

var (
	debugMode             bool
	quietMode             bool
	configPath            string
	noMarkdown            bool
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "r1-chat",
	Short: "Terminal client for a streaming reasoning-model chat server",
	Long: `r1-chat is a terminal client for a chat server that streams model replies.
It keeps several conversations side by side, renders each reply as it streams
in, and lets you stop, delete or copy individual message pairs.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debugMode, "debug", true, "Enable debug logging (on by default)")
	flags.BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")
	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/r1-chat/config.yaml)")
	flags.String("server", config.DefaultServerURL, "Chat server base URL")
	flags.Float64("temperature", config.DefaultTemperature, "Sampling temperature (0 to 2)")
	flags.Float64("top-p", config.DefaultTopP, "Nucleus sampling threshold (0 to 1]")
	flags.Int("max-tokens", config.DefaultMaxTokens, "Maximum tokens per reply")
	flags.Duration("timeout", config.DefaultRequestTimeout, "Timeout for non-streaming requests")
	flags.BoolVar(&noMarkdown, "no-markdown", false, "Show replies as plain text")
}

func initConfig() {
	if quietMode {
		logger.SetDebug(false)
	} else if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	// Set version dynamically
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("r1-chat %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("r1-chat %s\n", version)
}

// loadConfig reads configuration with the command's flags taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: configPath, Flags: cmd.Flags()})
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if noMarkdown {
		u := cfg.GetUI()
		u.Markdown = false
		cfg.SetUI(u)
	}
	return cfg, nil
}

// newClient builds a backend client from the loaded configuration.
func newClient(cfg *config.Config, serverURL string) *backend.Client {
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}
	return backend.NewClient(serverURL, backend.WithTimeout(cfg.RequestTimeout))
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Ensure logger is closed on exit
	defer logger.Close()

	return runProgram(cfg, newClient(cfg, ""))
}

// isTerminal is replaced in tests.
var isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

// requireTerminal fails early when the TUI has no terminal to draw on.
func requireTerminal() error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return fmt.Errorf("r1-chat needs an interactive terminal; use 'r1-chat list' or 'r1-chat dump' from scripts")
	}
	return nil
}

// runProgram runs the TUI against client until the user quits.
func runProgram(cfg *config.Config, client *backend.Client) error {
	if err := requireTerminal(); err != nil {
		return err
	}
	start := time.Now()
	m := app.New(cfg, client, app.ClientDialer(client), app.WithVersion(version))
	defer m.Shutdown()

	logger.Info("Starting r1-chat %s against %s", version, client.BaseURL())
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	logger.Info("r1-chat exited after %s", time.Since(start).Round(time.Second))
	return nil
}

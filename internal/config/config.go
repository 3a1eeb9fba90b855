package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	rerrors "github.com/scottviteri/r1-chat/internal/errors"
)

// EnvPrefix is prepended to every environment override, e.g. R1CHAT_SERVER_URL
// or R1CHAT_SAMPLING_TOP_P.
const EnvPrefix = "R1CHAT"

// Defaults mirror the backend's own fallbacks so an empty config file behaves
// exactly like the browser client did.
const (
	DefaultServerURL      = "http://127.0.0.1:5000"
	DefaultTemperature    = 0.1
	DefaultTopP           = 0.9
	DefaultMaxTokens      = 100
	DefaultTerminalToken  = "[DONE]"
	DefaultFailurePrefix  = "[Request failed"
	DefaultTypesetEvery   = 15
	DefaultAssistantLabel = "R1"
	DefaultUserLabel      = "You"
	DefaultRequestTimeout = 30 * time.Second
)

// Config holds the application configuration
type Config struct {
	ServerURL      string        `mapstructure:"server_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Sampling       Sampling      `mapstructure:"sampling"`
	Stream         Stream        `mapstructure:"stream"`
	UI             UI            `mapstructure:"ui"`

	mu       sync.RWMutex
	v        *viper.Viper
	filePath string
}

// Sampling parameters are forwarded verbatim with every send.
type Sampling struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Stream configures how push-stream fragments are interpreted and rendered.
type Stream struct {
	TerminalToken         string `mapstructure:"terminal_token"`
	FailurePrefix         string `mapstructure:"failure_prefix"`
	TypesetEvery          int    `mapstructure:"typeset_every"`
	AssistantLabel        string `mapstructure:"assistant_label"`
	UserLabel             string `mapstructure:"user_label"`
	NotifyBackendOnCancel bool   `mapstructure:"notify_backend_on_cancel"`
}

type UI struct {
	Markdown      bool `mapstructure:"markdown"`
	Notifications bool `mapstructure:"notifications"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is an explicit config file. When empty the default location is used.
	Path string
	// Flags, when non-nil, override file and environment values for any flag
	// the user actually set.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"server":      "server_url",
	"temperature": "sampling.temperature",
	"top-p":       "sampling.top_p",
	"max-tokens":  "sampling.max_tokens",
	"timeout":     "request_timeout",
}

// configDir returns the path to the config directory
func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "r1-chat"), nil
}

// DefaultPath returns the config file used when no --config flag is given.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)

	v.SetDefault("sampling.temperature", DefaultTemperature)
	v.SetDefault("sampling.top_p", DefaultTopP)
	v.SetDefault("sampling.max_tokens", DefaultMaxTokens)

	v.SetDefault("stream.terminal_token", DefaultTerminalToken)
	v.SetDefault("stream.failure_prefix", DefaultFailurePrefix)
	v.SetDefault("stream.typeset_every", DefaultTypesetEvery)
	v.SetDefault("stream.assistant_label", DefaultAssistantLabel)
	v.SetDefault("stream.user_label", DefaultUserLabel)
	v.SetDefault("stream.notify_backend_on_cancel", true)

	v.SetDefault("ui.markdown", true)
	v.SetDefault("ui.notifications", false)
}

// Default returns a validated configuration built only from defaults.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{v: v}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads the config file (if any), environment and flags, in increasing
// order of precedence. A missing config file is not an error.
func Load(opts LoadOptions) (*Config, error) {
	path := opts.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, rerrors.ConfigLoadFailed("<default>", err)
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, rerrors.ConfigLoadFailed(path, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, rerrors.ConfigLoadFailed(path, err)
		}
	}

	cfg := &Config{v: v, filePath: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, rerrors.ConfigLoadFailed(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return rerrors.ConfigInvalid(fmt.Sprintf("server_url %q must be an http(s) URL", c.ServerURL))
	}
	if c.RequestTimeout < 0 {
		return rerrors.ConfigInvalid("request_timeout must not be negative")
	}
	if err := validateSampling(c.Sampling); err != nil {
		return err
	}
	if c.Stream.TypesetEvery < 1 {
		return rerrors.ConfigInvalid("stream.typeset_every must be at least 1")
	}
	if c.Stream.TerminalToken == "" {
		return rerrors.ConfigInvalid("stream.terminal_token must not be empty")
	}
	if c.Stream.FailurePrefix == "" {
		return rerrors.ConfigInvalid("stream.failure_prefix must not be empty")
	}
	return nil
}

func validateSampling(s Sampling) error {
	if s.Temperature < 0 || s.Temperature > 2 {
		return rerrors.ConfigInvalid(fmt.Sprintf("temperature %.2f out of range [0, 2]", s.Temperature))
	}
	if s.TopP <= 0 || s.TopP > 1 {
		return rerrors.ConfigInvalid(fmt.Sprintf("top_p %.2f out of range (0, 1]", s.TopP))
	}
	if s.MaxTokens < 1 {
		return rerrors.ConfigInvalid(fmt.Sprintf("max_tokens %d must be at least 1", s.MaxTokens))
	}
	return nil
}

// GetSampling returns the sampling parameters to use for the next send.
func (c *Config) GetSampling() Sampling {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Sampling
}

// SetSampling replaces the sampling parameters after validating them. Sends
// already in flight are unaffected.
func (c *Config) SetSampling(s Sampling) error {
	if err := validateSampling(s); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sampling = s
	return nil
}

// GetUI returns the display options.
func (c *Config) GetUI() UI {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.UI
}

// SetUI replaces the display options.
func (c *Config) SetUI(u UI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.UI = u
}

// FilePath returns the file Save writes to.
func (c *Config) FilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filePath
}

// Save writes the current values to the config file, creating its directory
// if needed.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.filePath == "" {
		return rerrors.ConfigLoadFailed("<unset>", errors.New("no config file path"))
	}
	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return rerrors.E(rerrors.Op("config.Save"), rerrors.KindConfig, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("server_url", c.ServerURL)
	v.Set("request_timeout", c.RequestTimeout.String())
	v.Set("sampling.temperature", c.Sampling.Temperature)
	v.Set("sampling.top_p", c.Sampling.TopP)
	v.Set("sampling.max_tokens", c.Sampling.MaxTokens)
	v.Set("stream.terminal_token", c.Stream.TerminalToken)
	v.Set("stream.failure_prefix", c.Stream.FailurePrefix)
	v.Set("stream.typeset_every", c.Stream.TypesetEvery)
	v.Set("stream.assistant_label", c.Stream.AssistantLabel)
	v.Set("stream.user_label", c.Stream.UserLabel)
	v.Set("stream.notify_backend_on_cancel", c.Stream.NotifyBackendOnCancel)
	v.Set("ui.markdown", c.UI.Markdown)
	v.Set("ui.notifications", c.UI.Notifications)

	if err := v.WriteConfigAs(c.filePath); err != nil {
		return rerrors.E(rerrors.Op("config.Save"), rerrors.KindConfig, fmt.Sprintf("failed to save config to %s", c.filePath), err)
	}
	return nil
}

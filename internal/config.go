package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/toozej/sn2ssg/internal/ssg"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DumpFileName is the fixed name of the fetched dump inside the input
// directory. It only exists between a fetch and the end of a successful
// cycle.
const DumpFileName = "sn_dump.md"

// Duration wraps time.Duration so YAML scalars like "90s" or "1h" decode
// directly into config fields.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Dirs   DirsConfig        `yaml:"dirs"`
	Notes  NotesConfig       `yaml:"notes"`
	SSG    SSGConfig         `yaml:"ssg"`
	Fetch  FetchConfig       `yaml:"fetch"`
	Gotify GotifyConfig      `yaml:"gotify"`
	Watch  WatchConfig       `yaml:"watch"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Dirs.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.SSG.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Gotify.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel     slog.Level `yaml:"log_level"`
	HTTP         HTTPConfig `yaml:"http"`
	Debug        bool       `yaml:"debug"`
	PollInterval Duration   `yaml:"poll_interval"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if c.PollInterval.Std() <= 0 {
		return fmt.Errorf("app: poll_interval must be positive")
	}
	return nil
}

// HTTPConfig holds status server configuration. Port 0 disables the server.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the status server listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Enabled reports whether the status server should be started.
func (c *HTTPConfig) Enabled() bool {
	return c.Port > 0
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// DirsConfig holds the input (dump) and output (rendered notes) directories.
// Both are created at startup if absent.
type DirsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// Validate validates the directory configuration.
func (c *DirsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Input, validation.Required),
		validation.Field(&c.Output, validation.Required),
	)
}

// NotesConfig controls which notes are fetched and how continuous notes are
// expanded.
type NotesConfig struct {
	ScopeTag              string `yaml:"scope_tag"`
	ContinuousTag         string `yaml:"continuous_tag"`
	ContinuousReplacement string `yaml:"continuous_replacement"`
}

// Validate validates the notes configuration. An empty replacement defaults
// to the part of the continuous tag after its last colon, so "notes:list"
// expands into notes tagged "list".
func (c *NotesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ScopeTag, validation.Required),
	); err != nil {
		return err
	}
	if c.ContinuousTag != "" && c.ContinuousReplacement == "" {
		if idx := strings.LastIndex(c.ContinuousTag, ":"); idx >= 0 {
			c.ContinuousReplacement = c.ContinuousTag[idx+1:]
		} else {
			c.ContinuousReplacement = c.ContinuousTag
		}
	}
	return nil
}

// SSGConfig controls header synthesis for the target site generator.
type SSGConfig struct {
	Type          string             `yaml:"type"`
	TemplateDir   string             `yaml:"template_dir"`
	Author        string             `yaml:"author"`
	StripTags     []string           `yaml:"strip_tags"`
	UnlistedTags  []string           `yaml:"unlisted_tags"`
	Substitutions []ssg.Substitution `yaml:"substitutions"`
}

// Validate validates the SSG configuration. Substitution patterns must
// compile here so a bad pattern fails the process at startup instead of
// mid-batch.
func (c *SSGConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required),
		validation.Field(&c.TemplateDir, validation.Required),
		validation.Field(&c.Author, validation.Required),
	); err != nil {
		return err
	}
	for _, sub := range c.Substitutions {
		if _, err := sub.Pattern(); err != nil {
			return fmt.Errorf("ssg: substitution %q does not compile: %w", sub.Find, err)
		}
	}
	return nil
}

// IgnoredTags returns the tags removed from rendered category lists: the
// scope tag plus the configured strip tags.
func (c *Config) IgnoredTags() []string {
	return append([]string{c.Notes.ScopeTag}, c.SSG.StripTags...)
}

// FetchConfig controls the dump tool invocation and its retry budget.
type FetchConfig struct {
	Binary     string   `yaml:"binary"`
	MaxRetries int      `yaml:"max_retries"`
	BaseDelay  Duration `yaml:"base_delay"`
	MaxDelay   Duration `yaml:"max_delay"`
}

// Validate validates the fetch configuration.
func (c *FetchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxRetries, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.BaseDelay.Std() <= 0 {
		return fmt.Errorf("fetch: base_delay must be positive")
	}
	if c.MaxDelay.Std() < c.BaseDelay.Std() {
		return fmt.Errorf("fetch: max_delay must be at least base_delay")
	}
	return nil
}

// GotifyConfig holds the notification endpoint. Leaving both fields empty
// disables notifications.
type GotifyConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Validate validates the notification configuration.
func (c *GotifyConfig) Validate() error {
	if (c.URL == "") != (c.Token == "") {
		return fmt.Errorf("gotify: url and token must be set together")
	}
	return nil
}

// WatchConfig holds the optional refresh trigger directory. An empty path
// disables the watcher.
type WatchConfig struct {
	Path     string   `yaml:"path"`
	Debounce Duration `yaml:"debounce"`
}

// AuthConfig holds authentication configuration for the status server.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:     slog.LevelInfo,
			HTTP:         HTTPConfig{Port: 8080},
			PollInterval: Duration(time.Hour),
		},
		Dirs: DirsConfig{
			Input:  "./input",
			Output: "./output",
		},
		Notes: NotesConfig{
			ScopeTag: "published",
		},
		SSG: SSGConfig{
			Type:        "hugo",
			TemplateDir: "./templates",
			Author:      "root",
			StripTags:   []string{"blog"},
		},
		Fetch: FetchConfig{
			Binary:     "sncli",
			MaxRetries: 5,
			BaseDelay:  Duration(time.Second),
			MaxDelay:   Duration(300 * time.Second),
		},
		Watch: WatchConfig{
			Debounce: Duration(200 * time.Millisecond),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

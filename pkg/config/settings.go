package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Default and LoadFile.
const (
	DefaultVersion   = "1.0"
	DefaultServerURL = "https://dd-telemetry.herokuapp.com/"
)

// Configuration errors.
var (
	ErrNoServerURL = errors.New("server URL is required when networking is enabled")
	ErrNoUserName  = errors.New("user name is required when networking is enabled")
)

// Settings holds login details and policies for one collector.
//
// Loggers and services compare settings by pointer, so share a single
// *Settings between every logger that should use the same connection.
type Settings struct {
	// Name labels these settings in diagnostics.
	Name string `yaml:"name" env:"TELEMETRY_NAME"`

	// UserName selects the collector table events are written to.
	UserName string `yaml:"user_name" env:"TELEMETRY_USER_NAME"`

	// Secret authenticates UserName with the collector.
	Secret string `yaml:"secret" env:"TELEMETRY_SECRET"`

	// Version identifies the build that produced the events.
	Version string `yaml:"version" env:"TELEMETRY_VERSION"`

	// Platform is appended to Version. Defaults to runtime.GOOS.
	Platform string `yaml:"platform" env:"TELEMETRY_PLATFORM"`

	// ServerURL is the collector base address.
	ServerURL string `yaml:"server_url" env:"TELEMETRY_SERVER_URL"`

	// Networking controls when the collector is contacted.
	Networking NetworkingMode `yaml:"networking" env:"TELEMETRY_NETWORKING"`

	// Logging controls which diagnostics are written.
	Logging LoggingPolicy `yaml:"logging" env:"TELEMETRY_LOGGING"`

	// JournalPath, if set, records every transmission attempt to a local file.
	JournalPath string `yaml:"journal_path" env:"TELEMETRY_JOURNAL_PATH"`
}

// Default returns settings with the stock collector address and policies.
func Default() *Settings {
	return &Settings{
		Name:       "default",
		Version:    DefaultVersion,
		ServerURL:  DefaultServerURL,
		Networking: NetworkingRuntimeAndEditor,
		Logging:    LoggingWarningsAndErrors,
	}
}

// LoadFile reads YAML settings from path on top of Default.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// ApplyEnv overrides fields from TELEMETRY_* environment variables.
func (s *Settings) ApplyEnv() error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the settings are usable for the configured networking mode.
func (s *Settings) Validate() error {
	if s.Networking == NetworkingDisabled {
		return nil
	}
	if s.ServerURL == "" {
		return ErrNoServerURL
	}
	u, err := url.Parse(s.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", s.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server URL %q: scheme must be http or https", s.ServerURL)
	}
	if s.UserName == "" {
		return ErrNoUserName
	}
	return nil
}

// VersionString returns the version labelled with the platform it runs on.
func (s *Settings) VersionString() string {
	platform := s.Platform
	if platform == "" {
		platform = runtime.GOOS
	}
	return fmt.Sprintf("%s-%s", s.Version, platform)
}

// WakeUpURL is probed until the collector responds.
func (s *Settings) WakeUpURL() string { return s.baseURL() + "awake" }

// ConnectURL authenticates and starts a new logging session.
func (s *Settings) ConnectURL() string { return s.baseURL() + "connect" }

// LogURL receives events for the current session.
func (s *Settings) LogURL() string { return s.baseURL() + "log" }

func (s *Settings) baseURL() string {
	if strings.HasSuffix(s.ServerURL, "/") {
		return s.ServerURL
	}
	return s.ServerURL + "/"
}

// DisplayName returns Name, or a placeholder for unnamed settings.
func (s *Settings) DisplayName() string {
	if s.Name == "" {
		return "unnamed settings"
	}
	return s.Name
}

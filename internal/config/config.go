// Package config handles Emissary configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/emissary/config.yaml, /etc/emissary/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "emissary", "config.yaml"))
	}

	paths = append(paths, "/etc/emissary/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Emissary configuration.
type Config struct {
	Listen    ListenConfig   `yaml:"listen"`
	Persona   PersonaConfig  `yaml:"persona"`
	Primary   EndpointConfig `yaml:"primary"`
	Evaluator EndpointConfig `yaml:"evaluator"`
	Rerun     EndpointConfig `yaml:"rerun"`
	Pushover  PushoverConfig `yaml:"pushover"`
	Agent     AgentConfig    `yaml:"agent"`
	DataDir   string         `yaml:"data_dir"`
	LogLevel  string         `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// PersonaConfig locates the grounding context for the agent.
type PersonaConfig struct {
	// Name is the person the agent represents.
	Name string `yaml:"name"`
	// SummaryFile is a plain-text background summary.
	SummaryFile string `yaml:"summary_file"`
	// ProfileFile is the full profile document. Plain text and Markdown
	// are read verbatim; .html/.htm files are reduced to readable text.
	ProfileFile string `yaml:"profile_file"`
}

// EndpointConfig defines one chat completion endpoint.
// Primary, evaluator, and rerun calls may use entirely different
// providers and credentials.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// PushoverConfig defines the push notification credentials.
// Notifications are disabled when the token is empty.
type PushoverConfig struct {
	Token string `yaml:"token"`
	User  string `yaml:"user"`
}

// AgentConfig tunes the conversation engine.
type AgentConfig struct {
	// MaxToolRounds bounds the tool-call loop. After this many rounds the
	// model is re-invoked without tools to force a plain answer.
	// Zero means the default (10).
	MaxToolRounds int `yaml:"max_tool_rounds"`
}

// DefaultMaxToolRounds is used when agent.max_tool_rounds is unset.
const DefaultMaxToolRounds = 10

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{
		Listen: ListenConfig{Port: 8080},
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks for required settings. The agent must not serve any
// conversation without grounding context and a primary endpoint.
func (c *Config) Validate() error {
	if c.Persona.Name == "" {
		return fmt.Errorf("persona.name is required")
	}
	if c.Persona.SummaryFile == "" {
		return fmt.Errorf("persona.summary_file is required")
	}
	if c.Persona.ProfileFile == "" {
		return fmt.Errorf("persona.profile_file is required")
	}
	if c.Primary.BaseURL == "" || c.Primary.Model == "" {
		return fmt.Errorf("primary.base_url and primary.model are required")
	}
	if c.Evaluator.BaseURL == "" || c.Evaluator.Model == "" {
		return fmt.Errorf("evaluator.base_url and evaluator.model are required")
	}
	if c.Rerun.BaseURL == "" || c.Rerun.Model == "" {
		return fmt.Errorf("rerun.base_url and rerun.model are required")
	}
	return nil
}

// MaxToolRounds returns the configured round cap, or the default.
func (c *Config) MaxToolRounds() int {
	if c.Agent.MaxToolRounds > 0 {
		return c.Agent.MaxToolRounds
	}
	return DefaultMaxToolRounds
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Agent:  AgentConfig{MaxToolRounds: DefaultMaxToolRounds},
	}
}

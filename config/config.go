// Package config loads Dosaku's YAML configuration file: provider API keys
// and default models, front-end settings and managed directory paths. Fields
// left empty in the file fall back to environment variables, so secrets can
// stay out of the file entirely.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OpenAI holds OpenAI provider settings.
type OpenAI struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
}

// Anthropic holds Anthropic provider settings.
type Anthropic struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
}

// Discord holds Discord front-end settings.
type Discord struct {
	Token           string   `yaml:"token"`
	CommandPrefixes []string `yaml:"command_prefixes"`
}

// Server holds HTTP front-end settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration document.
type Config struct {
	OpenAI    OpenAI            `yaml:"openai"`
	Anthropic Anthropic         `yaml:"anthropic"`
	Discord   Discord           `yaml:"discord"`
	Server    Server            `yaml:"server"`
	DirPaths  map[string]string `yaml:"dir_paths"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Discord.CommandPrefixes = []string{">", "dosaku "}
	cfg.Server.Addr = ":8080"
	cfg.applyEnv()
	return cfg
}

// Load reads a YAML configuration file and applies environment fallbacks for
// fields the file leaves empty.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if len(cfg.Discord.CommandPrefixes) == 0 {
		cfg.Discord.CommandPrefixes = []string{">", "dosaku "}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	fallback(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fallback(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fallback(&c.Discord.Token, "DISCORD_TOKEN")
	fallback(&c.Server.Addr, "DOSAKU_SERVER_ADDR")
}

func fallback(field *string, env string) {
	if *field == "" {
		*field = os.Getenv(env)
	}
}

// EnsureDirs creates every configured directory path that does not yet exist
// and returns the ones it created.
func (c *Config) EnsureDirs() ([]string, error) {
	var created []string
	for _, dir := range c.DirPaths {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create dir %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

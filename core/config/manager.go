// Package config loads and layers compass configuration: defaults, then the
// user config file, then a working-directory override file, then environment
// variables. The active config is swapped atomically so concurrent readers
// always see a consistent snapshot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/northbound-labs/compass/core/providers"
	"github.com/northbound-labs/compass/core/storage"
)

// localConfigName is the working-directory override file.
const localConfigName = "compass.yaml"

type Manager struct {
	config    atomic.Pointer[Config]
	dirs      *storage.Dirs
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Store     StoreConfig     `yaml:"store"`
	Personas  PersonasConfig  `yaml:"personas"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Chat      ChatConfig      `yaml:"chat"`
}

type ProviderConfig struct {
	Default   string        `yaml:"default"` // anthropic | openai
	Timeout   time.Duration `yaml:"timeout"`
	Anthropic BackendConfig `yaml:"anthropic"`
	OpenAI    BackendConfig `yaml:"openai"`
}

// BackendConfig is the per-backend slice of the config file. API keys are
// usually supplied via environment rather than written here. Zero fields fall
// back to the provider package's defaults.
type BackendConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type PersonasConfig struct {
	Dir       string `yaml:"dir"`
	HotReload bool   `yaml:"hot_reload"`
}

type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ChatConfig struct {
	Streaming  bool `yaml:"streaming"`
	MaxHistory int  `yaml:"max_history"`
}

func NewManager(dirs *storage.Dirs) *Manager {
	m := &Manager{dirs: dirs}
	m.config.Store(DefaultConfig(dirs))
	return m
}

func DefaultConfig(dirs *storage.Dirs) *Config {
	return &Config{
		Provider: ProviderConfig{
			Default: string(providers.ProviderTypeAnthropic),
			Timeout: 2 * time.Minute,
		},
		Store: StoreConfig{
			Path: dirs.DatabasePath(),
		},
		Personas: PersonasConfig{
			Dir:       dirs.PersonasDir(),
			HotReload: true,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Chat: ChatConfig{
			Streaming:  true,
			MaxHistory: 40,
		},
	}
}

// Get returns the active config snapshot.
func (m *Manager) Get() *Config {
	return m.config.Load()
}

// Load rebuilds the config from all layers and swaps it in.
func (m *Manager) Load() error {
	cfg := DefaultConfig(m.dirs)

	if err := m.loadYAMLFile(m.dirs.ConfigDir("config.yaml"), cfg); err != nil {
		return fmt.Errorf("user config: %w", err)
	}
	if err := m.loadYAMLFile(filepath.Join(".", localConfigName), cfg); err != nil {
		return fmt.Errorf("local config: %w", err)
	}

	m.applyEnvironment(cfg)

	m.config.Store(cfg)
	m.notifyWatchers(cfg)
	return nil
}

// loadYAMLFile overlays one file onto cfg. A missing file is not an error;
// fields absent from the file keep their current values.
func (m *Manager) loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Provider.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Provider.OpenAI.APIKey = v
	}
	if v := os.Getenv("COMPASS_PROVIDER"); v != "" {
		cfg.Provider.Default = v
	}
	if v := os.Getenv("COMPASS_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.Timeout = d
		}
	}
	if v := os.Getenv("COMPASS_MODEL"); v != "" {
		cfg.Provider.Anthropic.Model = v
		cfg.Provider.OpenAI.Model = v
	}
	if v := os.Getenv("COMPASS_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("COMPASS_PERSONAS_DIR"); v != "" {
		cfg.Personas.Dir = v
	}
	if v := os.Getenv("COMPASS_TELEMETRY"); v != "" {
		cfg.Telemetry.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("COMPASS_STREAMING"); v != "" {
		cfg.Chat.Streaming = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("COMPASS_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxHistory = n
		}
	}
}

// OnChange registers a callback invoked after every successful Load.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

// overlayBackend applies the non-zero file/env values on top of the provider
// package's defaults.
func (b BackendConfig) overlayBackend(base *providers.BaseConfig, timeout time.Duration) {
	base.APIKey = b.APIKey
	if b.Model != "" {
		base.Model = b.Model
	}
	if b.MaxTokens > 0 {
		base.MaxTokens = b.MaxTokens
	}
	if b.Temperature > 0 {
		base.Temperature = b.Temperature
	}
	if timeout > 0 {
		base.Timeout = timeout
	}
}

// AnthropicConfig maps the loaded settings onto the provider's config shape.
func (c *Config) AnthropicConfig() providers.AnthropicConfig {
	cfg := providers.DefaultAnthropicConfig()
	c.Provider.Anthropic.overlayBackend(&cfg.BaseConfig, c.Provider.Timeout)
	cfg.BaseURL = c.Provider.Anthropic.BaseURL
	return cfg
}

// OpenAIConfig maps the loaded settings onto the provider's config shape.
func (c *Config) OpenAIConfig() providers.OpenAIConfig {
	cfg := providers.DefaultOpenAIConfig()
	c.Provider.OpenAI.overlayBackend(&cfg.BaseConfig, c.Provider.Timeout)
	cfg.BaseURL = c.Provider.OpenAI.BaseURL
	return cfg
}

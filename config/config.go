package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML
// config file. Environment variables override values read from the file.
const ConfigFileEnv = "PAGECHAT_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Chat      ChatConfig      `yaml:"chat"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 3000
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser used for rendered extraction.
type BrowserConfig struct {
	// Enabled toggles the rendered (Tier 2) extraction fallback.
	Enabled bool `yaml:"enabled"` // default: true

	Headless bool `yaml:"headless"` // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int `yaml:"max_pages"` // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"`

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	Proxy string `yaml:"proxy"`

	// Stealth injects navigator.webdriver masking before navigation.
	Stealth bool `yaml:"stealth"`
}

// ExtractorConfig controls the tiered page extractor.
type ExtractorConfig struct {
	// HTTPTimeout bounds the Tier 1 fetch.
	HTTPTimeout time.Duration `yaml:"http_timeout"` // default: 10s

	// MaxRedirects caps redirects followed by the Tier 1 fetch.
	MaxRedirects int `yaml:"max_redirects"` // default: 3

	// MinContentLength is the body length below which Tier 2 is attempted.
	MinContentLength int `yaml:"min_content_length"` // default: 200

	// RenderTimeout bounds the whole Tier 2 render.
	RenderTimeout time.Duration `yaml:"render_timeout"` // default: 20s

	// MaxScrollSteps bounds the lazy-load scroll loop.
	MaxScrollSteps int `yaml:"max_scroll_steps"` // default: 8

	ScrollDelay time.Duration `yaml:"scroll_delay"` // default: 250ms

	// BlockedResourceTypes lists resource types to block during rendering.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`
}

// CacheConfig controls the extraction cache.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`         // default: 30m
	MaxEntries int           `yaml:"max_entries"` // default: 1000
}

// ProvidersConfig lists the remote completion providers in priority order.
type ProvidersConfig struct {
	// Timeout bounds each individual provider call.
	Timeout time.Duration `yaml:"timeout"` // default: 15s

	// Order is the priority order by provider name.
	// default: ["groq", "openai", "openrouter", "anthropic"]
	Order []string `yaml:"order"`

	Groq       ProviderConfig `yaml:"groq"`
	OpenAI     ProviderConfig `yaml:"openai"`
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Anthropic  ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig configures one provider. An empty APIKey disables it.
type ProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ChatConfig controls reply shaping and conversation bookkeeping.
type ChatConfig struct {
	// MaxSentences is the sentence clamp applied to every reply.
	MaxSentences int `yaml:"max_sentences"` // default: 3

	// ActiveChatTTL is how long a conversation ID counts as active.
	ActiveChatTTL time.Duration `yaml:"active_chat_ttl"` // default: 30m

	DefaultRobotName string `yaml:"default_robot_name"` // default: "Assistente Virtual"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"` // default: false
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 2
	Burst             int     `yaml:"burst"`               // default: 20
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 3000, Mode: "release"},
		Browser: BrowserConfig{
			Enabled:  true,
			Headless: true,
			MaxPages: 4,
		},
		Extractor: ExtractorConfig{
			HTTPTimeout:      10 * time.Second,
			MaxRedirects:     3,
			MinContentLength: 200,
			RenderTimeout:    20 * time.Second,
			MaxScrollSteps:   8,
			ScrollDelay:      250 * time.Millisecond,
			BlockedResourceTypes: []string{
				"Image", "Stylesheet", "Font", "Media",
			},
		},
		Cache: CacheConfig{TTL: 30 * time.Minute, MaxEntries: 1000},
		Providers: ProvidersConfig{
			Timeout: 15 * time.Second,
			Order:   []string{"groq", "openai", "openrouter", "anthropic"},
			Groq: ProviderConfig{
				Model:       "llama-3.1-70b-versatile",
				BaseURL:     "https://api.groq.com/openai/v1",
				Temperature: 0.4,
				MaxTokens:   250,
			},
			OpenAI: ProviderConfig{
				Model:       "gpt-4o-mini",
				BaseURL:     "https://api.openai.com/v1",
				Temperature: 0.2,
				MaxTokens:   250,
			},
			OpenRouter: ProviderConfig{
				Model:       "openai/gpt-4o-mini",
				BaseURL:     "https://openrouter.ai/api/v1",
				Temperature: 0.3,
				MaxTokens:   250,
			},
			Anthropic: ProviderConfig{
				Model:       "claude-3-5-haiku-latest",
				Temperature: 0.3,
				MaxTokens:   250,
			},
		},
		Chat: ChatConfig{
			MaxSentences:     3,
			ActiveChatTTL:    30 * time.Minute,
			DefaultRobotName: "Assistente Virtual",
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 2, Burst: 20},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by PAGECHAT_CONFIG, and environment variables, in that order.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(ConfigFileEnv))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file
// layer.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile decodes the YAML file at path on top of cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Host = envOr("PAGECHAT_HOST", s.Host)
	s.Port = envIntOr("PORT", envIntOr("PAGECHAT_PORT", s.Port))
	s.Mode = envOr("PAGECHAT_MODE", s.Mode)

	b := &cfg.Browser
	b.Enabled = envBoolOr("PAGECHAT_RENDER_ENABLED", b.Enabled)
	b.Headless = envBoolOr("PAGECHAT_HEADLESS", b.Headless)
	b.MaxPages = envIntOr("PAGECHAT_MAX_PAGES", b.MaxPages)
	b.NoSandbox = envBoolOr("PAGECHAT_NO_SANDBOX", b.NoSandbox)
	b.BrowserBin = envOr("PAGECHAT_BROWSER_BIN", b.BrowserBin)
	b.Proxy = envOr("PAGECHAT_PROXY", b.Proxy)
	b.Stealth = envBoolOr("PAGECHAT_STEALTH", b.Stealth)

	e := &cfg.Extractor
	e.HTTPTimeout = envDurationOr("PAGECHAT_HTTP_TIMEOUT", e.HTTPTimeout)
	e.MaxRedirects = envIntOr("PAGECHAT_MAX_REDIRECTS", e.MaxRedirects)
	e.MinContentLength = envIntOr("PAGECHAT_MIN_CONTENT_LENGTH", e.MinContentLength)
	e.RenderTimeout = envDurationOr("PAGECHAT_RENDER_TIMEOUT", e.RenderTimeout)
	e.MaxScrollSteps = envIntOr("PAGECHAT_MAX_SCROLL_STEPS", e.MaxScrollSteps)
	e.ScrollDelay = envDurationOr("PAGECHAT_SCROLL_DELAY", e.ScrollDelay)
	e.BlockedResourceTypes = envSliceOr("PAGECHAT_BLOCKED_RESOURCES", e.BlockedResourceTypes)

	cfg.Cache.TTL = envDurationOr("PAGECHAT_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.MaxEntries = envIntOr("PAGECHAT_CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	p := &cfg.Providers
	p.Timeout = envDurationOr("PAGECHAT_PROVIDER_TIMEOUT", p.Timeout)
	p.Order = envSliceOr("PAGECHAT_PROVIDER_ORDER", p.Order)
	applyProviderEnv("GROQ", &p.Groq)
	applyProviderEnv("OPENAI", &p.OpenAI)
	applyProviderEnv("OPENROUTER", &p.OpenRouter)
	applyProviderEnv("ANTHROPIC", &p.Anthropic)

	c := &cfg.Chat
	c.MaxSentences = envIntOr("PAGECHAT_MAX_SENTENCES", c.MaxSentences)
	c.ActiveChatTTL = envDurationOr("PAGECHAT_ACTIVE_CHAT_TTL", c.ActiveChatTTL)
	c.DefaultRobotName = envOr("PAGECHAT_ROBOT_NAME", c.DefaultRobotName)

	cfg.Auth.Enabled = envBoolOr("PAGECHAT_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.APIKeys = envSliceOr("PAGECHAT_API_KEYS", cfg.Auth.APIKeys)

	cfg.RateLimit.RequestsPerSecond = envFloatOr("PAGECHAT_RATE_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = envIntOr("PAGECHAT_RATE_BURST", cfg.RateLimit.Burst)

	cfg.Log.Level = envOr("LOG_LEVEL", envOr("PAGECHAT_LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = envOr("PAGECHAT_LOG_FORMAT", cfg.Log.Format)
}

// applyProviderEnv reads <PREFIX>_API_KEY, <PREFIX>_MODEL and
// <PREFIX>_API_BASE into pc.
func applyProviderEnv(prefix string, pc *ProviderConfig) {
	pc.APIKey = envOr(prefix+"_API_KEY", pc.APIKey)
	pc.Model = envOr(prefix+"_MODEL", pc.Model)
	pc.BaseURL = envOr(prefix+"_API_BASE", pc.BaseURL)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

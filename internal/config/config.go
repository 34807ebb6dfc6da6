package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	// Start with defaults
	_loaded = &defaultConfig

	configFile := os.Getenv("CHARLENE_CONFIG_FILE")
	if configFile == "" {
		configFile = "charlene.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file %s: %v, using defaults", configFile, err)
	}

	// Apply environment variable overrides (highest priority)
	ApplyEnvOverrides()
}

func LoadDefault() {
	config := defaultConfig
	_loaded = &config
}

// LoadFromFile loads configuration from a YAML file, merged over defaults
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:          "0.0.0.0",
			Port:          3000,
			MaxUploadSize: 10485760,
		},
		Bot: botConfig{
			Name:           "Charlene",
			WelcomeMessage: "Hello! I'm Charlene, your virtual sewing assistant. How can I help you today?",
		},
		Assistant: assistantConfig{
			BaseURL:        "https://openrouter.ai/api/v1",
			Model:          "deepseek/deepseek-r1-0528-qwen3-8b:free",
			MaxTokens:      1500,
			Temperature:    0.7,
			TopP:           0.9,
			TimeoutSeconds: 30,
		},
		Transcription: transcriptionConfig{
			Language: "en",
		},
		Speech: speechConfig{
			Language:      "en",
			AudioDir:      "temp_audio",
			MaxTextLength: 300,
			FileTTLMin:    5,
		},
		Session: sessionConfig{
			MaxAgeHours:      24,
			SweepIntervalMin: 60,
			MaxHistory:       16,
		},
	},
}

type Common struct {
	Log           logConfig           `yaml:"log"`
	Http          httpConfig          `yaml:"http"`
	Bot           botConfig           `yaml:"bot"`
	Assistant     assistantConfig     `yaml:"assistant"`
	Transcription transcriptionConfig `yaml:"transcription"`
	Speech        speechConfig        `yaml:"speech"`
	Session       sessionConfig       `yaml:"session"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type botConfig struct {
	Name           string `yaml:"name"`
	WelcomeMessage string `yaml:"welcome_message"`
}

type assistantConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

func (c assistantConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type transcriptionConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type speechConfig struct {
	Language      string `yaml:"language"`
	AudioDir      string `yaml:"audio_dir"`
	MaxTextLength int    `yaml:"max_text_length"`
	FileTTLMin    int    `yaml:"file_ttl_minutes"`
}

func (c speechConfig) FileTTL() time.Duration {
	return time.Duration(c.FileTTLMin) * time.Minute
}

type sessionConfig struct {
	MaxAgeHours      int `yaml:"max_age_hours"`
	SweepIntervalMin int `yaml:"sweep_interval_minutes"`
	MaxHistory       int `yaml:"max_history"`
}

func (c sessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

func (c sessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMin) * time.Minute
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Bot() botConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Bot
}

func Assistant() assistantConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Assistant
}

func Transcription() transcriptionConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Transcription
}

func Speech() speechConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Speech
}

func Session() sessionConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Session
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	if httpHost := os.Getenv("CHARLENE_HTTP_HOST"); httpHost != "" {
		_loaded.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("CHARLENE_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}
	// bare PORT is honored too, for PaaS-style deployments
	if httpPort := os.Getenv("PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}

	if logLevel := os.Getenv("CHARLENE_LOG_LEVEL"); logLevel != "" {
		_loaded.Common.Log.Level = logLevel
	}
	if logFormat := os.Getenv("CHARLENE_LOG_FORMAT"); logFormat != "" {
		_loaded.Common.Log.Format = logFormat
	}

	if botName := os.Getenv("CHARLENE_BOT_NAME"); botName != "" {
		_loaded.Common.Bot.Name = botName
	}

	if apiKey := os.Getenv("CHARLENE_OPENROUTER_API_KEY"); apiKey != "" {
		_loaded.Common.Assistant.APIKey = apiKey
	}
	if baseURL := os.Getenv("CHARLENE_OPENROUTER_BASE_URL"); baseURL != "" {
		_loaded.Common.Assistant.BaseURL = baseURL
	}
	if model := os.Getenv("CHARLENE_ASSISTANT_MODEL"); model != "" {
		_loaded.Common.Assistant.Model = model
	}

	if apiKey := os.Getenv("CHARLENE_ASSEMBLYAI_API_KEY"); apiKey != "" {
		_loaded.Common.Transcription.APIKey = apiKey
	}

	if audioDir := os.Getenv("CHARLENE_AUDIO_DIR"); audioDir != "" {
		_loaded.Common.Speech.AudioDir = audioDir
	}

	if maxAge := os.Getenv("CHARLENE_SESSION_MAX_AGE_HOURS"); maxAge != "" {
		if hours, err := strconv.Atoi(maxAge); err == nil {
			_loaded.Common.Session.MaxAgeHours = hours
		}
	}
}

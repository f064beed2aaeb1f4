package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the namespace prefix for all RoleVerse environment variables.
const EnvPrefix = "ROLEVERSE_"

// Config holds all application configuration. Secrets (API keys, passwords)
// are loaded exclusively from environment variables and never appear in the
// config file.
type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisDB       int    `yaml:"redis_db"`
	UploadDir     string `yaml:"upload_dir"`
	APIBaseURL    string `yaml:"api_base_url"`
	ChatModel     string `yaml:"chat_model"`
	SpeechModel   string `yaml:"speech_model"`
	ImageModel    string `yaml:"image_model"`
	ASRModel      string `yaml:"asr_model"`
	ASRLanguage   string `yaml:"asr_language"`
	DefaultVoice  string `yaml:"default_voice"`
	DrainTimeout  string `yaml:"drain_timeout"`
	AudioMaxAge   string `yaml:"audio_max_age"`

	// Secrets — env vars only, never serialized to YAML.
	RedisPassword   string `yaml:"-"`
	LLMAPIKey       string `yaml:"-"`
	DashScopeAPIKey string `yaml:"-"`
	DeepgramAPIKey  string `yaml:"-"`
}

func defaults() Config {
	return Config{
		HTTPAddr:     ":8080",
		RedisAddr:    "localhost:6379",
		UploadDir:    "data/uploads/audio",
		APIBaseURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
		ChatModel:    "openai/qwen-plus",
		SpeechModel:  "cosyvoice-v1",
		ImageModel:   "wanx-v1",
		ASRModel:     "nova-2",
		ASRLanguage:  "en-US",
		DefaultVoice: "longxiaochun",
		DrainTimeout: "3s",
		AudioMaxAge:  "24h",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// ParsedDrainTimeout returns DrainTimeout as a time.Duration, falling back
// to 3s if the value is invalid.
func (c *Config) ParsedDrainTimeout() time.Duration {
	d, err := time.ParseDuration(c.DrainTimeout)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// ParsedAudioMaxAge returns AudioMaxAge as a time.Duration, falling back to
// 24h if the value is invalid.
func (c *Config) ParsedAudioMaxAge() time.Duration {
	d, err := time.ParseDuration(c.AudioMaxAge)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv(EnvPrefix + "UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv(EnvPrefix + "API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "CHAT_MODEL"); v != "" {
		cfg.ChatModel = v
	}
	if v := os.Getenv(EnvPrefix + "SPEECH_MODEL"); v != "" {
		cfg.SpeechModel = v
	}
	if v := os.Getenv(EnvPrefix + "IMAGE_MODEL"); v != "" {
		cfg.ImageModel = v
	}
	if v := os.Getenv(EnvPrefix + "ASR_MODEL"); v != "" {
		cfg.ASRModel = v
	}
	if v := os.Getenv(EnvPrefix + "ASR_LANGUAGE"); v != "" {
		cfg.ASRLanguage = v
	}
	if v := os.Getenv(EnvPrefix + "DEFAULT_VOICE"); v != "" {
		cfg.DefaultVoice = v
	}
	if v := os.Getenv(EnvPrefix + "DRAIN_TIMEOUT"); v != "" {
		cfg.DrainTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "AUDIO_MAX_AGE"); v != "" {
		cfg.AudioMaxAge = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.RedisPassword = os.Getenv(EnvPrefix + "REDIS_PASSWORD")
	cfg.DashScopeAPIKey = os.Getenv(EnvPrefix + "DASHSCOPE_API_KEY")
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")

	// The chat provider key defaults to the DashScope key so a single
	// secret covers the compatible-mode deployment.
	cfg.LLMAPIKey = os.Getenv(EnvPrefix + "LLM_API_KEY")
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = cfg.DashScopeAPIKey
	}
}

func validate(cfg *Config) []string {
	var warnings []string

	if cfg.LLMAPIKey == "" {
		warnings = append(warnings, "Chat API key not configured — persona replies are disabled. Set "+EnvPrefix+"DASHSCOPE_API_KEY or "+EnvPrefix+"LLM_API_KEY.")
	}
	if cfg.DashScopeAPIKey == "" {
		warnings = append(warnings, "DashScope API key not configured — voice synthesis and avatar generation are disabled. Set "+EnvPrefix+"DASHSCOPE_API_KEY.")
	}
	if cfg.DeepgramAPIKey == "" {
		warnings = append(warnings, "Deepgram API key not configured — live speech recognition is disabled. Set "+EnvPrefix+"DEEPGRAM_API_KEY.")
	}
	if _, err := time.ParseDuration(cfg.DrainTimeout); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid drain_timeout %q — using default 3s.", cfg.DrainTimeout))
	}
	if _, err := time.ParseDuration(cfg.AudioMaxAge); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid audio_max_age %q — using default 24h.", cfg.AudioMaxAge))
	}

	return warnings
}

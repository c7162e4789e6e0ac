package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagetone/pagetone-backend/internal/logger"
	"github.com/pagetone/pagetone-backend/internal/utils"
)

// Config carries every tunable the service reads. Values come from an
// optional YAML file, then environment variables override field by field.
type Config struct {
	Mode string `yaml:"mode"`
	Port string `yaml:"port"`

	PDFDir   string `yaml:"pdf_dir"`
	ImageDir string `yaml:"image_dir"`
	AudioDir string `yaml:"audio_dir"`

	MaxSummaryChars       int `yaml:"max_summary_chars"`
	LargeContentThreshold int `yaml:"large_content_threshold"`

	LLMProvider string `yaml:"llm_provider"`
	OpenAIKey   string `yaml:"openai_api_key"`
	OpenAIModel string `yaml:"openai_model"`
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	TTSBackend      string `yaml:"tts_backend"`
	TTSAllowNetwork bool   `yaml:"tts_allow_network"`
	TTSLang         string `yaml:"tts_lang"`
	PiperBin        string `yaml:"piper_bin"`
	PiperModel      string `yaml:"piper_model"`

	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`

	WorkerCount    int `yaml:"worker_count"`
	JobMaxAttempts int `yaml:"job_max_attempts"`

	CORSOrigins string `yaml:"cors_origins"`
}

func defaults() Config {
	return Config{
		Mode:                  "development",
		Port:                  "8080",
		PDFDir:                "data/pdfs",
		ImageDir:              "data/images",
		AudioDir:              "data/audio",
		MaxSummaryChars:       18000,
		LargeContentThreshold: 22000,
		LLMProvider:           "ollama",
		OpenAIModel:           "gpt-4o-mini",
		OllamaURL:             "http://ollama:11434",
		OllamaModel:           "llama3",
		TTSBackend:            "gcloud",
		TTSAllowNetwork:       true,
		TTSLang:               "en-IN",
		PiperBin:              "piper",
		RedisAddr:             "localhost:6379",
		RateLimitPerMin:       60,
		WorkerCount:           2,
		JobMaxAttempts:        3,
		CORSOrigins:           "*",
	}
}

// Load builds the config from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load(log *logger.Logger) (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg.applyEnv(log)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(log *logger.Logger) {
	c.Mode = utils.GetEnv("MODE", c.Mode, log)
	c.Port = utils.GetEnv("PORT", c.Port, log)
	c.PDFDir = utils.GetEnv("PDF_DIR", c.PDFDir, log)
	c.ImageDir = utils.GetEnv("IMAGE_DIR", c.ImageDir, log)
	c.AudioDir = utils.GetEnv("AUDIO_DIR", c.AudioDir, log)
	c.MaxSummaryChars = utils.GetEnvAsInt("MAX_SUMMARY_CHARS", c.MaxSummaryChars, log)
	c.LargeContentThreshold = utils.GetEnvAsInt("LARGE_CONTENT_THRESHOLD", c.LargeContentThreshold, log)
	c.LLMProvider = utils.GetEnv("LLM_PROVIDER", c.LLMProvider, log)
	c.OpenAIKey = utils.GetEnv("OPENAI_API_KEY", c.OpenAIKey, log)
	c.OpenAIModel = utils.GetEnv("OPENAI_MODEL", c.OpenAIModel, log)
	c.OllamaURL = utils.GetEnv("OLLAMA_URL", c.OllamaURL, log)
	c.OllamaModel = utils.GetEnv("OLLAMA_MODEL", c.OllamaModel, log)
	c.TTSBackend = utils.GetEnv("TTS_BACKEND", c.TTSBackend, log)
	c.TTSAllowNetwork = utils.GetEnvAsBool("TTS_ALLOW_NETWORK", c.TTSAllowNetwork, log)
	c.TTSLang = utils.GetEnv("TTS_LANG", c.TTSLang, log)
	c.PiperBin = utils.GetEnv("PIPER_BIN", c.PiperBin, log)
	c.PiperModel = utils.GetEnv("PIPER_MODEL", c.PiperModel, log)
	c.RedisAddr = utils.GetEnv("REDIS_ADDR", c.RedisAddr, log)
	c.RedisPassword = utils.GetEnv("REDIS_PASSWORD", c.RedisPassword, log)
	c.RateLimitPerMin = utils.GetEnvAsInt("RATE_LIMIT_PER_MIN", c.RateLimitPerMin, log)
	c.WorkerCount = utils.GetEnvAsInt("WORKER_COUNT", c.WorkerCount, log)
	c.JobMaxAttempts = utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", c.JobMaxAttempts, log)
	c.CORSOrigins = utils.GetEnv("CORS_ORIGINS", c.CORSOrigins, log)
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}
	switch c.TTSBackend {
	case "piper", "gcloud":
	default:
		return fmt.Errorf("unknown tts_backend %q", c.TTSBackend)
	}
	if c.MaxSummaryChars <= 0 || c.LargeContentThreshold <= 0 {
		return fmt.Errorf("summary thresholds must be positive")
	}
	if c.MaxSummaryChars > c.LargeContentThreshold {
		return fmt.Errorf("max_summary_chars %d exceeds large_content_threshold %d", c.MaxSummaryChars, c.LargeContentThreshold)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Mode == "production"
}

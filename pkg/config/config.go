package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"callinsight/pkg/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Phrases   PhrasesConfig   `json:"phrases"`
	Speakers  SpeakerConfig   `json:"speakers"`
	Analysis  AnalysisConfig  `json:"analysis"`
	HTTP      HTTPConfig      `json:"http"`
	Messaging MessagingConfig `json:"messaging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// PhrasesConfig locates the phrase/pattern configuration source
type PhrasesConfig struct {
	Path string `json:"path"`
}

// SpeakerConfig maps diarization speaker labels onto the two conversation
// roles. Labels outside the table resolve to no role at all.
type SpeakerConfig struct {
	HandlerLabel string `json:"handler_label"`
	ClientLabel  string `json:"client_label"`
}

// AnalysisConfig tunes the structuring stage
type AnalysisConfig struct {
	// SimilarityThreshold is the fuzzy-match cutoff; a phrase counts as a
	// hit only when its score is strictly greater than this value.
	SimilarityThreshold int `json:"similarity_threshold"`

	// Workers controls line-level parallelism in the structurer.
	// 1 means fully sequential.
	Workers int `json:"workers"`
}

// HTTPConfig holds the API server configuration
type HTTPConfig struct {
	Port          int  `json:"port"`
	EnableMetrics bool `json:"enable_metrics"`
}

// MessagingConfig holds the optional AMQP publishing configuration.
// Publishing is disabled when URL is empty.
type MessagingConfig struct {
	URL       string `json:"url"`
	QueueName string `json:"queue_name"`
}

// Load reads the application configuration from the environment, consulting
// a .env file when present.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded configuration from .env file")
	} else {
		logger.Debug("No .env file found, using environment variables")
	}

	config := &Config{
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Phrases: PhrasesConfig{
			Path: getEnv("PHRASES_CONFIG_PATH", "words_config.yaml"),
		},
		Speakers: SpeakerConfig{
			HandlerLabel: getEnv("HANDLER_SPEAKER_LABEL", "SPEAKER_01"),
			ClientLabel:  getEnv("CLIENT_SPEAKER_LABEL", "SPEAKER_00"),
		},
		Analysis: AnalysisConfig{
			SimilarityThreshold: getEnvInt("SIMILARITY_THRESHOLD", 55),
			Workers:             getEnvInt("ANALYSIS_WORKERS", 1),
		},
		HTTP: HTTPConfig{
			Port:          getEnvInt("HTTP_PORT", 8085),
			EnableMetrics: getEnvBool("HTTP_ENABLE_METRICS", true),
		},
		Messaging: MessagingConfig{
			URL:       getEnv("AMQP_URL", ""),
			QueueName: getEnv("AMQP_QUEUE_NAME", "callinsight.records"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return errors.NewInvalidInput("invalid log level",
			map[string]interface{}{"level": c.Logging.Level})
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return errors.NewInvalidInput("log format must be 'text' or 'json'",
			map[string]interface{}{"format": c.Logging.Format})
	}

	if c.Phrases.Path == "" {
		return errors.NewInvalidInput("phrase configuration path is empty")
	}

	if c.Speakers.HandlerLabel == "" || c.Speakers.ClientLabel == "" {
		return errors.NewInvalidInput("speaker role labels must be non-empty")
	}
	if c.Speakers.HandlerLabel == c.Speakers.ClientLabel {
		return errors.NewInvalidInput("handler and client labels must differ",
			map[string]interface{}{"label": c.Speakers.HandlerLabel})
	}

	if c.Analysis.SimilarityThreshold < 0 || c.Analysis.SimilarityThreshold > 100 {
		return errors.NewInvalidInput("similarity threshold must be within [0, 100]",
			map[string]interface{}{"threshold": c.Analysis.SimilarityThreshold})
	}

	if c.Analysis.Workers < 1 {
		return errors.NewInvalidInput("analysis workers must be at least 1",
			map[string]interface{}{"workers": c.Analysis.Workers})
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return errors.NewInvalidInput("HTTP port out of range",
			map[string]interface{}{"port": c.HTTP.Port})
	}

	if c.Messaging.URL != "" && c.Messaging.QueueName == "" {
		return errors.NewInvalidInput("AMQP queue name required when AMQP URL is set")
	}

	return nil
}

// ConfigureLogger applies the logging configuration to a logger instance
func (c *Config) ConfigureLogger(logger *logrus.Logger) {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

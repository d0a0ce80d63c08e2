package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"5250"`
	DBPath     string `env:"DB_PATH" envDefault:"database/earthslight.db"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Shared secret for verifying bearer tokens. Empty disables the check.
	JWTSecret string `env:"JWT_SECRET"`

	// Seed for the prediction noise source. 0 seeds from the clock.
	RandomSeed uint64 `env:"RANDOM_SEED" envDefault:"0"`

	// Model holds the settings of the out-of-process predictor
	Model struct {
		PythonPath     string        `env:"PYTHON_PATH" envDefault:"python3"`
		Dir            string        `env:"MODEL_DIR" envDefault:"ai_model"`
		Script         string        `env:"MODEL_SCRIPT" envDefault:"predict.py"`
		File           string        `env:"MODEL_FILE" envDefault:"model.pkl"`
		PredictTimeout time.Duration `env:"PREDICT_TIMEOUT" envDefault:"8s"`
		LoadTimeout    time.Duration `env:"LOAD_TIMEOUT" envDefault:"10s"`
	}

	// History configures how predictions are recorded
	History struct {
		// Number of record batches buffered before new ones are dropped
		QueueSize int `env:"HISTORY_QUEUE_SIZE" envDefault:"100"`

		// Records older than this are purged by the retention job
		Retention time.Duration `env:"HISTORY_RETENTION" envDefault:"2160h"`

		// How often the retention job runs
		RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"1h"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"1"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.History.Retention <= 0 {
		return nil, fmt.Errorf("HISTORY_RETENTION must be positive, got %s", cfg.History.Retention)
	}
	if cfg.History.RetentionInterval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive, got %s", cfg.History.RetentionInterval)
	}
	return cfg, nil
}

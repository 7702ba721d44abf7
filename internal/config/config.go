package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/kpaulsen/apflow/internal/match"
)

// Config is the process-wide configuration, loaded once per run from the
// environment. Every key is typed and declared here; unknown keys simply
// do not exist. A snapshot is handed to the pipeline at startup, so
// changes take effect on the next run, never retroactively.
type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"apflow"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"apflow"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Matching struct {
		ToleranceCents      int64 `envconfig:"VARIANCE_TOLERANCE_CENTS" default:"2500"`
		DraftBandMultiplier int64 `envconfig:"DRAFT_BAND_MULTIPLIER" default:"2"`
		DedupWindowDays     int   `envconfig:"DEDUP_WINDOW_DAYS" default:"90"`
		RetentionYears      int   `envconfig:"RETENTION_YEARS" default:"7"`
	}

	FieldService struct {
		BaseURL string `envconfig:"FIELD_SERVICE_BASE_URL"`
		Token   string `envconfig:"FIELD_SERVICE_TOKEN"`
	}

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"20s"`
	}

	Notify struct {
		WebhookURL string   `envconfig:"NOTIFY_WEBHOOK_URL"`
		Recipients []string `envconfig:"NOTIFY_RECIPIENTS"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MatchConfig returns the matching snapshot handed to the engine.
func (c *Config) MatchConfig() match.Config {
	return match.Config{
		ToleranceCents:      c.Matching.ToleranceCents,
		DraftBandMultiplier: c.Matching.DraftBandMultiplier,
		DedupWindowDays:     c.Matching.DedupWindowDays,
		RetentionYears:      c.Matching.RetentionYears,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Malformed matching config fails the run up front rather than
	// holding or finalizing every document incorrectly.
	if err := cfg.MatchConfig().Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

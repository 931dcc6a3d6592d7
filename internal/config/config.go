package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/murajaah/internal/sm2"
)

// EnvPrefix prefixes every environment override, e.g. MURAJAAH_DATABASE.
const EnvPrefix = "MURAJAAH_"

// Config is the runtime configuration shared by every command.
type Config struct {
	Database     string `koanf:"database" validate:"required"`
	Timezone     string `koanf:"timezone" validate:"required,timezone"`
	ReposDir     string `koanf:"repos_dir" validate:"required"`
	Plan         string `koanf:"plan" validate:"oneof=new_user casual serious intensive"`
	ForecastDays int    `koanf:"forecast_days" validate:"min=1,max=365"`
	SyncSchedule string `koanf:"sync_schedule" validate:"required"`
	SyncWorkers  int    `koanf:"sync_workers" validate:"min=1,max=32"`
	LogLevel     string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    string `koanf:"log_format" validate:"oneof=text json"`
}

// RegisterFlags adds the shared configuration flags to fs. Their defaults are
// the configuration defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("database", "murajaah.db", "Path to the SQLite database file")
	fs.String("timezone", "UTC", "IANA timezone used to split reviews into days")
	fs.String("repos_dir", "repos", "Directory git sources are cloned into")
	fs.String("plan", sm2.PlanCasual.Name, "Study plan: new_user, casual, serious or intensive")
	fs.Int("forecast_days", 7, "Days ahead covered by the forecast")
	fs.String("sync_schedule", "@hourly", "Cron schedule for watch mode")
	fs.Int("sync_workers", 4, "Sources synced in parallel")
	fs.String("log_level", "info", "Log level: debug, info, warn or error")
	fs.String("log_format", "text", "Log format: text or json")
}

// Load layers the config file named by --config, MURAJAAH_* environment
// variables and explicitly set flags over the flag defaults, then validates
// the result. fs must have been populated by RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// unset flags only fill keys no earlier layer provided
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// StudyPlan resolves the configured plan preset.
func (c *Config) StudyPlan() (sm2.StudyPlan, error) {
	return sm2.PlanByName(c.Plan)
}

// Scheduler builds the SM-2 scheduler for the configured calendar.
func (c *Config) Scheduler() (*sm2.Scheduler, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return sm2.New(sm2.Config{Location: loc})
}

// Logger builds the process logger.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

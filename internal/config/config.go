// Package config loads noobular settings from defaults, an optional YAML
// file, NOOBULAR_* environment variables and command-line flags, in that
// order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/noobular/noobular/internal/mastery"
	"github.com/noobular/noobular/internal/scheduler"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: NOOBULAR_MASTERY__HALF_LIFE=72h.
const EnvPrefix = "NOOBULAR_"

// Config is the resolved configuration.
type Config struct {
	DB      string `koanf:"db"`
	Learner string `koanf:"learner" validate:"required"`

	Log       LogConfig       `koanf:"log"`
	Mastery   MasteryConfig   `koanf:"mastery"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Content   ContentConfig   `koanf:"content"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	File  string `koanf:"file"`
	JSON  bool   `koanf:"json"`
}

type MasteryConfig struct {
	LearningRate float64       `koanf:"learning_rate" validate:"gt=0,lte=1"`
	HalfLife     time.Duration `koanf:"half_life" validate:"gt=0"`
	Threshold    float64       `koanf:"threshold" validate:"gt=0,lte=1"`
}

type SchedulerConfig struct {
	ReviewQuota float64 `koanf:"review_quota" validate:"gte=0,lte=1"`
}

type ContentConfig struct {
	// Dir holds content files named <node id>.md for nodes without a
	// content reference. Empty means references alone decide availability.
	Dir     string        `koanf:"dir"`
	Workers int           `koanf:"workers" validate:"gte=1,lte=64"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// MasteryModel converts the mastery section into model parameters.
func (c Config) MasteryModel() mastery.Config {
	return mastery.Config{
		LearningRate: c.Mastery.LearningRate,
		HalfLife:     c.Mastery.HalfLife,
		Threshold:    c.Mastery.Threshold,
	}
}

var defaults = map[string]any{
	"learner":                "default",
	"log.level":              "warn",
	"log.json":               false,
	"mastery.learning_rate":  mastery.DefaultLearningRate,
	"mastery.half_life":      mastery.DefaultHalfLife.String(),
	"mastery.threshold":      mastery.DefaultThreshold,
	"scheduler.review_quota": scheduler.DefaultReviewQuota,
	"content.workers":        4,
	"content.timeout":        "2m",
}

// Load resolves the configuration. path may be empty; a missing file at a
// non-empty path is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps NOOBULAR_MASTERY__HALF_LIFE to mastery.half_life.
// NOOBULAR_DB is left to the store's path resolution and skipped here.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "db" {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks field ranges.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config:\n  %s", strings.Join(msgs, "\n  "))
	}
	return nil
}

// DefaultPath returns the config file used when --config is not given:
// $XDG_CONFIG_HOME/noobular/config.yaml, if it exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "noobular", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

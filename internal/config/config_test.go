package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobular/noobular/internal/mastery"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Learner)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 0.4, cfg.Mastery.LearningRate)
	assert.Equal(t, 7*24*time.Hour, cfg.Mastery.HalfLife)
	assert.Equal(t, 0.8, cfg.Mastery.Threshold)
	assert.Equal(t, 0.3, cfg.Scheduler.ReviewQuota)
	assert.Equal(t, 4, cfg.Content.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Content.Timeout)

	assert.Equal(t, mastery.DefaultConfig(), cfg.MasteryModel())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
learner: ana
mastery:
  half_life: 72h
  threshold: 0.9
scheduler:
  review_quota: 0.5
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "ana", cfg.Learner)
	assert.Equal(t, 72*time.Hour, cfg.Mastery.HalfLife)
	assert.Equal(t, 0.9, cfg.Mastery.Threshold)
	assert.Equal(t, 0.5, cfg.Scheduler.ReviewQuota)
	assert.Equal(t, 0.4, cfg.Mastery.LearningRate, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "learner: ana\n")
	t.Setenv("NOOBULAR_LEARNER", "ben")
	t.Setenv("NOOBULAR_MASTERY__LEARNING_RATE", "0.25")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "ben", cfg.Learner)
	assert.Equal(t, 0.25, cfg.Mastery.LearningRate)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("NOOBULAR_LEARNER", "ben")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("learner", "", "")
	fs.String("db", "", "")
	require.NoError(t, fs.Parse([]string{"--learner", "cleo"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "cleo", cfg.Learner)
}

func TestLoad_UnchangedFlagKeepsEnv(t *testing.T) {
	t.Setenv("NOOBULAR_LEARNER", "ben")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("learner", "", "")
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "ben", cfg.Learner)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"threshold above one", "mastery:\n  threshold: 1.5\n"},
		{"zero learning rate", "mastery:\n  learning_rate: 0\n"},
		{"negative quota", "scheduler:\n  review_quota: -0.1\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"no workers", "content:\n  workers: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body), nil)
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "mastery.half_life", envKey("NOOBULAR_MASTERY__HALF_LIFE"))
	assert.Equal(t, "learner", envKey("NOOBULAR_LEARNER"))
	assert.Equal(t, "", envKey("NOOBULAR_DB"))
}

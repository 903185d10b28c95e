// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"port zero":         func(c *Config) { c.Port = 0 },
		"port too high":     func(c *Config) { c.Port = 70000 },
		"no discussion":     func(c *Config) { c.DiscussionTime = 0 },
		"negative hunting":  func(c *Config) { c.HuntingOptionTime = -time.Second },
		"no lobby timeout":  func(c *Config) { c.LobbyTimeout = 0 },
		"no sweep interval": func(c *Config) { c.SweepInterval = 0 },
		"negative redis db": func(c *Config) { c.RedisDB = -1 },
		"unknown log level": func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvironmentFillsUnsetFlags(t *testing.T) {
	t.Setenv("QUEST_PORT", "9090")
	t.Setenv("QUEST_DISCUSSION_TIME", "2m")
	t.Setenv("QUEST_REDIS_ADDR", "localhost:6379")

	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, &cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.DiscussionTime)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Second, cfg.HuntingOptionTime)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("QUEST_PORT", "9090")

	var got *Config
	cmd := NewCommand("test", func(_ *cobra.Command, cfg *Config) error {
		got = cfg
		return nil
	})
	cmd.SetArgs([]string{"--port", "7000", "--log-level", "debug"})
	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, 7000, got.Port)
	assert.Equal(t, logrus.DebugLevel, got.Level())
}

func TestCommandValidates(t *testing.T) {
	cmd := NewCommand("test", func(_ *cobra.Command, _ *Config) error { return nil })
	cmd.SetArgs([]string{"--sweep-interval", "0s"})
	assert.Error(t, cmd.Execute())
}

func TestHistorianDefaults(t *testing.T) {
	h := DefaultHistorian()
	require.NoError(t, h.Validate())
	assert.Equal(t, "quest_actions", h.RedisQueue)
	assert.Equal(t, "-", h.Output)

	h.BatchSize = 0
	assert.Error(t, h.Validate())
}

func TestHistorianCommandReadsEnvironment(t *testing.T) {
	t.Setenv("QUEST_REDIS_QUEUE", "other_actions")
	t.Setenv("QUEST_BATCH_SIZE", "5")

	var got *Historian
	cmd := NewHistorianCommand("test", func(_ *cobra.Command, h *Historian) error {
		got = h
		return nil
	})
	cmd.SetArgs([]string{"--inactivity", "1m"})
	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "other_actions", got.RedisQueue)
	assert.Equal(t, 5, got.BatchSize)
	assert.Equal(t, time.Minute, got.Inactivity)
}

// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/quest/internal/cache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every flag name to form its environment variable.
const EnvPrefix = "QUEST"

// Config holds every server setting. Each field has a flag and a QUEST_ env variable.
type Config struct {
	Bind              string
	Port              int
	PublicURL         string
	Origins           []string
	LogLevel          string
	DiscussionTime    time.Duration
	HuntingOptionTime time.Duration
	LobbyTimeout      time.Duration
	SweepInterval     time.Duration
	RedisAddr         string
	RedisDB           int
	RedisQueue        string
}

// Default returns the configuration used when no flag or variable is set.
func Default() Config {
	return Config{
		Bind:              "0.0.0.0",
		Port:              8080,
		Origins:           []string{"*"},
		LogLevel:          "info",
		DiscussionTime:    300 * time.Second,
		HuntingOptionTime: 10 * time.Second,
		LobbyTimeout:      90 * time.Minute,
		SweepInterval:     60 * time.Second,
		RedisQueue:        cache.DefaultQueueName,
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.DiscussionTime <= 0 {
		return errors.New("--discussion-time must be positive")
	}
	if c.HuntingOptionTime <= 0 {
		return errors.New("--hunting-option-time must be positive")
	}
	if c.LobbyTimeout <= 0 {
		return errors.New("--lobby-timeout must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("--sweep-interval must be positive")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.RedisDB)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Level parses LogLevel. Call Validate first.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// BindFlags registers every setting on fs and lets QUEST_ variables fill in
// flags that were not given on the command line.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *viper.Viper {
	def := Default()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", def.Bind, "address to bind to (env: QUEST_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", def.Port, "port to listen on (env: QUEST_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", def.PublicURL, "base URL encoded in lobby QR codes, defaults to the request host (env: QUEST_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.Origins, "origins", def.Origins, "allowed websocket origin patterns (env: QUEST_ORIGINS)")
	fs.StringVar(&cfg.LogLevel, "log-level", def.LogLevel, "logrus level: debug, info, warn, error (env: QUEST_LOG_LEVEL)")
	fs.DurationVar(&cfg.DiscussionTime, "discussion-time", def.DiscussionTime, "length of the discussion after the third failed quest (env: QUEST_DISCUSSION_TIME)")
	fs.DurationVar(&cfg.HuntingOptionTime, "hunting-option-time", def.HuntingOptionTime, "time the Blind Hunter has to start the hunt (env: QUEST_HUNTING_OPTION_TIME)")
	fs.DurationVar(&cfg.LobbyTimeout, "lobby-timeout", def.LobbyTimeout, "time before idle lobbies are removed (env: QUEST_LOBBY_TIMEOUT)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", def.SweepInterval, "how often idle lobbies are swept (env: QUEST_SWEEP_INTERVAL)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", def.RedisAddr, "redis address for the action journal, empty disables it (env: QUEST_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", def.RedisDB, "redis database index (env: QUEST_REDIS_DB)")
	fs.StringVar(&cfg.RedisQueue, "redis-queue", def.RedisQueue, "redis list receiving journal records (env: QUEST_REDIS_QUEUE)")

	return bindEnv(fs)
}

func bindEnv(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
	return v
}

// NewCommand builds the root command. run is called with the validated config.
func NewCommand(version string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	cfg := Default()

	cmd := &cobra.Command{
		Use:     "quest",
		Short:   "Realtime lobby server for the Quest hidden-role party game.",
		Args:    cobra.NoArgs,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, &cfg)
		},
	}

	BindFlags(cmd.Flags(), &cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quest v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

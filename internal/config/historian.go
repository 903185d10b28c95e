// internal/config/historian.go
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
)

// Historian holds the settings of the journal consumer. Flags share the
// QUEST_ prefix and the redis names with the server so one .env serves both.
type Historian struct {
	RedisAddr   string
	RedisDB     int
	RedisQueue  string
	BatchSize   int
	FlushDelay  time.Duration
	Inactivity  time.Duration
	PollTimeout time.Duration
	Output      string
	LogLevel    string
}

// DefaultHistorian mirrors the consumer's compiled-in defaults.
func DefaultHistorian() Historian {
	return Historian{
		RedisAddr:   "localhost:6379",
		RedisQueue:  cache.DefaultQueueName,
		BatchSize:   20,
		FlushDelay:  500 * time.Millisecond,
		Inactivity:  10 * time.Minute,
		PollTimeout: 3 * time.Second,
		Output:      "-",
		LogLevel:    "info",
	}
}

// Validate rejects settings the consumer cannot run with.
func (h *Historian) Validate() error {
	if h.RedisAddr == "" {
		return errors.New("--redis-addr is required")
	}
	if h.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", h.RedisDB)
	}
	if h.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", h.BatchSize)
	}
	if h.FlushDelay <= 0 || h.Inactivity <= 0 || h.PollTimeout <= 0 {
		return errors.New("durations must be positive")
	}
	if _, err := logrus.ParseLevel(h.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", h.LogLevel, err)
	}
	return nil
}

// Level parses LogLevel. Call Validate first.
func (h *Historian) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(h.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// BindHistorianFlags registers the consumer settings on fs.
func BindHistorianFlags(fs *pflag.FlagSet, h *Historian) {
	def := DefaultHistorian()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&h.RedisAddr, "redis-addr", def.RedisAddr, "redis address to consume from (env: QUEST_REDIS_ADDR)")
	fs.IntVar(&h.RedisDB, "redis-db", def.RedisDB, "redis database index (env: QUEST_REDIS_DB)")
	fs.StringVar(&h.RedisQueue, "redis-queue", def.RedisQueue, "redis list holding journal records (env: QUEST_REDIS_QUEUE)")
	fs.IntVar(&h.BatchSize, "batch-size", def.BatchSize, "records buffered before a flush (env: QUEST_BATCH_SIZE)")
	fs.DurationVar(&h.FlushDelay, "flush-delay", def.FlushDelay, "maximum time a record waits in the buffer (env: QUEST_FLUSH_DELAY)")
	fs.DurationVar(&h.Inactivity, "inactivity", def.Inactivity, "silence after which a lobby is reported idle (env: QUEST_INACTIVITY)")
	fs.DurationVar(&h.PollTimeout, "poll-timeout", def.PollTimeout, "BLPOP timeout (env: QUEST_POLL_TIMEOUT)")
	fs.StringVarP(&h.Output, "output", "o", def.Output, "file to append JSON lines to, - for stdout (env: QUEST_OUTPUT)")
	fs.StringVar(&h.LogLevel, "log-level", def.LogLevel, "logrus level: debug, info, warn, error (env: QUEST_LOG_LEVEL)")

	bindEnv(fs)
}

// NewHistorianCommand builds the consumer's root command.
func NewHistorianCommand(version string, run func(cmd *cobra.Command, h *Historian) error) *cobra.Command {
	h := DefaultHistorian()

	cmd := &cobra.Command{
		Use:     "quest-historian",
		Short:   "Drains the quest action journal from Redis into JSON lines.",
		Args:    cobra.NoArgs,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := h.Validate(); err != nil {
				return err
			}
			return run(cmd, &h)
		},
	}

	BindHistorianFlags(cmd.Flags(), &h)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quest-historian v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// cmd/historian/main.go is an asynchronous historian that pops lobby action
// records from the Redis journal and appends them as JSON lines.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/quest/internal/config"
	"github.com/jason-s-yu/quest/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cmd := config.NewHistorianCommand(releaseVersion, run)
	if err := cmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func run(cmd *cobra.Command, h *config.Historian) error {
	logger := logrus.New()
	logger.SetLevel(h.Level())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer = os.Stdout
	if h.Output != "-" {
		f, err := os.OpenFile(h.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: h.RedisAddr,
		DB:   h.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		return err
	}

	hs := historian.NewService(rdb, h.RedisQueue, historian.NewJSONLinesSink(out), historian.Options{
		BatchSize:   h.BatchSize,
		FlushDelay:  h.FlushDelay,
		Inactivity:  h.Inactivity,
		PollTimeout: h.PollTimeout,
		Logger:      logger,
	})
	return hs.Run(ctx)
}

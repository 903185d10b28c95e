// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/quest/internal/cache"
	"github.com/jason-s-yu/quest/internal/config"
	"github.com/jason-s-yu/quest/internal/game"
	"github.com/jason-s-yu/quest/internal/handlers"
	"github.com/jason-s-yu/quest/internal/lobby"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cmd := config.NewCommand(releaseVersion, run)
	if err := cmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger := logrus.New()
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var journal *cache.Journal
	if cfg.RedisAddr != "" {
		j, err := cache.ConnectJournal(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisQueue)
		if err != nil {
			logger.Warnf("Action journal disabled: %v", err)
		} else {
			journal = j
			journal.Logger = logger
			defer journal.Close()
			logger.Infof("Journaling actions to redis list %q at %s", journal.Queue(), cfg.RedisAddr)
		}
	}

	store := lobby.NewStore(lobby.Options{
		Timers: game.PhaseTimers{
			Discussion:    cfg.DiscussionTime,
			HuntingOption: cfg.HuntingOptionTime,
		},
		Journal: journal,
		Logger:  logger,
	})
	go store.Run(ctx, cfg.SweepInterval, cfg.LobbyTimeout)

	server := &http.Server{
		Handler: handlers.NewRouter(logger, store, handlers.RouterConfig{
			Version:   releaseVersion,
			Origins:   cfg.Origins,
			PublicURL: cfg.PublicURL,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}
	logger.Infof("Running on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	store.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

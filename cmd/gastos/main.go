package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"gastos/internal/bot"
	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext()
	defer stop()

	appender := cli.NewLedger(ctx, logger, cfg)
	sessions := session.NewStore()

	b, err := bot.NewBot(cfg.TelegramToken, cfg.OwnerID, sessions, appender, logger, cfg.WriteTimeout)
	if err != nil {
		logger.Error("Failed to start Telegram bot", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Bot started",
		log.FieldOperation, log.OpStartup,
		"bot", b.Username(),
		log.FieldUserID, cfg.OwnerID,
		log.FieldSheet, cfg.SheetName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully", log.FieldOperation, log.OpShutdown)
}

// Command chatd serves the chat room over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v3"
	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/providers"
	"github.com/orchestra-mcp/chat/src/accounts"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

func main() {
	cfg := config.FromEnv()
	logger := newLogger(cfg.Log)
	if cfg.Auth.UsesDefaultSecret() {
		logger.Warn().Msg("JWT_SECRET is not set, signing tokens with the development secret")
	}

	db, err := accounts.OpenSQLite(cfg.Store.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.DBPath).Msg("failed to open account store")
	}

	plugin := providers.NewChatPlugin(cfg, db, logger)
	if err := plugin.Activate(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to start chat")
	}

	app := fiber.New(fiber.Config{AppName: "orchestra-chat"})
	plugin.RegisterRoutes(app)

	server := &fasthttp.Server{
		Handler:            plugin.Handler(app),
		Name:               "orchestra-chat",
		MaxRequestBodySize: 64 << 10,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("auth_mode", string(cfg.Auth.Mode)).Msg("listening")
		if err := server.ListenAndServe(cfg.HTTP.Addr); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.HTTP.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// One operation so the steps run in order: stop accepting
			// requests, stop the room, then close the store.
			"chatd": func(ctx context.Context) error {
				logger.Info().Msg("graceful shutdown initiated")
				var errs []error
				if err := server.ShutdownWithContext(ctx); err != nil {
					errs = append(errs, err)
				}
				if err := plugin.Deactivate(); err != nil {
					errs = append(errs, err)
				}
				if sqlDB, err := db.DB(); err == nil {
					errs = append(errs, sqlDB.Close())
				}
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	logger.Info().Int("exit_code", exitCode).Msg("chatd exited")
	os.Exit(exitCode)
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	logger = logger.Level(level).With().Timestamp().Str("service", "chatd").Logger()
	if err != nil {
		logger.Warn().Err(err).Str("level", cfg.Level).Msg("unknown log level, using info")
	}
	return logger
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"unified-chat/auth"
	"unified-chat/internal"
	"unified-chat/moderation"
	"unified-chat/repositories"
	"unified-chat/runtime"
	"unified-chat/services"
	"unified-chat/sink"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unified chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until the console exits or a signal arrives.
// Deferred closes run before main calls os.Exit.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Stores (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, repositories.InspectMapper)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	channelRepository := repositories.NewChannelRepository(db, logger)
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)
	messageIndex := repositories.NewMessageIndex(blugeWriter, logger)

	// 3. Live channels, rebuilt from storage
	registry := runtime.NewRegistry()
	if _, err := services.NewLoader(channelRepository, messageRepository, registry, logger).Hydrate(); err != nil {
		return exitRuntime, err
	}

	fanout := runtime.NewFanout(logger, config.SinkTimeout,
		sink.NewDiskSink(channelRepository, messageRepository, logger),
		sink.NewIndexSink(messageIndex, logger),
	)

	// 4. Services
	authService := services.NewAuthService(userRepository,
		auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration), logger)

	opts := []services.ChatOption{services.WithIndex(messageIndex)}
	if config.EnableModeration {
		moderator, err := buildModerator(charReplacement, logger)
		if err != nil {
			return exitConfig, err
		}
		opts = append(opts, services.WithModerator(moderator))
	}
	chatService := services.NewChatService(registry, fanout, authService, logger,
		config.MaxContentLength, config.SearchLimit, opts...)

	// 5. Console
	console := NewConsole(os.Stdin, os.Stdout, chatService, authService, config.ExportDir)
	errChan := make(chan error, 1)
	go func() {
		errChan <- console.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			return exitRuntime, err
		}
	}

	logger.Info("Program stopped cleanly", "channels", registry.Len())
	return exitOK, nil
}

func buildModerator(charReplacement rune, logger *slog.Logger) (*moderation.Moderator, error) {
	data, err := moderation.DefaultCensoredLoader().LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("failed to load censored words: %w", err)
	}
	logger.Info("Censored words loaded", "words", len(data.Words), "languages", data.Languages)
	return moderation.NewModerator(data.Words, charReplacement, logger)
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

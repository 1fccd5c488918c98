package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatline/auth"
	"chatline/moderation"
	"chatline/observability"
	"chatline/repositories"
	"chatline/runtime"
	"chatline/runtime/workers"
	"chatline/services"
	"chatline/transport/rest"
	"chatline/transport/ws"

	env "github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// main is a thin wrapper: run() owns the lifecycle so that defers fire
	// before the process exits.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}

	logger := observability.NewLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	searchIndex := repositories.NewSearchIndex(blugeWriter)
	messageRepo := repositories.NewMessageRepository(db, searchIndex, logger)
	userRepo := repositories.NewUserRepository(db)
	channelRepo := repositories.NewChannelRepository(db)

	// 3. Moderation
	censored, err := runtime.LoadCensoredWords()
	if err != nil {
		return exitRuntime, err
	}
	logger.Info(fmt.Sprintf("%d censored words loaded [%s]",
		len(censored.Words), strings.Join(censored.Languages, ",")))

	moderator, err := moderation.NewModerator(censored.Words, charReplacement)
	if err != nil {
		return exitRuntime, err
	}

	// 4. Realtime core
	registry := runtime.NewRegistry()
	membership := runtime.NewMembership()
	router := runtime.NewRouter(logger, registry, membership)

	presence := runtime.NewPresenceBroadcaster(logger, registry, router)
	typing := runtime.NewTypingCoordinator(router)
	chatService := services.NewChatService(logger, messageRepo, userRepo, router, moderator)
	router.Attach(presence, typing, chatService)

	// 5. Services & transport
	tokens := auth.NewTokenIssuer(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(logger, userRepo, tokens)
	channelService := services.NewChannelService(logger, channelRepo, userRepo, router)

	mux := http.NewServeMux()
	rest.NewAPI(logger, authService, channelService, chatService, tokens).Routes(mux)
	mux.Handle("GET /ws", ws.NewHandler(logger, router, tokens, config.AllowedOrigin, config.ConnectionBufferSize))

	// 6. Supervision
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		observability.NewMonitorWorker(logger, config.MetricInterval),
		workers.NewBadgerGCWorker(db, config.GCInterval, logger),
	)
	go supervisor.Run(ctx)
	defer supervisor.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return exitRuntime, fmt.Errorf("shutdown: %w", err)
		}
		return exitOK, nil
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			return exitRuntime, err
		}
		return exitOK, nil
	}
}

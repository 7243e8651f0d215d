package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/translation"

	env "github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper. Its only responsibility
	// is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so defers (database close, worker
// shutdown) execute before the process exits.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.NewLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messages := repositories.NewMessageRepository(db, logger)
	channels := repositories.NewChannelRepository(db)
	users := repositories.NewUserDirectory(db)

	// 3. Translation gateway
	engine := translation.NewHTTPEngine(config.TranslatorURL, config.TranslatorAPIKey, config.TranslatorTimeout, logger)
	gateway := translation.NewGateway(translation.NewWhatlangDetector(), engine, logger)

	// 4. Delivery pipeline & worker pool
	registry := runtime.NewRegistry()
	pipeline := runtime.NewPipeline(logger, registry, messages, channels, users, gateway, config.BufferSize)

	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(pipeline.Workers(config.NumberOfWorkers)...)

	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 5. Transport
	service := services.NewChatService(pipeline, registry, messages, channels, users)
	wsServer := ws.NewServer(logger, service, []string{config.Origin}, config.ConnectionBufferSize, config.WriteTimeout)
	handler := httpapi.New(logger, service, config.UploadDir)

	router := handler.Router(wsServer.HandleWebSocket)
	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   []string{config.Origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "X-User-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: corsWrapper.Handler(router),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			supervisor.Stop()
			<-supervisorDone
			return exitRuntime, fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}

	supervisor.Stop()
	<-supervisorDone
	logger.Info("All workers stopped")

	return exitOK, nil
}

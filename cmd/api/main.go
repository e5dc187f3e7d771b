package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hugohenrick/chat-relay/internal/config"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "erro fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Carregar variáveis de ambiente
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.LogLevel)
	if envErr != nil {
		log.Warn("arquivo .env não encontrado", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Criar aplicação
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	app.SetupRoutes("/api")

	// Iniciar o servidor
	return app.Start(ctx)
}

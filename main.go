package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v9"

	"github.com/ams29/newagent/pkg/api"
	"github.com/ams29/newagent/pkg/api/handler"
	"github.com/ams29/newagent/pkg/assistant"
	"github.com/ams29/newagent/pkg/auth"
	"github.com/ams29/newagent/pkg/conversation"
	"github.com/ams29/newagent/pkg/database"
	"github.com/ams29/newagent/pkg/domain"
	"github.com/ams29/newagent/pkg/logger"
	"github.com/ams29/newagent/pkg/repository"
	"github.com/ams29/newagent/pkg/service"
	"github.com/ams29/newagent/pkg/workers"
)

type Config struct {
	AssistantGatewayURL string   `env:"ASSISTANT_GATEWAY_URL,required"`
	HTTPAddress         string   `env:"HTTP_ADDRESS" envDefault:":8080"`
	AuthorizedUserIDs   []string `env:"AUTHORIZED_USER_IDS" envSeparator:" "`
	PgURL               string   `env:"DATABASE_URL"`
	PgHost              string   `env:"DB_HOST" envDefault:"localhost:5432"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	serviceGroup, err := setupServices()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return serviceGroup.Run(ctx)
}

func setupServices() (service.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}

	assistantClient, err := assistant.NewClient(cfg.AssistantGatewayURL)
	if err != nil {
		return nil, fmt.Errorf("creating assistant client: %w", err)
	}

	messagesRepository := repository.NewMessagesRepository(db)
	chatsRepository := repository.NewChatsRepository(db)

	updatesCh := make(chan domain.TranscriptUpdate, 64)

	manager := conversation.NewManager(messagesRepository, assistantClient, updatesCh)
	broker := workers.NewTranscriptBroker(updatesCh)

	authenticator := auth.NewAuthenticator(cfg.AuthorizedUserIDs)

	server := api.NewServer(
		cfg.HTTPAddress,
		authenticator,
		handler.NewChats(chatsRepository, manager),
		handler.NewEvents(broker),
	)

	return service.Group{broker, server}, nil
}

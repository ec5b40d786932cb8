package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"

	"felicity/cmd/buildCFG"
	"felicity/internal/api"
	"felicity/internal/chat"
	rabbitReader "felicity/internal/consumerWorker"
	"felicity/internal/mailer"
	"felicity/internal/rabbit"
	"felicity/internal/repo"
	"felicity/internal/service"
	"felicity/internal/storage"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}

	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	mongoCfg, err := buildCFG.BuildMongoConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build Mongo config")
	}
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := repo.Connect(connectCtx, mongoCfg.URI)
	connectCancel()
	if err != nil {
		log.Fatal().Msgf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Msgf("error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Info().Msg("MongoDB connected successfully")

	repository, err := repo.NewRepository(client, mongoCfg.Database, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = repository.EnsureIndexes(indexCtx)
	indexCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
	if err != nil {
		log.Fatal().Msgf("failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	authCfg, err := buildCFG.BuildAuthConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load auth config")
	}
	smtpCfg, err := buildCFG.BuildSMTPConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load SMTP config")
	}
	storageCfg := buildCFG.BuildStorageConfig(cfg, &log)
	store, err := storage.NewStore(storageCfg.Dir, storageCfg.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize upload storage")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	mail := mailer.NewMailer(smtpCfg.Host, smtpCfg.Port, smtpCfg.User, smtpCfg.Password, &log)
	reader := rabbitReader.NewReader(rmq, mail)
	reader.Start(workerCtx)

	serviceInstance := service.NewService(repository, &log, rmq, store, authCfg.JWTSecret)
	hub := chat.NewHub(repository, &log)
	app := api.NewRouters(&api.Routers{
		Service:   serviceInstance,
		Chat:      hub,
		JWTSecret: authCfg.JWTSecret,
		UploadDir: storageCfg.Dir,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	reader.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}

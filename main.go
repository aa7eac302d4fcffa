package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatapp-client/internal/assistant"
	"chatapp-client/internal/config"
	"chatapp-client/internal/conversation"
	"chatapp-client/internal/database"
	"chatapp-client/internal/directory"
	"chatapp-client/internal/handlers"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/identity"
	"chatapp-client/internal/keyValue"
	"chatapp-client/internal/models"
	"chatapp-client/internal/send"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/upload"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	maxUploadBytes   = 8 << 20
	assistantTimeout = 60 * time.Second
	hubBuffer        = 64
)

func setupLogger(cfg models.ConfigFile) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	if cfg.LogToFile {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, "app.log")
	}
	zapConfig.Level = level

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

func newRootCommand() *cobra.Command {
	var configPath string
	var envFile string

	root := &cobra.Command{
		Use:           "chatapp",
		Short:         "Local engine of the chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serves the chat client API to the presentation layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	serve.Flags().StringVarP(&configPath, "config", "c", config.FileName, "path of the json config file")
	serve.Flags().StringVar(&envFile, "env-file", config.EnvFileName, "path of the .env file")

	root.AddCommand(serve)
	return root
}

func serve(ctx context.Context, cfg models.ConfigFile) error {
	fmt.Println("Setting up logger...")
	sugar, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = sugar.Sync()
	}()

	db, dialect, err := database.Setup(&cfg, sugar)
	if err != nil {
		return err
	}
	defer func() {
		err := db.Close()
		if err != nil {
			sugar.Error(err)
		}
	}()
	sugar.Infof("Database %s is ready", dialect)

	ids, err := snowflake.New(cfg.SnowflakeWorkerID)
	if err != nil {
		return err
	}
	store := database.NewStore(db, ids, sugar)

	cache, err := keyValue.Setup(ctx, &cfg, sugar)
	if err != nil {
		return err
	}

	events := hub.New(sugar, hubBuffer)

	conversations := conversation.NewRegistry(conversation.NewStoreFetcher(store, cfg.MessageWindow, sugar), cfg.PollInterval(), events, sugar)
	defer conversations.Close()

	sender := send.NewPerUser(store, func(userID int64) send.Syncer {
		return conversations.For(userID)
	}, events, sugar)

	handler := handlers.Setup(&cfg, handlers.Deps{
		Identity:      identity.New(store, store, cache, cfg.JwtSecret, cfg.CacheTTL(), sugar),
		Directory:     directory.New(store, events, sugar),
		Conversations: conversations,
		Sender:        sender,
		Uploads:       upload.New(cfg.UploadDir, maxUploadBytes, sugar),
		Assistant:     assistant.New(cfg.AssistantURL, cfg.AssistantKey, assistantTimeout, sugar),
		Hub:           events,
		SessionIDs:    ids,
	}, sugar)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Address, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			sugar.Error(err)
		}
	}()

	sugar.Infof("Server is running on http://%s", server.Addr)

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	sugar.Info("Server stopped")
	return nil
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/groqchat/internal/ai"
	"github.com/suPer8Hu/groqchat/internal/chat"
	"github.com/suPer8Hu/groqchat/internal/config"
	"github.com/suPer8Hu/groqchat/internal/db"
	"github.com/suPer8Hu/groqchat/internal/httpapi"
	"github.com/suPer8Hu/groqchat/internal/logging"
	"github.com/suPer8Hu/groqchat/internal/render"
	"github.com/suPer8Hu/groqchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/groqchat/internal/store/redisstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Development())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := ai.DefaultRegistry(ai.ProviderOptions{
		GroqAPIKey:    cfg.GroqAPIKey,
		GroqBaseURL:   cfg.GroqBaseURL,
		OllamaBaseURL: cfg.OllamaBaseURL,
	}).Get(ctx, cfg.AIProvider)
	if err != nil {
		logger.Fatal("ai provider", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}

	renderer := render.NewRenderer(provider, render.Settings{
		Model:        cfg.ChatModel,
		SystemPrompt: cfg.ChatSystemPrompt,
		Temperature:  cfg.ChatTemperature,
		MaxTokens:    cfg.ChatMaxTokens,
	}, logger)

	deps := httpapi.Deps{Log: logger, Renderer: renderer}

	if cfg.AsyncEnabled {
		gdb, err := db.Open(cfg.DBDSN)
		if err != nil {
			logger.Fatal("db open", zap.Error(err))
		}
		if err := chat.Migrate(gdb); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}

		frames := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer frames.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = frames.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal("redis ping", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}

		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Fatal("rabbit publisher", zap.Error(err))
		}
		defer pub.Close()

		deps.Jobs = chat.NewService(chat.NewRepo(gdb), renderer, logger)
		deps.Publisher = pub
		deps.Frames = frames
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.ChatModel),
			zap.Bool("async", cfg.AsyncEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

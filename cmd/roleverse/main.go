package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"golang.org/x/sync/errgroup"

	"github.com/roleverse/roleverse/internal/avatar"
	"github.com/roleverse/roleverse/internal/character"
	"github.com/roleverse/roleverse/internal/config"
	"github.com/roleverse/roleverse/internal/conversation"
	"github.com/roleverse/roleverse/internal/llm"
	"github.com/roleverse/roleverse/internal/media"
	"github.com/roleverse/roleverse/internal/recognition"
	"github.com/roleverse/roleverse/internal/server"
	"github.com/roleverse/roleverse/internal/speech"
	"github.com/roleverse/roleverse/internal/store"
	"github.com/roleverse/roleverse/internal/turn"
	"github.com/roleverse/roleverse/internal/user"
)

func main() {
	log.Println("roleverse: starting")

	cfg, warnings, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("warning: %s", warning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := newRecordStore(ctx, cfg)

	avatars := avatar.NewOpenAI(cfg.DashScopeAPIKey, cfg.ImageModel, cfg.APIBaseURL)
	characters := character.NewService(records, avatars)
	users := user.NewService(records)
	conversations := conversation.NewService(records, characters)

	model := newChatClient(cfg)
	synthesizer := speech.NewOpenAI(cfg.DashScopeAPIKey, cfg.SpeechModel, cfg.APIBaseURL)

	files, err := media.NewStore(cfg.UploadDir, "/static/uploads/audio", records)
	if err != nil {
		log.Fatalf("media store init failed: %v", err)
	}

	orchestrator := turn.NewOrchestrator(conversations, characters, model, synthesizer, files)

	hub := server.NewHub()
	client.Init(client.InitLib{LogLevel: client.LogLevelDefault})
	opener := recognition.NewDeepgram(cfg.DeepgramAPIKey, cfg.ASRModel, cfg.ASRLanguage)
	registry := recognition.NewRegistry(opener, recognition.StreamOptions{}, cfg.ParsedDrainTimeout(), hub)

	if err := characters.SeedDefaults(ctx); err != nil {
		log.Printf("warning: seed default characters failed: %v", err)
	}

	handler := server.Handler(server.Deps{
		Hub:           hub,
		Users:         users,
		Characters:    characters,
		Conversations: conversations,
		Turns:         orchestrator,
		Recognizer:    registry,
		Speech:        synthesizer,
		Media:         files,
		DefaultVoice:  cfg.DefaultVoice,
		Warnings:      warnings,
	})

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("roleverse: listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				removed, err := files.CleanupOlderThan(cfg.ParsedAudioMaxAge())
				if err != nil {
					log.Printf("audio cleanup error: %v", err)
				} else if removed > 0 {
					log.Printf("audio cleanup: removed %d stale files", removed)
				}
			}
		}
	})
	group.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-groupCtx.Done():
			return nil
		case s := <-sig:
			log.Printf("roleverse: received %s, shutting down", s)
			cancel()
			return nil
		}
	})

	<-groupCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	registry.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}

	if err := group.Wait(); err != nil {
		log.Fatalf("roleverse: %v", err)
	}
	log.Println("roleverse: stopped")
}

// newRecordStore connects to Redis, falling back to the in-process store so
// the app still works in development without one.
func newRecordStore(ctx context.Context, cfg config.Config) store.Store {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redis, err := store.NewRedis(connectCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("warning: redis unavailable at %s, using in-memory store: %v", cfg.RedisAddr, err)
		return store.NewMemory()
	}
	log.Printf("connected to redis at %s", cfg.RedisAddr)
	return redis
}

// newChatClient builds the persona completion client from the configured
// provider/model pair.
func newChatClient(cfg config.Config) llm.Client {
	provider, modelName, err := llm.ParseModel(cfg.ChatModel)
	if err != nil {
		log.Fatalf("invalid chat_model: %v", err)
	}

	opts := []llm.Option{}
	if provider == "openai" && cfg.APIBaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.APIBaseURL))
	}

	model, err := llm.NewClient(provider, cfg.LLMAPIKey, modelName, opts...)
	if err != nil {
		log.Fatalf("chat client init failed: %v", err)
	}
	return model
}

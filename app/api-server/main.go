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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/config"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/api/handlers"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/api/middleware"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/api/routes"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/cache"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/logger"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/providers/llm"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/providers/stt"
	mongorepo "github.com/blockscrafting-arch/VoiceCoPilot/internal/repositories/mongo"
	pgrepo "github.com/blockscrafting-arch/VoiceCoPilot/internal/repositories/postgres"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/storage"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	settings, err := config.LoadSettings()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx := context.Background()

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgres init failed")
	}
	log.Info("postgres connected")

	redisOK, err := config.InitRedis()
	if err != nil {
		log.WithError(err).Warn("redis unavailable, cache and archive queue disabled")
	}
	if redisOK {
		log.Info("redis connected")
	}

	mongoOK, err := config.InitMongo()
	if err != nil {
		log.WithError(err).Warn("mongo unavailable, session records disabled")
	}
	if mongoOK {
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Warn("failed to ensure mongo indexes")
		}
		log.Info("mongo connected")
	}

	uploader, signer := buildStorage(ctx, settings, log)

	sttProvider, err := buildSTT(ctx, settings, log)
	if err != nil {
		log.WithError(err).Fatal("stt provider init failed")
	}

	llmProvider := buildLLM(ctx, settings, log)

	m := metrics.NewMetrics()

	var projectCache cache.Cache
	if redisOK {
		projectCache = cache.NewRedisCache(config.RedisClient)
	}

	projects := services.NewProjectService(pgrepo.NewProjectRepo(config.PostgresDB), projectCache, settings.LLMModel, log)
	suggestions := services.NewSuggestionService(llmProvider, settings.LLMModel, settings.LLMFallbackModel, pgrepo.NewExchangeRepo(config.PostgresDB), m, log)
	contextFiles := services.NewContextFileService(projects, uploader, log)

	transcripts := services.NewTranscriptService(projects, pgrepo.NewTranscriptRepo(config.PostgresDB), uploader, signer, config.RedisClient, m, log)
	transcription := services.NewTranscriptionService(sttProvider, settings.STTProvider, settings.STTLanguage, settings.STTChunkSeconds, m, log)

	var records services.SessionRecordService
	if mongoOK {
		db := config.MongoDatabase()
		records = services.NewSessionRecordService(mongorepo.NewSessionRepo(db), mongorepo.NewUtteranceRepo(db), log)
	}

	if redisOK {
		pool := &workers.ArchiveWorkerPool{
			Redis:       config.RedisClient,
			Transcripts: transcripts,
			NumWorkers:  settings.ArchiveWorkers,
			Logger:      log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Warn("archive worker pool failed to start")
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())

	deps := routes.Deps{
		Stream:       handlers.NewStreamHandler(transcription, transcripts, records, m, settings.MaxBufferSeconds, log),
		Suggestions:  handlers.NewSuggestionHandler(suggestions, projects),
		Projects:     handlers.NewProjectHandler(projects),
		ContextFiles: handlers.NewContextFileHandler(contextFiles),
		Transcripts:  handlers.NewTranscriptHandler(transcripts),
		Health:       handlers.NewHealthHandler(settings),
	}
	if records != nil {
		deps.Sessions = handlers.NewSessionHandler(records, projects)
	}
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", settings.APIHost, settings.APIPort),
		Handler: r,
	}

	listenErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
			return
		}
		listenErr <- nil
	}()
	log.WithField("addr", srv.Addr).Info("api server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
		return
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown failed")
	}

	_ = transcription.Close()
	if llmProvider != nil {
		_ = llmProvider.Close()
	}
	log.Info("stopped")
}

func buildStorage(ctx context.Context, s *config.Settings, log *logrus.Logger) (storage.Uploader, storage.Signer) {
	if s.StorageBucket != "" {
		g, err := storage.NewGCSUploader(ctx, s.StorageBucket)
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		log.WithField("bucket", s.StorageBucket).Info("using gcs storage")
		return g, g
	}

	l, err := storage.NewLocalUploader(s.StorageLocalDir)
	if err != nil {
		log.WithError(err).Fatal("local storage init failed")
	}
	log.WithField("dir", s.StorageLocalDir).Info("using local storage")

	if s.StoragePublicBaseURL != "" {
		return l, storage.NewPublicLinks(s.StoragePublicBaseURL)
	}
	return l, nil
}

func buildSTT(ctx context.Context, s *config.Settings, log *logrus.Logger) (stt.Provider, error) {
	switch s.STTProvider {
	case "openai":
		return stt.NewOpenAIWhisper(s.OpenAIAPIKey, s.OpenAISTTModel, log), nil
	case "google":
		return stt.NewGoogleSpeech(ctx)
	default:
		w := stt.NewLocalWhisper(s.WhisperURL)
		go func() {
			// Loads the model before the first caller connects.
			warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if err := w.WarmUp(warmCtx); err != nil {
				log.WithError(err).Warn("whisper warmup failed")
			}
		}()
		return w, nil
	}
}

// buildLLM returns nil when the configured provider cannot start; the
// suggestion service then answers UNAVAILABLE per request, everything
// else keeps working.
func buildLLM(ctx context.Context, s *config.Settings, log *logrus.Logger) llm.Provider {
	switch s.LLMProvider {
	case "vertex":
		p, err := llm.NewVertexGemini(ctx, s.VertexProjectID, s.VertexLocation)
		if err != nil {
			log.WithError(err).Warn("vertex init failed, suggestions disabled")
			return nil
		}
		return p
	default:
		p, err := llm.NewOpenRouter(s.OpenRouterAPIKey)
		if err != nil {
			log.WithError(err).Warn("openrouter init failed, suggestions disabled")
			return nil
		}
		return p
	}
}

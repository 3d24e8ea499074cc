// Package main runs the voice-memo HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vocalshare/backend/config"
	"github.com/vocalshare/backend/internal/enhance"
	"github.com/vocalshare/backend/internal/middleware"
	"github.com/vocalshare/backend/internal/openai"
	"github.com/vocalshare/backend/internal/recordings"
	"github.com/vocalshare/backend/internal/transcripts"
	"github.com/vocalshare/backend/internal/uploads"
	"github.com/vocalshare/backend/internal/worker"
	"github.com/vocalshare/backend/pkg/queue"
	"github.com/vocalshare/backend/pkg/redis"
	"github.com/vocalshare/backend/pkg/response"
	"github.com/vocalshare/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.AWS.Bucket == "" {
		logger.Fatal("S3_BUCKET is required")
	}

	ctx := context.Background()
	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		CredentialsFile:      cfg.AWS.CredentialsFile,
		Bucket:               cfg.AWS.Bucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	// Uploads (publish handshake)
	uploadHandler := uploads.NewHandler(s3Client, logger)

	// Fire-and-forget audio enhancement: queue + in-process worker. Redis
	// being down degrades to "enhancement disabled", never to a dead server.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Enhance.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("audio enhancement disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			jobQueue := queue.NewQueue(rdb.Client, logger)
			uploadHandler.SetEnhancement(jobQueue, cfg.Enhance.OutputSuffix, cfg.Enhance.Overwrite)
			enhancer := enhance.New(cfg.Enhance.FFmpegPath, logger)
			processor := worker.NewEnhanceProcessor(s3Client, jobQueue, enhancer, logger)
			go processor.Run(workerCtx)
			logger.Info("enhancement worker started")
		}
	}

	// Recording catalog
	recordingHandler := recordings.NewHandler(s3Client, logger)

	// Transcription and titling; a missing API key disables the endpoint but
	// not the process.
	transcriptionEnabled := cfg.OpenAI.APIKey != ""
	var transcriptService *transcripts.Service
	if transcriptionEnabled {
		aiClient := openai.NewClient(openai.ClientConfig{
			APIKey:          cfg.OpenAI.APIKey,
			TranscribeModel: cfg.OpenAI.TranscribeModel,
			TitleModel:      cfg.OpenAI.TitleModel,
		})
		transcriptService = transcripts.NewService(s3Client, aiClient, transcripts.ServiceConfig{
			Language:         cfg.OpenAI.TranscribeLanguage,
			TitlesEnabled:    cfg.Titles.Enabled,
			TitlePrompt:      cfg.Titles.Prompt,
			TitleTemperature: cfg.Titles.Temperature,
			TitleMaxTokens:   cfg.Titles.MaxTokens,
		}, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set, transcription endpoint disabled")
	}
	transcriptHandler := transcripts.NewHandler(transcriptService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst))

	api := router.Group("/api")
	{
		api.POST("/get-upload-url", uploadHandler.GetUploadURL)
		api.POST("/move-to-shared", uploadHandler.MoveToShared)
		api.GET("/recordings", recordingHandler.List)
		api.DELETE("/recordings/:filename", recordingHandler.Delete)
		api.POST("/transcribe", transcriptHandler.Transcribe)
		api.GET("/health", func(c *gin.Context) {
			response.OK(c, gin.H{
				"status": "ok",
				"bucket": cfg.AWS.Bucket,
				"region": cfg.AWS.Region,
				"features": gin.H{
					"transcription": transcriptionEnabled,
				},
			})
		})
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("bucket", cfg.AWS.Bucket),
			zap.String("region", cfg.AWS.Region))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

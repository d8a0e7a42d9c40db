package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/config"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/api/handlers"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/api/middleware"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/api/routes"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/cache"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/logger"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/media"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/llm"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/stt"
	mongorepo "github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/repositories/mongo"
	pgrepo "github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/repositories/postgres"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/services"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/storage"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/workers"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/youtube"
)

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Result cache: redis when configured, in-process otherwise.
	var resultCache cache.Cache
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable, using in-process cache (async generation disabled)")
		resultCache = cache.NewMemoryCache()
	} else {
		log.Info("redis connected")
		resultCache = cache.NewRedisCache(config.RedisClient)
	}

	// Blog persistence is optional.
	var blogRepo pgrepo.BlogRepository
	if os.Getenv("POSTGRES_URI") != "" {
		if err := config.InitPostgres(); err != nil {
			log.WithError(err).Fatal("postgres init failed")
		}
		log.Info("postgres connected")
		blogRepo = pgrepo.NewBlogRepo(config.PostgresDB)
	} else {
		log.Warn("POSTGRES_URI not set, blog persistence disabled")
	}

	// Transcript archive is optional.
	var transcriptRepo mongorepo.TranscriptRepository
	if os.Getenv("MONGO_URI") != "" {
		if err := config.InitMongo(); err != nil {
			log.WithError(err).Fatal("mongo init failed")
		}
		log.Info("mongo connected")
		dbName := os.Getenv("MONGO_DB")
		if dbName == "" {
			dbName = "blog_generator"
		}
		transcriptRepo = mongorepo.NewTranscriptRepo(config.MongoClient.Database(dbName))
	}

	// Local speech-to-text: the model is selected once here and the
	// provider is shared across all requests.
	var sttProvider stt.Provider
	switch os.Getenv("STT_PROVIDER") {
	case "google":
		p, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("google speech init failed")
		}
		sttProvider = p
	default:
		p, err := stt.NewWhisperCPP(os.Getenv("WHISPER_BIN"), os.Getenv("WHISPER_MODEL"))
		if err != nil {
			log.WithError(err).Fatal("whisper init failed")
		}
		sttProvider = p
	}
	defer sttProvider.Close()

	llmProvider, err := llm.NewVertexGemini(ctx,
		os.Getenv("GCP_PROJECT_ID"),
		os.Getenv("GCP_LOCATION"),
		os.Getenv("GEMINI_MODEL"),
	)
	if err != nil {
		log.WithError(err).Fatal("generation backend init failed")
	}
	defer llmProvider.Close()

	var audioArchive storage.Uploader
	if bucket := os.Getenv("AUDIO_ARCHIVE_BUCKET"); bucket != "" {
		u, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		defer u.Close()
		audioArchive = u
	}

	downloader := media.NewDownloader(log,
		media.WithBinaries(os.Getenv("YTDLP_BIN"), os.Getenv("FFMPEG_BIN")),
	)

	blogService := services.NewBlogService(services.Deps{
		Resolver:          youtube.NewResolver(log),
		Captions:          youtube.NewCaptions(log),
		Media:             downloader,
		STT:               sttProvider,
		LLM:               llmProvider,
		Cache:             resultCache,
		Blogs:             blogRepo,
		Transcripts:       transcriptRepo,
		Audio:             audioArchive,
		Logger:            log,
		CacheTTL:          envDuration("BLOG_CACHE_TTL", 24*time.Hour),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT", 2*time.Minute),
		Language:          os.Getenv("TRANSCRIPT_LANGUAGE"),
	})

	if config.RedisClient != nil {
		pool := &workers.GenerateWorkerPool{
			Redis:  config.RedisClient,
			Blogs:  blogService,
			Logger: log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("worker pool start failed")
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Blog: handlers.NewBlogHandler(blogService, config.RedisClient, ""),
		WS:   handlers.NewWSHandler(config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

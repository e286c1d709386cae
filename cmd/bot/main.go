package main

import (
	"github.com/nakharin/nvc-bot/internal/bot"
	"github.com/nakharin/nvc-bot/internal/generator"
	"github.com/nakharin/nvc-bot/internal/knowledge"
	"github.com/nakharin/nvc-bot/internal/media"
	"github.com/nakharin/nvc-bot/internal/server"
	"github.com/nakharin/nvc-bot/internal/storage"
	"github.com/nakharin/nvc-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration; missing bot or model credential is fatal here
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// The bot must not serve traffic without its reference text
	know, err := knowledge.Load(cfg.Bot.ReferenceFile)
	if err != nil {
		logger.Fatal("Failed to load reference text", zap.Error(err))
	}

	// The media catalog is supplementary; without it the bot just never
	// sends images
	catalog, err := media.LoadCatalog(cfg.Bot.MediaCatalogFile)
	if err != nil {
		logger.Warn("Media catalog unavailable, image dispatch disabled", zap.Error(err))
		catalog = media.NewCatalog(nil)
	}

	// Initialize storage; persistence problems only disable history and
	// caching, they never stop the bot
	var store storage.Storage
	switch {
	case !cfg.Database.Configured():
		logger.Info("No database configured, persistence disabled")
		store = storage.NewDisabledStorage()
	case cfg.Database.UseInMemory:
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	default:
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		pg, err := storage.NewPostgresStorage(dbConfig)
		if err != nil {
			logger.Warn("Database unreachable, persistence disabled", zap.Error(err))
			store = storage.NewDisabledStorage()
		} else {
			store = pg
		}
	}
	defer store.Close()

	// Initialize the answer generator
	gen := generator.NewOpenAIGenerator(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.RequestTimeout,
		logger,
	)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, store, know, catalog, gen, bot.Options{
		HistoryLimit: cfg.Bot.HistoryLimit,
		CacheTTL:     cfg.Bot.CacheTTL,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Serve the webhook endpoint
	srv := server.New(cfg.Server.Address, cfg.Telegram.Token, b, logger)
	if err := srv.Run(); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

package main

import (
	"context"
	"path/filepath"

	"github.com/PFEPLTechHub/document-bot/internal/access"
	"github.com/PFEPLTechHub/document-bot/internal/app"
	"github.com/PFEPLTechHub/document-bot/internal/config"
	"github.com/PFEPLTechHub/document-bot/internal/finalizer"
	"github.com/PFEPLTechHub/document-bot/internal/handlers"
	"github.com/PFEPLTechHub/document-bot/internal/logs"
	"github.com/PFEPLTechHub/document-bot/internal/notifier"
	"github.com/PFEPLTechHub/document-bot/internal/repositories"
	"github.com/PFEPLTechHub/document-bot/internal/services"
	"github.com/PFEPLTechHub/document-bot/internal/session"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/PFEPLTechHub/document-bot/internal/validator"
	"github.com/PFEPLTechHub/document-bot/pkg/db/postgres"
	"github.com/PFEPLTechHub/document-bot/pkg/db/redis"
	"github.com/PFEPLTechHub/document-bot/pkg/telegram"
	"github.com/PFEPLTechHub/document-bot/pkg/vkbot"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logs.SetupLogging(cfg.LogLevel)
	log.Println("Starting bot...")

	ctx := context.Background()

	bot, err := newBot(cfg)
	if err != nil {
		log.Fatalf("Failed to init %s bot: %v", cfg.Transport, err)
	}

	db, err := postgres.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to init postgres: %v", err)
	}
	repo := repositories.New(db)

	for _, id := range cfg.AdminIDs {
		if err := repo.EnsureAdmin(ctx, id); err != nil {
			log.Fatalf("Failed to seed admin %s: %v", id, err)
		}
	}

	var markers access.Markers = access.NewMemoryMarkers(nil)
	if cfg.RedisHost != "" {
		store, err := redis.InitRedis(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to init redis: %v", err)
		}
		defer store.Close()
		markers = access.NewRedisMarkers(store)
	} else {
		log.Warn("REDIS_HOST is not set, rejection prompts are kept in memory")
	}

	var reputation validator.Reputation
	if vt := validator.NewVirusTotal(cfg.VirusTotalAPIKey, cfg.VirusTotalURL, cfg.VirusTotalRate); vt != nil {
		reputation = vt
	} else {
		log.Warn("VIRUSTOTAL_API_KEY is not set, reputation scans are skipped")
	}

	registry := session.NewRegistry(session.Options{
		TempRoot:       cfg.TempDir,
		MaxFiles:       cfg.MaxFilesPerSession,
		SummaryWindow:  cfg.SummaryWindow,
		SummaryMaxWait: cfg.SummaryMaxWait,
	})
	notify := notifier.New(bot)
	ctrl := access.New(repo, markers)

	uploads := services.NewUploads(services.UploadDeps{
		Store:      repo,
		Gate:       ctrl,
		Registry:   registry,
		Classifier: validator.New(cfg.MaxFileSize, reputation),
		Relocator:  finalizer.New(cfg.PrimaryStoragePath, cfg.MirrorStoragePath, cfg.StorageSubPath, nil),
		Files:      bot,
		Notify:     notify,
		JournalDir: filepath.Join(cfg.TempDir, ".completions"),
	})
	team := services.NewTeam(services.TeamDeps{
		Access:         ctrl,
		Notify:         notify,
		Limits:         services.Limits{MaxFiles: registry.MaxFiles(), MaxSize: cfg.MaxFileSize},
		InviteLinkBase: cfg.InviteLinkBase,
		HistoryURL:     cfg.HistoryURL,
	})

	a := app.NewApp(app.Options{
		Bot:         bot,
		Users:       repo,
		Handler:     handlers.New(uploads, team, notify),
		Uploads:     uploads,
		Registry:    registry,
		Housekeeper: services.NewHousekeeper(repo, registry, uploads, cfg.TempDir),
		IdleTimeout: cfg.SessionIdleTimeout,
		CheckEvery:  cfg.HousekeepingInterval,
	})
	if err := a.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

func newBot(cfg config.Config) (transport.Bot, error) {
	if cfg.Transport == config.TransportTelegram {
		tg, err := telegram.New(cfg.BotToken)
		if err != nil {
			return nil, err
		}
		return tg, nil
	}
	vk, err := vkbot.New(cfg.BotToken, cfg.BotAPIURL, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}
	return vk, nil
}

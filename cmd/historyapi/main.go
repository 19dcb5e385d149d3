package main

import (
	"github.com/PFEPLTechHub/document-bot/internal/config"
	"github.com/PFEPLTechHub/document-bot/internal/historyapi"
	"github.com/PFEPLTechHub/document-bot/internal/logs"
	"github.com/PFEPLTechHub/document-bot/internal/repositories"
	"github.com/PFEPLTechHub/document-bot/pkg/db/postgres"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logs.SetupLogging(cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to init postgres: %v", err)
	}

	router := historyapi.InitRouter(repositories.New(db))
	log.Infof("History API listening on :%s", cfg.HTTPPort)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

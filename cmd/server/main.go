package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/codrzexl/UniHub/internal/config"
	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/logger"
	"github.com/codrzexl/UniHub/internal/middleware"
	"github.com/codrzexl/UniHub/internal/router"
	"github.com/codrzexl/UniHub/internal/search"
	"github.com/codrzexl/UniHub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Debug); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db.Init(cfg.DatabaseURL)

	if err := os.MkdirAll(filepath.Dir(cfg.SearchIndexPath), 0o755); err != nil {
		logger.L().Fatal("failed to create index directory", zap.Error(err))
	}
	index, err := search.New(cfg.SearchIndexPath)
	if err != nil {
		logger.L().Fatal("failed to open search index", zap.Error(err))
	}
	defer index.Close()
	if n, err := index.DocCount(); err == nil {
		logger.L().Info("search index opened",
			zap.String("path", cfg.SearchIndexPath), zap.Uint64("documents", n))
	}

	services.InitIndexer(index)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("unihub_session", store))
	r.Use(middleware.LoadUser())

	router.RegisterRoutes(r, index)

	logger.L().Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

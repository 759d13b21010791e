package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mindcare/internal/audit"
	"mindcare/internal/auth"
	"mindcare/internal/config"
	"mindcare/internal/httpserver"
	"mindcare/internal/logger"
	"mindcare/internal/models"
	"mindcare/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	if cfg.DatabaseURL == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Therapist{},
		&models.Patient{},
		&models.Session{},
		&models.ProcessingError{},
		&models.AuditLog{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	st := store.New(db)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewHasher(cfg.BcryptCost)
	rec := audit.NewRecorder(st, lg)

	router := httpserver.NewRouter(st, tokens, hasher, rec, lg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

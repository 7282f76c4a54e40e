// Package bootstrap wires the runtime dependencies a process needs before it
// can serve or seed: database, redis, the settings singleton, and the first
// administrator account.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"chenil/internal/cache"
	"chenil/internal/config"
	"chenil/internal/database"
	"chenil/internal/models"
	"chenil/internal/repository"
	"chenil/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with demo owners, dogs and media.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis, guarantees the settings
// row and the first administrator exist, and optionally seeds demo data.
// Push credentials are checked here so a misconfigured deployment fails at
// startup instead of silently dropping notifications.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	if cfg.PushEnabled && (cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "") {
		return nil, nil, errors.New("push is enabled but VAPID keys are missing")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis may come up nil when unreachable; the app degrades without it.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	ctx := context.Background()
	if err := repository.NewSettingRepository(db).Ensure(ctx); err != nil {
		return nil, nil, fmt.Errorf("settings bootstrap failed: %w", err)
	}

	if err := ensureRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("administrator bootstrap failed: %w", err)
	}

	if opts.SeedDemo {
		if err := seed.Demo(db); err != nil {
			return nil, nil, fmt.Errorf("demo seeding failed: %w", err)
		}
	}

	return db, r, nil
}

// ensureRootAdmin creates the configured administrator account when no
// account exists yet. An existing database is never touched: password
// rotation goes through cmd/admin.
func ensureRootAdmin(cfg *config.Config, db *gorm.DB) error {
	email := strings.TrimSpace(strings.ToLower(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Email:    email,
		Name:     "Administrateur",
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("created first administrator account %s", email)
	return nil
}

// Seeding tool for local development. Admin accounts are never created
// through the API, so this is the only way to provision one.
//
// Usage (env overrides):
//
//	SEED_ADMIN_EMAIL=admin@example.com SEED_ADMIN_PASSWORD=Password123
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"kasu/internal/domain"
	"kasu/internal/repository/postgres"
	"kasu/pkg/config"
	kasuerrors "kasu/pkg/errors"
	"kasu/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("seed")
	cfg := config.Load()

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", logger.Fields{"error": err.Error()})
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	ctx := context.Background()

	ensureUser(ctx, userRepo, log,
		getenv("SEED_ADMIN_EMAIL", "admin@example.com"),
		getenv("SEED_ADMIN_PASSWORD", "Password123"),
		domain.RoleAdmin,
	)
	ensureUser(ctx, userRepo, log,
		getenv("SEED_VENDOR_EMAIL", "vendor@example.com"),
		getenv("SEED_VENDOR_PASSWORD", "Password123"),
		domain.RoleVendor,
	)

	fmt.Println("OK: users seeded")
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func ensureUser(ctx context.Context, repo *postgres.UserRepository, log logger.Logger, email, password string, role domain.Role) {
	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, kasuerrors.ErrUserNotFound) {
		log.Fatal("FindByEmail failed", logger.Fields{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", logger.Fields{"error": err.Error()})
	}

	now := time.Now()
	if existing != nil {
		existing.PasswordHash = string(hash)
		existing.Role = role
		existing.IsActive = true
		existing.UpdatedAt = now
		if err := repo.Update(ctx, existing); err != nil {
			log.Fatal("Failed to update user", logger.Fields{"error": err.Error()})
		}
		log.Info("User updated", logger.Fields{"email": email, "role": string(role)})
		return
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, user); err != nil {
		log.Fatal("Failed to create user", logger.Fields{"error": err.Error()})
	}
	log.Info("User created", logger.Fields{"email": email, "role": string(role)})
}

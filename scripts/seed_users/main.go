package main

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/database"
	"github.com/veritas-team/meeting-pipeline/pkg/config"
)

// Seeds monitored test users with placeholder credentials so the pipeline
// stages have rows to work with locally. Never run against production.
func main() {
	log.Println("🚀 Starting test users creation...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Environment == "production" {
		log.Fatalf("Refusing to seed test users in production")
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	testUsers := []struct {
		Email   string
		VexaKey string
	}{
		{Email: "alice@test.local", VexaKey: "vexa-test-key-alice"},
		{Email: "bob@test.local", VexaKey: "vexa-test-key-bob"},
		{Email: "charlie@test.local", VexaKey: ""},
	}

	log.Println("🗑️  Cleaning up existing test users...")
	db.Where("email LIKE ?", "%@test.local").Delete(&entities.User{})

	log.Println("🔑 Creating monitored test users...")

	placeholderToken, _ := json.Marshal(map[string]string{
		"access_token":  "test-access-token",
		"refresh_token": "test-refresh-token",
	})

	for _, t := range testUsers {
		user := &entities.User{
			ID:                  uuid.New(),
			Email:               t.Email,
			GoogleCalendarToken: placeholderToken,
			MonitoringEnabled:   true,
		}
		if t.VexaKey != "" {
			key := t.VexaKey
			user.VexaAPIKey = &key
		}

		if err := db.Create(user).Error; err != nil {
			log.Fatalf("Failed to create user %s: %v", t.Email, err)
		}
		log.Printf("  👤 %s (vendor key: %v)", t.Email, t.VexaKey != "")
	}

	log.Println("✅ Test users created")
}

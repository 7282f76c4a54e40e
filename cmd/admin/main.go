// Package main provides administrator management utilities for Chenil.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"chenil/internal/config"
	"chenil/internal/database"
	"chenil/internal/models"
	"chenil/internal/repository"
	"chenil/internal/service"
	"chenil/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-admin <email>          - Create an administrator account")
	fmt.Println("  go run ./cmd/admin list-admins                   - List all administrators")
	fmt.Println("  go run ./cmd/admin issue-token <label> [expiry]  - Issue an edit token (expiry YYYY-MM-DD)")
	fmt.Println("  go run ./cmd/admin revoke-token <token_id>       - Deactivate an edit token")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch os.Args[1] {
	case "create-admin":
		if len(os.Args) < 3 {
			usage()
		}
		createAdmin(db, os.Args[2])

	case "list-admins":
		listAdmins(db)

	case "issue-token":
		if len(os.Args) < 3 {
			usage()
		}
		expiry := ""
		if len(os.Args) > 3 {
			expiry = os.Args[3]
		}
		issueToken(db, os.Args[2], expiry)

	case "revoke-token":
		if len(os.Args) < 3 {
			usage()
		}
		revokeToken(db, os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

// readPassword prompts twice without echoing and insists the entries match.
func readPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if err := validation.ValidatePassword(string(first)); err != nil {
		return "", err
	}
	return string(first), nil
}

func createAdmin(db *gorm.DB, email string) {
	email = strings.TrimSpace(strings.ToLower(email))

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Printf("An account with email %s already exists (ID: %d)\n", email, existing.ID)
		os.Exit(1)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Database error: %v", err)
	}

	password, err := readPassword()
	if err != nil {
		log.Fatalf("Password entry failed: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.User{
		Email:    email,
		Name:     "Administrateur",
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create administrator: %v", err)
	}

	fmt.Printf("Created administrator %s (ID: %d)\n", admin.Email, admin.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch administrators: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No administrators found")
		return
	}

	fmt.Println("Current administrators:")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
}

func issueToken(db *gorm.DB, label, expiry string) {
	tokens := service.NewTokenService(repository.NewTokenRepository(db))

	in := service.IssueTokenInput{Label: label}
	if expiry != "" {
		day, err := time.Parse("2006-01-02", expiry)
		if err != nil {
			log.Fatalf("Invalid expiry %q (want YYYY-MM-DD): %v", expiry, err)
		}
		// Tokens stay valid through the whole expiry day.
		end := day.AddDate(0, 0, 1)
		in.ExpiresAt = &end
	}

	token, err := tokens.Issue(context.Background(), in)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Printf("Issued token for %q (ID: %d)\n", token.Label, token.ID)
	fmt.Printf("Value: %s\n", token.Token)
	if token.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", token.ExpiresAt.Format(time.RFC3339))
	}
}

func revokeToken(db *gorm.DB, rawID string) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		log.Fatalf("Invalid token ID %q", rawID)
	}

	tokens := service.NewTokenService(repository.NewTokenRepository(db))
	token, err := tokens.Deactivate(context.Background(), uint(id))
	if err != nil {
		log.Fatalf("Failed to deactivate token: %v", err)
	}

	fmt.Printf("Token %d (%q) is now inactive\n", token.ID, token.Label)
}

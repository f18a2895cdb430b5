package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"spadoc/internal/config"
	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/internal/service/auth"
	"spadoc/pkg/jsonstore"
	"spadoc/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/admin [passcode|categorize|backup]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	command := os.Args[1]
	switch command {
	case "passcode":
		printPasscode(cfg)

	case "categorize":
		if err := categorize(cfg); err != nil {
			log.Fatalf("Failed to categorize posts: %v", err)
		}

	case "backup":
		store, err := openStore(cfg)
		if err != nil {
			log.Fatalf("Failed to open data directory: %v", err)
		}
		dest, err := store.Backup()
		if err != nil {
			log.Fatalf("Failed to back up data: %v", err)
		}
		fmt.Printf("✅ Backup written to %s\n", dest)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Available commands: passcode, categorize, backup")
		os.Exit(1)
	}
}

func printPasscode(cfg *config.Config) {
	code := auth.NewPasscodeGenerator(cfg.AdminSecret).Today()
	fmt.Println("📅 Today's Admin Passcode:", code)
	fmt.Printf("🔗 Admin Login URL: %s/admin/login\n", cfg.SiteURL)
	if cfg.UsesFallbackSecrets() {
		fmt.Println("⚠️  ADMIN_SECRET is not set, this code comes from the built-in fallback secret")
	}
}

func categorize(cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	blog, err := repository.NewBlogRepository(store)
	if err != nil {
		return err
	}

	ctx := context.Background()
	changed, err := blog.Categorize(ctx)
	if err != nil {
		return err
	}
	if changed == 0 {
		fmt.Println("ℹ️  All posts already have categories")
	} else {
		fmt.Printf("🎉 Updated %d blog posts with categories\n", changed)
	}

	counts := map[string]int{}
	for _, p := range blog.List(ctx) {
		counts[p.Category]++
	}
	fmt.Println("📊 Posts per category:")
	for _, c := range domain.Categories() {
		fmt.Printf("   %s %s: %d\n", c.Icon, c.Name, counts[c.Slug])
	}
	return nil
}

func openStore(cfg *config.Config) (*jsonstore.Store, error) {
	quiet, err := logger.New("warn")
	if err != nil {
		return nil, err
	}
	store, err := jsonstore.New(cfg.DataDir, quiet, jsonstore.WithRetention(cfg.BackupRetain))
	if err != nil {
		return nil, err
	}
	store.Register(repository.CollectionFiles...)
	return store, nil
}

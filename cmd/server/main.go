// Package main is the entry point for the account service.
//
// Its job is deliberately small:
//  1. Load configuration (a local .env file if present, then the environment)
//  2. Create the shared dependencies (logger, image-host client)
//  3. Hand everything to internal/server and block until shutdown
//
// All actual logic lives in the internal packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/account-service/internal/server"
	"github.com/sakif/account-service/internal/storage"
	s3store "github.com/sakif/account-service/internal/storage/s3"
)

func main() {
	// .env is a development convenience — absent in production, where the
	// process environment is the source of truth. Ignore the load error.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/accounts.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// os.MkdirAll is a no-op when the directory already exists.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// Unlike the optional collaborators below, the service cannot issue
	// login tokens without it, so a missing secret is fatal.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set")
		os.Exit(1)
	}

	// The avatar image host is optional — without it the server still
	// registers and logs users in, it just rejects avatar file uploads.
	var uploads storage.Uploader
	if bucket := os.Getenv("AVATAR_S3_BUCKET"); bucket != "" {
		client, err := s3store.New(context.Background(), s3store.Config{
			Region:        getenvDefault("AVATAR_S3_REGION", "us-east-1"),
			Endpoint:      os.Getenv("AVATAR_S3_ENDPOINT"),
			Bucket:        bucket,
			AccessKey:     os.Getenv("AVATAR_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("AVATAR_S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("AVATAR_PUBLIC_BASE_URL"),
		})
		if err != nil {
			logger.Error("failed to create avatar storage client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		uploads = client
	} else {
		logger.Warn("AVATAR_S3_BUCKET not set — avatar uploads are disabled")
	}

	cfg := server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
	}

	srv, err := server.New(cfg, logger, uploads)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

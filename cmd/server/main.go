// Package main is the entry point for the language tutor server. It reads
// configuration, builds the optional AI and speech backends, and starts
// the server; all other logic lives in internal packages.
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/ai"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/server"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/speech"
)

func main() {
	// .env is for local development; missing in production is fine.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
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

	dbPath := "data/verbo.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string: JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// The OpenAI responder is optional; without a key the canned offline
	// responder keeps conversation practice working.
	var responder ai.Responder
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		// OPENAI_MODEL and OPENAI_BASE_URL are optional overrides, the
		// latter for OpenAI-compatible endpoints.
		responder = ai.NewOpenAIResponder(apiKey, os.Getenv("OPENAI_MODEL"), os.Getenv("OPENAI_BASE_URL"))
		logger.Info("using OpenAI responder")
	} else {
		responder = ai.NewCannedResponder(rand.NewSource(time.Now().UnixNano()))
		logger.Warn("OPENAI_API_KEY not set, using canned tutor replies")
	}

	// Google TTS is optional too; when unavailable the /api/tts endpoint
	// reports audio as unavailable and clients fall back to browser speech.
	var synthesizer speech.Synthesizer
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		synth, err := speech.NewGoogleSynthesizer(ctx)
		cancel()
		if err != nil {
			logger.Warn("text-to-speech unavailable", slog.String("error", err.Error()))
		} else {
			synthesizer = synth
			defer synth.Close()
			logger.Info("using Google text-to-speech")
		}
	} else {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, /api/tts will return no audio")
	}

	cfg := server.Config{
		Port:         port,
		DBPath:       dbPath,
		JWTSecret:    jwtSecret,
		SecureCookie: os.Getenv("SECURE_COOKIE") == "true",
		Responder:    responder,
		Scorer:       ai.NewMockScorer(rand.NewSource(time.Now().UnixNano())),
		Synthesizer:  synthesizer,
		TTSVoice:     os.Getenv("TTS_VOICE"),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

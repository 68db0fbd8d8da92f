// Package server wires the application together: database, services,
// handlers, middleware, and routes. It is the composition root; main.go
// only builds a Config and calls Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/ai"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/auth"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/handler"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/middleware"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/realtime"
	sqliteRepo "github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository/sqlite"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/service"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/speech"
)

// Config holds server configuration.
type Config struct {
	Port         int
	DBPath       string
	JWTSecret    string
	SecureCookie bool

	// Responder is the AI backend for conversation replies. Defaults to
	// the offline canned responder when nil.
	Responder ai.Responder
	// Scorer evaluates pronunciation attempts. Required.
	Scorer ai.PronunciationScorer
	// Synthesizer is optional; when nil the TTS endpoint reports audio
	// as unavailable and clients fall back to browser speech.
	Synthesizer speech.Synthesizer
	// TTSVoice is the synthesis voice used when a request names none.
	TTSVoice string
}

// Server owns the router, the database connection, and the SSE hub.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hub    *realtime.Hub
}

// New assembles the full dependency chain: database, token/password
// services, the realtime hub, the five domain services, and all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hub:    realtime.NewHub(logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	lessonService := service.NewLessonService(s.db, s.hub, s.logger)
	gamificationService := service.NewGamificationService(s.db, s.hub, s.logger)
	conversationService := service.NewConversationService(s.db, s.config.Responder, s.config.Scorer, s.logger)
	performanceService := service.NewPerformanceService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.config.SecureCookie)
	lessonHandler := handler.NewLessonHandler(lessonService, gamificationService, s.logger)
	conversationHandler := handler.NewConversationHandler(conversationService, gamificationService)
	gamificationHandler := handler.NewGamificationHandler(gamificationService)
	performanceHandler := handler.NewPerformanceHandler(performanceService)
	aiHandler := handler.NewAIHandler(s.config.Responder, s.config.Synthesizer, s.config.TTSVoice)
	eventsHandler := handler.NewEventsHandler(s.hub)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Everything else needs a session.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Patch("/me", authHandler.UpdateMe)

			r.Get("/lessons", lessonHandler.List)
			r.Get("/lessons/{id}", lessonHandler.Get)
			r.Post("/lessons/{id}/start", lessonHandler.Start)
			r.Get("/user-lessons", lessonHandler.ListMine)
			r.Patch("/user-lessons/{id}", lessonHandler.UpdateProgress)
			r.Post("/user-lessons/{id}/performances", lessonHandler.RecordPerformance)

			r.Get("/conversations", conversationHandler.List)
			r.Post("/conversations", conversationHandler.Create)
			r.Get("/conversations/{id}", conversationHandler.Get)
			r.Delete("/conversations/{id}", conversationHandler.Delete)
			r.Post("/conversations/{id}/messages", conversationHandler.SendMessage)
			r.Post("/pronunciation", conversationHandler.AnalyzePronunciation)

			r.Get("/progress", gamificationHandler.Progress)
			r.Get("/streak", gamificationHandler.Streak)
			r.Get("/level", gamificationHandler.Level)
			r.Get("/achievements", gamificationHandler.Achievements)
			r.Get("/leaderboard", gamificationHandler.Leaderboard)
			r.Post("/activity", gamificationHandler.LogActivity)

			r.Get("/metrics", performanceHandler.List)
			r.Post("/metrics", performanceHandler.Record)
			r.Get("/metrics/summary", performanceHandler.Summary)

			r.Post("/chat", aiHandler.Chat)
			r.Post("/tts", aiHandler.Synthesize)

			r.Get("/events", eventsHandler.Stream)
		})
	})

	return nil
}

// Router exposes the configured mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, and
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout must outlast SSE connections; the per-request
		// context still ends streams when clients disconnect.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachbooking/internal/config"
	availResolve "coachbooking/internal/http-server/handlers/availability/resolve"
	ruleCreate "coachbooking/internal/http-server/handlers/availability_rules/create"
	ruleDelete "coachbooking/internal/http-server/handlers/availability_rules/delete"
	ruleGet "coachbooking/internal/http-server/handlers/availability_rules/get"
	ruleUpdate "coachbooking/internal/http-server/handlers/availability_rules/update"
	blockedCreate "coachbooking/internal/http-server/handlers/blocked_dates/create"
	blockedDelete "coachbooking/internal/http-server/handlers/blocked_dates/delete"
	blockedGet "coachbooking/internal/http-server/handlers/blocked_dates/get"
	bookingCancel "coachbooking/internal/http-server/handlers/bookings/cancel"
	bookingConfirm "coachbooking/internal/http-server/handlers/bookings/confirm"
	bookingCreate "coachbooking/internal/http-server/handlers/bookings/create"
	bookingGet "coachbooking/internal/http-server/handlers/bookings/get"
	sessionTypeCreate "coachbooking/internal/http-server/handlers/session_types/create"
	sessionTypeGet "coachbooking/internal/http-server/handlers/session_types/get"
	workflowGet "coachbooking/internal/http-server/handlers/workflows/get"
	workflowReset "coachbooking/internal/http-server/handlers/workflows/reset"
	workflowReview "coachbooking/internal/http-server/handlers/workflows/review"
	workflowSelection "coachbooking/internal/http-server/handlers/workflows/selection"
	workflowStart "coachbooking/internal/http-server/handlers/workflows/start"
	workflowSubmit "coachbooking/internal/http-server/handlers/workflows/submit"
	"coachbooking/internal/idempotency"
	"coachbooking/internal/lock"
	svc "coachbooking/internal/service"
	"coachbooking/internal/storage/postgres"
	"coachbooking/internal/workflow"
	slogpretty "coachbooking/pkg/handlers/slogPretty"
	"coachbooking/pkg/middleware/mwLogger"
	"coachbooking/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Error("Failed to connect to redis", sl.Err(err))
		os.Exit(1)
	}
	pingCancel()

	locker := lock.NewRedisLock(redisClient)
	idemStore := idempotency.NewRedisStore(redisClient)

	service := svc.NewService(storage, locker, idemStore, cfg.Booking.LockTTL)

	workflows := workflow.NewManager(service, service, cfg.Booking.HorizonDays,
		workflow.WithTTL(cfg.Booking.WorkflowTTL))

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go workflows.Run(sweepCtx, time.Minute)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Availability
	router.Get("/experts/{id}/availability", availResolve.New(log, service))

	// Availability Rules
	router.Post("/availability_rules", ruleCreate.New(log, service))
	router.Get("/availability_rules", ruleGet.New(log, service))
	router.Get("/availability_rules/{id}", ruleGet.New(log, service))
	router.Put("/availability_rules/{id}", ruleUpdate.New(log, service))
	router.Delete("/availability_rules/{id}", ruleDelete.New(log, service))

	// Blocked Dates
	router.Post("/blocked_dates", blockedCreate.New(log, service))
	router.Get("/blocked_dates", blockedGet.New(log, service))
	router.Delete("/blocked_dates/{id}", blockedDelete.New(log, service))

	// Session Types
	router.Post("/session_types", sessionTypeCreate.New(log, service))
	router.Get("/session_types", sessionTypeGet.New(log, service))
	router.Get("/session_types/{id}", sessionTypeGet.New(log, service))

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Post("/bookings/{id}/confirm", bookingConfirm.New(log, service))
	router.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))

	// Booking Workflows
	router.Post("/workflows", workflowStart.New(log, workflows))
	router.Get("/workflows/{id}", workflowGet.New(log, workflows))
	router.Post("/workflows/{id}/selection", workflowSelection.New(log, workflows))
	router.Post("/workflows/{id}/review", workflowReview.New(log, workflows))
	router.Post("/workflows/{id}/submit", workflowSubmit.New(log, workflows))
	router.Post("/workflows/{id}/reset", workflowReset.New(log, workflows))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close redis client", sl.Err(err))
	} else {
		log.Info("Redis client closed")
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

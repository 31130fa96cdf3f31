package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipshare/auth"
	"clipshare/config"
	"clipshare/feed"
	"clipshare/filemgr"
	"clipshare/middleware"
	"clipshare/notifications"
	"clipshare/profile"
	"clipshare/ratelim"
	"clipshare/routes"
	"clipshare/settings"
	"clipshare/social"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(log *logrus.Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(d routes.Deps) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, d)
	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogJSON)
	log := utils.Component(logger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackends(ctx, cfg, logger)
	if err != nil {
		log.WithError(err).Fatal("backends unavailable")
	}
	defer be.Close()

	mode := social.WriteTransaction
	if cfg.RelationshipWrites == config.WritesSaga {
		mode = social.WriteSaga
	}
	mgr := social.NewManager(be.store, social.SessionFunc(middleware.UsernameFromContext), be.bus,
		social.WithWriteMode(mode),
		social.WithLogger(utils.Component(logger, "social")),
	)

	provider := auth.NewProvider(be.store, mgr, be.tokens, cfg.JWTSecret, cfg.TokenTTL, utils.Component(logger, "auth"))
	settingsSvc := settings.NewService(be.store, utils.Component(logger, "settings"))
	uploader := filemgr.NewUploader(be.blobs, cfg.MaxUploadBytes, utils.Component(logger, "filemgr"))

	rateLimiter := ratelim.NewRateLimiter(30, 10)
	go rateLimiter.Cleanup(ctx, time.Minute, 10*time.Minute)

	worker := notifications.NewWorker(be.bus, mgr, utils.Component(logger, "notifications"))
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("notification worker stopped")
		}
	}()

	router := setupRouter(routes.Deps{
		Verifier:      provider,
		RateLimiter:   rateLimiter,
		Auth:          auth.NewHandlers(provider),
		Profile:       profile.NewHandlers(mgr, uploader, settingsSvc, utils.Component(logger, "profile")),
		Feed:          feed.NewHandlers(mgr, uploader, cfg.MaxUploadBytes, utils.Component(logger, "feed")),
		Notifications: notifications.NewHandlers(mgr, utils.Component(logger, "notifications")),
		Settings:      settingsSvc,
	})

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           loggingMiddleware(utils.Component(logger, "http"), securityHeaders(corsHandler)),
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe")
		}
	}()

	<-ctx.Done()

	log.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		return
	}
	log.Info("server stopped cleanly")
}

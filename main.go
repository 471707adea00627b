package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trimurl/analytics"
	"trimurl/auth"
	"trimurl/cache"
	"trimurl/config"
	"trimurl/geoip"
	"trimurl/handler"
	appLogger "trimurl/logger"
	"trimurl/middleware"
	redisClient "trimurl/redis"
	"trimurl/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("auth.jwt_secret must be configured")
	}

	// Initialize Redis client
	rdb := redisClient.NewClient(cfg.Redis)

	// Initialize cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Stores
	linkStore := store.NewLinkStore(rdb)
	userStore := store.NewUserStore(rdb)
	qrStore := store.NewQRStore(rdb)

	// Geo resolver and click recorder (fire-and-forget analytics path)
	geoResolver := geoip.NewResolver(cfg.Geo.Endpoint, time.Duration(cfg.Geo.TimeoutMS)*time.Millisecond)
	recorder := analytics.NewRecorder(linkStore, geoResolver)

	// Auth
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	userAuth := middleware.NewUserAuth(jwtManager)

	// Handlers with dependency injection
	urlHandler := handler.NewURLHandler(linkStore, cacheClient, recorder, cfg)
	qrHandler := handler.NewQRHandler(qrStore, linkStore, cfg)
	domainHandler := handler.NewDomainHandler(userStore, net.DefaultResolver, cfg)
	userHandler := handler.NewUserHandler(userStore, jwtManager, cfg)
	healthHandler := handler.NewHealthHandler(rdb)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Public routes
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")
	r.HandleFunc("/protected-url", urlHandler.VerifyProtected).Methods("POST")
	r.HandleFunc("/auth/register", userHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", userHandler.Login).Methods("POST")
	r.HandleFunc("/qr/{slug}", qrHandler.GenerateQR).Methods("GET")

	// Owner-scoped API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(userAuth.Protect)
	api.HandleFunc("/create", urlHandler.CreateLink).Methods("POST")
	api.HandleFunc("/short-urls", urlHandler.ListLinks).Methods("GET")
	api.HandleFunc("/short-url/{id}", urlHandler.UpdateLink).Methods("PUT")
	api.HandleFunc("/short-url/{slug}", urlHandler.GetLink).Methods("GET")
	api.HandleFunc("/delete/{slug}", urlHandler.DeleteLink).Methods("DELETE")
	api.HandleFunc("/search", urlHandler.SearchLinks).Methods("GET")
	api.HandleFunc("/tags", urlHandler.ListTags).Methods("GET")
	api.HandleFunc("/matched-urls", urlHandler.MatchedLinks).Methods("POST")
	api.HandleFunc("/total-short-urls", urlHandler.TotalLinks).Methods("GET")
	api.HandleFunc("/get-user", userHandler.GetUser).Methods("GET")
	api.HandleFunc("/qrcode", qrHandler.SaveQRCode).Methods("POST")
	api.HandleFunc("/my-qrcodes", qrHandler.ListQRCodes).Methods("GET")
	api.HandleFunc("/qrcodes/{id}", qrHandler.DeleteQRCode).Methods("DELETE")
	api.HandleFunc("/add-domain", domainHandler.AddDomain).Methods("POST")
	api.HandleFunc("/domains", domainHandler.ListDomains).Methods("GET")
	api.HandleFunc("/domain/{domainName}", domainHandler.DeleteDomain).Methods("DELETE")
	api.HandleFunc("/create-token", userHandler.CreateToken).Methods("POST")
	api.HandleFunc("/delete-token/{tokenId}", userHandler.DeleteToken).Methods("DELETE")
	api.HandleFunc("/tokens", userHandler.ListTokens).Methods("GET")

	// Redirect route (must be last to avoid conflicts)
	r.HandleFunc("/{slug}", urlHandler.Redirect).Methods("GET")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close cache
	if cacheClient != nil {
		cacheClient.Close()
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}

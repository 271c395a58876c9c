// Package main initializes and starts the warranty verification server,
// setting up configuration, logging, the portal session, the optional
// audit database, services and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"hubgaranzie/internal/config"
	"hubgaranzie/internal/db"
	"hubgaranzie/internal/logger"
	"hubgaranzie/internal/portal"
	"hubgaranzie/internal/repository"
	"hubgaranzie/internal/server/handler/http"
	"hubgaranzie/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Pick the session strategy: a preset cookie from configuration skips
	// the login protocol entirely; otherwise the full form login runs at
	// the first lookup. Credentials are validated there, not here.
	var auth portal.Authenticator
	if options.PortalCookie != "" {
		auth = portal.PresetCookie{Cookie: options.PortalCookie}
	} else {
		auth = portal.FormLogin{
			Username: options.PortalUsername,
			Password: options.PortalPassword,
		}
	}

	// Build the portal session, token cache and client sharing one cookie jar.
	timeout := time.Duration(options.PortalTimeoutSeconds) * time.Second
	session, err := portal.NewSession(options.PortalBaseURL, timeout, auth, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init portal session", zap.Error(err))
	}
	tokens := portal.NewTokenCache(session, zapLogger)
	client := portal.NewClient(session, zapLogger)

	// Initialize the lookup pipeline.
	lookupService := service.NewLookupService(session, tokens, client, zapLogger)

	// The audit trail is optional; without a DSN the service runs without it.
	lookupHandler := &http.LookupHandler{LookupService: lookupService, Log: zapLogger}
	if options.DatabaseDSN != "" {
		auditDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}

		// Prune audit rows past retention.
		db.StartAuditPruner(context.Background(), auditDB,
			time.Hour,       // interval
			30*24*time.Hour, // retention: 30 days
			zapLogger,
		)

		lookupHandler.Audit = repository.NewPostgresLookupRepository(auditDB)
	} else {
		zapLogger.Info("no database configured, lookup auditing disabled")
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(lookupHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

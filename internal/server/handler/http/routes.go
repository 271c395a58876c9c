// Package http provides HTTP routing and middleware configuration
// for the warranty lookup service.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"hubgaranzie/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the warranty
// verification API. It applies JSON content-type enforcement and request
// logging, and mounts the verification endpoint and the liveness probe.
//
// Routes:
//
//	POST /verifica  → lookupHandler.Verifica
//	GET  /          → lookupHandler.Live
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON request bodies
//  2. WithRequestLogging(logger)           — assigns request ids and logs requests
func NewRouter(lookupHandler *LookupHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/", lookupHandler.Live)
	r.Post("/verifica", lookupHandler.Verifica)

	return r
}

// Package service provides the warranty lookup business logic, delegating
// portal access to session, token and client collaborators.
package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"hubgaranzie/internal/models"
	"hubgaranzie/internal/portal"
)

// SessionManager establishes the authenticated portal session.
type SessionManager interface {
	// EnsureAuthenticated logs in on first use and is a no-op afterwards.
	EnsureAuthenticated(ctx context.Context) error
}

// TokenSource supplies the warranty page's CSRF token.
type TokenSource interface {
	// EnsureToken discovers the token on first use and returns the cached
	// value afterwards.
	EnsureToken(ctx context.Context) (portal.Token, error)
}

// PortalClient performs the two warranty AJAX calls.
type PortalClient interface {
	// WarrantyInfo returns the vehicle identity record and the raw
	// response body for the given chassis id.
	WarrantyInfo(ctx context.Context, telaio string, tok portal.Token) (models.IdentityRecord, json.RawMessage, error)
	// WarrantyList returns the normalized coverage record and the raw
	// outer response body for the given chassis id.
	WarrantyList(ctx context.Context, telaio string, tok portal.Token) (models.CoverageRecord, json.RawMessage, error)
}

// LookupService orchestrates one warranty lookup: ensure the session is
// authenticated, ensure the CSRF token is known, then run the identity and
// coverage calls in sequence against the shared session. The calls are
// strictly sequential; the coverage call depends on cookie state the portal
// establishes during authentication, and a failure at any stage aborts the
// rest of the lookup. Nothing is retried and no result is cached.
type LookupService struct {
	session SessionManager
	tokens  TokenSource
	client  PortalClient
	log     *zap.Logger
}

// NewLookupService constructs a LookupService from its collaborators.
func NewLookupService(session SessionManager, tokens TokenSource, client PortalClient, log *zap.Logger) *LookupService {
	return &LookupService{session: session, tokens: tokens, client: client, log: log}
}

// Lookup runs the full pipeline for one chassis id. An empty or
// whitespace-only id fails with InvalidInput before any network call.
func (s *LookupService) Lookup(ctx context.Context, telaio string) (*models.LookupResult, error) {
	telaio = strings.TrimSpace(telaio)
	if telaio == "" {
		return nil, portal.NewInvalidInput("telaio must not be empty")
	}

	if err := s.session.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}
	tok, err := s.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	identity, rawIdentity, err := s.client.WarrantyInfo(ctx, telaio, tok)
	if err != nil {
		return nil, err
	}
	coverage, rawCoverage, err := s.client.WarrantyList(ctx, telaio, tok)
	if err != nil {
		return nil, err
	}

	s.log.Debug("lookup completed",
		zap.String("telaio", telaio),
		zap.Bool("has_warranty", coverage.HasWarranty))

	return &models.LookupResult{
		Telaio:      telaio,
		Identity:    identity,
		Coverage:    coverage,
		RawIdentity: rawIdentity,
		RawCoverage: rawCoverage,
	}, nil
}

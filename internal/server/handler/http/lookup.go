// Package http provides HTTP handlers for the warranty lookup service.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hubgaranzie/internal/models"
	"hubgaranzie/internal/portal"
)

// LookupService defines the interface for warranty lookups required by the
// HTTP handlers.
type LookupService interface {
	// Lookup runs the full portal pipeline for one chassis id.
	Lookup(ctx context.Context, telaio string) (*models.LookupResult, error)
}

// AuditRecorder persists lookup outcomes for diagnostics. A nil recorder
// disables auditing.
type AuditRecorder interface {
	RecordLookup(ctx context.Context, rec models.LookupRecord) error
}

// LookupHandler handles HTTP requests for warranty verification.
type LookupHandler struct {
	// LookupService performs the underlying portal pipeline.
	LookupService LookupService
	// Audit records lookup outcomes; may be nil.
	Audit AuditRecorder
	// Log is used for audit failures, which are never surfaced to callers.
	Log *zap.Logger
}

// verificaRequest represents the JSON payload for a verification request.
type verificaRequest struct {
	// Telaio is the chassis id to verify.
	Telaio string `json:"telaio"`
}

// writeEnvelope writes the service's response envelope: data under
// "success": true, or a human-readable "error" otherwise.
func writeEnvelope(w http.ResponseWriter, status int, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if errMsg != "" {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": errMsg})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

// Verifica handles warranty verification requests. It expects a JSON body
// with a non-empty "telaio" field, runs the lookup pipeline and answers
// with the success envelope. Every pipeline failure maps to a failure
// envelope with the message preserved; the process never crashes on them.
func (h *LookupHandler) Verifica(w http.ResponseWriter, r *http.Request) {
	var req verificaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "invalid request")
		return
	}
	if strings.TrimSpace(req.Telaio) == "" {
		// Rejected before the pipeline runs; no portal traffic.
		writeEnvelope(w, http.StatusOK, nil, "telaio mancante")
		return
	}

	start := time.Now()
	result, err := h.LookupService.Lookup(r.Context(), req.Telaio)
	h.recordAudit(r.Context(), req.Telaio, time.Since(start), err)

	if err != nil {
		writeEnvelope(w, http.StatusOK, nil, err.Error())
		return
	}
	writeEnvelope(w, http.StatusOK, result, "")
}

// recordAudit persists the lookup outcome when auditing is enabled.
// Audit failures are logged and otherwise ignored.
func (h *LookupHandler) recordAudit(ctx context.Context, telaio string, elapsed time.Duration, lookupErr error) {
	if h.Audit == nil {
		return
	}
	rec := models.LookupRecord{
		ID:         uuid.NewString(),
		Telaio:     strings.TrimSpace(telaio),
		Success:    lookupErr == nil,
		DurationMs: elapsed.Milliseconds(),
	}
	if lookupErr != nil {
		rec.ErrorKind = string(portal.KindOf(lookupErr))
	}
	if err := h.Audit.RecordLookup(ctx, rec); err != nil {
		h.Log.Warn("failed to record lookup audit row", zap.Error(err))
	}
}

// Live handles the liveness probe. It answers without touching the portal.
func (h *LookupHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "Backend verifica garanzia attivo",
	})
}

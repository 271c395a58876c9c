package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"hubgaranzie/internal/models"
	"hubgaranzie/internal/portal"
)

// fakeLookupService implements LookupService for testing.
type fakeLookupService struct {
	result *models.LookupResult
	err    error
	calls  int
}

func (f *fakeLookupService) Lookup(ctx context.Context, telaio string) (*models.LookupResult, error) {
	f.calls++
	return f.result, f.err
}

// fakeAudit implements AuditRecorder for testing.
type fakeAudit struct {
	recorded []models.LookupRecord
	err      error
}

func (f *fakeAudit) RecordLookup(ctx context.Context, rec models.LookupRecord) error {
	f.recorded = append(f.recorded, rec)
	return f.err
}

func TestLookupHandler_Verifica(t *testing.T) {
	okResult := &models.LookupResult{
		Telaio:   "X1",
		Identity: models.IdentityRecord{Telaio: "X1", Targa: "AB123CD"},
		Coverage: models.CoverageRecord{HasWarranty: true, VIN: "X1"},
	}

	tests := []struct {
		name           string
		body           string
		service        *fakeLookupService
		expectedCode   int
		expectedSubstr string
		expectCalls    int
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			service:        &fakeLookupService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: `"invalid request"`,
			expectCalls:    0,
		},
		{
			name:           "empty telaio short-circuits",
			body:           `{"telaio":"   "}`,
			service:        &fakeLookupService{},
			expectedCode:   http.StatusOK,
			expectedSubstr: `"telaio mancante"`,
			expectCalls:    0,
		},
		{
			name: "pipeline failure becomes envelope error",
			body: `{"telaio":"X1"}`,
			service: &fakeLookupService{
				err: &portal.Error{Kind: portal.KindRequestRejected, Message: "portal rejected identity lookup"},
			},
			expectedCode:   http.StatusOK,
			expectedSubstr: `"portal rejected identity lookup"`,
			expectCalls:    1,
		},
		{
			name:           "successful lookup",
			body:           `{"telaio":"X1"}`,
			service:        &fakeLookupService{result: okResult},
			expectedCode:   http.StatusOK,
			expectedSubstr: `"targa":"AB123CD"`,
			expectCalls:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/verifica", bytes.NewBufferString(tt.body))
			h := &LookupHandler{LookupService: tt.service, Log: zap.NewNop()}
			h.Verifica(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(res.Body); err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, buf.String())
			}
			if tt.service.calls != tt.expectCalls {
				t.Errorf("expected %d service calls, got %d", tt.expectCalls, tt.service.calls)
			}
		})
	}
}

func TestLookupHandler_EnvelopeShape(t *testing.T) {
	h := &LookupHandler{
		LookupService: &fakeLookupService{result: &models.LookupResult{Telaio: "X1"}},
		Log:           zap.NewNop(),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/verifica", bytes.NewBufferString(`{"telaio":"X1"}`))
	h.Verifica(rec, req)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Errorf("expected success=true")
	}
	if len(envelope.Data) == 0 {
		t.Errorf("expected data to be populated")
	}
	if envelope.Error != "" {
		t.Errorf("expected no error field, got %q", envelope.Error)
	}
}

func TestLookupHandler_AuditRecorded(t *testing.T) {
	audit := &fakeAudit{}
	h := &LookupHandler{
		LookupService: &fakeLookupService{
			err: &portal.Error{Kind: portal.KindAuthenticationFailed, Message: "login failed"},
		},
		Audit: audit,
		Log:   zap.NewNop(),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/verifica", bytes.NewBufferString(`{"telaio":" X1 "}`))
	h.Verifica(rec, req)

	if len(audit.recorded) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(audit.recorded))
	}
	row := audit.recorded[0]
	if row.Success {
		t.Errorf("expected failed lookup to be recorded as such")
	}
	if row.ErrorKind != "authentication_failed" {
		t.Errorf("expected error kind authentication_failed, got %q", row.ErrorKind)
	}
	if row.Telaio != "X1" {
		t.Errorf("expected trimmed telaio, got %q", row.Telaio)
	}
	if row.ID == "" {
		t.Errorf("expected audit row id to be set")
	}
}

func TestLookupHandler_AuditFailureNotSurfaced(t *testing.T) {
	audit := &fakeAudit{err: errors.New("db down")}
	h := &LookupHandler{
		LookupService: &fakeLookupService{result: &models.LookupResult{Telaio: "X1"}},
		Audit:         audit,
		Log:           zap.NewNop(),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/verifica", bytes.NewBufferString(`{"telaio":"X1"}`))
	h.Verifica(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"success":true`)) {
		t.Errorf("audit failure must not fail the request, got %q", rec.Body.String())
	}
}

func TestLookupHandler_Live(t *testing.T) {
	h := &LookupHandler{Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

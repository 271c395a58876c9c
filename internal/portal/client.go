package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"hubgaranzie/internal/models"
)

// AJAX call fixtures. auth.py is the only surviving capture of the portal
// protocol, so the action routing below follows the Joomla conventions the
// login endpoint exhibits; correct against a live capture if needed.
const (
	identityTaskField = "task"
	identityTaskValue = "garanzie.getWarrantyInfo"

	ajaxOptionValue = "com_ajax"
	ajaxModuleValue = "garanzie"
	ajaxMethodValue = "getWarrantyList"

	chassisField = "telaio"

	formContentType = "application/x-www-form-urlencoded"
)

// statusFlag decodes the portal's "status" field, which is emitted
// inconsistently as a boolean, a string or a number. Empty strings, "0",
// "false", 0 and null are falsy; everything else is truthy.
type statusFlag bool

func (b *statusFlag) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch trimmed {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false":
			*b = false
		default:
			*b = true
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = n != 0
	return nil
}

// Client performs the portal's warranty AJAX calls over an authenticated
// Session, injecting the cached CSRF token as an extra form field.
type Client struct {
	session *Session
	log     *zap.Logger
}

// NewClient builds a Client over the given session.
func NewClient(session *Session, log *zap.Logger) *Client {
	return &Client{session: session, log: log}
}

// postForm sends one urlencoded POST through the session's cookie jar and
// returns the raw response body.
func (c *Client) postForm(ctx context.Context, target string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, wrapError(KindUnreachable, err, "build portal request")
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", formContentType)
	req.Header.Set("Origin", strings.TrimSuffix(c.session.BaseURL().String(), "/"))
	req.Header.Set("Referer", c.session.BaseURL().JoinPath(warrantyPagePath).String())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return nil, wrapError(KindUnreachable, err, "call portal %s", target)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newError(KindUnreachable, "portal %s returned status %d", target, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindUnreachable, err, "read portal response")
	}
	return body, nil
}

// WarrantyInfo performs the identity lookup (Call A): vehicle and owner
// data for the given chassis id. Missing keys in the portal payload map to
// empty record fields, never to an error.
func (c *Client) WarrantyInfo(ctx context.Context, telaio string, tok Token) (models.IdentityRecord, json.RawMessage, error) {
	form := url.Values{}
	form.Set(identityTaskField, identityTaskValue)
	form.Set(chassisField, telaio)
	if tok.Valid() {
		form.Set(tok.Name, tok.Value)
	}

	target := c.session.BaseURL().JoinPath(warrantyPagePath).String()
	body, err := c.postForm(ctx, target, form)
	if err != nil {
		return models.IdentityRecord{}, nil, err
	}

	var envelope struct {
		Status statusFlag      `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return models.IdentityRecord{}, nil, wrapError(KindMalformedResponse, err,
			"identity response is not JSON: %s", truncate(string(body), 120))
	}
	if !envelope.Status {
		return models.IdentityRecord{}, nil, newError(KindRequestRejected,
			"portal rejected identity lookup: %s", truncate(string(body), 300))
	}

	var identity models.IdentityRecord
	if len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		if err := json.Unmarshal(envelope.Data, &identity); err != nil {
			return models.IdentityRecord{}, nil, wrapError(KindMalformedResponse, err,
				"identity data has unexpected shape: %s", truncate(string(envelope.Data), 120))
		}
	}
	return identity, body, nil
}

// WarrantyList performs the coverage lookup (Call B). The portal's generic
// AJAX endpoint wraps the result twice: the outer envelope's data field is
// itself a JSON document encoded as a string, which must be decoded again.
// An empty WARRANTY_LIST yields a record with only HasWarranty set; that is
// the portal's "no active warranty" answer, not a failure.
func (c *Client) WarrantyList(ctx context.Context, telaio string, tok Token) (models.CoverageRecord, json.RawMessage, error) {
	form := url.Values{}
	form.Set("option", ajaxOptionValue)
	form.Set("module", ajaxModuleValue)
	form.Set("method", ajaxMethodValue)
	form.Set("format", "json")
	form.Set(chassisField, telaio)
	if tok.Valid() {
		form.Set(tok.Name, tok.Value)
	}

	target := c.session.BaseURL().JoinPath(ajaxPath).String()
	body, err := c.postForm(ctx, target, form)
	if err != nil {
		return models.CoverageRecord{}, nil, err
	}

	// Pagination metadata alongside data is ignored.
	var envelope struct {
		Status statusFlag `json:"status"`
		Data   string     `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return models.CoverageRecord{}, nil, wrapError(KindMalformedResponse, err,
			"coverage response is not JSON: %s", truncate(string(body), 120))
	}
	if !envelope.Status {
		return models.CoverageRecord{}, nil, newError(KindRequestRejected,
			"portal rejected coverage lookup: %s", truncate(string(body), 300))
	}

	var inner struct {
		Data struct {
			HasWarranty  statusFlag             `json:"HAS_WARRANTY"`
			WarrantyList []models.WarrantyEntry `json:"WARRANTY_LIST"`
		} `json:"Data"`
	}
	if err := json.Unmarshal([]byte(envelope.Data), &inner); err != nil {
		return models.CoverageRecord{}, nil, wrapError(KindMalformedResponse, err,
			"coverage inner document is not JSON: %s", truncate(envelope.Data, 120))
	}

	coverage := models.CoverageRecord{HasWarranty: bool(inner.Data.HasWarranty)}
	if len(inner.Data.WarrantyList) > 0 {
		entry := inner.Data.WarrantyList[0]
		coverage.VIN = entry.VIN
		coverage.WarrantyType = entry.WarrantyType
		coverage.WarrantyTypeID = entry.WarrantyTypeID.String()
		coverage.WarrantyStartDate = entry.WarrantyStartDate
		coverage.WarrantyEndDate = entry.WarrantyEndDate
		coverage.RegistrationDate = entry.RegistrationDate
		coverage.DealerCode = entry.DealerCode
		coverage.DealerName = entry.DealerName
		coverage.EntityName = entry.EntityName
		coverage.HasServiceContract = entry.HasVehicleSC
		coverage.HasOilTopUp = entry.HasOilTop
		coverage.HasWearTear = entry.HasWearTear
		coverage.HasBattery = entry.HasBattery
		coverage.HasFusesBulbs = entry.HasFusesBulbs
		coverage.HasDPFFilter = entry.HasDPFFilter
		coverage.HasUptime = entry.HasUptime
		coverage.UptimeName = entry.UptimeName
		coverage.AddOilAnalysis = entry.AddIsOilAnalysis
		coverage.AddVehiclePickup = entry.AddIsVehiclePickup
		coverage.AddAnnualMOT = entry.AddIsAnnualMOT
		coverage.SCOtherDesc = entry.SCOtherDesc
		coverage.FreeTowingStartDate = entry.FreeTowingStartDate
		coverage.FreeTowingEndDate = entry.FreeTowingEndDate
	}
	return coverage, body, nil
}

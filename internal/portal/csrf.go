package portal

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"hubgaranzie/internal/htmlform"
)

// Token is the CSRF (name, value) pair the portal expects as an extra form
// field on AJAX calls. The zero Token means "none discovered".
type Token struct {
	Name  string
	Value string
}

// Valid reports whether the token has been discovered.
func (t Token) Valid() bool {
	return t.Name != ""
}

// TokenCache discovers the warranty page's CSRF token once per process and
// memoizes it. The portal names the token field with a per-session 32-char
// hexadecimal string and renders it as a hidden input with value "1"; that
// shape, not a fixed name, is the only discovery contract available. The
// heuristic is documented fragility: if the portal changes its token
// convention, discovery fails loudly with the candidate names it saw.
type TokenCache struct {
	session *Session
	log     *zap.Logger

	mu  sync.Mutex
	tok Token
}

// NewTokenCache builds a TokenCache bound to an authenticated session.
func NewTokenCache(session *Session, log *zap.Logger) *TokenCache {
	return &TokenCache{session: session, log: log}
}

// EnsureToken returns the cached token, discovering it on first use. The
// session is authenticated first; discovery fetches the warranty page
// through the shared cookie jar and selects the hidden field whose name is
// exactly 32 hexadecimal characters. An empty field value defaults to "1".
// Concurrent callers serialize on the one-time discovery.
func (c *TokenCache) EnsureToken(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.Valid() {
		return c.tok, nil
	}

	if err := c.session.EnsureAuthenticated(ctx); err != nil {
		return Token{}, err
	}

	pageURL := c.session.BaseURL().JoinPath(warrantyPagePath).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Token{}, wrapError(KindUnreachable, err, "build warranty page request")
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", acceptHTML)

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return Token{}, wrapError(KindUnreachable, err, "fetch warranty page %s", pageURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return Token{}, newError(KindUnreachable, "warranty page %s returned status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, wrapError(KindUnreachable, err, "read warranty page")
	}

	hidden := htmlform.HiddenFields(string(body))
	for name, value := range hidden {
		if !isHex32(name) {
			continue
		}
		if value == "" {
			value = "1"
		}
		c.tok = Token{Name: name, Value: value}
		c.log.Info("csrf token discovered", zap.String("field", name))
		return c.tok, nil
	}

	names := make([]string, 0, len(hidden))
	for name := range hidden {
		names = append(names, name)
	}
	sort.Strings(names)
	return Token{}, newError(KindTokenNotFound,
		"no 32-hex hidden field on warranty page; candidates: %s",
		truncate(strings.Join(names, ", "), 200))
}

// Invalidate clears the cached token so the next EnsureToken rediscovers it.
// Nothing calls this automatically: the portal's token-expiry rejection
// signature is unconfirmed, so invalidation is left to whoever captures it.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tok = Token{}
}

// isHex32 reports whether s is exactly 32 hexadecimal characters.
func isHex32(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

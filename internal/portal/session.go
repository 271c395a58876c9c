package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hubgaranzie/internal/htmlform"
)

// Portal fixtures. The login form field names for credentials are stable;
// every other login form field is portal-controlled and re-read from the
// page on each login (hidden CSRF/routing fields change with the markup).
const (
	loginPostPath    = "index.php/component/sppagebuilder/"
	warrantyPagePath = "index.php/garanzie"
	ajaxPath         = "index.php"

	usernameField = "username"
	passwordField = "password"

	markerCookieName  = "joomla_user_state"
	markerCookieValue = "logged_in"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	acceptHTML       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// State is the authentication state of a Session.
type State int

const (
	// Unauthenticated is the initial state; no login has been attempted
	// or the last attempt failed.
	Unauthenticated State = iota
	// Authenticating means a login attempt is in flight.
	Authenticating
	// Authenticated means the cookie jar holds a live portal session.
	Authenticated
)

// Authenticator establishes an authenticated portal session. Two strategies
// exist: FormLogin performs the full login protocol, PresetCookie seeds the
// jar from configuration. Both leave the session's cookie jar ready for
// authenticated calls.
type Authenticator interface {
	Authenticate(ctx context.Context, s *Session) error
}

// Session owns the cookie-bearing HTTP client shared by every portal call
// and the process-wide authentication state. Authentication runs at most
// once per process: the first EnsureAuthenticated performs the protocol,
// later calls are no-ops. There is no expiry or invalidation; the session
// lives as long as the process.
type Session struct {
	client *http.Client
	base   *url.URL
	auth   Authenticator
	log    *zap.Logger

	mu    sync.Mutex
	state State
}

// NewSession builds a Session for the portal at baseURL. Every request made
// through the session shares one cookie jar and is bounded by timeout.
func NewSession(baseURL string, timeout time.Duration, auth Authenticator, log *zap.Logger) (*Session, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse portal base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Session{
		client: &http.Client{Jar: jar, Timeout: timeout},
		base:   base,
		auth:   auth,
		log:    log,
	}, nil
}

// Client returns the session's HTTP client. The cookie jar travels with it,
// so callers never construct cookie headers by hand.
func (s *Session) Client() *http.Client {
	return s.client
}

// BaseURL returns the portal root URL.
func (s *Session) BaseURL() *url.URL {
	return s.base
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EnsureAuthenticated authenticates against the portal if the session is not
// yet authenticated, and is a no-op afterwards. Concurrent callers serialize
// on the one-time initialization; a failed attempt leaves the session
// Unauthenticated with no partial state, so a later call retries from scratch.
func (s *Session) EnsureAuthenticated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticated {
		return nil
	}
	s.state = Authenticating
	if err := s.auth.Authenticate(ctx, s); err != nil {
		s.state = Unauthenticated
		return err
	}
	s.state = Authenticated
	s.log.Info("portal session authenticated")
	return nil
}

// hasMarkerCookie reports whether the jar holds the portal's logged-in
// marker for the base URL.
func (s *Session) hasMarkerCookie() bool {
	for _, c := range s.client.Jar.Cookies(s.base) {
		if c.Name == markerCookieName && c.Value == markerCookieValue {
			return true
		}
	}
	return false
}

// FormLogin authenticates by driving the portal's login form: it fetches the
// login page, replays every hidden field it finds together with the
// credentials, and verifies the marker cookie the portal sets on success.
type FormLogin struct {
	// Username and Password are the portal credentials. Both must be
	// non-empty; they are checked here, at the first authentication
	// attempt, so a misconfigured process fails every lookup the same way.
	Username string
	Password string
}

// Authenticate implements Authenticator.
func (f FormLogin) Authenticate(ctx context.Context, s *Session) error {
	if strings.TrimSpace(f.Username) == "" || strings.TrimSpace(f.Password) == "" {
		return newError(KindMissingCredentials,
			"portal credentials not configured: set FORD_USERNAME and FORD_PASSWORD")
	}

	loginPage := s.base.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginPage, nil)
	if err != nil {
		return wrapError(KindUnreachable, err, "build login page request")
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", acceptHTML)

	resp, err := s.client.Do(req)
	if err != nil {
		return wrapError(KindUnreachable, err, "fetch login page %s", loginPage)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return newError(KindUnreachable, "login page %s returned status %d", loginPage, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapError(KindUnreachable, err, "read login page")
	}

	// Hidden fields carry portal-controlled routing and anti-forgery state
	// (option, task, return, token, ...). Their names are not fixed, so the
	// whole set is replayed verbatim. An empty set is suspicious but not
	// conclusive; the marker check below decides.
	hidden := htmlform.HiddenFields(string(body))
	if len(hidden) == 0 {
		s.log.Warn("no hidden fields found on login page", zap.String("url", loginPage))
	}

	form := url.Values{}
	for name, value := range hidden {
		form.Set(name, value)
	}
	form.Set(usernameField, f.Username)
	form.Set(passwordField, f.Password)

	postURL := s.base.JoinPath(loginPostPath).String()
	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return wrapError(KindUnreachable, err, "build login request")
	}
	postReq.Header.Set("User-Agent", defaultUserAgent)
	postReq.Header.Set("Accept", acceptHTML)
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	postReq.Header.Set("Origin", strings.TrimSuffix(s.base.String(), "/"))
	postReq.Header.Set("Referer", loginPage)

	// The portal answers with a redirect that the client follows
	// transparently, setting session cookies along the way.
	postResp, err := s.client.Do(postReq)
	if err != nil {
		return wrapError(KindUnreachable, err, "submit login to %s", postURL)
	}
	defer postResp.Body.Close()
	if postResp.StatusCode >= http.StatusBadRequest {
		return newError(KindUnreachable, "login submission returned status %d", postResp.StatusCode)
	}

	if !s.hasMarkerCookie() {
		return newError(KindAuthenticationFailed,
			"login failed: cookie %s=%s not set; check credentials or login form changes",
			markerCookieName, markerCookieValue)
	}
	return nil
}

// PresetCookie authenticates by seeding the session's jar with a
// pre-authenticated cookie string from configuration, skipping the login
// protocol entirely. The cookies are trusted as given; the portal rejects
// later calls if they are stale.
type PresetCookie struct {
	// Cookie is a "name=value; name=value" string as captured from an
	// authenticated browser session.
	Cookie string
}

// Authenticate implements Authenticator.
func (p PresetCookie) Authenticate(_ context.Context, s *Session) error {
	cookies := parseCookieString(p.Cookie)
	if len(cookies) == 0 {
		return newError(KindAuthenticationFailed, "preset portal cookie is empty or unparseable")
	}
	s.client.Jar.SetCookies(s.base, cookies)
	s.log.Info("portal session seeded from preset cookie", zap.Int("cookies", len(cookies)))
	return nil
}

// parseCookieString splits a "name=value; name=value" string into cookies,
// skipping malformed pairs.
func parseCookieString(raw string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

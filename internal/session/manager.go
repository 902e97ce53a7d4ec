package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"mixchapters/internal/logging"
)

const (
	defaultMaxRedirects = 10
	defaultTimeout      = 30 * time.Second
	maxBodyBytes        = 8 << 20
)

// Credentials identify the catalog account. Empty credentials mean an
// anonymous session without export access.
type Credentials struct {
	Email    string
	Password string
}

// Response is a fully read catalog response.
type Response struct {
	StatusCode int
	URL        *url.URL
	Header     http.Header
	Body       []byte
}

// Option customises Manager construction.
type Option func(*Manager)

// WithStore sets the persistence backend. Without one the session lives in memory only.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithCredentials sets the account used for login.
func WithCredentials(creds Credentials) Option {
	return func(m *Manager) {
		creds.Email = strings.TrimSpace(creds.Email)
		m.creds = creds
	}
}

// WithTransport overrides the HTTP transport (used in tests).
func WithTransport(rt http.RoundTripper) Option {
	return func(m *Manager) { m.transport = rt }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(m *Manager) { m.userAgent = strings.TrimSpace(ua) }
}

// WithMaxRedirects bounds redirect chains.
func WithMaxRedirects(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRedirects = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock overrides time.Now (used in tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns the catalog session and issues every catalog request.
type Manager struct {
	mu sync.Mutex

	baseURL      *url.URL
	creds        Credentials
	store        Store
	transport    http.RoundTripper
	userAgent    string
	maxRedirects int
	timeout      time.Duration
	logger       *slog.Logger
	now          func() time.Time

	client      *http.Client
	jar         *Jar
	state       State
	anonymous   bool
	validatedAt time.Time
}

// NewManager builds a Manager for the catalog at baseURL. No network traffic
// happens until Ensure.
func NewManager(baseURL string, opts ...Option) (*Manager, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog base url %q is not absolute", baseURL)
	}
	m := &Manager{
		baseURL:      parsed,
		maxRedirects: defaultMaxRedirects,
		timeout:      defaultTimeout,
		now:          time.Now,
		state:        StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "session")
	m.jar = newJar()
	m.client = &http.Client{
		Transport: m.transport,
		Jar:       m.jar,
		Timeout:   m.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= m.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", m.maxRedirects)
			}
			return nil
		},
	}
	return m, nil
}

// BaseURL returns the catalog root.
func (m *Manager) BaseURL() *url.URL {
	u := *m.baseURL
	return &u
}

// Resolve turns a catalog path or absolute URL into an absolute URL.
func (m *Manager) Resolve(ref string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url %q: %w", ref, err)
	}
	return m.baseURL.ResolveReference(parsed), nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authenticated reports whether the active session belongs to an account.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateActive && !m.anonymous
}

// Status returns a display snapshot.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:       m.state,
		Identity:    m.creds.Email,
		Anonymous:   m.anonymous || m.creds.Email == "",
		ValidatedAt: m.validatedAt,
		Cookies:     m.jar.Len(),
	}
}

// Ensure brings the session to Active, restoring a persisted record when it
// is still valid and logging in otherwise. It is the only way back to Active
// after invalidation.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateActive {
		return nil
	}

	if m.hasCredentials() && m.store != nil {
		m.state = StateRestoring
		restored, err := m.restoreLocked(ctx)
		if err != nil {
			m.invalidateLocked(ctx, "restore probe rate limited")
			return err
		}
		if restored {
			m.state = StateActive
			return nil
		}
		m.state = StateInvalid
	}

	m.state = StateFresh
	if err := m.freshLocked(ctx); err != nil {
		if errors.Is(err, ErrRateLimited) {
			m.invalidateLocked(ctx, "rate limit page during login")
		}
		m.state = StateInvalid
		m.jar.Import(nil)
		return err
	}
	m.state = StateActive
	return nil
}

// Login discards any cached session and authenticates again.
func (m *Manager) Login(ctx context.Context) error {
	m.mu.Lock()
	m.invalidateLocked(ctx, "login requested")
	m.mu.Unlock()
	return m.Ensure(ctx)
}

// Clear drops the in-memory session and the persisted record.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jar.Import(nil)
	m.anonymous = false
	m.validatedAt = time.Time{}
	m.state = StateUninitialized
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx)
}

// Do sends req through the active session. A rate-limit response invalidates
// the session and returns the response together with ErrRateLimited.
func (m *Manager) Do(ctx context.Context, req *http.Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return nil, fmt.Errorf("%w (state %s)", ErrSessionInactive, m.state)
	}
	resp, err := m.sendLocked(ctx, req)
	if errors.Is(err, ErrRateLimited) {
		m.invalidateLocked(ctx, "rate limit page returned for "+req.URL.Path)
	}
	return resp, err
}

// Get fetches a catalog path or absolute URL.
func (m *Manager) Get(ctx context.Context, ref string) (*Response, error) {
	target, err := m.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return m.Do(ctx, req)
}

// PostForm submits form values to a catalog path, optionally with a Referer.
func (m *Manager) PostForm(ctx context.Context, ref string, form url.Values, referer string) (*Response, error) {
	req, err := m.newFormRequest(ctx, ref, form, referer)
	if err != nil {
		return nil, err
	}
	return m.Do(ctx, req)
}

func (m *Manager) newFormRequest(ctx context.Context, ref string, form url.Values, referer string) (*http.Request, error) {
	target, err := m.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	return req, nil
}

func (m *Manager) hasCredentials() bool {
	return m.creds.Email != "" && m.creds.Password != ""
}

func (m *Manager) restoreLocked(ctx context.Context) (bool, error) {
	record, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			logging.WarnWithContext(m.logger, "session cache unreadable; logging in again", "session_cache_unreadable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the session cache or run 'mixchapters session clear'"),
				logging.String(logging.FieldImpact, "one extra login request"),
			)
		}
		return false, nil
	}
	reject := func(reason string) (bool, error) {
		m.logger.Info("cached session rejected",
			logging.Args(logging.DecisionAttrs("session_restore", "rejected", reason)...)...)
		m.jar.Import(nil)
		return false, nil
	}

	if !strings.EqualFold(record.Identity, m.creds.Email) {
		return reject("identity changed")
	}
	if record.Expired(m.now()) {
		return reject("cookie expired")
	}
	m.jar.Import(record.Cookies)
	if !m.requiredCookiesPresent() {
		return reject("required cookies missing")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL.ResolveReference(&url.URL{Path: ProbePath}).String(), nil)
	if err != nil {
		return false, fmt.Errorf("build probe request: %w", err)
	}
	resp, err := m.sendLocked(ctx, req)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return false, err
		}
		return reject("probe failed: " + err.Error())
	}
	if probeLooksLoggedOut(resp.Body) {
		return reject("probe shows logged-out page")
	}
	if !m.requiredCookiesPresent() {
		return reject("probe cleared required cookies")
	}

	m.anonymous = false
	m.validatedAt = m.now()
	m.logger.Info("cached session restored",
		logging.String("identity", m.creds.Email),
		logging.Int("cookies", m.jar.Len()),
	)
	return true, nil
}

func (m *Manager) freshLocked(ctx context.Context) error {
	m.jar.Import(nil)

	prime, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL.ResolveReference(&url.URL{Path: PrimePath}).String(), nil)
	if err != nil {
		return fmt.Errorf("build priming request: %w", err)
	}
	if _, err := m.sendLocked(ctx, prime); err != nil {
		return fmt.Errorf("prime catalog session: %w", err)
	}

	if !m.hasCredentials() {
		m.anonymous = true
		m.validatedAt = m.now()
		m.logger.Info("anonymous catalog session ready")
		return nil
	}

	form := url.Values{}
	form.Set("email", m.creds.Email)
	form.Set("password", m.creds.Password)
	form.Set("remember", "1")
	login, err := m.newFormRequest(ctx, LoginPath, form, m.baseURL.String()+"/")
	if err != nil {
		return err
	}
	if _, err := m.sendLocked(ctx, login); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return err
		}
		m.logger.Debug("login request returned error; checking cookies anyway", logging.Error(err))
	}
	if !m.requiredCookiesPresent() {
		return fmt.Errorf("%w: session cookies %s absent after login as %s",
			ErrAuthentication, strings.Join(RequiredCookies, ", "), m.creds.Email)
	}

	m.anonymous = false
	m.validatedAt = m.now()
	m.logger.Info("catalog login succeeded", logging.String("identity", m.creds.Email))

	if m.store != nil {
		record := Record{Identity: m.creds.Email, Timestamp: m.validatedAt, Cookies: m.jar.Export()}
		if err := m.store.Save(ctx, record); err != nil {
			logging.WarnWithContext(m.logger, "session cache not saved", "session_cache_save_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run logs in again"),
			)
		}
	}
	return nil
}

func (m *Manager) sendLocked(ctx context.Context, req *http.Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req = req.WithContext(ctx)
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL.Redacted(), err)
	}
	out := &Response{StatusCode: resp.StatusCode, URL: resp.Request.URL, Header: resp.Header, Body: body}
	if IsRateLimited(resp.StatusCode, body) {
		return out, ErrRateLimited
	}
	return out, nil
}

func (m *Manager) invalidateLocked(ctx context.Context, reason string) {
	wasActive := m.state == StateActive
	m.state = StateInvalid
	m.anonymous = false
	m.validatedAt = time.Time{}
	m.jar.Import(nil)
	if m.store != nil {
		if err := m.store.Delete(ctx); err != nil {
			logging.WarnWithContext(m.logger, "tainted session cache not removed", "session_cache_delete_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the session cache manually"),
				logging.String(logging.FieldImpact, "next run may restore a tainted session"),
			)
		}
	}
	if wasActive {
		logging.WarnWithContext(m.logger, "catalog session invalidated", "session_invalidated",
			logging.String("reason", reason),
			logging.String(logging.FieldImpact, "requests fail until the session is re-established"),
			logging.String(logging.FieldErrorHint, "wait before retrying; the catalog is throttling this client"),
		)
	}
}

func (m *Manager) requiredCookiesPresent() bool {
	for _, name := range RequiredCookies {
		if !m.jar.Has(m.baseURL, name) {
			return false
		}
	}
	return true
}

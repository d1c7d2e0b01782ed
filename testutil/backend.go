package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/logger"
)

const (
	defaultSecret   = "influencore-mock-secret"
	defaultTokenTTL = time.Hour
)

// BackendConfig configures the fake backend.
type BackendConfig struct {
	// Secret signs session tokens.
	Secret string
	// TokenTTL is the lifetime of issued tokens. Defaults to 1h.
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.MinCost to keep tests fast.
	BcryptCost int
	// Logger receives one debug line per request. Defaults to a no-op logger.
	Logger *logger.Logger
}

func (c *BackendConfig) applyDefaults() {
	if c.Secret == "" {
		c.Secret = defaultSecret
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.MinCost
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
}

// RecordedRequest is a request as the backend received it.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
	At            time.Time
}

// Route returns "METHOD /path", the key used by Script.
func (r RecordedRequest) Route() string {
	return r.Method + " " + r.Path
}

// Backend is an in-process fake of the Influencore REST API.
type Backend struct {
	cfg      BackendConfig
	tokens   *tokenService
	accounts *accounts
	engine   *gin.Engine

	mu       sync.Mutex
	faults   map[string][]Fault
	requests []RecordedRequest
	healthy  bool
	server   *httptest.Server
}

var _ TestComponent = (*Backend)(nil)

// NewBackend creates a backend. Call Start to serve it on a local port, or
// mount Handler on a server of your own.
func NewBackend(cfg BackendConfig) *Backend {
	cfg.applyDefaults()
	gin.SetMode(gin.ReleaseMode)

	b := &Backend{
		cfg:      cfg,
		tokens:   &tokenService{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL},
		accounts: newAccounts(cfg.BcryptCost),
		faults:   make(map[string][]Fault),
		healthy:  true,
	}
	b.engine = b.routes()
	return b
}

// Handler returns the backend router.
func (b *Backend) Handler() http.Handler {
	return b.engine
}

// URL returns the base URL of the started backend.
func (b *Backend) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server == nil {
		return ""
	}
	return b.server.URL
}

// Name returns the component name.
func (b *Backend) Name() string { return "mock-backend" }

// Start serves the backend on a random local port.
func (b *Backend) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server != nil {
		return errors.New("testutil: backend already started")
	}
	b.server = httptest.NewServer(b.engine)
	return nil
}

// Stop shuts the server down.
func (b *Backend) Stop(_ context.Context) error {
	b.mu.Lock()
	server := b.server
	b.server = nil
	b.mu.Unlock()
	if server != nil {
		server.CloseClientConnections()
		server.Close()
	}
	return nil
}

// Health reports whether the backend is serving and healthy.
func (b *Backend) Health(_ context.Context) component.Health {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := component.Health{Name: b.Name(), Status: component.StatusHealthy}
	switch {
	case b.server == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !b.healthy:
		h.Status = component.StatusDegraded
		h.Message = "health endpoint failing"
	}
	return h
}

// Reset drops accounts, videos, scripted faults and recorded requests.
func (b *Backend) Reset(_ context.Context) error {
	b.accounts.restore(accountState{})
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = make(map[string][]Fault)
	b.requests = nil
	b.healthy = true
	return nil
}

// Snapshot captures accounts and videos.
func (b *Backend) Snapshot(_ context.Context) (interface{}, error) {
	return b.accounts.snapshot(), nil
}

// Restore returns accounts and videos to a snapshot.
func (b *Backend) Restore(_ context.Context, snapshot interface{}) error {
	state, ok := snapshot.(accountState)
	if !ok {
		return fmt.Errorf("testutil: unexpected snapshot type %T", snapshot)
	}
	b.accounts.restore(state)
	return nil
}

// Script queues faults for route ("METHOD /path"). Each matching request
// consumes the next fault; once they run out requests are handled normally.
func (b *Backend) Script(route string, faults ...Fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[route] = append(b.faults[route], faults...)
}

// SetHealthy makes GET /health answer 200 or 503.
func (b *Backend) SetHealthy(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = healthy
}

// Requests returns every request received so far, in arrival order.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestsTo returns the received requests for route.
func (b *Backend) RequestsTo(route string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range b.Requests() {
		if r.Route() == route {
			out = append(out, r)
		}
	}
	return out
}

// Register creates an account directly, for seeding tests.
func (b *Backend) Register(name, email, password string) (User, error) {
	return b.accounts.register(name, email, password)
}

// IssueToken mints a token for a registered email. A negative ttl yields an
// already expired token.
func (b *Backend) IssueToken(email string, ttl time.Duration) (string, error) {
	b.accounts.mu.RLock()
	acc, ok := b.accounts.byMail[strings.ToLower(email)]
	b.accounts.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("testutil: no account for %s", email)
	}
	return b.tokens.issue(acc.user, ttl)
}

func (b *Backend) nextFault(route string) (Fault, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	queue := b.faults[route]
	if len(queue) == 0 {
		return Fault{}, false
	}
	b.faults[route] = queue[1:]
	return queue[0], true
}

func (b *Backend) isHealthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.healthy
}

// record stores the request and applies any scripted fault.
func (b *Backend) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		rec := RecordedRequest{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
			Body:          body,
			At:            time.Now(),
		}
		b.mu.Lock()
		b.requests = append(b.requests, rec)
		b.mu.Unlock()

		start := time.Now()
		if fault, ok := b.nextFault(rec.Route()); ok && fault.apply(c) {
			b.logRequest(c, rec, start, true)
			return
		}
		c.Next()
		b.logRequest(c, rec, start, false)
	}
}

func (b *Backend) logRequest(c *gin.Context, rec RecordedRequest, start time.Time, faulted bool) {
	b.cfg.Logger.Debug("mock request", logger.Fields(
		logger.FieldMethod, rec.Method,
		logger.FieldPath, rec.Path,
		logger.FieldRequestID, rec.RequestID,
		logger.FieldStatus, c.Writer.Status(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"faulted", faulted,
	))
}

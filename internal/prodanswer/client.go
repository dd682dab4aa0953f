package prodanswer

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultAPIURL = "http://localhost:8000/api"
	userAgent     = "spigell/prodanswer"
	// Matching large uploaded documents can take minutes on the backend.
	defaultTimeout = 5 * time.Minute
)

// TokenSource provides the bearer token attached to every request.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// UnauthorizedFunc is called once for every request rejected with 401.
type UnauthorizedFunc func(ctx context.Context, err *APIError)

type Client struct {
	tokens  TokenSource
	logger  *zap.Logger
	limiter *rate.Limiter

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// Retries is the number of extra attempts for GET requests failing with a
	// transport error or a 5xx status.
	Retries int
	// OnUnauthorized is invoked when the backend answers 401.
	OnUnauthorized UnauthorizedFunc
}

func New(logger *zap.Logger, apiURL string, tokens TokenSource) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	if tokens == nil {
		tokens = StaticToken("")
	}

	return &Client{
		tokens:  tokens,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 0),
		APIURL:  apiURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
	}
}

// WithToken returns a copy of the client that authenticates with token and
// does not call OnUnauthorized.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.tokens = StaticToken(token)
	clone.OnUnauthorized = nil
	return &clone
}

// SetRateLimit throttles outgoing requests. A non-positive rps disables throttling.
func (c *Client) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

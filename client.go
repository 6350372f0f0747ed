package vesync

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/kmercier/go-vesync/internal/httpclient"
	"github.com/kmercier/go-vesync/internal/middleware"
	"github.com/kmercier/go-vesync/internal/observability"
	"github.com/kmercier/go-vesync/internal/pacing"
	"github.com/kmercier/go-vesync/internal/retry"
)

const (
	// DefaultBaseURL is the VeSync cloud API base URL.
	DefaultBaseURL = "https://smartapi.vesync.com"

	// DefaultTimeout is the HTTP transport timeout.
	DefaultTimeout = httpclient.DefaultTimeout

	// DefaultRefreshInterval is how often the session is re-established.
	// The vendor expires tokens after roughly an hour; 55 minutes stays
	// safely inside that.
	DefaultRefreshInterval = 55 * time.Minute

	// DefaultSettleDelay is the pause after every single-device call.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultDiscoverySettleDelay is the pause after a bulk discovery call.
	DefaultDiscoverySettleDelay = 1500 * time.Millisecond

	// DefaultTimeZone is the timezone declared in request envelopes.
	DefaultTimeZone = "America/New_York"

	loginPath   = "/cloud/v1/user/login"
	devicesPath = "/cloud/v2/deviceManaged/devices"
	bypassPath  = "/cloud/v2/deviceManaged/bypassV2"

	appVersion     = "2.8.6"
	acceptLanguage = "en"
)

// Config holds configuration for the VeSync client.
type Config struct {
	// Email is the VeSync account address. Required.
	Email string

	// Password is the VeSync account password. Required. It is transmitted
	// as an MD5 digest, never in the clear.
	Password string

	// BaseURL overrides the cloud endpoint (defaults to DefaultBaseURL).
	BaseURL string

	// TerminalID is the stable per-installation identifier sent with every
	// login. Generated once per client when empty; hosts that persist it
	// across restarts should pass it in.
	TerminalID string

	// TimeZone is declared in request envelopes (defaults to
	// DefaultTimeZone).
	TimeZone string

	// Timeout sets the HTTP transport timeout.
	Timeout time.Duration

	// RefreshInterval is the period of the background re-login.
	RefreshInterval time.Duration

	// MinRequestInterval is the minimum spacing between outbound requests.
	MinRequestInterval time.Duration

	// RequestsPerMinute caps attempts per rolling minute.
	RequestsPerMinute int

	// MaxAttempts bounds retries on throttle rejections.
	MaxAttempts int

	// RetryBaseWait is the initial retry backoff; RetryMaxWait caps it.
	// RetryJitter bounds the random delay added to each backoff wait;
	// negative disables jitter.
	RetryBaseWait time.Duration
	RetryMaxWait  time.Duration
	RetryJitter   time.Duration

	// SettleDelay and DiscoverySettleDelay override the post-call pauses.
	SettleDelay          time.Duration
	DiscoverySettleDelay time.Duration

	// HTTPClient is the base HTTP client to use (optional).
	HTTPClient *http.Client

	// Logger receives structured diagnostics (defaults to a noop logger).
	Logger Logger
}

// Client is a VeSync cloud API client. All operations on one client are
// strictly serialized: the vendor API is sensitive to interleaved session
// state, so at most one call is in flight at any time.
type Client struct {
	cfg Config
	log observability.Logger

	// callMu is the single execution slot every operation acquires before
	// any network I/O and holds through its settling delay.
	callMu sync.Mutex

	// anon carries requests made before authentication; authed is built
	// lazily after the first successful login.
	anon   *httpclient.Client
	authed *httpclient.Client

	pacer   *pacing.Pacer
	retrier *retry.Executor

	terminalID string
	session    *session

	settleSingle time.Duration
	settleBulk   time.Duration

	refreshStop chan struct{}
	closed      bool
}

// NewClient creates a new VeSync client.
// Returns ErrMissingCredentials if email or password is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NoopLogger()
	}

	settleSingle := cfg.SettleDelay
	if settleSingle <= 0 {
		settleSingle = DefaultSettleDelay
	}
	settleBulk := cfg.DiscoverySettleDelay
	if settleBulk <= 0 {
		settleBulk = DefaultDiscoverySettleDelay
	}

	terminalID := cfg.TerminalID
	if terminalID == "" {
		terminalID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	c := &Client{
		cfg:          cfg,
		log:          cfg.Logger,
		terminalID:   terminalID,
		settleSingle: settleSingle,
		settleBulk:   settleBulk,
	}

	c.anon = c.newHTTPClient(middleware.Logging(c.log))

	c.pacer = pacing.New(pacing.Config{
		Interval: cfg.MinRequestInterval,
		Limit:    cfg.RequestsPerMinute,
	})

	c.retrier = retry.New(retry.Config{
		MaxAttempts: cfg.MaxAttempts,
		BaseWait:    cfg.RetryBaseWait,
		MaxWait:     cfg.RetryMaxWait,
		Jitter:      cfg.RetryJitter,
		Retryable:   IsThrottled,
	})

	return c, nil
}

// Close stops the background session refresh and retires the client. Safe
// to call more than once and before StartSession; StartSession on a closed
// client fails with ErrClosed.
func (c *Client) Close() {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	c.closed = true
	if c.refreshStop != nil {
		close(c.refreshStop)
		c.refreshStop = nil
	}
}

// GetDevices discovers the account's registered devices and partitions them
// into typed collections. It requires a prior successful login.
func (c *Client) GetDevices(ctx context.Context) (*Devices, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	sess := c.session
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	req := deviceListRequest{
		authedRequest: c.authedRequest(sess),
		Method:        "devices",
		PageNo:        "1",
		PageSize:      "100",
	}

	var result deviceListResult
	err := c.call(ctx, c.authed, http.MethodPost, devicesPath, &req, nil, &result)

	// Discovery settles regardless of outcome.
	c.settle(ctx, c.settleBulk)

	if err != nil {
		return nil, errors.Wrap(err, "device discovery")
	}

	c.log.Debug("device discovery completed",
		logField("total", result.Total),
		logField("records", len(result.List)),
	)

	return c.classify(result.List), nil
}

// call runs one envelope exchange through the retry and pacing policies.
// It must be invoked with callMu held. result, when non-nil, receives the
// decoded envelope result field.
func (c *Client) call(
	ctx context.Context,
	hc *httpclient.Client,
	method, path string,
	body any,
	headers map[string]string,
	result any,
) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		// Pace before every attempt; a retried request still consumes
		// rate-limit budget.
		if err := c.pacer.Throttle(ctx); err != nil {
			return err
		}

		env, err := c.exchange(ctx, hc, method, path, body, headers)
		if err != nil {
			return err
		}

		if env.Code != successCode {
			return &APIError{Code: env.Code, Msg: env.Msg}
		}

		if result != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return errors.Wrap(err, "decode result")
			}
		}

		return nil
	})
}

// exchange performs a single HTTP round trip and decodes the vendor
// envelope.
func (c *Client) exchange(
	ctx context.Context,
	hc *httpclient.Client,
	method, path string,
	body any,
	headers map[string]string,
) (*respEnvelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{HTTPStatus: resp.StatusCode}
	}

	var env respEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Wrap(err, "decode response envelope")
	}

	return &env, nil
}

// newHTTPClient builds a middleware-chained client over the configured base
// HTTP client. The base is cloned so each chain wraps the original
// transport; repeated logins must not stack middleware onto a shared one.
func (c *Client) newHTTPClient(mw ...httpclient.Middleware) *httpclient.Client {
	var base *http.Client
	if c.cfg.HTTPClient != nil {
		clone := *c.cfg.HTTPClient
		base = &clone
	}

	return httpclient.New(
		httpclient.WithHTTPClient(base),
		httpclient.WithTimeout(c.cfg.Timeout),
		httpclient.WithMiddleware(mw...),
	)
}

// settle pauses for the fixed post-call delay before the execution slot is
// released. Believed to keep the vendor's abuse detection quiet; enforced
// regardless of the call's outcome.
func (c *Client) settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// baseRequest builds the common transport metadata for one call under the
// given fingerprint.
func (c *Client) baseRequest(fp fingerprint) baseRequest {
	return baseRequest{
		AcceptLanguage: acceptLanguage,
		AppVersion:     appVersion,
		PhoneBrand:     fp.phoneBrand,
		PhoneOS:        fp.phoneOS,
		TimeZone:       c.cfg.TimeZone,
		TraceID:        uuid.NewString(),
	}
}

// authedRequest builds the common metadata plus the cached session pair.
func (c *Client) authedRequest(sess *session) authedRequest {
	return authedRequest{
		baseRequest: c.baseRequest(sess.fingerprint),
		AccountID:   sess.accountID,
		Token:       sess.token,
	}
}

func logField(key string, value any) observability.Field {
	return observability.Field{Key: key, Value: value}
}

package anubis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/user"
	"github.com/riskibarqy/armory-onboarding/internal/platform/cache"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/platform/resilience"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

var errAnubisTransient = crerr.New("anubis transient failure")

// accountTypePaths are the introspection claims that may carry the marketplace account type.
var accountTypePaths = []string{"account_type", "metadata.account_type", "app_metadata.account_type"}

type ClientConfig struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	PrincipalTTL   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client resolves bearer tokens through the anubis introspection endpoint.
type Client struct {
	httpClient     *http.Client
	introspectURL  string
	adminKey       string
	principals     *cache.Store
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(httpClient *http.Client, cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	ttl := cfg.PrincipalTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		introspectURL:  buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:       strings.TrimSpace(cfg.AdminKey),
		principals:     cache.NewStore(ttl),
		breaker:        resilience.NewCircuitBreaker("anubis", breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	return cache.Load(ctx, c.principals, hashToken(token), func(ctx context.Context) (user.Principal, error) {
		return c.introspect(ctx, token)
	})
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "anubis circuit breaker rejected request", "state", c.breaker.State())
			return user.Principal{}, fmt.Errorf("%w: anubis circuit open", usecase.ErrDependencyUnavailable)
		}
	}

	principal, err := c.doIntrospect(ctx, token)
	if c.circuitEnabled {
		c.breaker.Record(err, isCircuitFailure)
	}
	if err != nil && crerr.Is(err, errAnubisTransient) {
		return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	}
	return principal, err
}

func (c *Client) doIntrospect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, crerr.Mark(crerr.Wrap(err, "request introspection to anubis"), errAnubisTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, crerr.Mark(crerr.Wrap(err, "read introspect response"), errAnubisTransient)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// anubis answers 403 when our admin key is wrong, which is a config problem on our side
		c.logger.ErrorContext(ctx, "anubis rejected admin key", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: anubis rejected admin key", usecase.ErrDependencyUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		c.logger.WarnContext(ctx, "anubis introspection unavailable", "status_code", resp.StatusCode)
		return user.Principal{}, crerr.Mark(crerr.Newf("anubis introspection status=%d", resp.StatusCode), errAnubisTransient)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, crerr.Newf("anubis introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, crerr.Wrap(err, "unmarshal introspect response")
	}
	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, crerr.New("invalid introspect response: user_id is empty")
	}

	return user.Principal{
		UserID:      decoded.UserID,
		Email:       decoded.Email,
		AccountType: accountTypeClaim(body),
		Roles:       decoded.Roles,
	}, nil
}

// accountTypeClaim returns the first recognised account type claim. Unknown values are
// dropped; the onboarding service refuses principals without one.
func accountTypeClaim(body []byte) onboarding.AccountType {
	for _, path := range accountTypePaths {
		v := gjson.GetBytes(body, path)
		if !v.Exists() {
			continue
		}
		accountType, err := onboarding.ParseAccountType(strings.ToLower(strings.TrimSpace(v.String())))
		if err != nil {
			return ""
		}
		return accountType
	}
	return ""
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool     `json:"active"`
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/platform/cache"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/platform/resilience"
	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

const (
	defaultBaseURL = "https://restcountries.com/v3.1"
	countriesPath  = "/all?fields=name,cca2,flag"
	countriesKey   = "geo:countries"
)

var errGeoTransient = crerr.New("geo provider transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client loads the country dropdown list. Results are cached and concurrent callers share
// one upstream request.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	cache          *cache.Store
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	backoff        func(attempt int) time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		cache:          cache.NewStore(ttl),
		breaker:        resilience.NewCircuitBreaker("geo", breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		backoff:        func(attempt int) time.Duration { return time.Duration(attempt+1) * 500 * time.Millisecond },
	}
}

func (c *Client) ListCountries(ctx context.Context) ([]reference.Country, error) {
	countries, err := cache.Load(ctx, c.cache, countriesKey, c.fetchCountries)
	if err != nil {
		return nil, err
	}
	return append([]reference.Country(nil), countries...), nil
}

func (c *Client) fetchCountries(ctx context.Context) ([]reference.Country, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "geo circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: country provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, c.baseURL+countriesPath)
	if c.circuitEnabled {
		c.breaker.Record(err, isCircuitFailure)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	}

	var items []countryItem
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, crerr.Wrap(err, "decode countries")
	}

	out := make([]reference.Country, 0, len(items))
	for _, item := range items {
		code := strings.ToUpper(strings.TrimSpace(item.CCA2))
		name := strings.TrimSpace(item.Name.Common)
		if len(code) != 2 || name == "" {
			continue
		}
		out = append(out, reference.Country{Name: name, Code: code, Flag: item.Flag})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	c.logger.InfoContext(ctx, "country list loaded", "count", len(out))
	return out, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errGeoTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(crerr.Wrap(readErr, "read response body"), errGeoTransient)
			case resp.StatusCode/100 == 2:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(crerr.Newf("provider status=%d", resp.StatusCode), errGeoTransient)
			default:
				return nil, crerr.Newf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "geo request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isCircuitFailure(err error) bool {
	return errors.Is(err, errGeoTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

type countryItem struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2 string `json:"cca2"`
	Flag string `json:"flag"`
}

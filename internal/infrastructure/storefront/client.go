package storefront

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/reference"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
	"github.com/riskibarqy/armory-onboarding/internal/platform/resilience"
)

const (
	ProfilePath = "/onboarding/profile"
	UploadPath  = "/upload/files"
)

var (
	ErrCircuitOpen = crerr.New("storefront api circuit open")
	// ErrUploadRejected is returned when an upload answers without a success flag or URLs.
	ErrUploadRejected = crerr.New("upload rejected")

	errStorefrontTransient = crerr.New("storefront api transient failure")
)

// APIError is a non-success answer from the backend. Message holds the server supplied
// text when there was one.
type APIError struct {
	StatusCode int
	Message    string
}

// ServerMessage is the text the backend wants shown to the user, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("storefront api status %d", e.StatusCode)
}

type Config struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker("storefront", breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// GetProfile fetches the merged {profile, user} aggregate.
func (c *Client) GetProfile(ctx context.Context) (onboarding.Profile, error) {
	raw, err := c.do(ctx, http.MethodGet, ProfilePath, nil, "")
	if err != nil {
		return onboarding.Profile{}, err
	}
	profile, err := onboarding.DecodeProfile(raw)
	if err != nil {
		return onboarding.Profile{}, crerr.Wrap(err, "decode profile")
	}
	return profile, nil
}

// SubmitStep posts a step payload to its endpoint and returns the server message.
func (c *Client) SubmitStep(ctx context.Context, endpoint string, payload any) (string, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return "", crerr.Wrap(err, "marshal step payload")
	}
	raw, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body), "application/json")
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "message").String(), nil
}

// UploadFiles sends files as multipart form data tagged with label. data is encoded as a
// JSON string in the "data" field. The returned URLs follow the order of files.
func (c *Client) UploadFiles(ctx context.Context, label string, data any, files []document.File) ([]string, error) {
	if len(files) == 0 {
		return nil, crerr.New("no files to upload")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	form := multipart.NewWriter(buf)
	if err := form.WriteField("label", label); err != nil {
		return nil, crerr.Wrap(err, "write label field")
	}
	if data != nil {
		meta, err := sonic.MarshalString(data)
		if err != nil {
			return nil, crerr.Wrap(err, "marshal upload data")
		}
		if err := form.WriteField("data", meta); err != nil {
			return nil, crerr.Wrap(err, "write data field")
		}
	}
	for _, f := range files {
		if err := writeFilePart(form, f); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, crerr.Wrap(err, "close multipart body")
	}

	raw, err := c.do(ctx, http.MethodPost, UploadPath, bytes.NewReader(buf.B), form.FormDataContentType())
	if err != nil {
		return nil, err
	}

	urls := gjson.GetBytes(raw, "data")
	if !urls.IsArray() || len(urls.Array()) == 0 {
		return nil, crerr.Mark(crerr.Newf("upload %s returned no urls", label), ErrUploadRejected)
	}
	out := make([]string, 0, len(urls.Array()))
	for _, u := range urls.Array() {
		out = append(out, u.String())
	}
	c.logger.InfoContext(ctx, "files uploaded", "label", label, "count", len(out))
	return out, nil
}

func writeFilePart(form *multipart.Writer, f document.File) error {
	if f.Content == nil {
		return crerr.Newf("file %q has no content", f.Name)
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(f.Name)))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return crerr.Wrap(err, "create file part")
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return crerr.Wrapf(err, "copy %s", f.Name)
	}
	return nil
}

func (c *Client) ListReferences(ctx context.Context, kind reference.Kind) ([]reference.Item, error) {
	raw, err := c.do(ctx, http.MethodGet, "/references/"+string(kind), nil, "")
	if err != nil {
		return nil, err
	}
	var env struct {
		Data []reference.Item `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, crerr.Wrapf(err, "decode %s references", kind)
	}
	return env.Data, nil
}

func (c *Client) GetVerification(ctx context.Context) (verification.Snapshot, error) {
	raw, err := c.do(ctx, http.MethodGet, onboarding.VerificationEndpoint, nil, "")
	if err != nil {
		return verification.Snapshot{}, err
	}
	return decodeSnapshot(raw)
}

// TransitionVerification applies one verification event on the backend.
func (c *Client) TransitionVerification(ctx context.Context, event verification.Event, data verification.Data) (verification.Snapshot, error) {
	body, err := sonic.Marshal(transitionRequest{Event: event, Data: data})
	if err != nil {
		return verification.Snapshot{}, crerr.Wrap(err, "marshal transition")
	}
	raw, err := c.do(ctx, http.MethodPost, onboarding.VerificationEndpoint, bytes.NewReader(body), "application/json")
	if err != nil {
		return verification.Snapshot{}, err
	}
	return decodeSnapshot(raw)
}

type transitionRequest struct {
	Event verification.Event `json:"event"`
	Data  verification.Data  `json:"data"`
}

func decodeSnapshot(raw []byte) (verification.Snapshot, error) {
	var env struct {
		Data verification.Snapshot `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return verification.Snapshot{}, crerr.Wrap(err, "decode verification")
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "storefront circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, crerr.Mark(crerr.Wrap(err, "storefront api is temporarily unavailable"), ErrCircuitOpen)
		}
	}

	raw, err := c.execute(ctx, method, path, body, contentType)
	if c.circuitEnabled {
		c.breaker.Record(err, isCircuitFailure)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "storefront request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) execute(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, crerr.New("storefront base url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "%s %s", method, path), errStorefrontTransient)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "read %s response", path), errStorefrontTransient)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, crerr.Mark(apiErr, errStorefrontTransient)
		}
		return nil, apiErr
	}
	if !succeeded(raw) {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}
	return raw, nil
}

// serverMessage reads the human readable message of an error body, tolerating the flat
// {message} shape and the nested {error: {message}} shape.
func serverMessage(raw []byte) string {
	for _, path := range []string{"message", "error.message", "error"} {
		v := gjson.GetBytes(raw, path)
		if v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return strings.TrimSpace(v.Str)
		}
	}
	return ""
}

// succeeded reads the envelope status flag. Bodies without one count as success.
func succeeded(raw []byte) bool {
	status := gjson.GetBytes(raw, "status")
	switch status.Type {
	case gjson.False:
		return false
	case gjson.String:
		switch strings.ToLower(status.Str) {
		case "error", "fail", "failed", "false":
			return false
		}
	}
	return true
}

func isCircuitFailure(err error) bool {
	return errors.Is(err, errStorefrontTransient)
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/matst80/rdf-finder/pkg/types"
	"go.uber.org/zap"
)

const (
	EndpointDataSets   = "dataSetList"
	EndpointStatistics = "indexStatistics"
	EndpointQuery      = "query"

	maxBodySize = 32 << 20
)

var encoder = schema.NewEncoder()

type statisticsRequest struct {
	Index string `schema:"index"`
}

// Client talks to the backend over HTTP. Endpoints are resolved relative to
// the base url.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = timeout
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q: scheme and host required", baseURL)
	}
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) DataSets(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, EndpointDataSets, nil)
	if err != nil {
		return nil, err
	}
	return types.DecodeDataSets(data)
}

func (c *Client) Statistics(ctx context.Context, dataset string) (*types.Statistics, error) {
	data, err := c.get(ctx, EndpointStatistics, statisticsRequest{Index: dataset})
	if err != nil {
		return nil, err
	}
	return types.DecodeStatistics(data)
}

func (c *Client) Query(ctx context.Context, req types.QueryRequest) (*types.QueryResult, error) {
	data, err := c.get(ctx, EndpointQuery, req)
	if err != nil {
		return nil, err
	}
	return types.DecodeQueryResult(data)
}

func (c *Client) get(ctx context.Context, endpoint string, params any) (data []byte, err error) {
	start := time.Now()
	defer func() {
		observe(endpoint, start, err)
	}()

	u := c.base.ResolveReference(&url.URL{Path: endpoint})
	if params != nil {
		values := url.Values{}
		if err = encoder.Encode(params, values); err != nil {
			return nil, fmt.Errorf("%s: encode params: %w", endpoint, err)
		}
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	requestId := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestId)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	c.logger.Debug("backend response",
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestId),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &BackendError{Endpoint: endpoint, Status: res.StatusCode, Message: errorMessage(body)}
	}
	return unwrap(body), nil
}

// unwrap returns the payload of an {"object": ...} envelope, other bodies are
// returned as is.
func unwrap(body []byte) []byte {
	if !strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		return body
	}
	var envelope map[string]json.RawMessage
	if err := sonic.Unmarshal(body, &envelope); err != nil || len(envelope) != 1 {
		return body
	}
	if raw, ok := envelope["object"]; ok {
		return raw
	}
	return body
}

func errorMessage(body []byte) string {
	payload := unwrap(body)
	var msg string
	if err := sonic.Unmarshal(payload, &msg); err == nil {
		return msg
	}
	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

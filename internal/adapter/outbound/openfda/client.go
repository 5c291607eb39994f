package openfda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/fdamcp/internal/domain"
)

const (
	// DefaultBaseURL is the public openFDA API.
	DefaultBaseURL = "https://api.fda.gov"

	instrumentationName = "github.com/i2y/fdamcp/internal/adapter/outbound/openfda"
	maxErrorBodyLen     = 512
)

// Client implements the usecase.OpenFDAClient interface using net/http.
type Client struct {
	baseURL  *url.URL
	client   *http.Client
	tracer   trace.Tracer
	requests metric.Int64Counter
	logger   *slog.Logger
}

// New creates a new openFDA client. A nil client gets a default one; either way the
// transport is wrapped with otelhttp so outbound requests carry trace context.
func New(baseURL string, client *http.Client, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid openFDA base URL %s: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid openFDA base URL %s: scheme and host are required", baseURL)
	}

	var c http.Client
	if client != nil {
		c = *client
	}
	c.Transport = otelhttp.NewTransport(c.Transport)

	requests, err := otel.Meter(instrumentationName).Int64Counter(
		"openfda.requests",
		metric.WithDescription("openFDA search requests by endpoint and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openfda.requests counter: %w", err)
	}

	return &Client{
		baseURL:  u,
		client:   &c,
		tracer:   otel.Tracer(instrumentationName),
		requests: requests,
		logger:   logger.With("component", "openfda_client"),
	}, nil
}

// Search runs one GET against endpoint and decodes the response document.
func (c *Client) Search(ctx context.Context, endpoint domain.Endpoint, params domain.SearchParams) (resp *domain.SearchResponse, err error) {
	ctx, span := c.tracer.Start(ctx, "openfda.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("openfda.endpoint", string(endpoint)),
			attribute.Int("openfda.limit", params.Limit),
		))
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", string(endpoint)),
			attribute.String("outcome", outcome),
		))
		span.End()
	}()

	reqURL := c.buildURL(endpoint, params)
	log := c.logger.With(slog.String("endpoint", string(endpoint)), slog.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, domain.Upstream("request_build_failed", "failed to create openFDA request", err)
	}
	req.Header.Set("Accept", "application/json")

	log.Debug("Executing openFDA request")
	httpResp, err := c.client.Do(req)
	if err != nil {
		log.Error("openFDA request failed", slog.Any("error", err))
		return nil, domain.Upstream("request_failed", "openFDA request failed", err)
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	log = log.With(slog.Int("status_code", httpResp.StatusCode))

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		log.Error("Failed to read response body", slog.Any("error", err))
		return nil, domain.Upstream("read_failed", "failed to read openFDA response", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		log.Warn("Received non-success status code")
		return nil, domain.Upstream("http_status", statusMessage(httpResp.StatusCode, body), nil)
	}

	resp, err = decode(body)
	if err != nil {
		log.Error("Failed to decode openFDA response", slog.Any("error", err))
		return nil, domain.Upstream("decode_failed", "failed to decode openFDA response", err)
	}
	log.Debug("Received openFDA response", slog.Int("total", resp.Total), slog.Int("results", len(resp.Results)))
	return resp, nil
}

func (c *Client) buildURL(endpoint domain.Endpoint, params domain.SearchParams) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + string(endpoint)

	query := url.Values{}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	query.Set("limit", strconv.Itoa(params.Limit))
	if params.Sort != "" {
		query.Set("sort", params.Sort)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// decode parses a search response, keeping numbers in their textual form.
func decode(body []byte) (*domain.SearchResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}

	resp := &domain.SearchResponse{Raw: raw, Results: []map[string]any{}}
	if meta, ok := raw["meta"].(map[string]any); ok {
		if results, ok := meta["results"].(map[string]any); ok {
			if n, ok := results["total"].(json.Number); ok {
				if total, err := n.Int64(); err == nil {
					resp.Total = int(total)
				}
			}
		}
	}
	if items, ok := raw["results"].([]any); ok {
		for _, it := range items {
			if doc, ok := it.(map[string]any); ok {
				resp.Results = append(resp.Results, doc)
			}
		}
	}
	return resp, nil
}

// apiError is the error document openFDA returns with non-2xx responses.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func statusMessage(status int, body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		if e.Error.Code != "" {
			return fmt.Sprintf("HTTP %d: %s: %s", status, e.Error.Code, e.Error.Message)
		}
		return fmt.Sprintf("HTTP %d: %s", status, e.Error.Message)
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyLen {
		text = text[:maxErrorBodyLen-3] + "..."
	}
	if text == "" {
		text = http.StatusText(status)
	}
	return fmt.Sprintf("HTTP %d: %s", status, text)
}

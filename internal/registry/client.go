// Package registry fetches site records from the Symphony federation registry
package registry

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// SitesPath is appended to the configured base URL to build the sites endpoint
	SitesPath = "federation/registry"

	// DefaultTimeout is used if no timeout is configured
	DefaultTimeout = 10 * time.Second

	// DefaultMaxResponseSize is used if no maximum response size is configured (10MB)
	DefaultMaxResponseSize = 10 * 1024 * 1024

	// DefaultUserAgent is used if no user agent is configured
	DefaultUserAgent = "one-edge-portal/1.0"

	// maxErrorBodySnippet limits how much of a non-2xx body ends up in the error message
	maxErrorBodySnippet = 256

	tracerName = "github.com/one-edge/portal/internal/registry"
)

var ErrMissingBaseURL = errors.New("the registry base URL must not be empty")

// Config configures a registry Client
type Config struct {
	// BaseURL is concatenated with SitesPath without inserting a separator
	BaseURL         string
	Timeout         time.Duration
	UserAgent       string
	MaxResponseSize int64
}

// Client fetches site records from the federation registry
type Client struct {
	config  Config
	http    *http.Client
	metrics *Metrics
	tracer  trace.Tracer
}

// Option customizes a Client
type Option func(client *Client)

// WithHTTPClient makes the client use the given HTTP client instead of a new one using the configured timeout
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.http = httpClient
	}
}

// WithMetrics makes the client record fetches into the given metrics
func WithMetrics(metrics *Metrics) Option {
	return func(client *Client) {
		client.metrics = metrics
	}
}

// WithTracer makes the client use the given tracer instead of the global one
func WithTracer(tracer trace.Tracer) Option {
	return func(client *Client) {
		client.tracer = tracer
	}
}

// NewClient creates a new registry client.
// Zero values in the configuration are replaced by their defaults.
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultMaxResponseSize
	}

	client := &Client{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
		},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Endpoint returns the address site lists are fetched from
func (client *Client) Endpoint() string {
	return client.config.BaseURL + SitesPath
}

// FetchSites fetches all site records visible to the given access token.
// The Authorization header is only sent if accessToken is not empty; otherwise the request is anonymous.
func (client *Client) FetchSites(ctx context.Context, accessToken string) ([]RawSiteRecord, error) {
	ctx, span := client.tracer.Start(ctx, "registry.FetchSites", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	endpoint := client.Endpoint()
	span.SetAttributes(
		attribute.String("registry.endpoint", endpoint),
		attribute.Bool("registry.authenticated", accessToken != ""),
	)

	start := time.Now()
	records, status, err := client.fetch(ctx, endpoint, accessToken)
	client.metrics.observe(time.Since(start), len(records), err)

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry fetch failed")
		log.Warn().Err(err).Str("endpoint", endpoint).Str("kind", string(KindOf(err))).Msg("could not fetch sites from the registry")
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(records)))
	log.Debug().Str("endpoint", endpoint).Int("status", status).Int("sites", len(records)).Msg("fetched sites from the registry")
	return records, nil
}

func (client *Client) fetch(ctx context.Context, endpoint, accessToken string) ([]RawSiteRecord, int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Endpoint: endpoint, Wrapping: err}
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", client.config.UserAgent)
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Endpoint: endpoint, Wrapping: err}
	}
	defer func() {
		_ = response.Body.Close()
	}()
	status := response.StatusCode

	if response.ContentLength > client.config.MaxResponseSize {
		return nil, status, &Error{
			Kind:       KindSize,
			Endpoint:   endpoint,
			StatusCode: status,
			Wrapping:   fmt.Errorf("announced body size of %d bytes exceeds the maximum of %d bytes", response.ContentLength, client.config.MaxResponseSize),
		}
	}

	// Read one byte more than allowed to detect oversized bodies without a Content-Length header
	body, err := io.ReadAll(io.LimitReader(response.Body, client.config.MaxResponseSize+1))
	if err != nil {
		return nil, status, &Error{Kind: KindTransport, Endpoint: endpoint, StatusCode: status, Wrapping: err}
	}
	if int64(len(body)) > client.config.MaxResponseSize {
		return nil, status, &Error{
			Kind:       KindSize,
			Endpoint:   endpoint,
			StatusCode: status,
			Wrapping:   fmt.Errorf("body exceeds the maximum of %d bytes", client.config.MaxResponseSize),
		}
	}

	if status < 200 || status > 299 {
		return nil, status, &Error{
			Kind:       KindStatus,
			Endpoint:   endpoint,
			StatusCode: status,
			Wrapping:   fmt.Errorf("%s: %s", http.StatusText(status), bodySnippet(body)),
		}
	}

	records, err := DecodeSites(body)
	if err != nil {
		var regErr *Error
		if errors.As(err, &regErr) {
			regErr.Endpoint = endpoint
			regErr.StatusCode = status
		}
		return nil, status, err
	}
	return records, status, nil
}

func bodySnippet(body []byte) string {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorBodySnippet {
		snippet = snippet[:maxErrorBodySnippet] + "..."
	}
	if snippet == "" {
		return "<empty body>"
	}
	return snippet
}

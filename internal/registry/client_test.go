package registry_test

import (
	"context"
	"github.com/one-edge/portal/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestServer creates a new test server with keep-alives disabled so closing it does not affect parallel tests
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func newClient(t *testing.T, baseURL string) *registry.Client {
	t.Helper()
	client, err := registry.NewClient(registry.Config{BaseURL: baseURL})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	client, err := registry.NewClient(registry.Config{})
	assert.ErrorIs(t, err, registry.ErrMissingBaseURL)
	assert.Nil(t, client)
}

func TestClientEndpointConcatenatesWithoutSeparator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{
			name:     "base URL with trailing slash",
			baseURL:  "http://symphony:8082/v1alpha2/",
			expected: "http://symphony:8082/v1alpha2/federation/registry",
		},
		{
			name:     "base URL without trailing slash",
			baseURL:  "http://symphony:8082/v1alpha2",
			expected: "http://symphony:8082/v1alpha2federation/registry",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, newClient(t, tt.baseURL).Endpoint())
		})
	}
}

func TestClientFetchSitesSendsBearerToken(t *testing.T) {
	t.Parallel()

	requests := make(chan *http.Request, 1)
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","spec":{"name":"Site A","properties":{"phone":"555-1111","description":"desc"}}}]`))
	}))
	defer server.Close()

	records, err := newClient(t, server.URL+"/v1alpha2/").FetchSites(context.Background(), "token-123")
	require.NoError(t, err)

	request := <-requests
	assert.Equal(t, "/v1alpha2/federation/registry", request.URL.Path)
	assert.Equal(t, "Bearer token-123", request.Header.Get("Authorization"))
	assert.Equal(t, "application/json", request.Header.Get("Accept"))
	require.Len(t, records, 1)
	require.NotNil(t, records[0].ID)
	assert.Equal(t, "1", *records[0].ID)
}

func TestClientFetchSitesWithoutTokenOmitsAuthorization(t *testing.T) {
	t.Parallel()

	requests := make(chan *http.Request, 1)
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.Clone(context.Background())
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	records, err := newClient(t, server.URL+"/").FetchSites(context.Background(), "")
	require.NoError(t, err)

	_, hasAuth := (<-requests).Header["Authorization"]
	assert.False(t, hasAuth, "anonymous requests must not carry an Authorization header")
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestClientFetchSitesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		kind        registry.ErrorKind
		sentinel    error
		errContains string
	}{
		{
			name:        "internal server error with JSON body",
			status:      http.StatusInternalServerError,
			body:        `{"error":"internal"}`,
			kind:        registry.KindStatus,
			sentinel:    registry.ErrUnavailable,
			errContains: `{"error":"internal"}`,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     "",
			kind:     registry.KindStatus,
			sentinel: registry.ErrUnavailable,
		},
		{
			name:     "body is not JSON",
			status:   http.StatusOK,
			body:     "<html>gateway</html>",
			kind:     registry.KindParse,
			sentinel: registry.ErrUnavailable,
		},
		{
			name:     "body is an object instead of an array",
			status:   http.StatusOK,
			body:     `{"error":"internal"}`,
			kind:     registry.KindShape,
			sentinel: registry.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			records, err := newClient(t, server.URL+"/").FetchSites(context.Background(), "token")
			require.Error(t, err)
			assert.Nil(t, records)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, registry.KindOf(err))

			var regErr *registry.Error
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.status, regErr.StatusCode)
			assert.Equal(t, server.URL+"/federation/registry", regErr.Endpoint)
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}

func TestClientFetchSitesTransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("server unreachable", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		baseURL := server.URL + "/"
		server.Close()

		_, err := newClient(t, baseURL).FetchSites(context.Background(), "token")
		assert.ErrorIs(t, err, registry.ErrUnavailable)
		assert.Equal(t, registry.KindTransport, registry.KindOf(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client, err := registry.NewClient(registry.Config{BaseURL: server.URL + "/", Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = client.FetchSites(context.Background(), "token")
		assert.ErrorIs(t, err, registry.ErrUnavailable)
		assert.Equal(t, registry.KindTransport, registry.KindOf(err))
	})

	t.Run("context cancelled", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newClient(t, server.URL+"/").FetchSites(ctx, "token")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, registry.KindTransport, registry.KindOf(err))
	})
}

func TestClientFetchSitesRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Flushing first forces chunked encoding, so the size is only detected while reading
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte(`[` + strings.Repeat(`{"id":"x"},`, 100) + `{"id":"y"}]`))
	}))
	defer server.Close()

	client, err := registry.NewClient(registry.Config{BaseURL: server.URL + "/", MaxResponseSize: 64})
	require.NoError(t, err)

	_, err = client.FetchSites(context.Background(), "token")
	assert.ErrorIs(t, err, registry.ErrInvalidResponse)
	assert.Equal(t, registry.KindSize, registry.KindOf(err))
}

func TestClientFetchSitesUsesCustomHTTPClient(t *testing.T) {
	t.Parallel()

	userAgents := make(chan string, 1)
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := registry.NewClient(
		registry.Config{BaseURL: server.URL + "/", UserAgent: "sites-test/0.1"},
		registry.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	_, err = client.FetchSites(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "sites-test/0.1", <-userAgents)
}

package portal

import (
	"context"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/one-edge/portal/internal/api/portal/session"
	"github.com/one-edge/portal/internal/api/portal/session/storage/inmem"
	"github.com/one-edge/portal/internal/api/schema"
	"github.com/one-edge/portal/internal/config"
	"github.com/one-edge/portal/internal/function"
	"github.com/one-edge/portal/internal/site"
	"github.com/one-edge/portal/internal/storage"
	"github.com/one-edge/portal/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"net/http"
	"sync"
)

// Service represents the portal API service
type Service struct {
	mtx       sync.Mutex
	server    *http.Server
	sweepTask *task.RepeatingTask

	Config *config.Config

	Storage storage.Driver

	// Sites lists the sites visible to the requesting user
	Sites *site.Lister

	// Metrics is exposed at '/metrics' if set
	Metrics prometheus.Gatherer

	// SessionStorage defaults to an in-memory storage
	SessionStorage session.Storage

	oidcOAuth2Config    *oauth2.Config
	oidcIDTokenVerifier *oidc.IDTokenVerifier

	writer *schema.Writer
}

// Initialize prepares the response writer, the session storage and, if a provider is configured, the OIDC login flow
func (service *Service) Initialize(ctx context.Context) error {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msg("the portal API experienced an unexpected error")
		},
	}

	// Create the session storage
	if service.SessionStorage == nil {
		sessionStorage, err := inmem.New()
		if err != nil {
			return err
		}
		service.SessionStorage = sessionStorage
	}

	if service.Config.OIDCProviderURL == "" {
		log.Warn().Msg("no OIDC provider configured; the portal API only serves anonymous requests")
		return nil
	}

	// Create the OIDC provider & ID token verifier
	oidcProvider, err := oidc.NewProvider(ctx, service.Config.OIDCProviderURL)
	if err != nil {
		return err
	}
	service.oidcIDTokenVerifier = oidcProvider.Verifier(&oidc.Config{
		ClientID: service.Config.OIDCClientID,
	})

	// Create the OAuth2 config
	service.oidcOAuth2Config = &oauth2.Config{
		ClientID:     service.Config.OIDCClientID,
		ClientSecret: service.Config.OIDCClientSecret,
		Endpoint:     oidcProvider.Endpoint(),
		RedirectURL:  service.Config.PortalAPIBaseAddress + "/v1/auth/oidc/callback",
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return nil
}

// Handler builds the HTTP router of the portal API.
// Initialize has to be called first.
func (service *Service) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RedirectSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.Config.PortalAPIAllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the OIDC authentication endpoints
	if service.oidcOAuth2Config != nil {
		router.Get("/v1/auth/oidc/login_flow", service.EndpointOIDCLoginFlow)
		router.Get("/v1/auth/oidc/callback", service.EndpointOIDCLoginCallback)
		router.Post("/v1/auth/oidc/backchannel_logout", service.EndpointOIDCBackchannelLogout)
	}
	router.Post("/v1/auth/logout", service.EndpointLogout)

	// Register the user controller endpoints
	router.Get("/v1/me", withMiddlewares(service.EndpointGetSelfUser, service.MiddlewareResolveSession, service.MiddlewareVerifySession, service.MiddlewareFetchUser))
	router.Delete("/v1/me", withMiddlewares(service.EndpointDeleteSelfUserData, service.MiddlewareResolveSession, service.MiddlewareVerifySession, service.MiddlewareFetchUser))

	// Register the site endpoints
	router.Get("/v1/sites", withMiddlewares(service.EndpointGetSites, service.MiddlewareResolveSession))

	if service.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(service.Metrics, promhttp.HandlerOpts{}))
	}

	return router
}

// Startup starts up the portal API and blocks until it is shut down
func (service *Service) Startup() error {
	if err := service.Initialize(context.Background()); err != nil {
		return err
	}

	service.mtx.Lock()
	service.sweepTask = task.NewRepeating(service.sweepExpiredSessions, service.Config.SessionCleanupInterval)
	service.sweepTask.Start()
	server := &http.Server{
		Addr:    service.Config.PortalAPIListenAddress,
		Handler: service.Handler(),
	}
	service.server = server
	service.mtx.Unlock()

	return server.ListenAndServe()
}

// Shutdown shuts down the portal API
func (service *Service) Shutdown() {
	service.mtx.Lock()
	defer service.mtx.Unlock()
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
	if service.sweepTask != nil {
		service.sweepTask.Stop(false)
		service.sweepTask = nil
	}
}

func (service *Service) sweepExpiredSessions() {
	n, err := service.SessionStorage.TerminateExpired(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("could not terminate expired sessions")
		return
	}
	if n > 0 {
		log.Debug().Int("amount", n).Msg("terminated expired sessions")
	}
}

func withMiddlewares(end http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	return function.Nest(end, middlewares...)
}

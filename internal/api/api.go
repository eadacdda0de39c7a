package api

import (
	"errors"
	"github.com/one-edge/portal/internal/api/portal"
	"github.com/one-edge/portal/internal/config"
	"github.com/one-edge/portal/internal/site"
	"github.com/one-edge/portal/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"net/http"
)

// Service represents the API service
type Service struct {
	Config  *config.Config
	Storage storage.Driver
	Sites   *site.Lister
	Metrics prometheus.Gatherer
	portal  *portal.Service
}

// Startup starts up the portal API.
// Errors that occur while the server is running are sent to errs.
func (service *Service) Startup(errs chan<- error) {
	portalService := &portal.Service{
		Config:  service.Config,
		Storage: service.Storage,
		Sites:   service.Sites,
		Metrics: service.Metrics,
	}
	service.portal = portalService
	go func() {
		if err := portalService.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown shuts down the portal API
func (service *Service) Shutdown() {
	if service.portal != nil {
		service.portal.Shutdown()
		service.portal = nil
	}
}

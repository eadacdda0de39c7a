package portal

import (
	"github.com/one-edge/portal/internal/api/schema"
	"net/http"
)

// EndpointGetSites handles the 'GET /v1/sites' endpoint.
// The sites are fetched from the Symphony registry on behalf of the session's access token, or anonymously.
func (service *Service) EndpointGetSites(writer http.ResponseWriter, request *http.Request) {
	ses := sessionFromContext(request.Context())

	sites, err := service.Sites.List(request.Context(), ses.BearerToken())
	if err != nil {
		if registryErr := schema.RegistryError(err); registryErr != nil {
			service.writer.WriteErrors(writer, http.StatusBadGateway, registryErr)
			return
		}
		service.writer.WriteInternalError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, sites)
}

package portal

import (
	"net/http"
)

// EndpointGetSelfUser handles the 'GET /v1/me' endpoint
func (service *Service) EndpointGetSelfUser(writer http.ResponseWriter, request *http.Request) {
	service.writer.WriteJSON(writer, userFromContext(request.Context()))
}

// EndpointDeleteSelfUserData handles the 'DELETE /v1/me' endpoint
func (service *Service) EndpointDeleteSelfUserData(writer http.ResponseWriter, request *http.Request) {
	obj := userFromContext(request.Context())
	if err := service.Storage.Users().Delete(request.Context(), obj.ID); err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if err := service.SessionStorage.TerminateByUserID(request.Context(), obj.ID); err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	unsetCookie(writer, cookieNameToken)
	writer.WriteHeader(http.StatusNoContent)
}

package portal

import (
	"github.com/one-edge/portal/internal/api/schema"
	"net/http"
)

func (service *Service) loginFlowError(writer http.ResponseWriter, status int, message string) {
	service.writer.WriteErrors(writer, status, schema.ErrLoginFlow(message))
}

package flow

import (
	"errors"
	"net/http"

	"github.com/futig/joke-flows/internal/entity"
)

// toHTTPError maps an error to its status code, kind and client message
func toHTTPError(err error) (int, entity.ErrorKind, string) {
	kind := entity.KindOf(err)

	switch kind {
	case entity.KindValidation:
		return http.StatusBadRequest, kind, err.Error()
	case entity.KindExtraction:
		return http.StatusUnprocessableEntity, kind, err.Error()
	case entity.KindTool, entity.KindGeneration:
		return http.StatusBadGateway, kind, err.Error()
	case entity.KindRetrieval:
		if errors.Is(err, entity.ErrIndexNotFound) {
			return http.StatusNotFound, kind, err.Error()
		}
		return http.StatusInternalServerError, kind, err.Error()
	case entity.KindIndex:
		return http.StatusInternalServerError, kind, err.Error()
	case entity.KindNotFound:
		return http.StatusNotFound, kind, err.Error()
	default:
		return http.StatusInternalServerError, entity.KindInternal, "internal error"
	}
}

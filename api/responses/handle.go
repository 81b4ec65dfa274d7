package responses

import (
	"net/http"

	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// Action is a controller body: it returns the payload to render or an error.
type Action func(r *http.Request) (any, error)

// Handle renders what act returns under status, or its error.
func Handle(logg *logger.Logger, status int, act Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := act(r)
		if err != nil {
			WriteError(r.Context(), logg, w, err)
			return
		}
		WriteSuccessStatus(w, status, data)
	}
}

// Unavailable answers every request with an internal error naming the
// missing dependency. Controllers return it when they were built without one.
func Unavailable(logg *logger.Logger, dependency string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, dependency+" unavailable"))
	}
}

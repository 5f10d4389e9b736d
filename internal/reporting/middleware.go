package reporting

import (
	"net/http"
)

// NewAddMetaMiddleware tags all reported errors with the port handling
// the request.
func NewAddMetaMiddleware(port string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := AddTagsToContext(r.Context(), map[string]string{
				"port": port,
			})
			next(w, r.WithContext(ctx))
		}
	}
}

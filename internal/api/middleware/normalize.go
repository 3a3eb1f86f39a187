package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// NormalizeRequest trims leading and trailing slashes from the path, lowers
// its case and upper-cases the method, so "/Account/" and "/account" route
// alike.
func NormalizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := "/" + strings.ToLower(strings.Trim(r.URL.Path, "/"))
		r.URL.Path = path
		r.URL.RawPath = ""
		r.Method = strings.ToUpper(r.Method)

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.RoutePath = path
		}
		next.ServeHTTP(w, r)
	})
}

package rpc

import (
	"net/http"
	"strings"
)

// TrailingSlash returns middleware that redirects "/posts/" to "/posts".
// Registered patterns are normalized without trailing slashes, so only the
// bare form can match a route.
func TrailingSlash() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" || !strings.HasSuffix(r.URL.Path, "/") {
				next.ServeHTTP(w, r)
				return
			}

			target := "/" + strings.Trim(r.URL.Path, "/")
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			code := http.StatusMovedPermanently
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				code = http.StatusPermanentRedirect
			}
			http.Redirect(w, r, target, code)
		})
	}
}

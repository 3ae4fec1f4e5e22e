package middleware

import (
	"net/http"

	"github.com/mtrenholm/argus/internal/security"
	pkghttp "github.com/mtrenholm/argus/pkg/http"
)

// BlockByIP rejects requests from blocked source IPs before any other
// processing. The denial body is fixed and carries no expiry details.
// /health is exempt so probes keep working while an operator's IP is blocked.
func BlockByIP(blocklist *security.Blocklist, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			ip := pkghttp.ExtractClientIP(r, ipConfig)
			if blocklist.IsBlocked(ip) {
				pkghttp.WriteForbidden(w, "Access temporarily blocked due to suspicious activity")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

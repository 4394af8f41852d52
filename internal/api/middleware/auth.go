package middleware

import (
	"net/http"

	"github.com/mcoot/tablesync/internal/api/apierr"
	"github.com/mcoot/tablesync/internal/services/auth"
)

// HostPasswordHeader carries the host credential on privileged requests
const HostPasswordHeader = "X-Host-Password"

// RequireHost rejects requests that do not carry the host credential.
// The wrapped handler is never reached on failure.
func RequireHost(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := gate.AuthenticateHost(r.Header.Get(HostPasswordHeader)); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

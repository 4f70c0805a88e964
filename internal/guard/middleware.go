package guard

import (
	"log/slog"
	"net/http"

	"github.com/aoinoikaz/TruthCapture/pkg/errors"
	"github.com/aoinoikaz/TruthCapture/pkg/httputil"
	"github.com/aoinoikaz/TruthCapture/pkg/middleware"
)

// redirectHeader carries the path a client should navigate to when a request
// is rejected for lack of a session.
const redirectHeader = "X-Redirect-To"

// RequireVerified is the HTTP counterpart of Decide for routes behind the
// Auth middleware: no session claims yield 401 with a redirect hint, an
// unverified email yields 403, and a verified session passes through.
func RequireVerified(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if middleware.UserIDFromContext(r.Context()) == "" {
				w.Header().Set(redirectHeader, RedirectPath)
				httputil.WriteError(w, r, errors.Unauthorized("sign in required"), logger)
				return
			}

			if !middleware.EmailVerifiedFromContext(r.Context()) {
				httputil.WriteError(w, r, errors.Forbidden("email not verified"), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

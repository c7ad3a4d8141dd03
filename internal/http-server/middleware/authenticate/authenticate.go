package authenticate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"WaGate/internal/lib/api/response"
	"WaGate/internal/lib/sl"
)

type Authenticate interface {
	AuthEnabled() bool
	ValidateToken(token string) error
}

// New guards routes with the configured API key. Without a key every request passes.
func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || !auth.AuthEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			logger := log.With(
				mod,
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := ""
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
			if token == "" {
				token = r.Header.Get("X-API-Key")
			}
			if token == "" {
				logger.Warn("token not found")
				authFailed(w, r, "Token not found")
				return
			}

			if err := auth.ValidateToken(token); err != nil {
				logger.With(sl.Secret("token", token)).Warn("authentication failed", sl.Err(err))
				authFailed(w, r, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

// AccountAuth authenticates HTTP Basic credentials against the account store
// and serves next with the account bound to the request context.
func AccountAuth(auth service_interfaces.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				logger.Error("account auth middleware missing authenticator", nil, logger.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				http.Error(w, "server auth configuration is missing", http.StatusInternalServerError)
				return
			}

			name, secret, ok := r.BasicAuth()
			if !ok {
				logger.Info("account auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "missing",
				})
				challenge(w)
				return
			}

			ctx, err := auth.Authenticate(r.Context(), name, secret)
			if err != nil {
				if errors.Is(err, domain.ErrStoreUnavailable) {
					logger.Error("account auth middleware store unavailable", err, logger.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
					})
					http.Error(w, "Unable to process request right now", http.StatusServiceUnavailable)
					return
				}
				if !errors.Is(err, domain.ErrUnauthenticated) {
					logger.Error("account auth middleware failed", err, logger.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
					})
					http.Error(w, "request failed", http.StatusInternalServerError)
					return
				}
				logger.Info("account auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "invalid",
				})
				challenge(w)
				return
			}

			logger.Info("account auth middleware authorized request", logger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"accountName": name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="bank-ledger"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

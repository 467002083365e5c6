package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/session"
)

// requestFields identifies the request and, once the auth middleware has run,
// the account acting in it.
func requestFields(r *http.Request) logger.Fields {
	fields := logger.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"remoteAddr": r.RemoteAddr,
	}
	if accountName, ok := session.AccountName(r.Context()); ok {
		fields["sessionAccount"] = accountName
	}
	return fields
}

func logRequest(r *http.Request, payload any) {
	fields := requestFields(r)
	if payload != nil {
		fields["payload"] = logger.SanitizePayload(payload)
	}
	logger.Info("ledger http request", fields)
}

func logResponse(r *http.Request, status int, payload any, start time.Time) {
	fields := requestFields(r)
	fields["status"] = status
	fields["durationMs"] = time.Since(start).Milliseconds()
	fields["response"] = logger.SanitizePayload(payload)

	if status >= http.StatusInternalServerError {
		logger.Error("ledger http response", nil, fields)
		return
	}
	logger.Info("ledger http response", fields)
}

func logError(r *http.Request, err error, extra logger.Fields) {
	fields := requestFields(r)
	for k, v := range extra {
		fields[k] = v
	}
	logger.Error("ledger http handler error", err, fields)
}

package controller

import (
	"encoding/json"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindMissingField, domain.KindInvalidField:
		return http.StatusBadRequest
	case domain.KindInvalidAmount, domain.KindSelfTransfer:
		return http.StatusUnprocessableEntity
	case domain.KindAccountNotFound:
		return http.StatusNotFound
	case domain.KindDuplicateAccount, domain.KindConcurrentUpdate:
		return http.StatusConflict
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

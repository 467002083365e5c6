package controller

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"missing field":     {domain.ErrMissingField, http.StatusBadRequest},
		"invalid amount":    {domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
		"not found":         {domain.ErrAccountNotFound, http.StatusNotFound},
		"duplicate":         {domain.ErrDuplicateAccount, http.StatusConflict},
		"concurrent update": {domain.ConcurrentUpdate("deposit", errors.New("stale")), http.StatusConflict},
		"unauthenticated":   {domain.ErrUnauthenticated, http.StatusUnauthorized},
		"store unavailable": {domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		"unknown":           {errors.New("boom"), http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

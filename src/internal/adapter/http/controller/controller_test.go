package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/bank-ledger/src/internal/adapter/lock"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/resilient"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/security"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.NewAccountRepository()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	ledger := services.NewLedgerService(repo, lock.NewLocalLocker(), hasher, nil)
	auth := services.NewAuthService(repo, hasher)

	return router.New(
		controller.NewAccountController(ledger),
		controller.NewTransferController(ledger),
		middleware.AccountAuth(auth),
	)
}

func call(t *testing.T, h http.Handler, method, path, body string, creds ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if len(creds) == 2 {
		req.SetBasicAuth(creds[0], creds[1])
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr.Code, env
}

func TestLedgerRoutes_EndToEnd(t *testing.T) {
	h := newServer(t)

	status, env := call(t, h, http.MethodPost, "/api/bank/v1/create", `{"accountName":"A","accountPassword":"pa","accountBalance":"100"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "accountPassword")

	status, _ = call(t, h, http.MethodPost, "/api/bank/v1/create", `{"accountName":"B","accountPassword":"pb"}`)
	require.Equal(t, http.StatusCreated, status)

	status, env = call(t, h, http.MethodPost, "/api/bank/v1/deposit", `{"accountName":"B","amount":"5"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "the deposit is completed", env.Message)

	status, env = call(t, h, http.MethodPost, "/api/bank/v1/transfer", `{"destinationAccountName":"B","amount":"10"}`, "A", "pa")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Transfer successful", env.Message)

	status, env = call(t, h, http.MethodGet, "/api/bank/v1/account", "", "B", "pb")
	require.Equal(t, http.StatusOK, status)
	var account struct {
		AccountName    string   `json:"accountName"`
		AccountBalance string   `json:"accountBalance"`
		Permissions    []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.Equal(t, "B", account.AccountName)
	assert.Equal(t, "15.00", account.AccountBalance)
	assert.Equal(t, []string{"basic"}, account.Permissions)
}

func TestLedgerRoutes_StatusMapping(t *testing.T) {
	h := newServer(t)
	status, _ := call(t, h, http.MethodPost, "/api/bank/v1/create", `{"accountName":"A","accountPassword":"pa","accountBalance":"100"}`)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		creds  []string
		status int
		code   string
	}{
		{"missing field", http.MethodPost, "/api/bank/v1/create", `{"accountName":"X"}`, nil, http.StatusBadRequest, "MISSING_FIELD"},
		{"blank field", http.MethodPost, "/api/bank/v1/create", `{"accountName":" ","accountPassword":"p"}`, nil, http.StatusBadRequest, "INVALID_FIELD"},
		{"duplicate", http.MethodPost, "/api/bank/v1/create", `{"accountName":"A","accountPassword":"p"}`, nil, http.StatusConflict, "DUPLICATE_ACCOUNT"},
		{"bad deposit", http.MethodPost, "/api/bank/v1/deposit", `{"accountName":"A","amount":"-1"}`, nil, http.StatusUnprocessableEntity, "INVALID_AMOUNT"},
		{"unknown deposit target", http.MethodPost, "/api/bank/v1/deposit", `{"accountName":"Z","amount":"1"}`, nil, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"self transfer", http.MethodPost, "/api/bank/v1/transfer", `{"destinationAccountName":"a","amount":"1"}`, []string{"A", "pa"}, http.StatusUnprocessableEntity, "SELF_TRANSFER"},
		{"over balance", http.MethodPost, "/api/bank/v1/transfer", `{"destinationAccountName":"Z","amount":"1000"}`, []string{"A", "pa"}, http.StatusUnprocessableEntity, "INVALID_AMOUNT"},
		{"unknown destination", http.MethodPost, "/api/bank/v1/transfer", `{"destinationAccountName":"Z","amount":"1"}`, []string{"A", "pa"}, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"wrong method", http.MethodGet, "/api/bank/v1/create", "", nil, http.StatusMethodNotAllowed, ""},
		{"malformed body", http.MethodPost, "/api/bank/v1/deposit", `{`, nil, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, h, tt.method, tt.path, tt.body, tt.creds...)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestLedgerRoutes_TransferRequiresCredentials(t *testing.T) {
	h := newServer(t)
	status, _ := call(t, h, http.MethodPost, "/api/bank/v1/create", `{"accountName":"A","accountPassword":"pa"}`)
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, h, http.MethodPost, "/api/bank/v1/transfer", `{"destinationAccountName":"B","amount":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, h, http.MethodPost, "/api/bank/v1/transfer", `{"destinationAccountName":"B","amount":"1"}`, "A", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLedgerRoutes_StoreOutageIsServiceUnavailable(t *testing.T) {
	repo := resilient.NewAccountRepository(brokenRepository{}, resilient.Settings{Name: "accounts-test"})
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	ledger := services.NewLedgerService(repo, lock.NewLocalLocker(), hasher, nil)
	h := router.New(controller.NewAccountController(ledger), nil, nil)

	status, env := call(t, h, http.MethodPost, "/api/bank/v1/deposit", `{"accountName":"A","amount":"1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "STORE_UNAVAILABLE", env.Code)
	assert.Equal(t, []string{"Unable to process request right now"}, env.Errors)
}

type brokenRepository struct{}

func (brokenRepository) GetByAccountName(context.Context, string) (domain.Account, error) {
	return domain.Account{}, errStoreDown
}

func (brokenRepository) Save(context.Context, domain.Account) (domain.Account, error) {
	return domain.Account{}, errStoreDown
}

func (brokenRepository) SaveAll(context.Context, ...domain.Account) ([]domain.Account, error) {
	return nil, errStoreDown
}

var errStoreDown = errors.New("store down")

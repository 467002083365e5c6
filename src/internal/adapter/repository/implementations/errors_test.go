package implementations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := &pq.Error{Code: "23503"}

	assert.True(t, isUniqueViolation(dup))
	assert.False(t, isUniqueViolation(fk))
	assert.False(t, isUniqueViolation(errors.New("plain")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsNumericOutOfRange(t *testing.T) {
	assert.True(t, isNumericOutOfRange(fmt.Errorf("update: %w", &pq.Error{Code: "22003"})))
	assert.False(t, isNumericOutOfRange(&pq.Error{Code: "23505"}))
	assert.False(t, isNumericOutOfRange(errors.New("plain")))
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = r.values[i].(string)
		case *int64:
			*target = r.values[i].(int64)
		default:
			if scanner, ok := d.(interface{ Scan(any) error }); ok {
				if err := scanner.Scan(r.values[i]); err != nil {
					return err
				}
				continue
			}
			if i == 6 || i == 7 {
				continue
			}
			return fmt.Errorf("unexpected destination %T", d)
		}
	}
	return nil
}

func TestScanAccountDecodesPermissions(t *testing.T) {
	row := fakeRow{values: []any{
		"7d9b6c1e-8f55-4a55-9a3c-2d4b6f1e0a11",
		"alice",
		"$2a$10$hash",
		[]byte("120.50"),
		[]byte("{basic,auditor}"),
		int64(3),
		nil,
		nil,
	}}

	var account domain.Account
	require.NoError(t, scanAccount(row, &account))

	assert.Equal(t, "alice", account.AccountName)
	assert.Equal(t, "120.50", account.Balance.StringFixed(2))
	assert.Equal(t, []domain.Permission{domain.PermissionBasic, "auditor"}, account.Permissions)
	assert.Equal(t, int64(3), account.Version)
}

func TestPermissionStrings(t *testing.T) {
	assert.Equal(t, []string{"basic"}, permissionStrings(domain.DefaultPermissions()))
	assert.Empty(t, permissionStrings(nil))
}

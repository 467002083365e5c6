package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Permission string

const (
	PermissionBasic Permission = "basic"
)

func DefaultPermissions() []Permission {
	return []Permission{PermissionBasic}
}

type Account struct {
	ID              string
	AccountName     string
	AccountPassword string
	Balance         decimal.Decimal
	Permissions     []Permission
	// Version increases on every stored update. A save carrying an older
	// version than the stored row is rejected as stale.
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Account) HasPermission(permission Permission) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with the receiver.
func (a Account) Clone() Account {
	out := a
	if a.Permissions != nil {
		out.Permissions = append([]Permission(nil), a.Permissions...)
	}
	return out
}

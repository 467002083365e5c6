package service_interfaces

import "context"

type AuthService interface {
	// Authenticate verifies the credentials and returns ctx with the account
	// bound as the session identity.
	Authenticate(ctx context.Context, accountName string, secret string) (context.Context, error)
}

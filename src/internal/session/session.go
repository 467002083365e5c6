// Package session carries the authenticated account identity through a
// request's context.Context. Each request gets its own binding; nothing is
// shared between callers.
package session

import (
	"context"
	"strings"
)

type contextKey struct{}

func WithAccount(ctx context.Context, accountName string) context.Context {
	return context.WithValue(ctx, contextKey{}, accountName)
}

// AccountName returns the account bound to ctx by a successful login.
func AccountName(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(contextKey{}).(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

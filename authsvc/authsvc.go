package authsvc

import (
	"context"
	"errors"

	"github.com/ichigozero/gtdkit/usersvc"
)

type contextKey string

const UserContextKey contextKey = "User"

// ContextWithUser attaches the identity resolved by the authentication gate.
func ContextWithUser(ctx context.Context, u usersvc.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

func UserFromContext(ctx context.Context) (usersvc.User, bool) {
	u, ok := ctx.Value(UserContextKey).(usersvc.User)
	return u, ok
}

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrUnauthenticated = errors.New("unauthenticated")
)

package authtransport

import (
	"context"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/ichigozero/gtdkit/usersvc"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (usersvc.User, error)
}

// NewAuthenticator is the authentication gate. It runs before request
// decoding, so a missing or bad token is always answered with 401 no matter
// what the rest of the request looks like. On success the resolved user is
// available downstream through authsvc.UserFromContext.
func NewAuthenticator(a Authenticator, logger log.Logger) mux.MiddlewareFunc {
	toContext := kitjwt.HTTPToContext()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := toContext(r.Context(), r)

			ctx, err := authenticate(ctx, a)
			if err != nil {
				logger.Log("transport", "HTTP", "during", "Authenticate", "path", r.URL.Path, "err", err)
				errorEncoder(ctx, err, w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, a Authenticator) (context.Context, error) {
	token, ok := ctx.Value(kitjwt.JWTContextKey).(string)
	if !ok || token == "" {
		return ctx, authsvc.ErrUnauthenticated
	}

	user, err := a.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}

	return authsvc.ContextWithUser(ctx, user), nil
}

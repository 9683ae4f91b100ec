package authservice

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/ichigozero/gtdkit/usersvc"
	"github.com/ichigozero/gtdkit/usersvc/pkg/userservice"
)

type Service interface {
	Register(ctx context.Context, username, password string) (usersvc.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, token string) (usersvc.User, error)
}

func New(t Tokenizer, users userservice.Service, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t, users)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tokenizer Tokenizer
	users     userservice.Service
}

func NewBasicService(t Tokenizer, users userservice.Service) Service {
	return &basicService{tokenizer: t, users: users}
}

func (s *basicService) Register(ctx context.Context, username, password string) (usersvc.User, error) {
	return s.users.Register(ctx, username, password)
}

// Login never tells an unknown username apart from a wrong password.
func (s *basicService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.Credentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) || errors.Is(err, usersvc.ErrInvalidArgument) {
			return "", authsvc.ErrUnauthenticated
		}
		return "", err
	}

	return s.tokenizer.Issue(user.Username)
}

// Authenticate resolves a token to a live user record. A valid signature on
// its own is not enough: the user must still exist.
func (s *basicService) Authenticate(ctx context.Context, token string) (usersvc.User, error) {
	if token == "" {
		return usersvc.User{}, authsvc.ErrUnauthenticated
	}

	username, err := s.tokenizer.Verify(token)
	if err != nil {
		return usersvc.User{}, authsvc.ErrUnauthenticated
	}

	user, err := s.users.User(ctx, username)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) || errors.Is(err, usersvc.ErrInvalidArgument) {
			return usersvc.User{}, authsvc.ErrUnauthenticated
		}
		return usersvc.User{}, err
	}

	return user, nil
}

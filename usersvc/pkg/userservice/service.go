package userservice

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/gtdkit/usersvc"
)

type Service interface {
	Register(ctx context.Context, username, password string) (usersvc.User, error)
	Credentials(ctx context.Context, username, password string) (usersvc.User, error)
	User(ctx context.Context, username string) (usersvc.User, error)
}

func New(r usersvc.UserRepository, h Hasher, logger log.Logger) (Service, error) {
	var svc Service
	{
		s, err := NewBasicService(r, h)
		if err != nil {
			return nil, err
		}
		svc = LoggingMiddleware(logger)(s)
	}
	return svc, nil
}

type basicService struct {
	users  usersvc.UserRepository
	hasher Hasher

	// decoy is verified against when the username is unknown, so a miss
	// costs the same as a wrong password.
	decoyDigest string
	decoySalt   []byte
}

func NewBasicService(r usersvc.UserRepository, h Hasher) (Service, error) {
	digest, salt, err := h.Hash("decoy password")
	if err != nil {
		return nil, err
	}
	return &basicService{users: r, hasher: h, decoyDigest: digest, decoySalt: salt}, nil
}

func (s *basicService) Register(ctx context.Context, username, password string) (usersvc.User, error) {
	if username == "" || password == "" {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}

	digest, salt, err := s.hasher.Hash(password)
	if err != nil {
		return usersvc.User{}, err
	}

	return s.users.Create(ctx, username, digest, salt)
}

// Credentials returns the user owning username when password matches.
// Unknown users and wrong passwords both yield ErrUserNotFound.
func (s *basicService) Credentials(ctx context.Context, username, password string) (usersvc.User, error) {
	if username == "" || password == "" {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) {
			s.hasher.Verify(password, s.decoyDigest, s.decoySalt)
		}
		return usersvc.User{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash, user.Salt) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, nil
}

func (s *basicService) User(ctx context.Context, username string) (usersvc.User, error) {
	if username == "" {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}
	return s.users.FindByUsername(ctx, username)
}

// Package inmem keeps users in process memory. It is meant for development
// runs and tests; everything is lost when the process exits.
package inmem

import (
	"context"
	"sync"

	"github.com/ichigozero/gtdkit/usersvc"
)

type userRepository struct {
	mtx    sync.RWMutex
	nextID uint64
	users  map[string]usersvc.User
}

func NewUserRepository() usersvc.UserRepository {
	return &userRepository{users: make(map[string]usersvc.User)}
}

func (r *userRepository) Create(_ context.Context, username, passwordHash string, salt []byte) (usersvc.User, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.users[username]; ok {
		return usersvc.User{}, usersvc.ErrUserExists
	}

	r.nextID++
	user := usersvc.User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Salt:         append([]byte(nil), salt...),
	}
	r.users[username] = user

	return user, nil
}

func (r *userRepository) FindByUsername(_ context.Context, username string) (usersvc.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, nil
}

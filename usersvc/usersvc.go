package usersvc

import (
	"context"
	"errors"
)

type User struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username" gorm:"size:20;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Salt         []byte `json:"-" gorm:"not null"`
}

func (User) TableName() string { return "user" }

// UserRepository is the credential store. Username uniqueness is enforced by
// the storage layer itself, not by a lookup before insert.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string, salt []byte) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("username already exists")
	ErrStorage         = errors.New("user storage failure")
)

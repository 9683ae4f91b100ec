package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/ichigozero/gtdkit/usersvc"
	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	libgorm "gorm.io/gorm"
)

const (
	// pgUniqueViolation is the postgres SQLSTATE for unique_violation.
	pgUniqueViolation = "23505"
	// mysqlDupEntry is ER_DUP_ENTRY.
	mysqlDupEntry = 1062
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(ctx context.Context, username, passwordHash string, salt []byte) (usersvc.User, error) {
	user := usersvc.User{Username: username, PasswordHash: passwordHash, Salt: salt}

	result := u.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return usersvc.User{}, usersvc.ErrUserExists
		}
		return usersvc.User{}, fmt.Errorf("%w: %v", usersvc.ErrStorage, result.Error)
	}

	return user, nil
}

func (u *userRepository) FindByUsername(ctx context.Context, username string) (usersvc.User, error) {
	var user usersvc.User

	result := u.db.WithContext(ctx).Where("username = ?", username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
			return usersvc.User{}, usersvc.ErrUserNotFound
		}
		return usersvc.User{}, fmt.Errorf("%w: %v", usersvc.ErrStorage, result.Error)
	}

	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDupEntry
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

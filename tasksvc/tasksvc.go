package tasksvc

import (
	"context"
	"errors"

	"github.com/ichigozero/gtdkit/usersvc"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusDone}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

type Task struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title" gorm:"not null"`
	Description string        `json:"description" gorm:"not null"`
	Status      Status        `json:"status" gorm:"size:16;not null;index"`
	UserID      uint64        `json:"userId" gorm:"not null;index"`
	Owner       *usersvc.User `json:"-" gorm:"foreignKey:UserID"`
}

func (Task) TableName() string { return "task" }

// Filter narrows a task listing. Both fields are optional and combine with AND.
type Filter struct {
	Status *Status
	Search string
}

// TaskRepository scopes every query to the owning user. userID is never
// optional.
type TaskRepository interface {
	Create(ctx context.Context, title, description string, userID uint64) (Task, error)
	FindAll(ctx context.Context, userID uint64, f Filter) ([]Task, error)
	Find(ctx context.Context, userID, taskID uint64) (Task, error)
	UpdateStatus(ctx context.Context, userID, taskID uint64, status Status) (Task, error)
	Delete(ctx context.Context, userID, taskID uint64) error
}

// Auth is the authenticated caller on whose behalf a task operation runs.
type Auth struct {
	UserID   uint64
	Username string
}

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrTaskNotFound       = errors.New("task not found")
	ErrStorage            = errors.New("task storage failure")
	ErrUserContextMissing = errors.New("user was not passed through the context")
)

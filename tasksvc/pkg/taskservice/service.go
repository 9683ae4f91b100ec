package taskservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/gtdkit/tasksvc"
)

type Service interface {
	CreateTask(ctx context.Context, a tasksvc.Auth, title, description string) (tasksvc.Task, error)
	Tasks(ctx context.Context, a tasksvc.Auth, f tasksvc.Filter) ([]tasksvc.Task, error)
	Task(ctx context.Context, a tasksvc.Auth, taskID uint64) (tasksvc.Task, error)
	UpdateTaskStatus(ctx context.Context, a tasksvc.Auth, taskID uint64, status tasksvc.Status) (tasksvc.Task, error)
	DeleteTask(ctx context.Context, a tasksvc.Auth, taskID uint64) error
}

func New(t tasksvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tasks tasksvc.TaskRepository
}

func NewBasicService(t tasksvc.TaskRepository) Service {
	return basicService{tasks: t}
}

func (s basicService) CreateTask(ctx context.Context, a tasksvc.Auth, title, description string) (tasksvc.Task, error) {
	if title == "" || a.UserID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	return s.tasks.Create(ctx, title, description, a.UserID)
}

func (s basicService) Tasks(ctx context.Context, a tasksvc.Auth, f tasksvc.Filter) ([]tasksvc.Task, error) {
	if a.UserID == 0 {
		return nil, tasksvc.ErrInvalidArgument
	}
	if f.Status != nil {
		if _, err := tasksvc.ParseStatus(string(*f.Status)); err != nil {
			return nil, err
		}
	}
	return s.tasks.FindAll(ctx, a.UserID, f)
}

func (s basicService) Task(ctx context.Context, a tasksvc.Auth, taskID uint64) (tasksvc.Task, error) {
	if a.UserID == 0 || taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	return s.tasks.Find(ctx, a.UserID, taskID)
}

func (s basicService) UpdateTaskStatus(ctx context.Context, a tasksvc.Auth, taskID uint64, status tasksvc.Status) (tasksvc.Task, error) {
	if a.UserID == 0 || taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if _, err := tasksvc.ParseStatus(string(status)); err != nil {
		return tasksvc.Task{}, err
	}
	return s.tasks.UpdateStatus(ctx, a.UserID, taskID, status)
}

func (s basicService) DeleteTask(ctx context.Context, a tasksvc.Auth, taskID uint64) error {
	if a.UserID == 0 || taskID == 0 {
		return tasksvc.ErrInvalidArgument
	}
	return s.tasks.Delete(ctx, a.UserID, taskID)
}

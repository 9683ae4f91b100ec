package taskendpoint

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/ichigozero/gtdkit/tasksvc"
	"github.com/ichigozero/gtdkit/tasksvc/pkg/taskservice"
)

type Set struct {
	CreateTaskEndpoint       endpoint.Endpoint
	TasksEndpoint            endpoint.Endpoint
	TaskEndpoint             endpoint.Endpoint
	UpdateTaskStatusEndpoint endpoint.Endpoint
	DeleteTaskEndpoint       endpoint.Endpoint
}

func New(svc taskservice.Service, logger log.Logger) Set {
	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = MakeCreateTaskEndpoint(svc)
		createTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}
	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = MakeTasksEndpoint(svc)
		tasksEndpoint = LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}
	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = MakeTaskEndpoint(svc)
		taskEndpoint = LoggingMiddleware(log.With(logger, "method", "Task"))(taskEndpoint)
	}

	var updateTaskStatusEndpoint endpoint.Endpoint
	{
		updateTaskStatusEndpoint = MakeUpdateTaskStatusEndpoint(svc)
		updateTaskStatusEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateTaskStatus"))(updateTaskStatusEndpoint)
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = MakeDeleteTaskEndpoint(svc)
		deleteTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	return Set{
		CreateTaskEndpoint:       createTaskEndpoint,
		TasksEndpoint:            tasksEndpoint,
		TaskEndpoint:             taskEndpoint,
		UpdateTaskStatusEndpoint: updateTaskStatusEndpoint,
		DeleteTaskEndpoint:       deleteTaskEndpoint,
	}
}

func MakeCreateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := owner(ctx)
		if err != nil {
			return CreateTaskResponse{Err: err}, nil
		}

		req := request.(CreateTaskRequest)
		t, err := s.CreateTask(ctx, auth, req.Title, req.Description)
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := owner(ctx)
		if err != nil {
			return TasksResponse{Err: err}, nil
		}

		req := request.(TasksRequest)
		t, err := s.Tasks(ctx, auth, tasksvc.Filter{Status: req.Status, Search: req.Search})
		return TasksResponse{Tasks: t, Err: err}, nil
	}
}

func MakeTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := owner(ctx)
		if err != nil {
			return TaskResponse{Err: err}, nil
		}

		req := request.(TaskRequest)
		t, err := s.Task(ctx, auth, req.TaskID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeUpdateTaskStatusEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := owner(ctx)
		if err != nil {
			return UpdateTaskStatusResponse{Err: err}, nil
		}

		req := request.(UpdateTaskStatusRequest)
		t, err := s.UpdateTaskStatus(ctx, auth, req.TaskID, req.Status)
		return UpdateTaskStatusResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := owner(ctx)
		if err != nil {
			return DeleteTaskResponse{Err: err}, nil
		}

		req := request.(DeleteTaskRequest)
		err = s.DeleteTask(ctx, auth, req.TaskID)
		return DeleteTaskResponse{Err: err}, nil
	}
}

// owner reads the user attached by the authentication gate. Task ownership
// comes from here only, never from request data.
func owner(ctx context.Context) (tasksvc.Auth, error) {
	u, ok := authsvc.UserFromContext(ctx)
	if !ok || u.ID == 0 {
		return tasksvc.Auth{}, tasksvc.ErrUserContextMissing
	}

	return tasksvc.Auth{UserID: u.ID, Username: u.Username}, nil
}

var (
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = TaskResponse{}
	_ endpoint.Failer = UpdateTaskStatusResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
)

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CreateTaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r CreateTaskResponse) Failed() error   { return r.Err }
func (r CreateTaskResponse) StatusCode() int { return http.StatusCreated }

func (r CreateTaskResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

type TasksRequest struct {
	Status *tasksvc.Status
	Search string
}

type TasksResponse struct {
	Tasks []tasksvc.Task
	Err   error
}

func (r TasksResponse) Failed() error { return r.Err }

func (r TasksResponse) MarshalJSON() ([]byte, error) {
	if r.Tasks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Tasks)
}

type TaskRequest struct {
	TaskID uint64
}

type TaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r TaskResponse) Failed() error { return r.Err }

func (r TaskResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

type UpdateTaskStatusRequest struct {
	TaskID uint64         `json:"-"`
	Status tasksvc.Status `json:"status"`
}

type UpdateTaskStatusResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r UpdateTaskStatusResponse) Failed() error { return r.Err }

func (r UpdateTaskStatusResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

type DeleteTaskRequest struct {
	TaskID uint64
}

type DeleteTaskResponse struct {
	Err error
}

func (r DeleteTaskResponse) Failed() error   { return r.Err }
func (r DeleteTaskResponse) StatusCode() int { return http.StatusNoContent }

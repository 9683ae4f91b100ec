package tasktransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/ichigozero/gtdkit/authsvc/pkg/authtransport"
	"github.com/ichigozero/gtdkit/tasksvc"
	"github.com/ichigozero/gtdkit/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/gtdkit/validate"
)

// NewHTTPHandler mounts the task routes. Every matched route runs behind the
// authentication gate.
func NewHTTPHandler(endpoints taskendpoint.Set, a authtransport.Authenticator, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	createTaskHandler := httptransport.NewServer(
		endpoints.CreateTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	tasksHandler := httptransport.NewServer(
		endpoints.TasksEndpoint,
		decodeHTTPTasksRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	taskHandler := httptransport.NewServer(
		endpoints.TaskEndpoint,
		decodeHTTPTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	updateTaskStatusHandler := httptransport.NewServer(
		endpoints.UpdateTaskStatusEndpoint,
		decodeHTTPUpdateTaskStatusRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	deleteTaskHandler := httptransport.NewServer(
		endpoints.DeleteTaskEndpoint,
		decodeHTTPDeleteTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()
	r.Use(authtransport.NewAuthenticator(a, logger))

	r.Methods("POST").Path("/tasks").Handler(createTaskHandler)
	r.Methods("GET").Path("/tasks").Handler(tasksHandler)
	r.Methods("GET").Path("/tasks/{task_id}").Handler(taskHandler)
	r.Methods("PATCH").Path("/tasks/{task_id}/status").Handler(updateTaskStatusHandler)
	r.Methods("DELETE").Path("/tasks/{task_id}").Handler(deleteTaskHandler)

	return r
}

// ErrMalformedBody is returned when a request body is not the expected JSON.
var ErrMalformedBody = errors.New("malformed request body")

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err2code(err))

	var verr validate.Errors
	if errors.As(err, &verr) {
		json.NewEncoder(w).Encode(errorWrapper{Error: "validation failed", Fields: verr})
		return
	}
	json.NewEncoder(w).Encode(errorWrapper{Error: err2msg(err)})
}

type errorWrapper struct {
	Error  string                `json:"error"`
	Fields []validate.FieldError `json:"fields,omitempty"`
}

func err2code(err error) int {
	var verr validate.Errors
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authsvc.ErrUnauthenticated),
		errors.Is(err, authsvc.ErrInvalidToken),
		errors.Is(err, tasksvc.ErrUserContextMissing):
		return http.StatusUnauthorized
	case errors.Is(err, tasksvc.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMalformedBody),
		errors.Is(err, tasksvc.ErrInvalidArgument),
		errors.Is(err, tasksvc.ErrInvalidStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func err2msg(err error) string {
	switch err2code(err) {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return tasksvc.ErrTaskNotFound.Error()
	case http.StatusBadRequest:
		return "bad request"
	}
	return "internal server error"
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req taskendpoint.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedBody
	}
	if err := validate.NewTask(req.Title, req.Description); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	q := r.URL.Query()

	var req taskendpoint.TasksRequest
	if s := q.Get("status"); s != "" {
		status, err := parseStatus(s)
		if err != nil {
			return nil, err
		}
		req.Status = &status
	}
	req.Search = q.Get("search")

	return req, nil
}

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		return nil, err
	}

	return taskendpoint.TaskRequest{TaskID: taskID}, nil
}

func decodeHTTPUpdateTaskStatusRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		return nil, err
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, ErrMalformedBody
	}

	status, err := parseStatus(body.Status)
	if err != nil {
		return nil, err
	}

	return taskendpoint.UpdateTaskStatusRequest{TaskID: taskID, Status: status}, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		return nil, err
	}

	return taskendpoint.DeleteTaskRequest{TaskID: taskID}, nil
}

func taskIDFromPath(r *http.Request) (uint64, error) {
	v, ok := mux.Vars(r)["task_id"]
	if !ok {
		return 0, ErrBadRouting
	}
	return validate.ID("id", v)
}

func parseStatus(s string) (tasksvc.Status, error) {
	allowed := make([]string, len(tasksvc.Statuses))
	for i, st := range tasksvc.Statuses {
		allowed[i] = string(st)
	}
	if err := validate.OneOf("status", s, allowed...); err != nil {
		return "", err
	}
	return tasksvc.Status(s), nil
}

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}

	code := http.StatusOK
	if sc, ok := response.(httptransport.StatusCoder); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(response)
}

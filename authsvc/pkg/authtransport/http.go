package authtransport

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
	"github.com/ichigozero/gtdkit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/gtdkit/usersvc"
	"github.com/ichigozero/gtdkit/validate"
)

func NewHTTPHandler(endpoints authendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	registerHandler := httptransport.NewServer(
		endpoints.RegisterEndpoint,
		decodeHTTPRegisterRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	loginHandler := httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/auth/register").Handler(registerHandler)
	r.Methods("POST").Path("/auth/login").Handler(loginHandler)

	return r
}

// ErrMalformedBody is returned when a request body is not the expected JSON.
var ErrMalformedBody = errors.New("malformed request body")

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
	case errors.Is(err, ErrMalformedBody),
		errors.Is(err, usersvc.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, usersvc.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, authsvc.ErrUnauthenticated),
		errors.Is(err, authsvc.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// err2msg keeps internal detail out of responses. Anything unmapped is
// reported as a bare internal error.
func err2msg(err error) string {
	switch err2code(err) {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusConflict:
		return usersvc.ErrUserExists.Error()
	case http.StatusUnauthorized:
		return "unauthorized"
	}
	return "internal server error"
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedBody
	}
	if err := validate.Credentials(req.Username, req.Password); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedBody
	}
	if err := validate.Credentials(req.Username, req.Password); err != nil {
		return nil, err
	}
	return req, nil
}

// encodeHTTPGenericResponse is a transport/http.EncodeResponseFunc that encodes
// the response as JSON to the response writer, honouring
// httptransport.StatusCoder.
func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}

	code := http.StatusOK
	if sc, ok := response.(httptransport.StatusCoder); ok {
		code = sc.StatusCode()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(response)
}

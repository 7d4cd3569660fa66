package http

import (
	"encoding/json"
	"errors"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"net/http"
)

// Responder writes JSON bodies and turns errors into status codes.
type Responder struct {
	logger      hclog.Logger
	development bool
}

func NewResponder(logger hclog.Logger, development bool) *Responder {
	return &Responder{logger: logger, development: development}
}

// JSON writes v with the given status
func (rs *Responder) JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.logger.Error("Unable to encode response", "error", err)
	}
}

// Message writes {"message": msg}
func (rs *Responder) Message(w http.ResponseWriter, status int, msg string) {
	rs.JSON(w, status, ErrorResponse{Message: msg})
}

// Error maps err onto a status code. Internal errors are logged and only
// described to the client in development.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs domain.ValidationErrors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &validationErrs):
		rs.logger.Debug("Rejected request", "path", r.URL.Path, "error", err)
		rs.JSON(w, http.StatusBadRequest, ValidationError{
			Message: validationErrs.Error(),
			Errors:  validationErrs,
		})
	case errors.Is(err, domain.ErrProductNotFound):
		rs.Message(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrUnauthorized):
		rs.Message(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrInvalidCredentials):
		rs.Message(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, domain.ErrConflict):
		rs.Message(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		rs.Message(w, http.StatusUnsupportedMediaType, domain.ErrUnsupportedMediaType.Error())
	case errors.Is(err, domain.ErrPayloadTooLarge), errors.As(err, &maxBytesErr):
		rs.Message(w, http.StatusRequestEntityTooLarge, domain.ErrPayloadTooLarge.Error())
	case errors.Is(err, errBadRequest):
		rs.Message(w, http.StatusBadRequest, err.Error())
	default:
		rs.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg := "Server error"
		if rs.development {
			msg = err.Error()
		}
		rs.JSON(w, http.StatusInternalServerError, InternalErrorResponse{Error: msg})
	}
}

// errBadRequest marks malformed request bodies
var errBadRequest = errors.New("malformed request body")

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/sbilibin2017/gw-users/internal/errors"
	"github.com/sbilibin2017/gw-users/internal/logger"
	"github.com/sbilibin2017/gw-users/internal/middlewares"
	"github.com/sbilibin2017/gw-users/internal/models"
)

// userIDParam is the route parameter holding the user id.
const userIDParam = "user_id"

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

// writeError renders err through apperrors.MapErrorToHTTP.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logger.Log.Errorw("internal server error",
			"request_id", middlewares.GetRequestIDFromContext(r.Context()),
			"method", r.Method,
			"uri", r.RequestURI,
			"error", err,
		)
	}
	writeJSON(w, httpErr.StatusCode, httpErr.ToErrorResponse())
}

// decodeUserRequest reads a create/update body. Scalars are coerced to strings;
// only the presence of name is checked.
func decodeUserRequest(r *http.Request) (models.UserRequest, error) {
	var req models.UserRequest

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		return req, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return req, fmt.Errorf("%w: unexpected data after the JSON body", apperrors.ErrInvalidRequest)
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return req, fmt.Errorf("%w: %v", apperrors.ErrValidation, verrs)
		}
		return req, err
	}

	return req, nil
}

package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-users/internal/models"
)

//go:generate mockgen -source=create_user.go -destination=mock_create_user.go -package=handlers

// UserCreator defines the interface that the service must implement.
type UserCreator interface {
	Create(ctx context.Context, name string) (*models.UserDB, error)
}

// NewCreateUserHandler returns an HTTP handler creating a user.
// @Summary Create user
// @Description Creates a user. The id is generated as name + DDMMYYYYHHMMSS; a client-supplied id is ignored.
// @Tags users
// @Accept json
// @Produce json
// @Param userRequest body models.UserRequest true "User"
// @Success 201 {object} models.UserResponse "User created"
// @Failure 400 {object} errors.ErrorResponse "Malformed body"
// @Failure 409 {object} errors.ErrorResponse "Generated id already taken"
// @Failure 422 {object} errors.ErrorResponse "Missing name"
// @Failure 500 {object} errors.ErrorResponse "Internal server error"
// @Router /users/ [post]
func NewCreateUserHandler(svc UserCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeUserRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		user, err := svc.Create(r.Context(), string(*req.Name))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, models.NewUserResponse(*user))
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/sbilibin2017/gw-users/internal/errors"
	"github.com/sbilibin2017/gw-users/internal/models"
)

//go:generate mockgen -source=update_user.go -destination=mock_update_user.go -package=handlers

// UserUpdater defines the interface that the service must implement.
type UserUpdater interface {
	Update(ctx context.Context, id, name string) (*models.UserDB, error)
}

// NewUpdateUserHandler returns an HTTP handler renaming a user.
// With legacyNotFound an absent user still gets the echoed payload and status 200.
// @Summary Update user
// @Description Sets the name of the user with the given id. The body id is ignored.
// @Tags users
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param userRequest body models.UserRequest true "User"
// @Success 200 {object} models.UserResponse "User updated"
// @Failure 400 {object} errors.ErrorResponse "Malformed body"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Failure 422 {object} errors.ErrorResponse "Missing name"
// @Failure 500 {object} errors.ErrorResponse "Internal server error"
// @Router /users/{user_id}/ [put]
func NewUpdateUserHandler(svc UserUpdater, legacyNotFound bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, userIDParam)

		req, err := decodeUserRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		user, err := svc.Update(r.Context(), id, string(*req.Name))
		if err != nil {
			if legacyNotFound && errors.Is(err, apperrors.ErrUserNotFound) {
				writeJSON(w, http.StatusOK, models.UserResponse{ID: id, Name: string(*req.Name)})
				return
			}
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, models.NewUserResponse(*user))
	}
}

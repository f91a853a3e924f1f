package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/sbilibin2017/gw-users/internal/errors"
	"github.com/sbilibin2017/gw-users/internal/models"
)

//go:generate mockgen -source=delete_user.go -destination=mock_delete_user.go -package=handlers

// UserDeleter defines the interface that the service must implement.
type UserDeleter interface {
	Delete(ctx context.Context, id string) error
}

// NewDeleteUserHandler returns an HTTP handler deleting a user.
// With legacyNotFound an absent user still gets the success message.
// @Summary Delete user
// @Description Deletes the user with the given id
// @Tags users
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} models.DeleteUserResponse "User deleted"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Failure 500 {object} errors.ErrorResponse "Internal server error"
// @Router /users/{user_id}/ [delete]
func NewDeleteUserHandler(svc UserDeleter, legacyNotFound bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, userIDParam)

		err := svc.Delete(r.Context(), id)
		if err != nil && !(legacyNotFound && errors.Is(err, apperrors.ErrUserNotFound)) {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, models.DeleteUserResponse{
			Message: fmt.Sprintf("User with id: %s deleted successfully!", id),
		})
	}
}

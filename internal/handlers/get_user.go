package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/sbilibin2017/gw-users/internal/errors"
	"github.com/sbilibin2017/gw-users/internal/models"
)

//go:generate mockgen -source=get_user.go -destination=mock_get_user.go -package=handlers

// UserGetter defines the interface that the service must implement.
type UserGetter interface {
	Get(ctx context.Context, id string) (*models.UserDB, error)
}

// NewGetUserHandler returns an HTTP handler fetching a single user.
// With legacyNotFound an absent user is rendered as a JSON null with status 200.
// @Summary Get user
// @Description Returns the user with the given id
// @Tags users
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} models.UserResponse "User"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Failure 500 {object} errors.ErrorResponse "Internal server error"
// @Router /users/{user_id} [get]
func NewGetUserHandler(svc UserGetter, legacyNotFound bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, userIDParam)

		user, err := svc.Get(r.Context(), id)
		if err != nil {
			if legacyNotFound && errors.Is(err, apperrors.ErrUserNotFound) {
				writeJSON(w, http.StatusOK, nil)
				return
			}
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, models.NewUserResponse(*user))
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-users/internal/models"
)

//go:generate mockgen -source=list_users.go -destination=mock_list_users.go -package=handlers

// UserLister defines the interface that the service must implement.
type UserLister interface {
	List(ctx context.Context) ([]models.UserDB, error)
}

// NewListUsersHandler returns an HTTP handler listing all users.
// @Summary List users
// @Description Returns every user in storage order. No pagination.
// @Tags users
// @Produce json
// @Success 200 {array} models.UserResponse "Users"
// @Failure 500 {object} errors.ErrorResponse "Internal server error"
// @Router /users [get]
func NewListUsersHandler(svc UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]models.UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, models.NewUserResponse(u))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

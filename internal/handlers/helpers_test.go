package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// withUserID attaches the chi route parameter the handlers read.
func withUserID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(userIDParam, id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

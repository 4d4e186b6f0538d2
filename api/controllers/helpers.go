package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/api/middleware"
	"github.com/localmarkethq/localmarket-backend/api/validators"
	"github.com/localmarkethq/localmarket-backend/internal/orders"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// identity pulls the authenticated actor out of the request context.
func identity(ctx context.Context) (uuid.UUID, enums.UserRole, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return userID, enums.UserRole(middleware.RoleFromContext(ctx)), nil
}

func actorFrom(ctx context.Context) (orders.Actor, error) {
	userID, role, err := identity(ctx)
	if err != nil {
		return orders.Actor{}, err
	}
	return orders.Actor{ID: userID, Role: role}, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]any{"param": name})
	}
	return id, nil
}

// pageParams reads cursor pagination from the query string. A bad limit
// falls back to the default rather than failing the request.
func pageParams(r *http.Request) (cursor string, limit int) {
	cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	limit, err := validators.ParseQueryInt(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		limit = defaultPageLimit
	}
	return cursor, limit
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/localmarkethq/localmarket-backend/api/middleware"
	"github.com/localmarkethq/localmarket-backend/api/responses"
	"github.com/localmarkethq/localmarket-backend/pkg/auth"
	"github.com/localmarkethq/localmarket-backend/pkg/config"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/realtime"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
)

// WebSocket upgrades the connection and services chat events until it closes.
// Browsers cannot set headers on websocket dials, so the token is accepted
// from the `token` query parameter as well as the Authorization header.
func WebSocket(cfg *config.Config, hub *realtime.Hub, handler realtime.EventHandler, logg *logger.Logger) http.HandlerFunc {
	allowed := map[string]struct{}{
		"http://localhost:3000": {},
	}
	if origin := strings.TrimSpace(cfg.HTTP.FrontendOrigin); origin != "" {
		allowed[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			token = middleware.BearerToken(r)
		}
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := auth.ParseAccessToken(cfg.JWT, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			ctx := logg.WithUserID(r.Context(), claims.UserID.String())
			logg.Error(ctx, "websocket.upgrade_failed", err)
			return
		}

		session := realtime.NewSession(hub, conn, handler, logg, claims.UserID, claims.Name, claims.Role)
		session.Run(r.Context())
	}
}

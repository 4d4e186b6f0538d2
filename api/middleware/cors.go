package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/localmarkethq/localmarket-backend/pkg/config"
)

// CORS applies the cross-origin policy for the configured frontend. Local dev
// always stays allowed so the SPA and websocket client work out of the box.
func CORS(cfg config.HTTPConfig) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000"}
	if origin := strings.TrimSpace(cfg.FrontendOrigin); origin != "" && origin != origins[0] {
		origins = append(origins, origin)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

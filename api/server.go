package api

import (
	"net/http"
	"time"

	"github.com/localmarkethq/localmarket-backend/pkg/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// NewServer wraps the handler in an http.Server with sane timeouts. No
// write timeout: invoice downloads and websocket sessions outlive any
// reasonable fixed deadline.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}

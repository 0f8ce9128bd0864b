// Package admin serves the administrative HTTP surface. Every endpoint
// except /health requires an admin bearer token. Reconcile and reset take
// no lock; operators must not run them at the same time.
package admin

import (
	"net/http"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// Handler adapts services.Admin to HTTP.
type Handler struct {
	ops             services.Admin
	logger          logging.Logger
	defaultBaseline int64
}

func NewHandler(ops services.Admin, defaultBaseline int64, logger logging.Logger) *Handler {
	return &Handler{ops: ops, logger: logger, defaultBaseline: defaultBaseline}
}

// Routes mounts the endpoints on a ServeMux and wraps them with request
// IDs, logging and security headers.
func Routes(h *Handler, secret []byte, logger logging.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /reconcile", h.Reconcile)
	protected.HandleFunc("GET /audit", h.Audit)
	protected.HandleFunc("POST /reset-entitlements", h.ResetEntitlements)
	protected.HandleFunc("DELETE /users/{uid}", h.DeleteUser)
	protected.HandleFunc("GET /users/{uid}/entitlement", h.Entitlement)
	protected.HandleFunc("POST /users/{uid}/entitlement/consume", h.Consume)
	mux.Handle("/", RequireToken(secret)(protected))

	return RequestID(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}

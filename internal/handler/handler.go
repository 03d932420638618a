// Package handler implements the order HTTP API.
package handler

import (
	"net/http"

	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/pkg/health"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret []byte
	// Health, when set, serves /livez and /readyz.
	Health *health.Health
}

// Handler routes order API requests to the order service.
type Handler struct {
	orders *order.Service
	mux    *http.ServeMux
}

// NewHandler registers every route on a new ServeMux.
func NewHandler(cfg HandlerConfig, users user.Repository, orders *order.Service) *Handler {
	h := &Handler{orders: orders, mux: http.NewServeMux()}

	authed := func(fn http.HandlerFunc, roles ...user.Role) http.Handler {
		mws := []httpmiddleware.Middleware{Authenticate(cfg.JWTSecret)}
		if len(roles) > 0 {
			mws = append(mws, RequireRole(users, roles...))
		}
		return httpmiddleware.Wrap(fn, mws...)
	}

	h.mux.Handle("POST /orders", authed(h.createOrder))
	h.mux.Handle("GET /orders", authed(h.listOrders, user.RoleAdmin))
	h.mux.Handle("GET /orders/vendor", authed(h.listVendorItems, user.RoleVendor))
	h.mux.Handle("PATCH /orders/{id}/cancel", authed(h.cancelOrder))

	if cfg.Health != nil {
		h.mux.HandleFunc("GET /livez", cfg.Health.LiveEndpoint)
		h.mux.HandleFunc("GET /readyz", cfg.Health.ReadyEndpoint)
	}
	return h
}

// Mux exposes the underlying ServeMux for route lookup.
func (h *Handler) Mux() *http.ServeMux { return h.mux }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

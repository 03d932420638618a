package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

// Success messages of order mutations.
const (
	msgOrderPlaced    = "Order placed successfully."
	msgOrderCancelled = "Order has been cancelled successfully."
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// createOrder converts the caller's cart into an order.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, kindBadRequest, "read body")
		return
	}
	body, err := decodeCreateOrder(data)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, kindBadRequest, "malformed body")
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		UserID:       UserIDFromContext(r.Context()),
		ShipmentID:   body.ShipmentID,
		DiscountCode: body.DiscountCode,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeResult(w, http.StatusCreated, msgOrderPlaced, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

func pageFromQuery(r *http.Request) order.Page {
	q := r.URL.Query()
	return order.NewPage(q.Get("page"), q.Get("limit"))
}

// listOrders returns all orders, newest first.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	res, err := h.orders.ListOrders(r.Context(), pageFromQuery(r))
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, "", func(e *jx.Encoder) {
		encodePaged(e, res, encodeOrder)
	})
}

// listVendorItems returns the order items of the calling vendor.
func (h *Handler) listVendorItems(w http.ResponseWriter, r *http.Request) {
	vendor := UserFromContext(r.Context())
	res, err := h.orders.ListVendorItems(r.Context(), vendor.ID, pageFromQuery(r))
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, "", func(e *jx.Encoder) {
		encodePaged(e, res, encodeItem)
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Cancel(r.Context(), UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeResult(w, http.StatusOK, msgOrderCancelled, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

// Error kinds returned in the "kind" field of error responses.
const (
	kindUnauthorized         = "UNAUTHORIZED"
	kindBadRequest           = "BAD_REQUEST"
	kindShipmentNotFound     = "SHIPMENT_NOT_FOUND"
	kindProductNotFound      = "PRODUCT_NOT_FOUND"
	kindOrderNotFound        = "ORDER_NOT_FOUND"
	kindCartNotFound         = "CART_NOT_FOUND"
	kindCartEmpty            = "CART_IS_EMPTY"
	kindShipmentIDMissing    = "SHIPMENTID_NOT_PROVIDED"
	kindOutOfStock           = "PRODUCT_OUT_OF_STOCK"
	kindInsufficientQuantity = "ITEM_QUANTITY_EXCEEDS_AVAILABLE_QUANTITY"
	kindInvalidQuantity      = "INVALID_QUANTITY"
	kindAlreadyCancelled     = "ORDER_ALREADY_CANCELLED"
	kindInternal             = "INTERNAL_FAILURE"
)

var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{user.ErrUnauthorized, http.StatusUnauthorized, kindUnauthorized},
	{shipment.ErrNotFound, http.StatusNotFound, kindShipmentNotFound},
	{product.ErrNotFound, http.StatusNotFound, kindProductNotFound},
	{order.ErrNotFound, http.StatusNotFound, kindOrderNotFound},
	{cart.ErrNotFound, http.StatusNotFound, kindCartNotFound},
	{cart.ErrEmpty, http.StatusBadRequest, kindCartEmpty},
	{order.ErrShipmentIDMissing, http.StatusBadRequest, kindShipmentIDMissing},
	{product.ErrOutOfStock, http.StatusBadRequest, kindOutOfStock},
	{product.ErrInsufficientQuantity, http.StatusBadRequest, kindInsufficientQuantity},
	{product.ErrInvalidQuantity, http.StatusBadRequest, kindInvalidQuantity},
	{order.ErrAlreadyCancelled, http.StatusBadRequest, kindAlreadyCancelled},
}

// classify maps a domain error to its response status and kind.
func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, kindInternal
}

// renderError writes err as an error response. Internal failures are logged
// and their cause is not exposed.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if kind == kindInternal {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		httpmiddleware.WriteError(w, status, kind, "internal server error")
		return
	}
	httpmiddleware.WriteError(w, status, kind, errorMessage(err))
}

// errorMessage strips the conversion wrapper so clients see the failing step
// rather than the state machine.
func errorMessage(err error) string {
	var ce *order.ConversionError
	if errors.As(err, &ce) {
		return ce.Err.Error()
	}
	return err.Error()
}

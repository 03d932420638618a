package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
)

// DefaultTimeout bounds a single cart-to-order conversion.
const DefaultTimeout = 10 * time.Second

// SnapshotReader reads a user's cart for conversion.
type SnapshotReader interface {
	Snapshot(ctx context.Context, userID string) (*cart.Snapshot, error)
}

// CreateOrderRequest holds the input for converting a cart into an order.
// DiscountCode is stored on the order as given; it is not validated.
type CreateOrderRequest struct {
	UserID       string
	ShipmentID   string
	DiscountCode string
}

// ServiceConfig holds optional Service settings. Zero values select defaults.
type ServiceConfig struct {
	Timeout        time.Duration
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
	Events         Publisher
}

// Service implements order creation, queries and cancellation.
type Service struct {
	users     user.Repository
	shipments shipment.Repository
	carts     SnapshotReader
	tx        Transactor
	orders    Repository
	events    Publisher

	timeout time.Duration
	tracer  trace.Tracer
	created metric.Int64Counter
	aborted metric.Int64Counter

	now   func() time.Time
	newID func() string
}

// NewService creates an order Service with the required dependencies.
func NewService(
	users user.Repository,
	shipments shipment.Repository,
	carts SnapshotReader,
	tx Transactor,
	orders Repository,
	cfg ServiceConfig,
) (*Service, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}

	meter := cfg.MeterProvider.Meter("shop.order")
	created, err := meter.Int64Counter("shop.orders.created",
		metric.WithDescription("Orders created from carts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}
	aborted, err := meter.Int64Counter("shop.orders.aborted",
		metric.WithDescription("Cart-to-order conversions that were aborted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}

	return &Service{
		users:     users,
		shipments: shipments,
		carts:     carts,
		tx:        tx,
		orders:    orders,
		events:    cfg.Events,
		timeout:   cfg.Timeout,
		tracer:    cfg.TracerProvider.Tracer("shop.order"),
		created:   created,
		aborted:   aborted,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// conversion tracks the state of one CreateOrder call.
type conversion struct {
	state State
	lg    *zap.Logger
	span  trace.Span
}

func (c *conversion) advance(next State) {
	c.lg.Debug("Order conversion", zap.Stringer("from", c.state), zap.Stringer("to", next))
	c.span.AddEvent(next.String())
	c.state = next
}

func (c *conversion) abort(err error) error {
	failed := c.state
	c.state = StateAborted
	return &ConversionError{State: failed, Err: err}
}

// CreateOrder converts the user's cart into an order.
//
// Validation happens first and has no side effects. Stock reservation, order
// persistence and cart clearing then run as one unit of work: either the
// order exists with all of its items, stock is decremented and the cart
// items are gone, or none of that happened.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer span.End()

	c := &conversion{
		state: StateValidating,
		lg:    zctx.From(ctx).With(zap.String("user_id", req.UserID)),
		span:  span,
	}

	o, err := s.convert(ctx, c, req)
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			s.aborted.Add(ctx, 1, metric.WithAttributes(
				attribute.String("state", ce.State.String()),
				attribute.String("reason", abortReason(ce.Err)),
			))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion aborted")
		c.lg.Warn("Order conversion aborted", zap.Error(err))
		return nil, err
	}

	s.created.Add(ctx, 1)
	c.lg.Info("Order created",
		zap.String("order_id", o.ID),
		zap.Int("total_products", o.TotalProducts),
	)
	s.publish(ctx, EventCreated, o)
	return o, nil
}

func (s *Service) convert(ctx context.Context, c *conversion, req CreateOrderRequest) (*Order, error) {
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, c.abort(err)
	}
	if req.ShipmentID == "" {
		return nil, c.abort(ErrShipmentIDMissing)
	}
	sh, err := s.shipments.GetByID(ctx, req.ShipmentID)
	if err != nil {
		return nil, c.abort(err)
	}
	// Another user's shipment is reported as missing so its address does not leak.
	if sh.UserID != req.UserID {
		return nil, c.abort(shipment.ErrNotFound)
	}
	snap, err := s.carts.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, c.abort(err)
	}

	lines := make([]cart.Item, 0, snap.Len())
	for _, it := range snap.Items() {
		lines = append(lines, it)
	}

	now := s.now()
	o := &Order{
		ID:            s.newID(),
		UserID:        req.UserID,
		Name:          sh.FullName,
		Address:       sh.Address,
		PhoneNumber:   sh.PhoneNumber,
		TotalPrice:    snap.Cart.TotalPrice,
		TotalProducts: snap.Quantity(),
		Status:        StatusActive,
		DiscountCode:  req.DiscountCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var items []Item
	err = s.tx.InTx(ctx, func(ctx context.Context, tx Tx) error {
		items = items[:0]

		c.advance(StateReserving)
		for _, it := range lines {
			if _, err := tx.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
				return errors.Wrapf(err, "reserve product %s", it.ProductID)
			}
		}

		c.advance(StatePersisting)
		if err := tx.CreateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "create order header")
		}
		for _, it := range lines {
			oi := Item{
				ID:        s.newID(),
				OrderID:   o.ID,
				ProductID: it.ProductID,
				VendorID:  it.VendorID,
				Price:     it.Price,
				Quantity:  it.Quantity,
				CreatedAt: now,
			}
			if err := tx.CreateItem(ctx, &oi); err != nil {
				return errors.Wrapf(err, "create order item for cart item %s", it.ID)
			}
			items = append(items, oi)
		}

		c.advance(StateClearing)
		for _, it := range lines {
			if err := tx.DeleteCartItem(ctx, it.ID); err != nil {
				return errors.Wrapf(err, "delete cart item %s", it.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, c.abort(err)
	}

	c.advance(StateCommitted)
	o.Items = items
	return o, nil
}

// publish emits an event for a committed change. Delivery failures are
// logged; the change itself stands.
func (s *Service) publish(ctx context.Context, typ EventType, o *Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, Event{Type: typ, Order: o, OccurredAt: s.now()}); err != nil {
		zctx.From(ctx).Warn("Publish order event",
			zap.String("type", string(typ)),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, user.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrShipmentIDMissing):
		return "shipment_id_missing"
	case errors.Is(err, shipment.ErrNotFound):
		return "shipment_not_found"
	case errors.Is(err, cart.ErrEmpty):
		return "cart_empty"
	case errors.Is(err, product.ErrNotFound):
		return "product_not_found"
	case errors.Is(err, product.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, product.ErrInsufficientQuantity):
		return "insufficient_quantity"
	case errors.Is(err, product.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}

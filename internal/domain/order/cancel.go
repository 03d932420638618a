package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/user"
)

// Cancel moves an active order to cancelled. Only the order owner or an
// admin may cancel it. Reserved stock is not released.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*Order, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != u.ID && !u.HasRole(user.RoleAdmin) {
		return nil, user.ErrUnauthorized
	}
	if o.Status != StatusActive {
		return nil, ErrAlreadyCancelled
	}

	cancelled, err := s.orders.Cancel(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrAlreadyCancelled) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "cancel order")
	}

	zctx.From(ctx).Info("Order cancelled",
		zap.String("order_id", orderID),
		zap.String("user_id", userID),
	)
	s.publish(ctx, EventCancelled, cancelled)
	return cancelled, nil
}

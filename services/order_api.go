package services

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
)

// DeleteItemResult is returned by DeleteOrderItem. OrderCancelled is set
// when the backend cancelled the order because its last item was removed.
type DeleteItemResult struct {
	Order          *models.Order `json:"order"`
	OrderCancelled bool          `json:"order_cancelled"`
}

// StatusUpdateResult is returned by UpdateOrderStatus. AlreadyInStatus is
// set when the order was already in the requested status.
type StatusUpdateResult struct {
	Order           *models.Order `json:"order"`
	AlreadyInStatus bool          `json:"already_in_status"`
}

// OrderAPI is the remote order-management backend.
type OrderAPI interface {
	CreateOrder(ctx context.Context, tableID uint) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uint) (*models.Order, error)
	AddOrderItem(ctx context.Context, orderID uint, req models.OrderItemRequest) (*models.Order, error)
	UpdateOrderItem(ctx context.Context, orderID, itemID uint, req models.OrderItemRequest) (*models.Order, error)
	DeleteOrderItem(ctx context.Context, orderID, itemID uint) (*DeleteItemResult, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*StatusUpdateResult, error)
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error)
}

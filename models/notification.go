package models

import (
	"time"
)

const (
	NotificationOrderUpdated   = "order_update"
	NotificationOrderCancelled = "order_cancelled"
	NotificationKitchenTicket  = "kitchen_ticket"
	NotificationPaymentSuccess = "payment_success"
	NotificationPrintFailed    = "print_failed"
)

// Notification is a user-facing message about an order.
type Notification struct {
	Event     string    `json:"event"`
	OrderID   uint      `json:"order_id"`
	TableID   uint      `json:"table_id,omitempty"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

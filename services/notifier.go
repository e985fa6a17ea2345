package services

import (
	"time"

	"github.com/yeremiapane/cafe-pos/models"
)

// Notifier delivers user-facing notifications (toasts on the cashier
// screen, the kitchen display).
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(models.Notification) {}

func notification(event string, order *models.Order, message string, now time.Time) models.Notification {
	n := models.Notification{Event: event, Message: message, CreatedAt: now}
	if order != nil {
		n.OrderID = order.ID
		n.TableID = order.TableID
		n.Data = order
	}
	return n
}

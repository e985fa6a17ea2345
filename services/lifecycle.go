package services

import (
	"time"

	"github.com/yeremiapane/cafe-pos/models"
)

// Outcome describes what a lifecycle step did to the order beyond the
// requested change.
type Outcome struct {
	AutoCancelled   bool
	TableCleared    bool
	AlreadyInStatus bool
}

// Lifecycle is the order state machine:
//
//	ordering -> ordering   (item add/update/remove, items remain)
//	ordering -> cancelled  (last item removed, or explicit cancel)
//	ordering -> paid       (checkout)
//
// paid and cancelled are terminal. It works on plain values and never
// talks to the network.
type Lifecycle struct{}

// EnsureMutable rejects any mutation of a terminal order.
func (Lifecycle) EnsureMutable(order *models.Order) error {
	if order == nil {
		return nil
	}
	if order.IsTerminal() {
		return NewStateError("order.mutate", ErrMsgOrderTerminal, order.ID, order.Status)
	}
	return nil
}

// AfterItemRemoved cancels an ordering order that has no items left.
// Auto-cancellation is a normal outcome, not an error.
func (Lifecycle) AfterItemRemoved(order *models.Order) Outcome {
	if order == nil || order.Status != models.OrderStatusOrdering || len(order.Items) > 0 {
		return Outcome{}
	}
	order.Status = models.OrderStatusCancelled
	order.TotalAmount = 0
	return Outcome{AutoCancelled: true, TableCleared: true}
}

// RequestStatus validates a status change. Asking for the status the
// order already has succeeds with AlreadyInStatus set. An ordering order
// only becomes paid once a payment has been recorded for it.
func (l Lifecycle) RequestStatus(order *models.Order, target models.OrderStatus) (Outcome, error) {
	if !target.Valid() {
		return Outcome{}, NewValidationError("order.status", ErrMsgInvalidStatus, target)
	}
	if order.Status == target {
		return Outcome{AlreadyInStatus: true}, nil
	}
	if order.IsTerminal() || target == models.OrderStatusOrdering {
		return Outcome{}, NewStateError("order.status", ErrMsgInvalidTransition, order.ID, order.Status, target)
	}
	// paid hanya lewat pembayaran: tanpa metode bayar tercatat tidak ada
	// harga final yang bisa disimpan
	if target == models.OrderStatusPaid && order.PaymentMethod == nil {
		return Outcome{}, NewStateError("order.status", ErrMsgPaymentRequired, order.ID)
	}
	return Outcome{TableCleared: true}, nil
}

// ApplyStatus moves the order to target after RequestStatus allowed it.
func (l Lifecycle) ApplyStatus(order *models.Order, target models.OrderStatus) (Outcome, error) {
	outcome, err := l.RequestStatus(order, target)
	if err != nil || outcome.AlreadyInStatus {
		return outcome, err
	}
	order.Status = target
	return outcome, nil
}

// MarkPaid stores the final pricing and payment metadata at the moment
// of transition. Zero-percent discounts are stored as no discount.
func (l Lifecycle) MarkPaid(order *models.Order, price PriceBreakdown, method models.PaymentMethod, paidAt time.Time) (Outcome, error) {
	if order.Status == models.OrderStatusPaid {
		return Outcome{AlreadyInStatus: true}, nil
	}
	if err := l.EnsureMutable(order); err != nil {
		return Outcome{}, err
	}
	if len(order.Items) == 0 {
		return Outcome{}, NewValidationError("order.pay", ErrMsgCartEmpty)
	}
	if !method.Valid() {
		return Outcome{}, NewValidationError("order.pay", ErrMsgPaymentMethod, method)
	}

	order.Status = models.OrderStatusPaid
	order.PaymentMethod = &method
	paid := paidAt
	order.PaymentDate = &paid

	if price.HasDiscount() {
		pct := price.DiscountPercentage
		original := price.OriginalAmount
		discount := price.DiscountAmount
		order.DiscountPercentage = &pct
		order.OriginalAmount = &original
		order.DiscountAmount = &discount
	} else {
		order.DiscountPercentage = nil
		order.OriginalAmount = nil
		order.DiscountAmount = nil
	}
	order.TotalAmount = price.FinalAmount

	return Outcome{TableCleared: true}, nil
}

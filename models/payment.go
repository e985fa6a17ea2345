package models

import (
	"time"
)

// Payment represents a payment recorded by the order API
type Payment struct {
	ID                 uint          `json:"id"`
	OrderID            uint          `json:"order_id"`
	PaymentType        PaymentMethod `json:"payment_type"`
	DiscountPercentage *float64      `json:"discount_percentage,omitempty"`
	Amount             Money         `json:"amount"`
	PaymentTime        *time.Time    `json:"payment_time,omitempty"`
}

// PaymentRequest is sent to createPayment. DiscountPercentage is
// omitted when there is no discount.
type PaymentRequest struct {
	OrderID            uint          `json:"order_id"`
	PaymentType        PaymentMethod `json:"payment_type"`
	DiscountPercentage *float64      `json:"discount_percentage,omitempty"`
}

package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusOrdering  OrderStatus = "ordering"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOrdering, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodBanking PaymentMethod = "banking"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBanking:
		return true
	}
	return false
}

// Label adalah nama metode pembayaran yang dicetak di struk
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentMethodCash:
		return "Tiền mặt"
	case PaymentMethodCard:
		return "Thẻ"
	case PaymentMethodBanking:
		return "Chuyển khoản"
	}
	return string(p)
}

type Order struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	TableID            uint           `gorm:"index" json:"table_id"`
	TableName          string         `gorm:"type:varchar(50)" json:"table_name"`
	Items              []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount        Money          `gorm:"not null;default:0" json:"total_amount"`
	Status             OrderStatus    `gorm:"type:varchar(20);not null;default:'ordering'" json:"status"`
	OrderDate          time.Time      `json:"order_date"`
	PaymentDate        *time.Time     `json:"payment_date,omitempty"`
	PaymentMethod      *PaymentMethod `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	DiscountPercentage *float64       `json:"discount_percentage,omitempty"`
	DiscountAmount     *Money         `json:"discount_amount,omitempty"`
	OriginalAmount     *Money         `json:"original_amount,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// ItemsSubtotal menjumlahkan subtotal semua item
func (o *Order) ItemsSubtotal() Money {
	var total Money
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// HasDiscount is true only for a stored percentage above zero; an
// absent field and 0% are the same thing.
func (o *Order) HasDiscount() bool {
	return o.DiscountPercentage != nil && *o.DiscountPercentage > 0
}

// ExpectedTotal is what TotalAmount must equal for a consistent order.
func (o *Order) ExpectedTotal() Money {
	if o.HasDiscount() && o.OriginalAmount != nil && o.DiscountAmount != nil {
		return o.OriginalAmount.Sub(*o.DiscountAmount).ClampZero()
	}
	return o.ItemsSubtotal()
}

// FindItemByProduct returns the order row holding productID.
func (o *Order) FindItemByProduct(productID uint) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return OrderItem{}, false
}

func (o *Order) Label() string {
	if o.TableName != "" {
		return fmt.Sprintf("#%d (%s)", o.ID, o.TableName)
	}
	return fmt.Sprintf("#%d", o.ID)
}

// Clone returns a deep copy so callers can mutate freely.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.PaymentDate != nil {
		t := *o.PaymentDate
		c.PaymentDate = &t
	}
	if o.PaymentMethod != nil {
		m := *o.PaymentMethod
		c.PaymentMethod = &m
	}
	if o.DiscountPercentage != nil {
		p := *o.DiscountPercentage
		c.DiscountPercentage = &p
	}
	if o.DiscountAmount != nil {
		d := *o.DiscountAmount
		c.DiscountAmount = &d
	}
	if o.OriginalAmount != nil {
		a := *o.OriginalAmount
		c.OriginalAmount = &a
	}
	return &c
}

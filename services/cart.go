package services

import (
	"unicode/utf8"

	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/models"
)

// DefaultCartLimits match the limits the front end enforces.
var DefaultCartLimits = config.CartLimits{
	MaxQuantityPerItem: 100,
	MaxItems:           50,
	MaxNoteLength:      500,
}

// ProductCatalog resolves product ids to current catalog entries.
type ProductCatalog interface {
	Lookup(productID uint) (models.Product, bool)
}

// MapCatalog is a ProductCatalog backed by a plain map.
type MapCatalog map[uint]models.Product

func (m MapCatalog) Lookup(productID uint) (models.Product, bool) {
	p, ok := m[productID]
	return p, ok
}

// Cart is the staging list of line items for one session. It is not
// safe for concurrent use; the owning Session serializes access.
type Cart struct {
	limits config.CartLimits
	items  []models.OrderItem
}

func NewCart(limits config.CartLimits) *Cart {
	if limits.MaxQuantityPerItem <= 0 {
		limits.MaxQuantityPerItem = DefaultCartLimits.MaxQuantityPerItem
	}
	if limits.MaxItems <= 0 {
		limits.MaxItems = DefaultCartLimits.MaxItems
	}
	if limits.MaxNoteLength <= 0 {
		limits.MaxNoteLength = DefaultCartLimits.MaxNoteLength
	}
	return &Cart{limits: limits}
}

func (c *Cart) Limits() config.CartLimits { return c.limits }

func (c *Cart) indexOf(productID uint) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// CheckAdd reports whether AddItem(product) would succeed, without
// changing the cart.
func (c *Cart) CheckAdd(product models.Product) error {
	if product.Price < 0 {
		return NewValidationError("cart.add", ErrMsgInvalidPrice, product.ID)
	}
	if i := c.indexOf(product.ID); i >= 0 {
		next := c.items[i].Quantity + 1
		if next > c.limits.MaxQuantityPerItem {
			return NewValidationError("cart.add", ErrMsgQuantityTooLarge, next, c.limits.MaxQuantityPerItem)
		}
		return nil
	}
	if len(c.items) >= c.limits.MaxItems {
		return NewValidationError("cart.add", ErrMsgCartFull, c.limits.MaxItems)
	}
	return nil
}

// AddItem increments an existing row or appends a new one with quantity 1.
func (c *Cart) AddItem(product models.Product) error {
	if err := c.CheckAdd(product); err != nil {
		return err
	}
	if i := c.indexOf(product.ID); i >= 0 {
		c.items[i].Quantity++
		return nil
	}
	c.items = append(c.items, models.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    1,
	})
	return nil
}

// CheckQuantity validates a quantity update. Zero or less is a removal
// and always allowed.
func (c *Cart) CheckQuantity(productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	if c.indexOf(productID) < 0 {
		return NewNotFoundError("cart.update_quantity", ErrMsgProductNotInCart, productID)
	}
	if quantity > c.limits.MaxQuantityPerItem {
		return NewValidationError("cart.update_quantity", ErrMsgQuantityTooLarge, quantity, c.limits.MaxQuantityPerItem)
	}
	return nil
}

// UpdateQuantity sets the quantity of a row; quantity <= 0 removes it.
func (c *Cart) UpdateQuantity(productID uint, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	if err := c.CheckQuantity(productID, quantity); err != nil {
		return err
	}
	c.items[c.indexOf(productID)].Quantity = quantity
	return nil
}

// RemoveItem drops a row; unknown products are ignored.
func (c *Cart) RemoveItem(productID uint) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *Cart) CheckNotes(productID uint, notes string) error {
	if n := utf8.RuneCountInString(notes); n > c.limits.MaxNoteLength {
		return NewValidationError("cart.update_notes", ErrMsgNotesTooLong, n, c.limits.MaxNoteLength)
	}
	if c.indexOf(productID) < 0 {
		return NewNotFoundError("cart.update_notes", ErrMsgProductNotInCart, productID)
	}
	return nil
}

// UpdateNotes attaches free text to a row. Notes never change pricing.
func (c *Cart) UpdateNotes(productID uint, notes string) error {
	if err := c.CheckNotes(productID, notes); err != nil {
		return err
	}
	c.items[c.indexOf(productID)].Notes = notes
	return nil
}

// Total is recomputed on every call.
func (c *Cart) Total() models.Money {
	var total models.Money
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// LoadFromOrder replaces the cart with the rows of a persisted order.
// Names are refreshed from the catalog when the product still exists;
// prices stay as stored on the order.
func (c *Cart) LoadFromOrder(items []models.OrderItem, catalog ProductCatalog) {
	c.items = c.items[:0]
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		name := item.ProductName
		if catalog != nil {
			if p, ok := catalog.Lookup(item.ProductID); ok && p.Name != "" {
				name = p.Name
			}
		}
		if i := c.indexOf(item.ProductID); i >= 0 {
			c.items[i].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, models.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: name,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Notes:       item.Notes,
		})
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the rows in insertion order.
func (c *Cart) Items() []models.OrderItem {
	return append([]models.OrderItem(nil), c.items...)
}

func (c *Cart) Get(productID uint) (models.OrderItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.items[i], true
	}
	return models.OrderItem{}, false
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

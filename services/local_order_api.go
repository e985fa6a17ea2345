package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalOrderAPI implements OrderAPI on the local database. It is used
// when no remote backend is configured and it is what the /api routes
// serve, so other terminals can share one till.
type LocalOrderAPI struct {
	db        *gorm.DB
	lifecycle Lifecycle
	now       func() time.Time
}

func NewLocalOrderAPI(db *gorm.DB) *LocalOrderAPI {
	return &LocalOrderAPI{db: db, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (a *LocalOrderAPI) WithClock(now func() time.Time) *LocalOrderAPI {
	a.now = now
	return a
}

func mapDBError(op string, err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(op, format, args...)
	}
	var posErr *Error
	if errors.As(err, &posErr) {
		return err
	}
	return &Error{Kind: KindNetwork, Op: op, Message: "order store failed", Err: err}
}

func (a *LocalOrderAPI) loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).First(&order, orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *LocalOrderAPI) saveOrder(tx *gorm.DB, order *models.Order) error {
	order.UpdatedAt = a.now()
	return tx.Omit(clause.Associations).Save(order).Error
}

func (a *LocalOrderAPI) setTableStatus(tx *gorm.DB, tableID uint, status string) error {
	return tx.Model(&models.Table{}).Where("id = ?", tableID).Update("status", status).Error
}

// CreateOrder opens an order for the table, or returns the table's open
// order if there already is one.
func (a *LocalOrderAPI) CreateOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	var result *models.Order
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			return err
		}

		var open models.Order
		err := tx.Where("table_id = ? AND status = ?", tableID, models.OrderStatusOrdering).First(&open).Error
		if err == nil {
			loaded, err := a.loadOrder(tx, open.ID)
			result = loaded
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := a.now()
		order := models.Order{
			TableID:   table.ID,
			TableName: table.Name,
			Status:    models.OrderStatusOrdering,
			OrderDate: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := a.setTableStatus(tx, table.ID, models.TableStatusOccupied); err != nil {
			return err
		}
		result = &order
		return nil
	})
	if err != nil {
		return nil, mapDBError("create_order", err, "table %d not found", tableID)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"order_id": result.ID, "table_id": tableID}).Info("order opened")
	return result, nil
}

func (a *LocalOrderAPI) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := a.loadOrder(a.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, mapDBError("get_order", err, "order %d not found", orderID)
	}
	return order, nil
}

// AddOrderItem adds quantity of a product, merging into the existing row
// for that product.
func (a *LocalOrderAPI) AddOrderItem(ctx context.Context, orderID uint, req models.OrderItemRequest) (*models.Order, error) {
	if req.Quantity <= 0 {
		return nil, NewValidationError("add_order_item", "quantity must be at least 1")
	}

	var result *models.Order
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := a.loadOrder(tx, orderID)
		if err != nil {
			return NewNotFoundError("add_order_item", "order %d not found", orderID)
		}
		if err := a.lifecycle.EnsureMutable(order); err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, req.ProductID).Error; err != nil {
			return NewNotFoundError("add_order_item", "product %d not found", req.ProductID)
		}
		if !product.Available {
			return NewValidationError("add_order_item", "product %d is not available", product.ID)
		}

		if existing, ok := order.FindItemByProduct(product.ID); ok {
			updates := map[string]any{"quantity": existing.Quantity + req.Quantity}
			if req.Notes != "" {
				updates["notes"] = req.Notes
			}
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return err
			}
		} else {
			item := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    req.Quantity,
				Notes:       req.Notes,
				CreatedAt:   a.now(),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		result, err = a.refreshTotal(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, mapDBError("add_order_item", err, "order %d not found", orderID)
	}
	return result, nil
}

func (a *LocalOrderAPI) UpdateOrderItem(ctx context.Context, orderID, itemID uint, req models.OrderItemRequest) (*models.Order, error) {
	if req.Quantity <= 0 {
		return nil, NewValidationError("update_order_item", "quantity must be at least 1; delete the item instead")
	}

	var result *models.Order
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := a.loadOrder(tx, orderID)
		if err != nil {
			return NewNotFoundError("update_order_item", "order %d not found", orderID)
		}
		if err := a.lifecycle.EnsureMutable(order); err != nil {
			return err
		}

		res := tx.Model(&models.OrderItem{}).
			Where("id = ? AND order_id = ?", itemID, orderID).
			Updates(map[string]any{"quantity": req.Quantity, "notes": req.Notes})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewNotFoundError("update_order_item", "item %d not found on order %d", itemID, orderID)
		}

		result, err = a.refreshTotal(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, mapDBError("update_order_item", err, "order %d not found", orderID)
	}
	return result, nil
}

// DeleteOrderItem removes a row. Removing the last row cancels the order
// and frees its table.
func (a *LocalOrderAPI) DeleteOrderItem(ctx context.Context, orderID, itemID uint) (*DeleteItemResult, error) {
	var result DeleteItemResult
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := a.loadOrder(tx, orderID)
		if err != nil {
			return NewNotFoundError("delete_order_item", "order %d not found", orderID)
		}
		if err := a.lifecycle.EnsureMutable(order); err != nil {
			return err
		}

		res := tx.Where("id = ? AND order_id = ?", itemID, orderID).Delete(&models.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewNotFoundError("delete_order_item", "item %d not found on order %d", itemID, orderID)
		}

		order, err = a.refreshTotal(tx, order.ID)
		if err != nil {
			return err
		}

		outcome := a.lifecycle.AfterItemRemoved(order)
		if outcome.AutoCancelled {
			if err := a.saveOrder(tx, order); err != nil {
				return err
			}
			if err := a.setTableStatus(tx, order.TableID, models.TableStatusAvailable); err != nil {
				return err
			}
		}
		result = DeleteItemResult{Order: order, OrderCancelled: outcome.AutoCancelled}
		return nil
	})
	if err != nil {
		return nil, mapDBError("delete_order_item", err, "order %d not found", orderID)
	}

	if result.OrderCancelled {
		utils.InfoLogger.WithField("order_id", orderID).Info("last item removed, order cancelled")
	}
	return &result, nil
}

func (a *LocalOrderAPI) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*StatusUpdateResult, error) {
	var result StatusUpdateResult
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := a.loadOrder(tx, orderID)
		if err != nil {
			return NewNotFoundError("update_order_status", "order %d not found", orderID)
		}

		outcome, err := a.lifecycle.ApplyStatus(order, status)
		if err != nil {
			return err
		}
		if !outcome.AlreadyInStatus {
			if status == models.OrderStatusPaid && order.PaymentDate == nil {
				now := a.now()
				order.PaymentDate = &now
			}
			if err := a.saveOrder(tx, order); err != nil {
				return err
			}
			if err := a.setTableStatus(tx, order.TableID, models.TableStatusAvailable); err != nil {
				return err
			}
		}
		result = StatusUpdateResult{Order: order, AlreadyInStatus: outcome.AlreadyInStatus}
		return nil
	})
	if err != nil {
		return nil, mapDBError("update_order_status", err, "order %d not found", orderID)
	}
	return &result, nil
}

// CreatePayment prices the order, records the payment and marks the
// order paid in one transaction.
func (a *LocalOrderAPI) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	if !req.PaymentType.Valid() {
		return nil, NewValidationError("create_payment", ErrMsgPaymentMethod, req.PaymentType)
	}
	pct := 0.0
	if req.DiscountPercentage != nil {
		if err := ValidateDiscountInput(*req.DiscountPercentage); err != nil {
			return nil, err
		}
		pct = *req.DiscountPercentage
	}

	var payment models.Payment
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := a.loadOrder(tx, req.OrderID)
		if err != nil {
			return NewNotFoundError("create_payment", "order %d not found", req.OrderID)
		}

		now := a.now()
		price := ApplyDiscount(order.ItemsSubtotal(), pct)
		if _, err := a.lifecycle.MarkPaid(order, price, req.PaymentType, now); err != nil {
			return err
		}
		if err := a.saveOrder(tx, order); err != nil {
			return err
		}
		if err := a.setTableStatus(tx, order.TableID, models.TableStatusAvailable); err != nil {
			return err
		}

		payment = models.Payment{
			OrderID:     order.ID,
			PaymentType: req.PaymentType,
			Amount:      price.FinalAmount,
			PaymentTime: &now,
		}
		if price.HasDiscount() {
			payment.DiscountPercentage = &price.DiscountPercentage
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, mapDBError("create_payment", err, "order %d not found", req.OrderID)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": req.OrderID,
		"method":   req.PaymentType,
		"amount":   payment.Amount.String(),
	}).Info("payment recorded")
	return &payment, nil
}

func (a *LocalOrderAPI) refreshTotal(tx *gorm.DB, orderID uint) (*models.Order, error) {
	order, err := a.loadOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	order.TotalAmount = order.ExpectedTotal()
	if err := a.saveOrder(tx, order); err != nil {
		return nil, err
	}
	return order, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
)

// ProductSource is the part of the catalog the order flow needs.
type ProductSource interface {
	ProductCatalog
	GetProduct(ctx context.Context, id uint) (models.Product, error)
}

// TableDirectory is the part of the floor plan the order flow needs.
type TableDirectory interface {
	Get(ctx context.Context, id uint) (models.Table, error)
	Occupy(ctx context.Context, id uint) error
	Free(ctx context.Context, id uint) error
}

// DocumentDispatcher sends rendered documents to the printer.
type DocumentDispatcher interface {
	Dispatch(ctx context.Context, orderID uint, doc models.PrintableDocument) (*models.PrintJob, error)
}

type OrderServiceDeps struct {
	API        OrderAPI
	Catalog    ProductSource
	Tables     TableDirectory
	Notifier   Notifier
	Dispatcher DocumentDispatcher
	Renderer   *ReceiptRenderer
	Sequencer  *OrderSequencer
}

// OrderService drives a session's order through the remote API. Local
// checks run first so that obviously invalid requests never reach the
// network; the API response is then adopted as the session state.
type OrderService struct {
	api        OrderAPI
	catalog    ProductSource
	tables     TableDirectory
	notifier   Notifier
	dispatcher DocumentDispatcher
	renderer   *ReceiptRenderer
	seq        *OrderSequencer
	lifecycle  Lifecycle
	now        func() time.Time
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	svc := &OrderService{
		api:        deps.API,
		catalog:    deps.Catalog,
		tables:     deps.Tables,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		renderer:   deps.Renderer,
		seq:        deps.Sequencer,
		now:        time.Now,
	}
	if svc.notifier == nil {
		svc.notifier = nopNotifier{}
	}
	if svc.seq == nil {
		svc.seq = NewOrderSequencer()
	}
	if svc.renderer == nil {
		svc.renderer = NewReceiptRenderer("", "", models.DocumentLayout{})
	}
	return svc
}

// WithClock replaces the time source, for tests.
func (svc *OrderService) WithClock(now func() time.Time) *OrderService {
	svc.now = now
	svc.renderer.Now = now
	return svc
}

// RemoveResult reports what removing an item did to the order.
type RemoveResult struct {
	Order          *models.Order `json:"order"`
	OrderCancelled bool          `json:"order_cancelled"`
	Session        SessionView   `json:"session"`
}

type CheckoutRequest struct {
	Method             models.PaymentMethod `json:"payment_method"`
	DiscountPercentage float64              `json:"discount_percentage"`
	Copies             int                  `json:"copies"`
}

// CheckoutResult is returned once the order is paid. PrintError is set
// when the receipt could not be printed; the payment stands regardless.
type CheckoutResult struct {
	Order      *models.Order    `json:"order"`
	Payment    *models.Payment  `json:"payment"`
	Price      PriceBreakdown   `json:"price"`
	PrintJob   *models.PrintJob `json:"print_job,omitempty"`
	PrintError string           `json:"print_error,omitempty"`
}

func (svc *OrderService) notify(event string, order *models.Order, format string, args ...any) {
	svc.notifier.Notify(notification(event, order, fmt.Sprintf(format, args...), svc.now()))
}

func (svc *OrderService) freeTable(ctx context.Context, tableID uint) {
	if tableID == 0 {
		return
	}
	if err := svc.tables.Free(ctx, tableID); err != nil {
		utils.ErrorLogger.WithField("table_id", tableID).Warnf("free table: %v", err)
	}
}

// submit runs call in the order's queue and adopts its result into the
// session when the session has not moved on in the meantime.
func (svc *OrderService) submit(ctx context.Context, s *Session, generation uint64, orderID uint, op string, call func(ctx context.Context) (*models.Order, error)) (*models.Order, error) {
	var result *models.Order
	err := svc.seq.Submit(ctx, orderID, func(ctx context.Context) error {
		order, err := call(ctx)
		if err != nil {
			return err
		}
		result = order
		if s != nil && !s.ApplyServerOrder(generation, order, svc.catalog) {
			utils.InfoLogger.WithFields(logrus.Fields{
				"session_id": s.ID,
				"order_id":   orderID,
				"op":         op,
			}).Info("discarding stale order response")
		}
		return nil
	})
	return result, err
}

// SelectTable points the session at a table. The cart is cleared; when
// orderID is not zero that order is loaded and mirrored into the cart.
func (svc *OrderService) SelectTable(ctx context.Context, s *Session, tableID, orderID uint) (SessionView, error) {
	table, err := svc.tables.Get(ctx, tableID)
	if err != nil {
		return SessionView{}, err
	}

	generation := s.switchTable(table)
	if orderID == 0 {
		return s.View(), nil
	}

	err = svc.seq.Submit(ctx, orderID, func(ctx context.Context) error {
		order, err := svc.api.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.TableID != tableID {
			return NewValidationError("select_table", ErrMsgWrongTable, order.ID, order.TableID, tableID)
		}
		if err := svc.lifecycle.EnsureMutable(order); err != nil {
			return err
		}
		if !s.ApplyServerOrder(generation, order, svc.catalog) {
			return NewStateError("select_table", ErrMsgSessionChanged)
		}
		return nil
	})
	if err != nil {
		return s.View(), err
	}
	return s.View(), nil
}

// ensureOrder returns the session's open order, creating it on the
// first item. created reports whether this call opened the order.
func (svc *OrderService) ensureOrder(ctx context.Context, s *Session) (orderID uint, generation uint64, created bool, err error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	generation, orderID = s.Generation()
	if orderID != 0 {
		return orderID, generation, false, nil
	}

	var tableID uint
	err = s.inspect(func(table *models.Table, _ *models.Order, _ *Cart) error {
		if table == nil {
			return NewValidationError("create_order", ErrMsgNoTable)
		}
		tableID = table.ID
		return nil
	})
	if err != nil {
		return 0, 0, false, err
	}

	order, err := svc.api.CreateOrder(ctx, tableID)
	if err != nil {
		return 0, 0, false, err
	}
	if !s.ApplyServerOrder(generation, order, svc.catalog) {
		return 0, 0, false, NewStateError("create_order", ErrMsgSessionChanged)
	}
	if err := svc.tables.Occupy(ctx, tableID); err != nil {
		utils.ErrorLogger.WithField("table_id", tableID).Warnf("occupy table: %v", err)
	}
	return order.ID, generation, true, nil
}

// abandonEmptyOrder undoes an order opened for a first item that never
// made it in. If the item did land despite the error the order is
// adopted instead; otherwise it is cancelled and the table freed. When
// the cancel itself fails the session keeps the order so the next add
// or an explicit cancel can finish it.
func (svc *OrderService) abandonEmptyOrder(ctx context.Context, s *Session, generation uint64, orderID uint) {
	ctx = context.WithoutCancel(ctx)
	log := utils.ErrorLogger.WithField("order_id", orderID)

	var cancelled *models.Order
	err := svc.seq.Submit(ctx, orderID, func(ctx context.Context) error {
		if order, err := svc.api.GetOrder(ctx, orderID); err == nil && len(order.Items) > 0 {
			s.ApplyServerOrder(generation, order, svc.catalog)
			return nil
		}
		res, err := svc.api.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled)
		if err != nil {
			return err
		}
		cancelled = res.Order
		s.ApplyServerOrder(generation, res.Order, svc.catalog)
		return nil
	})
	if err != nil {
		log.Warnf("cancel empty order: %v", err)
		return
	}
	if cancelled != nil {
		svc.freeTable(ctx, cancelled.TableID)
		log.Info("first item failed, empty order cancelled")
	}
}

// AddItem adds one unit of a product, opening the order on the first
// item.
func (svc *OrderService) AddItem(ctx context.Context, s *Session, productID uint) (SessionView, error) {
	product, err := svc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return SessionView{}, err
	}
	if !product.Available {
		return SessionView{}, NewValidationError("add_item", "product %d is not available", product.ID)
	}

	err = s.inspect(func(table *models.Table, order *models.Order, cart *Cart) error {
		if table == nil {
			return NewValidationError("add_item", ErrMsgNoTable)
		}
		if err := svc.lifecycle.EnsureMutable(order); err != nil {
			return err
		}
		return cart.CheckAdd(product)
	})
	if err != nil {
		return SessionView{}, err
	}

	orderID, generation, created, err := svc.ensureOrder(ctx, s)
	if err != nil {
		return SessionView{}, err
	}

	order, err := svc.submit(ctx, s, generation, orderID, "add_item", func(ctx context.Context) (*models.Order, error) {
		return svc.api.AddOrderItem(ctx, orderID, models.OrderItemRequest{ProductID: product.ID, Quantity: 1})
	})
	if err != nil {
		if created {
			svc.abandonEmptyOrder(ctx, s, generation, orderID)
		}
		return s.View(), err
	}

	svc.notify(models.NotificationOrderUpdated, order, "Đã thêm %s vào đơn #%d", product.Name, order.ID)
	return s.View(), nil
}

// prepareRow checks that the session holds a mutable order with a synced
// row for productID and returns that row, a copy of the order and the
// generation the request is issued against.
func (svc *OrderService) prepareRow(s *Session, op string, productID uint, check func(cart *Cart) error) (models.OrderItem, *models.Order, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.order == nil {
		return models.OrderItem{}, nil, 0, NewValidationError(op, ErrMsgNoOrder)
	}
	if err := svc.lifecycle.EnsureMutable(s.order); err != nil {
		return models.OrderItem{}, nil, 0, err
	}
	if check != nil {
		if err := check(s.cart); err != nil {
			return models.OrderItem{}, nil, 0, err
		}
	}
	row, ok := s.order.FindItemByProduct(productID)
	if !ok || row.ID == 0 {
		return models.OrderItem{}, nil, 0, NewNotFoundError(op, ErrMsgProductNotInCart, productID)
	}
	return row, s.order.Clone(), s.generation, nil
}

// UpdateQuantity sets the quantity of a product on the order. A quantity
// of zero or less removes the row.
func (svc *OrderService) UpdateQuantity(ctx context.Context, s *Session, productID uint, quantity int) (RemoveResult, error) {
	if quantity <= 0 {
		return svc.RemoveItem(ctx, s, productID)
	}

	row, current, generation, err := svc.prepareRow(s, "update_quantity", productID, func(cart *Cart) error {
		return cart.CheckQuantity(productID, quantity)
	})
	if err != nil {
		return RemoveResult{}, err
	}
	orderID := current.ID

	order, err := svc.submit(ctx, s, generation, orderID, "update_quantity", func(ctx context.Context) (*models.Order, error) {
		return svc.api.UpdateOrderItem(ctx, orderID, row.ID, models.OrderItemRequest{Quantity: quantity, Notes: row.Notes})
	})
	if err != nil {
		return RemoveResult{Session: s.View()}, err
	}

	svc.notify(models.NotificationOrderUpdated, order, "Đơn #%d: %s x%d", order.ID, row.ProductName, quantity)
	return RemoveResult{Order: order, Session: s.View()}, nil
}

// UpdateNotes changes the free-text note of a product row.
func (svc *OrderService) UpdateNotes(ctx context.Context, s *Session, productID uint, notes string) (SessionView, error) {
	row, current, generation, err := svc.prepareRow(s, "update_notes", productID, func(cart *Cart) error {
		return cart.CheckNotes(productID, notes)
	})
	if err != nil {
		return SessionView{}, err
	}
	orderID := current.ID

	order, err := svc.submit(ctx, s, generation, orderID, "update_notes", func(ctx context.Context) (*models.Order, error) {
		return svc.api.UpdateOrderItem(ctx, orderID, row.ID, models.OrderItemRequest{Quantity: row.Quantity, Notes: notes})
	})
	if err != nil {
		return s.View(), err
	}

	svc.notify(models.NotificationOrderUpdated, order, "Đơn #%d: ghi chú cho %s", order.ID, row.ProductName)
	return s.View(), nil
}

// RemoveItem deletes a product row. Removing the last row cancels the
// order and frees the table; that is reported through OrderCancelled,
// not as an error.
func (svc *OrderService) RemoveItem(ctx context.Context, s *Session, productID uint) (RemoveResult, error) {
	row, before, generation, err := svc.prepareRow(s, "remove_item", productID, nil)
	if err != nil {
		return RemoveResult{}, err
	}
	orderID := before.ID

	var cancelled bool
	order, err := svc.submit(ctx, s, generation, orderID, "remove_item", func(ctx context.Context) (*models.Order, error) {
		res, err := svc.api.DeleteOrderItem(ctx, orderID, row.ID)
		if err != nil {
			return nil, err
		}
		order := res.Order
		if order == nil {
			// backend hanya mengirim flag, hitung ulang dari state lokal
			order = before
			order.Items = removeRow(order.Items, row.ID)
			order.TotalAmount = order.ItemsSubtotal()
			svc.lifecycle.AfterItemRemoved(order)
		}
		cancelled = res.OrderCancelled || order.Status == models.OrderStatusCancelled
		return order, nil
	})
	if err != nil {
		return RemoveResult{Session: s.View()}, err
	}

	if cancelled {
		svc.freeTable(ctx, order.TableID)
		svc.notify(models.NotificationOrderCancelled, order, "Đơn #%d đã bị hủy vì không còn món", order.ID)
		utils.InfoLogger.WithFields(logrus.Fields{"order_id": order.ID, "session_id": s.ID}).Info("order auto-cancelled after last item removed")
	} else {
		svc.notify(models.NotificationOrderUpdated, order, "Đơn #%d: đã bỏ %s", order.ID, row.ProductName)
	}

	return RemoveResult{Order: order, OrderCancelled: cancelled, Session: s.View()}, nil
}

func removeRow(items []models.OrderItem, itemID uint) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.ID != itemID {
			out = append(out, item)
		}
	}
	return out
}

// Checkout pays the session's order. The payment is final once the API
// accepts it; printing the customer receipt afterwards is best effort.
func (svc *OrderService) Checkout(ctx context.Context, s *Session, req CheckoutRequest) (*CheckoutResult, error) {
	if !req.Method.Valid() {
		return nil, NewValidationError("checkout", ErrMsgPaymentMethod, req.Method)
	}
	if err := ValidateDiscountInput(req.DiscountPercentage); err != nil {
		return nil, err
	}

	var current *models.Order
	err := s.inspect(func(_ *models.Table, order *models.Order, cart *Cart) error {
		if order == nil || cart.IsEmpty() {
			return NewValidationError("checkout", ErrMsgCartEmpty)
		}
		if err := svc.lifecycle.EnsureMutable(order); err != nil {
			return err
		}
		current = order.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	generation, _ := s.Generation()

	price := ApplyDiscount(current.ItemsSubtotal(), req.DiscountPercentage)
	result := &CheckoutResult{Price: price}

	err = svc.seq.Submit(ctx, current.ID, func(ctx context.Context) error {
		payReq := models.PaymentRequest{OrderID: current.ID, PaymentType: req.Method}
		if price.HasDiscount() {
			pct := price.DiscountPercentage
			payReq.DiscountPercentage = &pct
		}
		payment, err := svc.api.CreatePayment(ctx, payReq)
		if err != nil {
			return err
		}
		paidAt := svc.now()

		status, err := svc.api.UpdateOrderStatus(ctx, current.ID, models.OrderStatusPaid)
		if err != nil {
			return err
		}

		final, err := paidOrder(current, status.Order, payment, price, req.Method, paidAt)
		if err != nil {
			return err
		}
		result.Order = final
		result.Payment = payment
		s.ApplyServerOrder(generation, final, svc.catalog)
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.freeTable(ctx, result.Order.TableID)
	svc.notify(models.NotificationPaymentSuccess, result.Order, "Đơn #%d đã thanh toán %s (%s)",
		result.Order.ID, result.Order.TotalAmount.String(), req.Method.Label())
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": result.Order.ID,
		"method":   req.Method,
		"discount": price.DiscountPercentage,
		"total":    result.Order.TotalAmount.String(),
	}).Info("order paid")

	svc.printReceipt(ctx, s, result, req)
	return result, nil
}

// paidOrder merges what the backend returned with what the client knows
// at the moment of transition. The payment date is the server's payment
// time when it has one, else the client's timestamp. A backend that
// reports the order cancelled wins over the local view.
func paidOrder(current, server *models.Order, payment *models.Payment, price PriceBreakdown, method models.PaymentMethod, paidAt time.Time) (*models.Order, error) {
	if server != nil && server.IsTerminal() && server.Status != models.OrderStatusPaid {
		return nil, NewStateError("checkout", ErrMsgInvalidTransition, server.ID, server.Status, models.OrderStatusPaid)
	}
	if server == nil || server.Status != models.OrderStatusPaid {
		local := current.Clone()
		if payment != nil && payment.PaymentTime != nil {
			paidAt = *payment.PaymentTime
		}
		if _, err := (Lifecycle{}).MarkPaid(local, price, method, paidAt); err != nil {
			return nil, err
		}
		return local, nil
	}

	final := server.Clone()
	if final.PaymentDate == nil {
		if payment != nil && payment.PaymentTime != nil {
			t := *payment.PaymentTime
			final.PaymentDate = &t
		} else {
			final.PaymentDate = &paidAt
		}
	}
	if final.PaymentMethod == nil {
		m := method
		final.PaymentMethod = &m
	}
	if price.HasDiscount() && !final.HasDiscount() {
		pct := price.DiscountPercentage
		original := price.OriginalAmount
		discount := price.DiscountAmount
		final.DiscountPercentage = &pct
		final.OriginalAmount = &original
		final.DiscountAmount = &discount
		final.TotalAmount = price.FinalAmount
	}
	return final, nil
}

func (svc *OrderService) printReceipt(ctx context.Context, s *Session, result *CheckoutResult, req CheckoutRequest) {
	if svc.dispatcher == nil {
		return
	}
	doc, err := svc.renderer.Render(result.Order, models.DocumentCustomerReceipt, RenderMetadata{
		CashierName:        s.CashierName,
		PaymentMethodLabel: req.Method.Label(),
		DiscountPercentage: req.DiscountPercentage,
		Copies:             req.Copies,
	})
	if err != nil {
		result.PrintError = err.Error()
		utils.ErrorLogger.WithField("order_id", result.Order.ID).Warnf("render receipt: %v", err)
		return
	}

	job, err := svc.dispatcher.Dispatch(ctx, result.Order.ID, doc)
	result.PrintJob = job
	if err != nil {
		result.PrintError = err.Error()
	}
}

// UpdateStatus moves an order to status. Asking for the status it already
// has is a success with AlreadyInStatus set and sends no notification.
// s may be nil when the request does not come from an order screen.
func (svc *OrderService) UpdateStatus(ctx context.Context, s *Session, orderID uint, status models.OrderStatus) (*StatusUpdateResult, error) {
	if !status.Valid() {
		return nil, NewValidationError("update_status", ErrMsgInvalidStatus, status)
	}

	var (
		generation uint64
		heldID     uint
	)
	if s != nil {
		generation, heldID = s.Generation()
	}

	var result *StatusUpdateResult
	err := svc.seq.Submit(ctx, orderID, func(ctx context.Context) error {
		res, err := svc.api.UpdateOrderStatus(ctx, orderID, status)
		if err != nil {
			return err
		}
		result = res
		if s != nil && heldID == orderID {
			s.ApplyServerOrder(generation, res.Order, svc.catalog)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyInStatus || result.Order == nil {
		return result, nil
	}

	order := result.Order
	if order.IsTerminal() {
		svc.freeTable(ctx, order.TableID)
	}
	switch order.Status {
	case models.OrderStatusCancelled:
		svc.notify(models.NotificationOrderCancelled, order, "Đơn #%d đã bị hủy", order.ID)
	case models.OrderStatusPaid:
		svc.notify(models.NotificationPaymentSuccess, order, "Đơn #%d đã thanh toán", order.ID)
	default:
		svc.notify(models.NotificationOrderUpdated, order, "Đơn #%d: %s", order.ID, order.Status)
	}
	return result, nil
}

// Cancel cancels the session's open order.
func (svc *OrderService) Cancel(ctx context.Context, s *Session) (*StatusUpdateResult, error) {
	_, orderID := s.Generation()
	if orderID == 0 {
		return nil, NewValidationError("cancel", ErrMsgNoOrder)
	}
	return svc.UpdateStatus(ctx, s, orderID, models.OrderStatusCancelled)
}

// Reconcile refetches the session's order and adopts the server state.
// A payment or cancellation made elsewhere clears the session.
func (svc *OrderService) Reconcile(ctx context.Context, s *Session) error {
	generation, orderID := s.Generation()
	if orderID == 0 {
		return nil
	}

	var adopted *models.Order
	err := svc.seq.Submit(ctx, orderID, func(ctx context.Context) error {
		order, err := svc.api.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if s.ApplyServerOrder(generation, order, svc.catalog) {
			adopted = order
		}
		return nil
	})
	if err != nil || adopted == nil || !adopted.IsTerminal() {
		return err
	}

	svc.freeTable(ctx, adopted.TableID)
	if adopted.Status == models.OrderStatusPaid {
		svc.notify(models.NotificationPaymentSuccess, adopted, "Đơn #%d đã được thanh toán ở máy khác", adopted.ID)
	} else {
		svc.notify(models.NotificationOrderCancelled, adopted, "Đơn #%d đã bị hủy ở máy khác", adopted.ID)
	}
	return nil
}

// Document renders a document for an order fetched from the API.
func (svc *OrderService) Document(ctx context.Context, orderID uint, kind models.DocumentKind, meta RenderMetadata) (models.PrintableDocument, *models.Order, error) {
	if !kind.Valid() {
		return models.PrintableDocument{}, nil, NewValidationError("document", ErrMsgDocumentKind, kind)
	}
	order, err := svc.api.GetOrder(ctx, orderID)
	if err != nil {
		return models.PrintableDocument{}, nil, err
	}
	doc, err := svc.renderer.Render(order, kind, meta)
	return doc, order, err
}

// Print renders and dispatches a document. A kitchen ticket is also
// pushed to the kitchen display.
func (svc *OrderService) Print(ctx context.Context, orderID uint, kind models.DocumentKind, meta RenderMetadata) (*models.PrintJob, error) {
	doc, order, err := svc.Document(ctx, orderID, kind, meta)
	if err != nil {
		return nil, err
	}
	if kind == models.DocumentKitchenOrder {
		svc.notifier.Notify(models.Notification{
			Event:     models.NotificationKitchenTicket,
			OrderID:   order.ID,
			TableID:   order.TableID,
			Message:   fmt.Sprintf("Phiếu bếp đơn #%d", order.ID),
			Data:      doc,
			CreatedAt: svc.now(),
		})
	}
	if svc.dispatcher == nil {
		return nil, nil
	}
	return svc.dispatcher.Dispatch(ctx, order.ID, doc)
}

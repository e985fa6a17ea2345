package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
)

func TestOrderService_AddItemNeedsTable(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.svc.AddItem(context.Background(), rig.session, espresso.ID)
	assert.True(t, IsKind(err, KindValidation))
}

func TestOrderService_AddItemCreatesOrderLazily(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	view, err := rig.svc.SelectTable(ctx, rig.session, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, view.Order)

	var count int64
	rig.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count, "selecting a table must not open an order")

	view, err = rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Order)
	assert.Equal(t, models.Money(50000), view.Total)
	assert.Equal(t, models.TableStatusOccupied, tableStatus(t, rig, 1))

	_, err = rig.svc.AddItem(ctx, rig.session, latte.ID)
	require.NoError(t, err)
	view, err = rig.svc.AddItem(ctx, rig.session, latte.ID)
	require.NoError(t, err)

	assert.Equal(t, models.Money(110000), view.Total)
	assert.Equal(t, view.Total, view.Order.TotalAmount)
	rig.db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestOrderService_AddUnavailableProduct(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)

	_, err := rig.svc.AddItem(ctx, rig.session, 3)
	assert.True(t, IsKind(err, KindValidation))
}

func TestOrderService_QuantityLimitCheckedBeforeNetwork(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	_, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)

	_, err = rig.svc.UpdateQuantity(ctx, rig.session, espresso.ID, 101)
	assert.True(t, IsKind(err, KindValidation))

	view := rig.session.View()
	assert.Equal(t, 1, view.Items[0].Quantity)
}

func TestOrderService_UpdateQuantityAndNotes(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	_, err := rig.svc.AddItem(ctx, rig.session, latte.ID)
	require.NoError(t, err)

	res, err := rig.svc.UpdateQuantity(ctx, rig.session, latte.ID, 4)
	require.NoError(t, err)
	assert.False(t, res.OrderCancelled)
	assert.Equal(t, models.Money(120000), res.Session.Total)

	view, err := rig.svc.UpdateNotes(ctx, rig.session, latte.ID, "không đường")
	require.NoError(t, err)
	assert.Equal(t, "không đường", view.Items[0].Notes)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Equal(t, models.Money(120000), view.Total, "notes never change pricing")
}

func TestOrderService_QuantityZeroOnOnlyItemCancels(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	_, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)

	res, err := rig.svc.UpdateQuantity(ctx, rig.session, espresso.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.OrderCancelled)
	assert.Equal(t, models.OrderStatusCancelled, res.Order.Status)
	assert.Nil(t, res.Session.Order)
	assert.Empty(t, res.Session.Items)
	assert.Equal(t, models.TableStatusAvailable, tableStatus(t, rig, 1))
	assert.Equal(t, 1, rig.notifier.count(models.NotificationOrderCancelled))
}

func TestOrderService_RemoveOneOfTwoKeepsOrder(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	_, _ = rig.svc.AddItem(ctx, rig.session, espresso.ID)
	_, err := rig.svc.AddItem(ctx, rig.session, latte.ID)
	require.NoError(t, err)

	res, err := rig.svc.RemoveItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	assert.False(t, res.OrderCancelled)
	require.Len(t, res.Session.Items, 1)
	assert.Equal(t, latte.ID, res.Session.Items[0].ProductID)
	assert.Zero(t, rig.notifier.count(models.NotificationOrderCancelled))

	_, err = rig.svc.RemoveItem(ctx, rig.session, espresso.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestOrderService_AfterAutoCancelNextItemOpensNewOrder(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	first, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	_, err = rig.svc.RemoveItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)

	second, err := rig.svc.AddItem(ctx, rig.session, latte.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Order.ID, second.Order.ID)
}

func TestOrderService_CheckoutWithDiscount(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	_, _ = rig.svc.AddItem(ctx, rig.session, espresso.ID)
	_, _ = rig.svc.AddItem(ctx, rig.session, latte.ID)
	_, err := rig.svc.AddItem(ctx, rig.session, latte.ID)
	require.NoError(t, err)

	res, err := rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: models.PaymentMethodCash, DiscountPercentage: 10})
	require.NoError(t, err)

	assert.Equal(t, models.Money(110000), res.Price.OriginalAmount)
	assert.Equal(t, models.Money(11000), res.Price.DiscountAmount)
	assert.Equal(t, models.Money(99000), res.Price.FinalAmount)
	assert.Equal(t, models.OrderStatusPaid, res.Order.Status)
	assert.Equal(t, models.Money(99000), res.Order.TotalAmount)
	require.NotNil(t, res.Order.PaymentDate)
	assert.Equal(t, testNow, res.Order.PaymentDate.UTC())

	view := rig.session.View()
	assert.Nil(t, view.Order)
	assert.Empty(t, view.Items)
	require.NotNil(t, view.Table, "the table stays selected")
	assert.Equal(t, models.TableStatusAvailable, tableStatus(t, rig, 1))

	assert.Equal(t, 1, rig.notifier.count(models.NotificationPaymentSuccess))
	require.NotNil(t, res.PrintJob)
	assert.Equal(t, models.PrintJobPrinted, res.PrintJob.Status)
	assert.Empty(t, res.PrintError)
	require.Equal(t, 1, rig.printer.count())
	assert.Equal(t, models.DocumentCustomerReceipt, rig.printer.printed[0].Kind)
	assert.Equal(t, models.Money(99000), rig.printer.printed[0].Totals.Total)
}

func TestOrderService_CheckoutPrintFailureKeepsPayment(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	rig.printer.setFail(errPaperOut)

	_, _ = rig.svc.SelectTable(ctx, rig.session, 2, 0)
	_, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)

	res, err := rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: models.PaymentMethodBanking})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, res.Order.Status)
	assert.Contains(t, res.PrintError, "paper out")
	require.NotNil(t, res.PrintJob)
	assert.Equal(t, models.PrintJobFailed, res.PrintJob.Status)
	assert.Equal(t, 1, rig.notifier.count(models.NotificationPrintFailed))

	stored, err := rig.api.GetOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
}

func TestOrderService_CheckoutValidation(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)

	_, err := rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: models.PaymentMethodCash})
	assert.True(t, IsKind(err, KindValidation), "empty cart")

	_, _ = rig.svc.AddItem(ctx, rig.session, espresso.ID)

	_, err = rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: "voucher"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: models.PaymentMethodCash, DiscountPercentage: -5})
	assert.True(t, IsKind(err, KindValidation))

	assert.NotNil(t, rig.session.View().Order, "failed checkout leaves the order open")
}

func TestOrderService_UpdateStatusTwiceNotifiesOnce(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	view, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	orderID := view.Order.ID

	first, err := rig.svc.UpdateStatus(ctx, rig.session, orderID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, first.AlreadyInStatus)

	second, err := rig.svc.UpdateStatus(ctx, rig.session, orderID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.True(t, second.AlreadyInStatus)

	assert.Equal(t, 1, rig.notifier.count(models.NotificationOrderCancelled))
	assert.Nil(t, rig.session.View().Order)
}

func TestOrderService_CancelNeedsOrder(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)

	_, err := rig.svc.Cancel(ctx, rig.session)
	assert.True(t, IsKind(err, KindValidation))

	_, _ = rig.svc.AddItem(ctx, rig.session, espresso.ID)
	res, err := rig.svc.Cancel(ctx, rig.session)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, res.Order.Status)
	assert.Equal(t, models.TableStatusAvailable, tableStatus(t, rig, 1))
}

func TestOrderService_SelectTableLoadsExistingOrder(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	order, err := rig.api.CreateOrder(ctx, 2)
	require.NoError(t, err)
	_, err = rig.api.AddOrderItem(ctx, order.ID, models.OrderItemRequest{ProductID: latte.ID, Quantity: 3, Notes: "nóng"})
	require.NoError(t, err)

	view, err := rig.svc.SelectTable(ctx, rig.session, 2, order.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "nóng", view.Items[0].Notes)
	assert.Equal(t, models.Money(90000), view.Total)

	_, err = rig.svc.SelectTable(ctx, rig.session, 1, order.ID)
	assert.True(t, IsKind(err, KindValidation), "order from another table")
	assert.Nil(t, rig.session.View().Order)
}

func TestOrderService_ReconcileAdoptsRemoteCancel(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	view, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)

	// terminal lain membatalkan order ini
	_, err = rig.api.UpdateOrderStatus(ctx, view.Order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	reconciler := NewReconciler(rig.svc, rig.sessions, 0)
	assert.Zero(t, reconciler.RunOnce(ctx))
	assert.Nil(t, rig.session.View().Order)
	assert.Equal(t, 1, rig.notifier.count(models.NotificationOrderCancelled))

	// nothing left to reconcile
	assert.Zero(t, reconciler.RunOnce(ctx))
	assert.Equal(t, 1, rig.notifier.count(models.NotificationOrderCancelled))
}

func TestOrderService_PrintKitchenTicket(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	view, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)

	job, err := rig.svc.Print(ctx, view.Order.ID, models.DocumentKitchenOrder, RenderMetadata{Copies: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, job.Copies)
	assert.Equal(t, 2, rig.printer.count())
	assert.Equal(t, 1, rig.notifier.count(models.NotificationKitchenTicket))

	_, err = rig.svc.Print(ctx, view.Order.ID, models.DocumentCustomerReceipt, RenderMetadata{})
	assert.True(t, IsKind(err, KindState), "unpaid order has no customer receipt")
}

func TestOrderService_UpdateStatusPaidNeedsCheckout(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	view, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	orderID := view.Order.ID

	_, err = rig.svc.UpdateStatus(ctx, rig.session, orderID, models.OrderStatusPaid)
	assert.True(t, IsKind(err, KindState), "got %v", err)

	order, err := rig.api.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOrdering, order.Status)
	assert.Nil(t, order.PaymentMethod)
	var payments int64
	rig.db.Model(&models.Payment{}).Count(&payments)
	assert.Zero(t, payments)
	assert.Equal(t, models.TableStatusOccupied, tableStatus(t, rig, 1))
	assert.Zero(t, rig.notifier.count(models.NotificationPaymentSuccess))
	require.NotNil(t, rig.session.View().Order)

	_, err = rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: models.PaymentMethodCash})
	require.NoError(t, err)
	again, err := rig.svc.UpdateStatus(ctx, nil, orderID, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, again.AlreadyInStatus)
}

func TestOrderService_CustomerReceiptUsesStoredPricing(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	_, _ = rig.svc.SelectTable(ctx, rig.session, 1, 0)
	_, err := rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	res, err := rig.svc.Checkout(ctx, rig.session, CheckoutRequest{Method: models.PaymentMethodCash})
	require.NoError(t, err)
	require.Equal(t, models.Money(50000), res.Order.TotalAmount)

	meta := RenderMetadata{DiscountPercentage: 20, PrintedAt: testNow}
	receipt, _, err := rig.svc.Document(ctx, res.Order.ID, models.DocumentCustomerReceipt, meta)
	require.NoError(t, err)
	assert.Equal(t, models.Money(50000), receipt.Totals.Total)
	assert.Nil(t, receipt.Totals.DiscountAmount)

	reprint, _, err := rig.svc.Document(ctx, res.Order.ID, models.DocumentReprint, meta)
	require.NoError(t, err)
	assert.Equal(t, receipt.Totals, reprint.Totals)
}

// flakyAddAPI fails every AddOrderItem. With landFirst the row is stored
// before the error, like a response lost on the way back.
type flakyAddAPI struct {
	OrderAPI
	landFirst bool
}

func (f *flakyAddAPI) AddOrderItem(ctx context.Context, orderID uint, req models.OrderItemRequest) (*models.Order, error) {
	if f.landFirst {
		if _, err := f.OrderAPI.AddOrderItem(ctx, orderID, req); err != nil {
			return nil, err
		}
	}
	return nil, NewNetworkError("add_order_item", errors.New("connection reset"))
}

func (rig *testRig) serviceWith(api OrderAPI) *OrderService {
	return NewOrderService(OrderServiceDeps{
		API:        api,
		Catalog:    NewCatalogService(rig.db),
		Tables:     NewTableService(rig.db),
		Notifier:   rig.notifier,
		Dispatcher: rig.printing,
		Renderer:   NewReceiptRenderer("Cafe Test", "1 Lê Lợi", testLayout),
	}).WithClock(fixedClock)
}

func TestOrderService_FailedFirstItemCancelsEmptyOrder(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	svc := rig.serviceWith(&flakyAddAPI{OrderAPI: rig.api})
	_, err := svc.SelectTable(ctx, rig.session, 1, 0)
	require.NoError(t, err)

	view, err := svc.AddItem(ctx, rig.session, espresso.ID)
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
	assert.Nil(t, view.Order)
	assert.Empty(t, view.Items)
	require.NotNil(t, view.Table, "the table stays selected")

	var orders []models.Order
	require.NoError(t, rig.db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusCancelled, orders[0].Status)
	assert.Equal(t, models.TableStatusAvailable, tableStatus(t, rig, 1))

	// backend pulih: item berikutnya membuka order baru
	view, err = rig.svc.AddItem(ctx, rig.session, espresso.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Order)
	assert.NotEqual(t, orders[0].ID, view.Order.ID)
	assert.Equal(t, models.Money(50000), view.Total)
}

func TestOrderService_FailedFirstItemThatLandedIsKept(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	svc := rig.serviceWith(&flakyAddAPI{OrderAPI: rig.api, landFirst: true})
	_, _ = svc.SelectTable(ctx, rig.session, 1, 0)

	view, err := svc.AddItem(ctx, rig.session, espresso.ID)
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
	require.NotNil(t, view.Order)
	assert.Equal(t, models.OrderStatusOrdering, view.Order.Status)
	require.Len(t, view.Items, 1)
	assert.Equal(t, models.TableStatusOccupied, tableStatus(t, rig, 1))
}

func TestPaidOrder_BackendStateWins(t *testing.T) {
	current := orderingOrder(models.OrderItem{ProductID: espresso.ID, UnitPrice: 50000, Quantity: 1})
	price := ApplyDiscount(current.ItemsSubtotal(), 0)

	server := current.Clone()
	server.Status = models.OrderStatusCancelled
	_, err := paidOrder(current, server, nil, price, models.PaymentMethodCash, testNow)
	assert.True(t, IsKind(err, KindState), "got %v", err)

	_, err = paidOrder(current, nil, nil, price, "bitcoin", testNow)
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	local, err := paidOrder(current, nil, nil, price, models.PaymentMethodCard, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, local.Status)
	assert.Equal(t, models.OrderStatusOrdering, current.Status)
}

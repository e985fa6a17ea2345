package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
)

func paidOrderAt(pct float64) *models.Order {
	order := orderingOrder(
		models.OrderItem{ID: 1, ProductID: espresso.ID, ProductName: "Espresso", UnitPrice: 50000, Quantity: 1},
		models.OrderItem{ID: 2, ProductID: latte.ID, ProductName: "Latte", UnitPrice: 30000, Quantity: 2, Notes: "ít đá"},
	)
	order.TableName = "T1"
	order.OrderDate = testNow.Add(-time.Hour)
	_, err := Lifecycle{}.MarkPaid(order, ApplyDiscount(order.ItemsSubtotal(), pct), models.PaymentMethodCash, testNow)
	if err != nil {
		panic(err)
	}
	return order
}

func TestRender_KitchenOrderHasNoPrices(t *testing.T) {
	order := paidOrderAt(0)
	order.Status = models.OrderStatusOrdering

	doc, err := Render(order, models.DocumentKitchenOrder, RenderMetadata{}, testLayout)
	require.NoError(t, err)

	assert.Equal(t, TitleKitchenOrder, doc.Title)
	assert.Nil(t, doc.Totals)
	require.Len(t, doc.Lines, 2)
	for _, line := range doc.Lines {
		assert.Nil(t, line.UnitPrice)
		assert.Nil(t, line.Subtotal)
	}
	assert.Equal(t, "ít đá", doc.Lines[1].Notes)
	assert.Equal(t, 1, doc.Footer.Copies)
}

func TestRender_KitchenOrderAnyStatus(t *testing.T) {
	order := paidOrderAt(0)
	order.Status = models.OrderStatusCancelled

	_, err := Render(order, models.DocumentKitchenOrder, RenderMetadata{}, testLayout)
	assert.NoError(t, err)
}

func TestRender_TemporaryReceipt(t *testing.T) {
	order := orderingOrder(
		models.OrderItem{ProductID: espresso.ID, ProductName: "Espresso", UnitPrice: 50000, Quantity: 1},
		models.OrderItem{ProductID: latte.ID, ProductName: "Latte", UnitPrice: 30000, Quantity: 2},
	)

	doc, err := Render(order, models.DocumentTemporaryReceipt, RenderMetadata{PaymentMethodLabel: "Tiền mặt"}, testLayout)
	require.NoError(t, err)
	require.NotNil(t, doc.Totals)
	assert.Equal(t, models.Money(110000), doc.Totals.Subtotal)
	assert.Equal(t, models.Money(110000), doc.Totals.Total)
	assert.Empty(t, doc.Totals.PaymentMethodLabel)
	assert.Nil(t, doc.Totals.DiscountAmount)
	require.NotNil(t, doc.Lines[1].Subtotal)
	assert.Equal(t, models.Money(60000), *doc.Lines[1].Subtotal)

	order.Status = models.OrderStatusCancelled
	_, err = Render(order, models.DocumentTemporaryReceipt, RenderMetadata{}, testLayout)
	assert.True(t, IsKind(err, KindState))
}

func TestRender_CustomerReceiptNeedsPaid(t *testing.T) {
	order := orderingOrder(models.OrderItem{ProductID: 1, ProductName: "Espresso", UnitPrice: 50000, Quantity: 1})

	for _, kind := range []models.DocumentKind{models.DocumentCustomerReceipt, models.DocumentReprint} {
		_, err := Render(order, kind, RenderMetadata{}, testLayout)
		assert.True(t, IsKind(err, KindState), kind)
	}
}

func TestRender_CustomerReceiptDiscountBlock(t *testing.T) {
	doc, err := Render(paidOrderAt(10), models.DocumentCustomerReceipt, RenderMetadata{CashierName: "An", PrintedAt: testNow}, testLayout)
	require.NoError(t, err)

	totals := doc.Totals
	require.NotNil(t, totals)
	require.NotNil(t, totals.DiscountPercentage)
	assert.Equal(t, 10.0, *totals.DiscountPercentage)
	assert.Equal(t, models.Money(110000), *totals.OriginalAmount)
	assert.Equal(t, models.Money(11000), *totals.DiscountAmount)
	assert.Equal(t, models.Money(99000), totals.Total)
	assert.Equal(t, "Tiền mặt", totals.PaymentMethodLabel)
	assert.Equal(t, "An", doc.Footer.CashierName)
	require.NotNil(t, doc.Footer.PaymentTime)
	assert.Equal(t, testNow, *doc.Footer.PaymentTime)
	assert.False(t, doc.Reprint)
}

func TestRender_ZeroDiscountShowsNoBlock(t *testing.T) {
	doc, err := Render(paidOrderAt(0), models.DocumentCustomerReceipt, RenderMetadata{}, testLayout)
	require.NoError(t, err)
	assert.Nil(t, doc.Totals.DiscountPercentage)
	assert.Nil(t, doc.Totals.DiscountAmount)
	assert.Equal(t, models.Money(110000), doc.Totals.Total)
}

func TestRender_CustomerReceiptIgnoresMetadataDiscount(t *testing.T) {
	order := paidOrderAt(0)
	meta := RenderMetadata{DiscountPercentage: 20, PrintedAt: testNow}

	receipt, err := Render(order, models.DocumentCustomerReceipt, meta, testLayout)
	require.NoError(t, err)
	assert.Nil(t, receipt.Totals.DiscountPercentage)
	assert.Nil(t, receipt.Totals.DiscountAmount)
	assert.Equal(t, order.TotalAmount, receipt.Totals.Total)
	assert.Equal(t, models.Money(110000), receipt.Totals.Subtotal)

	reprint, err := Render(order, models.DocumentReprint, meta, testLayout)
	require.NoError(t, err)
	assert.Equal(t, receipt.Totals, reprint.Totals)
}

func TestRender_PaidTotalsReadStoredAmounts(t *testing.T) {
	order := paidOrderAt(10)
	// total tersimpan dari server dipakai apa adanya
	order.TotalAmount = 98999

	doc, err := Render(order, models.DocumentCustomerReceipt, RenderMetadata{DiscountPercentage: 50}, testLayout)
	require.NoError(t, err)
	assert.Equal(t, models.Money(98999), doc.Totals.Total)
	assert.Equal(t, models.Money(110000), *doc.Totals.OriginalAmount)
	assert.Equal(t, models.Money(11000), *doc.Totals.DiscountAmount)
	assert.Equal(t, 10.0, *doc.Totals.DiscountPercentage)
}

func TestRender_TemporaryReceiptPreviewsDiscount(t *testing.T) {
	order := orderingOrder(
		models.OrderItem{ProductID: espresso.ID, ProductName: "Espresso", UnitPrice: 50000, Quantity: 1},
		models.OrderItem{ProductID: latte.ID, ProductName: "Latte", UnitPrice: 30000, Quantity: 2},
	)

	doc, err := Render(order, models.DocumentTemporaryReceipt, RenderMetadata{DiscountPercentage: 10}, testLayout)
	require.NoError(t, err)
	assert.Equal(t, models.Money(110000), doc.Totals.Subtotal)
	require.NotNil(t, doc.Totals.DiscountAmount)
	assert.Equal(t, models.Money(11000), *doc.Totals.DiscountAmount)
	assert.Equal(t, models.Money(99000), doc.Totals.Total)
	assert.Nil(t, order.DiscountPercentage)
}

func TestRender_ReprintMatchesCustomerReceipt(t *testing.T) {
	order := paidOrderAt(15)
	meta := RenderMetadata{CashierName: "An", ShopName: "Cafe", PrintedAt: testNow}

	receipt, err := Render(order, models.DocumentCustomerReceipt, meta, testLayout)
	require.NoError(t, err)
	reprint, err := Render(order, models.DocumentReprint, meta, testLayout)
	require.NoError(t, err)

	assert.Equal(t, models.Money(16500), *receipt.Totals.DiscountAmount)
	assert.Equal(t, models.Money(93500), receipt.Totals.Total)
	assert.Equal(t, receipt.Totals, reprint.Totals)
	assert.Equal(t, receipt.Lines, reprint.Lines)
	assert.Equal(t, receipt.Header, reprint.Header)
	assert.Equal(t, receipt.Footer, reprint.Footer)

	assert.True(t, reprint.Reprint)
	assert.Equal(t, ReprintMarker, reprint.ReprintMarker)
	assert.False(t, receipt.Reprint)
	assert.Empty(t, receipt.ReprintMarker)
}

func TestRender_IsDeterministic(t *testing.T) {
	order := paidOrderAt(10)
	meta := RenderMetadata{PrintedAt: testNow, Copies: 2}

	a, err := Render(order, models.DocumentCustomerReceipt, meta, testLayout)
	require.NoError(t, err)
	b, err := Render(order, models.DocumentCustomerReceipt, meta, testLayout)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	meta.PrintedAt = testNow.Add(time.Hour)
	c, err := Render(order, models.DocumentCustomerReceipt, meta, testLayout)
	require.NoError(t, err)
	assert.Equal(t, a.Totals, c.Totals, "print time never changes money")
}

func TestRender_RejectsUnknownKindAndNil(t *testing.T) {
	_, err := Render(paidOrderAt(0), "menu", RenderMetadata{}, testLayout)
	assert.True(t, IsKind(err, KindValidation))

	_, err = Render(nil, models.DocumentKitchenOrder, RenderMetadata{}, testLayout)
	assert.True(t, IsKind(err, KindValidation))
}

func TestReceiptRenderer_FillsShopAndClock(t *testing.T) {
	r := NewReceiptRenderer("Cafe Test", "1 Lê Lợi", testLayout)
	r.Now = fixedClock

	doc, err := r.Render(paidOrderAt(0), models.DocumentCustomerReceipt, RenderMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "Cafe Test", doc.Header.ShopName)
	assert.Equal(t, testNow, doc.Footer.PrintedAt)
	assert.Equal(t, testLayout, doc.Layout)
}

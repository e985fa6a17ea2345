package services

import (
	"time"

	"github.com/yeremiapane/cafe-pos/models"
)

const (
	TitleKitchenOrder     = "PHIẾU BẾP"
	TitleTemporaryReceipt = "PHIẾU TẠM TÍNH"
	TitleCustomerReceipt  = "HÓA ĐƠN THANH TOÁN"
	ReprintMarker         = "*** IN LẠI ***"

	noteTemporaryReceipt = "Chưa thanh toán"
	noteThankYou         = "Cảm ơn quý khách!"
)

// RenderMetadata carries what the order itself does not know at print
// time. DiscountPercentage only previews a discount on the temporary
// receipt; paid documents read the pricing stored on the order.
type RenderMetadata struct {
	ShopName           string
	ShopAddress        string
	CashierName        string
	PaymentMethodLabel string
	DiscountPercentage float64
	Copies             int
	PrintedAt          time.Time
}

// Render turns an order into a printable document of the given kind.
// It does not read the clock: PrintedAt comes from meta and never
// affects any amount.
func Render(order *models.Order, kind models.DocumentKind, meta RenderMetadata, layout models.DocumentLayout) (models.PrintableDocument, error) {
	if order == nil {
		return models.PrintableDocument{}, NewValidationError("render", ErrMsgNoOrder)
	}
	if !kind.Valid() {
		return models.PrintableDocument{}, NewValidationError("render", ErrMsgDocumentKind, kind)
	}

	switch kind {
	case models.DocumentTemporaryReceipt:
		if order.Status == models.OrderStatusCancelled {
			return models.PrintableDocument{}, NewStateError("render", ErrMsgCancelledNoReceipt, order.ID)
		}
	case models.DocumentCustomerReceipt, models.DocumentReprint:
		if order.Status != models.OrderStatusPaid {
			return models.PrintableDocument{}, NewStateError("render", ErrMsgReceiptNeedsPaid, order.ID, order.Status)
		}
	}

	copies := meta.Copies
	if copies < 1 {
		copies = 1
	}

	doc := models.PrintableDocument{
		Kind: kind,
		Header: models.DocumentHeader{
			ShopName:    meta.ShopName,
			ShopAddress: meta.ShopAddress,
			OrderID:     order.ID,
			TableName:   order.TableName,
			OrderDate:   order.OrderDate,
		},
		Lines: renderLines(order.Items, kind.ShowsPrices()),
		Footer: models.DocumentFooter{
			CashierName: meta.CashierName,
			PrintedAt:   meta.PrintedAt,
			Copies:      copies,
		},
		Layout: layout,
	}

	switch kind {
	case models.DocumentKitchenOrder:
		doc.Title = TitleKitchenOrder

	case models.DocumentTemporaryReceipt:
		doc.Title = TitleTemporaryReceipt
		doc.Totals = previewTotals(order, meta.DiscountPercentage)
		doc.Footer.Note = noteTemporaryReceipt

	case models.DocumentCustomerReceipt:
		doc.Title = TitleCustomerReceipt
		doc.Totals = paidTotals(order, meta)
		doc.Footer.PaymentTime = copyTime(order.PaymentDate)
		doc.Footer.Note = noteThankYou

	case models.DocumentReprint:
		doc.Title = TitleCustomerReceipt
		doc.Reprint = true
		doc.ReprintMarker = ReprintMarker
		doc.Totals = paidTotals(order, meta)
		doc.Footer.PaymentTime = copyTime(order.PaymentDate)
		doc.Footer.Note = noteThankYou
	}

	return doc, nil
}

func renderLines(items []models.OrderItem, withPrices bool) []models.DocumentLine {
	lines := make([]models.DocumentLine, 0, len(items))
	for _, item := range items {
		line := models.DocumentLine{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		}
		if withPrices {
			unit := item.UnitPrice
			sub := item.Subtotal()
			line.UnitPrice = &unit
			line.Subtotal = &sub
		}
		lines = append(lines, line)
	}
	return lines
}

// paidTotals reads the pricing stored on a paid order. Total is always
// order.TotalAmount; an order without a stored discount has none.
func paidTotals(order *models.Order, meta RenderMetadata) *models.TotalsBlock {
	totals := &models.TotalsBlock{
		PaymentMethodLabel: meta.PaymentMethodLabel,
		Subtotal:           order.ItemsSubtotal(),
		Total:              order.TotalAmount,
	}
	if order.PaymentMethod != nil {
		totals.PaymentMethodLabel = order.PaymentMethod.Label()
	}
	if !order.HasDiscount() {
		return totals
	}

	pct := *order.DiscountPercentage
	original := totals.Subtotal
	if order.OriginalAmount != nil {
		original = *order.OriginalAmount
	}
	discount := original.Sub(order.TotalAmount).ClampZero()
	if order.DiscountAmount != nil {
		discount = *order.DiscountAmount
	}
	totals.Subtotal = original
	totals.DiscountPercentage = &pct
	totals.OriginalAmount = &original
	totals.DiscountAmount = &discount
	return totals
}

// previewTotals prices an unpaid order with the discount the cashier is
// about to give. Nothing here is stored.
func previewTotals(order *models.Order, pct float64) *models.TotalsBlock {
	price := ApplyDiscount(order.ItemsSubtotal(), pct)
	totals := &models.TotalsBlock{Subtotal: price.OriginalAmount, Total: price.FinalAmount}
	if price.HasDiscount() {
		p := price.DiscountPercentage
		original := price.OriginalAmount
		discount := price.DiscountAmount
		totals.DiscountPercentage = &p
		totals.OriginalAmount = &original
		totals.DiscountAmount = &discount
	}
	return totals
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// ReceiptRenderer binds the shop details and paper layout from
// configuration so callers only pass the order.
type ReceiptRenderer struct {
	ShopName    string
	ShopAddress string
	Layout      models.DocumentLayout
	Now         func() time.Time
}

func NewReceiptRenderer(shopName, shopAddress string, layout models.DocumentLayout) *ReceiptRenderer {
	return &ReceiptRenderer{ShopName: shopName, ShopAddress: shopAddress, Layout: layout, Now: time.Now}
}

func (r *ReceiptRenderer) Render(order *models.Order, kind models.DocumentKind, meta RenderMetadata) (models.PrintableDocument, error) {
	if meta.ShopName == "" {
		meta.ShopName = r.ShopName
	}
	if meta.ShopAddress == "" {
		meta.ShopAddress = r.ShopAddress
	}
	if meta.PrintedAt.IsZero() && r.Now != nil {
		meta.PrintedAt = r.Now()
	}
	return Render(order, kind, meta, r.Layout)
}

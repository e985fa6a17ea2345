package models

import "time"

type DocumentKind string

const (
	DocumentKitchenOrder     DocumentKind = "kitchen_order"
	DocumentTemporaryReceipt DocumentKind = "temporary_receipt"
	DocumentCustomerReceipt  DocumentKind = "customer_receipt"
	DocumentReprint          DocumentKind = "reprint"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentKitchenOrder, DocumentTemporaryReceipt, DocumentCustomerReceipt, DocumentReprint:
		return true
	}
	return false
}

// ShowsPrices is false only for the kitchen ticket.
func (k DocumentKind) ShowsPrices() bool {
	return k != DocumentKitchenOrder
}

// DocumentLayout holds paper and font settings. They come from
// configuration and are never hardcoded in the renderer.
type DocumentLayout struct {
	PaperWidthMM  float64 `json:"paper_width_mm"`
	CharsPerLine  int     `json:"chars_per_line"`
	TitleFontSize float64 `json:"title_font_size"`
	BodyFontSize  float64 `json:"body_font_size"`
	SmallFontSize float64 `json:"small_font_size"`
}

// PrintableDocument is the value handed to a printer.
type PrintableDocument struct {
	Kind          DocumentKind   `json:"kind"`
	Title         string         `json:"title"`
	Reprint       bool           `json:"reprint"`
	ReprintMarker string         `json:"reprint_marker,omitempty"`
	Header        DocumentHeader `json:"header"`
	Lines         []DocumentLine `json:"lines"`
	Totals        *TotalsBlock   `json:"totals,omitempty"`
	Footer        DocumentFooter `json:"footer"`
	Layout        DocumentLayout `json:"layout"`
}

type DocumentHeader struct {
	ShopName    string    `json:"shop_name,omitempty"`
	ShopAddress string    `json:"shop_address,omitempty"`
	OrderID     uint      `json:"order_id"`
	TableName   string    `json:"table_name"`
	OrderDate   time.Time `json:"order_date"`
}

// DocumentLine is one printed row. Prices are nil on kitchen tickets.
type DocumentLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice *Money `json:"unit_price,omitempty"`
	Subtotal  *Money `json:"subtotal,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type TotalsBlock struct {
	Subtotal           Money    `json:"subtotal"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	OriginalAmount     *Money   `json:"original_amount,omitempty"`
	DiscountAmount     *Money   `json:"discount_amount,omitempty"`
	Total              Money    `json:"total"`
	PaymentMethodLabel string   `json:"payment_method_label,omitempty"`
}

type DocumentFooter struct {
	CashierName string     `json:"cashier_name,omitempty"`
	PaymentTime *time.Time `json:"payment_time,omitempty"`
	PrintedAt   time.Time  `json:"printed_at"`
	Copies      int        `json:"copies"`
	Note        string     `json:"note,omitempty"`
}

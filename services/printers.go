package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
)

// Printer is the boundary to the physical (or simulated) receipt printer.
// Print outputs one copy of doc.
type Printer interface {
	Print(ctx context.Context, doc models.PrintableDocument) error
}

const (
	defaultCharsPerLine = 42
	timeLayout          = "02/01/2006 15:04"
)

// TextPrinter writes fixed-width plain text, as a thermal printer in
// text mode would print it.
type TextPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{w: w}
}

func (p *TextPrinter) Print(ctx context.Context, doc models.PrintableDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.w, FormatDocumentText(doc)); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// FormatDocumentText lays out doc for a paper roll of
// doc.Layout.CharsPerLine characters.
func FormatDocumentText(doc models.PrintableDocument) string {
	width := doc.Layout.CharsPerLine
	if width <= 0 {
		width = defaultCharsPerLine
	}
	rule := strings.Repeat("-", width)

	var b strings.Builder
	line := func(s string) { b.WriteString(s); b.WriteByte('\n') }

	if doc.Header.ShopName != "" {
		line(center(strings.ToUpper(doc.Header.ShopName), width))
	}
	if doc.Header.ShopAddress != "" {
		line(center(doc.Header.ShopAddress, width))
	}
	line(rule)
	line(center(doc.Title, width))
	if doc.Reprint {
		line(center(doc.ReprintMarker, width))
	}
	line(spread(fmt.Sprintf("Đơn: #%d", doc.Header.OrderID), "Bàn: "+doc.Header.TableName, width))
	if !doc.Header.OrderDate.IsZero() {
		line("Ngày: " + doc.Header.OrderDate.Format(timeLayout))
	}
	line(rule)

	for _, l := range doc.Lines {
		if l.UnitPrice == nil {
			line(fmt.Sprintf("%d x %s", l.Quantity, l.Name))
		} else {
			line(l.Name)
			qty := fmt.Sprintf("  %d x %s", l.Quantity, utils.FormatThousands(l.UnitPrice.Int64()))
			line(spread(qty, utils.FormatThousands(l.Subtotal.Int64()), width))
		}
		if l.Notes != "" {
			line("  * " + l.Notes)
		}
	}

	if t := doc.Totals; t != nil {
		line(rule)
		line(spread("Tạm tính", utils.FormatThousands(t.Subtotal.Int64()), width))
		if t.DiscountPercentage != nil && t.DiscountAmount != nil {
			label := fmt.Sprintf("Giảm giá (%s)", utils.FormatPercent(*t.DiscountPercentage))
			line(spread(label, "-"+utils.FormatThousands(t.DiscountAmount.Int64()), width))
		}
		line(spread("Tổng cộng", utils.FormatCurrencyVND(t.Total.Int64()), width))
		if t.PaymentMethodLabel != "" {
			line(spread("Thanh toán", t.PaymentMethodLabel, width))
		}
	}

	line(rule)
	if doc.Footer.CashierName != "" {
		line("Thu ngân: " + doc.Footer.CashierName)
	}
	if doc.Footer.PaymentTime != nil {
		line("Thanh toán lúc: " + doc.Footer.PaymentTime.Format(timeLayout))
	}
	if !doc.Footer.PrintedAt.IsZero() {
		line("In lúc: " + doc.Footer.PrintedAt.Format(timeLayout))
	}
	if doc.Footer.Note != "" {
		line(center(doc.Footer.Note, width))
	}
	b.WriteByte('\n')
	return b.String()
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

// spread puts left and right on one line, right-aligned to width.
func spread(left, right string, width int) string {
	gap := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// PDFPrinter writes one PDF file per printed copy into Dir, sized to the
// configured paper width.
type PDFPrinter struct {
	Dir      string
	FontPath string
}

func NewPDFPrinter(dir, fontPath string) *PDFPrinter {
	return &PDFPrinter{Dir: dir, FontPath: fontPath}
}

func (p *PDFPrinter) Print(ctx context.Context, doc models.PrintableDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create print dir: %w", err)
	}

	pdf := p.build(doc)
	name := fmt.Sprintf("%s-order%d-%s.pdf", doc.Kind, doc.Header.OrderID, uuid.NewString()[:8])
	if err := pdf.OutputFileAndClose(filepath.Join(p.Dir, name)); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (p *PDFPrinter) build(doc models.PrintableDocument) *fpdf.Fpdf {
	layout := doc.Layout
	widthMM := layout.PaperWidthMM
	if widthMM <= 0 {
		widthMM = 80
	}
	// tinggi kertas mengikuti jumlah baris
	heightMM := 90 + float64(len(doc.Lines))*10

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: widthMM, Ht: heightMM},
	})
	pdf.SetMargins(3, 3, 3)
	pdf.SetAutoPageBreak(true, 3)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if p.FontPath != "" {
		pdf.AddUTF8Font("receipt", "", p.FontPath)
		pdf.AddUTF8Font("receipt", "B", p.FontPath)
		family = "receipt"
		tr = func(s string) string { return s }
	}

	body := layout.BodyFontSize
	if body <= 0 {
		body = 9
	}
	rowH := body * 0.5
	inner := widthMM - 6

	pdf.AddPage()
	if doc.Header.ShopName != "" {
		pdf.SetFont(family, "B", body+1)
		pdf.CellFormat(inner, rowH, tr(doc.Header.ShopName), "", 1, "C", false, 0, "")
	}
	if doc.Header.ShopAddress != "" {
		pdf.SetFont(family, "", smallOr(layout))
		pdf.CellFormat(inner, rowH, tr(doc.Header.ShopAddress), "", 1, "C", false, 0, "")
	}

	title := layout.TitleFontSize
	if title <= 0 {
		title = 14
	}
	pdf.SetFont(family, "B", title)
	pdf.CellFormat(inner, title*0.5, tr(doc.Title), "", 1, "C", false, 0, "")
	if doc.Reprint {
		pdf.SetFont(family, "B", body)
		pdf.CellFormat(inner, rowH, tr(doc.ReprintMarker), "", 1, "C", false, 0, "")
	}

	pdf.SetFont(family, "", body)
	pdf.CellFormat(inner/2, rowH, tr(fmt.Sprintf("Đơn: #%d", doc.Header.OrderID)), "", 0, "L", false, 0, "")
	pdf.CellFormat(inner/2, rowH, tr("Bàn: "+doc.Header.TableName), "", 1, "R", false, 0, "")
	pdf.Line(3, pdf.GetY()+1, widthMM-3, pdf.GetY()+1)
	pdf.Ln(2)

	for _, l := range doc.Lines {
		if l.UnitPrice == nil {
			pdf.SetFont(family, "B", body)
			pdf.MultiCell(inner, rowH, tr(fmt.Sprintf("%d x %s", l.Quantity, l.Name)), "", "L", false)
		} else {
			pdf.SetFont(family, "", body)
			pdf.MultiCell(inner, rowH, tr(l.Name), "", "L", false)
			pdf.CellFormat(inner*0.6, rowH, tr(fmt.Sprintf("  %d x %s", l.Quantity, utils.FormatThousands(l.UnitPrice.Int64()))), "", 0, "L", false, 0, "")
			pdf.CellFormat(inner*0.4, rowH, utils.FormatThousands(l.Subtotal.Int64()), "", 1, "R", false, 0, "")
		}
		if l.Notes != "" {
			pdf.SetFont(family, "", smallOr(layout))
			pdf.MultiCell(inner, rowH, tr("  * "+l.Notes), "", "L", false)
		}
	}

	if t := doc.Totals; t != nil {
		pdf.Line(3, pdf.GetY()+1, widthMM-3, pdf.GetY()+1)
		pdf.Ln(2)
		pdf.SetFont(family, "", body)
		row := func(label, value string) {
			pdf.CellFormat(inner*0.6, rowH, tr(label), "", 0, "L", false, 0, "")
			pdf.CellFormat(inner*0.4, rowH, tr(value), "", 1, "R", false, 0, "")
		}
		row("Tạm tính", utils.FormatThousands(t.Subtotal.Int64()))
		if t.DiscountPercentage != nil && t.DiscountAmount != nil {
			row("Giảm giá ("+utils.FormatPercent(*t.DiscountPercentage)+")", "-"+utils.FormatThousands(t.DiscountAmount.Int64()))
		}
		pdf.SetFont(family, "B", body)
		row("Tổng cộng", utils.FormatThousands(t.Total.Int64())+" VND")
		pdf.SetFont(family, "", body)
		if t.PaymentMethodLabel != "" {
			row("Thanh toán", t.PaymentMethodLabel)
		}
	}

	pdf.SetFont(family, "", smallOr(layout))
	pdf.Ln(2)
	if doc.Footer.CashierName != "" {
		pdf.CellFormat(inner, rowH, tr("Thu ngân: "+doc.Footer.CashierName), "", 1, "L", false, 0, "")
	}
	if doc.Footer.PaymentTime != nil {
		pdf.CellFormat(inner, rowH, tr("Thanh toán lúc: "+doc.Footer.PaymentTime.Format(timeLayout)), "", 1, "L", false, 0, "")
	}
	if !doc.Footer.PrintedAt.IsZero() {
		pdf.CellFormat(inner, rowH, tr("In lúc: "+doc.Footer.PrintedAt.Format(timeLayout)), "", 1, "L", false, 0, "")
	}
	if doc.Footer.Note != "" {
		pdf.CellFormat(inner, rowH, tr(doc.Footer.Note), "", 1, "C", false, 0, "")
	}
	return pdf
}

func smallOr(layout models.DocumentLayout) float64 {
	if layout.SmallFontSize > 0 {
		return layout.SmallFontSize
	}
	return 7
}

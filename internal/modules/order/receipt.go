// README: PDF receipt for paid orders.
package order

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderReceipt produces an A4 PDF listing the order lines, fees, tax and total.
func RenderReceipt(o Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(190, 10, "Party Saving Rental")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(190, 7, fmt.Sprintf("Order: %s", o.ID))
	pdf.Ln(7)
	if o.Payment.PaidAt != nil {
		pdf.Cell(190, 7, fmt.Sprintf("Paid: %s via %s", o.Payment.PaidAt.Format("2006-01-02 15:04"), o.Payment.Provider))
		pdf.Ln(7)
	}
	pdf.Cell(190, 7, fmt.Sprintf("Customer: %s <%s>", o.Contact.Name, o.Contact.Email))
	pdf.Ln(7)
	pdf.Cell(190, 7, fmt.Sprintf("Event date: %s, %d day(s), %s", o.Delivery.EventDate, o.Pricing.RentalDays, o.Delivery.Method))
	pdf.Ln(7)
	if o.Delivery.Address.FullAddress != "" {
		pdf.Cell(190, 7, fmt.Sprintf("Address: %s", o.Delivery.Address.FullAddress))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit/day", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Line", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, l := range o.Pricing.Lines {
		name := l.Name
		if l.AddonSelected && l.AddonName != "" {
			name = fmt.Sprintf("%s + %s", l.Name, l.AddonName)
		}
		pdf.CellFormat(90, 7, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", l.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("$%.2f", l.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("$%.2f", l.LineTotal), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	summary := []struct {
		label string
		value float64
	}{
		{"Subtotal", o.Pricing.Subtotal},
		{fmt.Sprintf("Tax (%.2f%%)", o.Pricing.TaxRate*100), o.Pricing.Tax},
		{"Delivery fee", o.Pricing.DeliveryFee},
		{"Collection fee", o.Pricing.CollectionFee},
		{"Total", o.Pricing.Total},
	}
	for i, row := range summary {
		if i == len(summary)-1 {
			pdf.SetFont("Arial", "B", 12)
		}
		pdf.CellFormat(150, 7, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("$%.2f", row.value), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

package render

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/fyxed/internal/invoice/domain"
)

const dateLayout = "2006-01-02"

type Renderer interface {
	Render(invoice domain.Invoice) ([]byte, error)
}

type PDFRenderer struct {
	IssuerName string
}

func NewPDFRenderer() Renderer {
	return &PDFRenderer{IssuerName: "Fyxed"}
}

// Render lays out the invoice on A4. Paid invoices carry the payment date so
// the same document doubles as a receipt.
func (r *PDFRenderer) Render(invoice domain.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Invoice"
	switch invoice.Status {
	case domain.StatusPaid:
		title = "Receipt"
	case domain.StatusCancelled:
		title = "Invoice (cancelled)"
	}
	m.AddRow(12,
		text.NewCol(8, title, props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, r.IssuerName, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}),
	)

	meta := col.New(6).Add(
		text.New("Invoice number: "+invoice.Number, props.Text{Top: 0}),
		text.New("Date of issue: "+invoice.IssuedAt.Format(dateLayout), props.Text{Top: 4}),
		text.New("Date due: "+invoice.DueAt.Format(dateLayout), props.Text{Top: 8}),
	)
	if invoice.PaidAt != nil {
		meta.Add(text.New("Date paid: "+invoice.PaidAt.Format(dateLayout), props.Text{Top: 12}))
	}
	m.AddRow(20, meta, col.New(6))

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.CustomerName, props.Text{Top: 5}),
			text.New(invoice.CustomerAddress, props.Text{Top: 9}),
			text.New(invoice.CustomerEmail, props.Text{Top: 20}),
		),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, line := range invoice.Lines {
		m.AddRow(8,
			text.NewCol(6, line.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", line.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(invoice.Currency, line.UnitPrice.StringFixed(2)), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(invoice.Currency, line.Amount.StringFixed(2)), props.Text{Size: 9, Align: align.Right}),
		)
	}

	vatLabel := "VAT " + invoice.VATRate.Shift(2).StringFixed(0) + "%"
	totals := [][2]string{
		{"Subtotal", money(invoice.Currency, invoice.Subtotal.StringFixed(2))},
		{vatLabel, money(invoice.Currency, invoice.VATAmount.StringFixed(2))},
		{"Total", money(invoice.Currency, invoice.Total.StringFixed(2))},
	}
	for _, row := range totals {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, row[0], props.Text{Size: 9}),
			text.NewCol(2, row[1], props.Text{Size: 9, Align: align.Right}),
		)
	}

	due := "Amount due"
	amount := invoice.Total.StringFixed(2)
	if invoice.Status != domain.StatusIssued {
		amount = "0.00"
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, due, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, money(invoice.Currency, amount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func money(currency, amount string) string {
	return amount + " " + currency
}

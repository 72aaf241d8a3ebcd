package statement

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/MrJamesThe3rd/cartera/internal/money"
)

// column widths in mm for an A4 portrait page with 10mm margins
var pdfWidths = []float64{22, 22, 62, 22, 22, 22, 18}

type PDFRenderer struct{}

func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Render(st *Statement, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)

	// Core fonts are cp1252; names and products carry accents.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	if st.Company != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 6, tr(st.Company))
		pdf.Ln(7)
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Estado de cuenta"))
	pdf.Ln(11)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, tr("Cliente: "+st.Client.Name))
	pdf.Ln(5)

	if st.Client.Phone != "" {
		pdf.Cell(0, 5, tr("Teléfono: "+st.Client.Phone))
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, "Generado: "+st.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(8)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)

		for i, h := range headers {
			pdf.CellFormat(pdfWidths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}

		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 8)
	}

	header()

	for i, r := range st.Rows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(242, 242, 242)
		}

		cells := []string{
			r.Date.Format("2006-01-02"),
			typeLabel(r.Type, r.Campaign),
			truncate(r.Products, 40),
			money.FormatCOP(r.Total),
			money.FormatCOP(r.Payments),
			money.FormatCOP(r.Balance),
			status(r),
		}

		for c, v := range cells {
			align := "L"
			if c >= 3 && c <= 5 {
				align = "R"
			}

			pdf.CellFormat(pdfWidths[c], 6, tr(v), "1", 0, align, true, 0, "")
		}

		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)

	totals := [][2]string{
		{"Total ventas", money.FormatCOP(st.Totals.Total)},
		{"Descuentos", money.FormatCOP(st.Totals.Discount)},
		{"Total abonos", money.FormatCOP(st.Totals.Payments)},
		{"Saldo pendiente", money.FormatCOP(st.Totals.Outstanding)},
	}

	for _, t := range totals {
		pdf.CellFormat(150, 6, tr(t[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, t[1], "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}

	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

package statement

import (
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/cartera/internal/money"
)

type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "xlsx"
	FormatText  Format = "txt"
)

// Renderer writes a statement in one output format.
type Renderer interface {
	Render(st *Statement, w io.Writer) error
	ContentType() string
}

func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatPDF, "":
		return PDFRenderer{}, nil
	case FormatExcel:
		return ExcelRenderer{}, nil
	case FormatText:
		return TextRenderer{}, nil
	}

	return nil, fmt.Errorf("unsupported statement format %q", f)
}

var headers = []string{"Fecha", "Tipo", "Productos", "Total", "Abonos", "Saldo", "Estado"}

func status(r Row) string {
	if r.Paid {
		return "Pagado"
	}

	return "Pendiente"
}

// TextRenderer writes a plain summary, one line per transaction, suitable
// for pasting into a message.
type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Render(st *Statement, w io.Writer) error {
	_, err := io.WriteString(w, Summary(st))
	return err
}

// Summary formats the statement as text.
func Summary(st *Statement) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Estado de cuenta: %s\n", st.Client.Name)
	fmt.Fprintf(&sb, "Fecha: %s\n\n", st.GeneratedAt.Format("2006-01-02"))

	for _, r := range st.Rows {
		fmt.Fprintf(&sb, "* %s | %s | %s | abonos %s | saldo %s\n",
			r.Date.Format("2006-01-02"),
			typeLabel(r.Type, r.Campaign),
			money.FormatCOP(r.Total),
			money.FormatCOP(r.Payments),
			money.FormatCOP(r.Balance),
		)
	}

	fmt.Fprintf(&sb, "\nSaldo pendiente: %s\n", money.FormatCOP(st.Totals.Outstanding))

	return sb.String()
}

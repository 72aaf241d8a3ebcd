package view

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cartera/internal/client"
	"github.com/MrJamesThe3rd/cartera/internal/money"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/statement"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

type ledgerState int

const (
	ledgerStateBrowse ledgerState = iota
	ledgerStatePay
	ledgerStateMarkPaid
	ledgerStateDeletePayment
	ledgerStateExport
)

// Services groups what the ledger screen needs.
type Services struct {
	Clients      *client.Service
	Transactions *transaction.Service
	Payments     *payment.Service
	Statements   *statement.Service
}

type LedgerModel struct {
	CommonModel
	svc Services

	client  client.Client
	summary *client.Summary
	state   ledgerState
	table   table.Model
	txs     []*transaction.Transaction
	form    *huh.Form

	loading bool
	busy    bool
	err     error
	status  string
}

func NewLedgerModel(svc Services, c client.Client) LedgerModel {
	columns := []table.Column{
		{Title: "Fecha", Width: 11},
		{Title: "Tipo", Width: 9},
		{Title: "Productos", Width: 28},
		{Title: "Total", Width: 12},
		{Title: "Abonos", Width: 12},
		{Title: "Saldo", Width: 12},
		{Title: "Estado", Width: 9},
	}

	return LedgerModel{
		svc:     svc,
		client:  c,
		table:   newTable(columns),
		loading: true,
	}
}

func (m LedgerModel) Title() string { return "Cuenta de " + m.client.Name }

func (m LedgerModel) ShortHelp() string {
	if m.state != ledgerStateBrowse {
		return "Esc: cancelar"
	}

	return "p: abonar | m: marcar pagada | x: borrar último abono | e: exportar PDF | r: recargar | Esc: volver"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLedgerMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.summary = msg.summary
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case ledgerDoneMsg:
		m.busy = false
		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = errorStyle(Describe(msg.err))
			return m, nil
		}

		m.status = msg.text

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	if m.state == ledgerStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m LedgerModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m LedgerModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "e":
			return m.enterForm(ledgerStateExport, nil)
		case "p", "m", "x":
			tx := m.selected()
			if tx == nil {
				return m, nil
			}

			switch keyMsg.String() {
			case "p":
				if tx.Paid {
					m.status = "La venta ya está pagada"
					return m, nil
				}

				return m.enterForm(ledgerStatePay, tx)
			case "m":
				if tx.Paid {
					m.status = "La venta ya está pagada"
					return m, nil
				}

				return m.enterForm(ledgerStateMarkPaid, tx)
			case "x":
				if lastPayment(tx) == nil {
					m.status = "La venta no tiene abonos"
					return m, nil
				}

				return m.enterForm(ledgerStateDeletePayment, tx)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m LedgerModel) enterForm(state ledgerState, tx *transaction.Transaction) (tea.Model, tea.Cmd) {
	switch state {
	case ledgerStatePay:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Key("value").
					Title("Valor").
					Description("Saldo: "+FormatAmount(tx.Balance())).
					Placeholder(money.Format(tx.Balance())).
					Validate(func(s string) error {
						if _, err := money.Parse(s); err != nil {
							return fmt.Errorf("valor no válido")
						}

						return nil
					}),
				huh.NewSelect[string]().
					Key("method").
					Title("Forma de pago").
					Options(
						huh.NewOption("Efectivo", string(transaction.MethodCash)),
						huh.NewOption("Transferencia", string(transaction.MethodTransfer)),
						huh.NewOption("Cruce", string(transaction.MethodOffset)),
						huh.NewOption("Otro", string(transaction.MethodOther)),
					),
				huh.NewInput().
					Key("detail").
					Title("Detalle").
					Description("Obligatorio para cruces"),
				huh.NewInput().
					Key("note").
					Title("Nota"),
			),
		).WithWidth(45).WithShowHelp(false)
	case ledgerStateMarkPaid:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("confirm").
					Title(fmt.Sprintf("¿Marcar como pagada la venta del %s?", FormatDate(tx.Date))).
					Description("Saldo pendiente: " + FormatAmount(tx.Balance())),
			),
		).WithWidth(45).WithShowHelp(false)
	case ledgerStateDeletePayment:
		p := lastPayment(tx)
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("confirm").
					Title(fmt.Sprintf("¿Borrar el abono de %s del %s?", FormatAmount(p.Value), FormatDate(p.PaidOn))),
			),
		).WithWidth(45).WithShowHelp(false)
	case ledgerStateExport:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Key("path").
					Title("Carpeta de salida").
					Description("Se crea si no existe").
					Placeholder("./estados"),
			),
		).WithWidth(45).WithShowHelp(false)
	}

	m.state = state
	m.table.Blur()

	return m, m.form.Init()
}

func (m LedgerModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	tx := m.selected()

	switch m.state {
	case ledgerStatePay:
		return m, m.recordCmd(tx.ID)
	case ledgerStateMarkPaid:
		if !m.form.GetBool("confirm") {
			return m, func() tea.Msg { return ledgerDoneMsg{} }
		}

		return m, m.markPaidCmd(tx.ID)
	case ledgerStateDeletePayment:
		if !m.form.GetBool("confirm") {
			return m, func() tea.Msg { return ledgerDoneMsg{} }
		}

		return m, m.deletePaymentCmd(lastPayment(tx).ID)
	case ledgerStateExport:
		return m, m.exportCmd(m.form.GetString("path"))
	}

	return m, cmd
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Cargando cuenta...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().Bold(true).Render(m.client.Name)
	if m.summary != nil {
		last := "-"
		if m.summary.LastPaymentOn != nil {
			last = FormatDate(*m.summary.LastPaymentOn)
		}

		header += fmt.Sprintf("  Saldo: %s | Pagado: %s | Ventas abiertas: %d | Último abono: %s",
			activeStyle(FormatAmount(m.summary.Outstanding)),
			FormatAmount(m.summary.PaidTotal),
			m.summary.OpenCount,
			last,
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
	)

	if m.state != ledgerStateBrowse && m.form != nil {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel(m.formTitle(), m.form.View()))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m LedgerModel) formTitle() string {
	switch m.state {
	case ledgerStatePay:
		return "Registrar abono"
	case ledgerStateMarkPaid:
		return "Marcar pagada"
	case ledgerStateDeletePayment:
		return "Borrar abono"
	case ledgerStateExport:
		return "Exportar estado de cuenta"
	}

	return ""
}

func (m *LedgerModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		l := tx.Ledger()

		kind := string(tx.Type)
		if tx.Campaign != "" {
			kind += " " + tx.Campaign
		}

		state := "Abierta"
		if tx.Paid {
			state = "Pagada"
		}

		products := make([]string, len(tx.Items))
		for i, it := range tx.Items {
			products[i] = it.Product
		}

		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			kind,
			strings.Join(products, ", "),
			FormatAmount(l.TotalLines),
			FormatAmount(l.TotalPayments),
			FormatAmount(l.Balance),
			state,
		})
	}

	m.table.SetRows(rows)
}

// lastPayment is the most recent abono of tx, or nil.
func lastPayment(tx *transaction.Transaction) *transaction.Payment {
	var last *transaction.Payment

	for i := range tx.Payments {
		p := &tx.Payments[i]
		if last == nil || p.PaidOn.After(last.PaidOn) ||
			(p.PaidOn.Equal(last.PaidOn) && p.CreatedAt.After(last.CreatedAt)) {
			last = p
		}
	}

	return last
}

// Messages

type loadLedgerMsg struct {
	summary *client.Summary
	txs     []*transaction.Transaction
	err     error
}

func (m LedgerModel) loadCmd() tea.Cmd {
	id := m.client.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		summary, err := m.svc.Clients.Summary(ctx, id)
		if err != nil {
			return loadLedgerMsg{err: err}
		}

		txs, err := m.svc.Transactions.List(ctx, transaction.ListFilter{ClientID: &id})

		return loadLedgerMsg{summary: summary, txs: txs, err: err}
	}
}

type ledgerDoneMsg struct {
	text string
	err  error
}

func (m LedgerModel) recordCmd(txID uuid.UUID) tea.Cmd {
	value, _ := money.Parse(m.form.GetString("value"))

	params := payment.RecordParams{
		TransactionID: txID,
		Value:         value,
		Method:        transaction.PaymentMethod(m.form.GetString("method")),
		MethodDetail:  m.form.GetString("detail"),
		Note:          m.form.GetString("note"),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.svc.Payments.Record(ctx, params)
		if err != nil {
			return ledgerDoneMsg{err: err}
		}

		text := fmt.Sprintf("Abono de %s registrado. Saldo: %s", FormatAmount(params.Value), FormatAmount(res.Transaction.Balance()))
		if res.PaidChanged {
			text += " (venta pagada)"
		}

		return ledgerDoneMsg{text: text}
	}
}

func (m LedgerModel) markPaidCmd(txID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.svc.Transactions.MarkPaid(ctx, txID); err != nil {
			return ledgerDoneMsg{err: err}
		}

		return ledgerDoneMsg{text: "Venta marcada como pagada"}
	}
}

func (m LedgerModel) deletePaymentCmd(paymentID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.svc.Payments.Delete(ctx, paymentID)
		if err != nil {
			return ledgerDoneMsg{err: err}
		}

		text := "Abono borrado. Saldo: " + FormatAmount(res.Transaction.Balance())
		if res.PaidChanged {
			text += " (venta reabierta)"
		}

		return ledgerDoneMsg{text: text}
	}
}

const exportTimeout = time.Minute

func (m LedgerModel) exportCmd(dir string) tea.Cmd {
	if strings.TrimSpace(dir) == "" {
		dir = "./estados"
	}

	id := m.client.ID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		path, err := exportStatement(ctx, m.svc.Statements, id, dir)
		if err != nil {
			return ledgerDoneMsg{err: err}
		}

		return ledgerDoneMsg{text: "Estado de cuenta guardado en " + path}
	}
}

func exportStatement(ctx context.Context, svc *statement.Service, clientID uuid.UUID, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	var buf bytes.Buffer

	st, err := svc.Export(ctx, clientID, statement.Period{}, statement.FormatPDF, &buf)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, statement.Filename(st, statement.FormatPDF))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}

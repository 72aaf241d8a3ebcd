package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/cartera/internal/client"
)

type clientsState int

const (
	clientsStateBrowse clientsState = iota
	clientsStateSearch
	clientsStateCreate
)

// OpenClientMsg asks the program to show a client's ledger.
type OpenClientMsg struct {
	Client client.Client
}

type ClientsModel struct {
	CommonModel
	clientService *client.Service

	state   clientsState
	table   table.Model
	entries []*client.Entry
	form    *huh.Form

	filter  client.ListFilter
	loading bool
	err     error
	status  string
}

func NewClientsModel(svc *client.Service) ClientsModel {
	columns := []table.Column{
		{Title: "Cliente", Width: 30},
		{Title: "Teléfono", Width: 15},
		{Title: "Saldo", Width: 14},
		{Title: "Activo", Width: 7},
	}

	return ClientsModel{
		clientService: svc,
		table:         newTable(columns),
		filter:        client.ListFilter{ActiveOnly: true},
		loading:       true,
	}
}

func (m ClientsModel) Title() string { return "Clientes" }

func (m ClientsModel) ShortHelp() string {
	if m.state != clientsStateBrowse {
		return "Esc: cancelar"
	}

	return "Enter: ver cuenta | /: buscar | n: nuevo | a: activos/todos | r: recargar | Esc: volver"
}

func (m ClientsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadClientsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.entries = msg.entries
		m.refreshTable()

		return m, nil

	case clientCreatedMsg:
		if msg.err != nil {
			m.status = Describe(msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Cliente %s creado", msg.client.Name)

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case clientsStateBrowse:
		return m.updateBrowse(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m ClientsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			m.filter.ActiveOnly = !m.filter.ActiveOnly
			return m, m.loadCmd()
		case "/":
			return m.enterForm(clientsStateSearch)
		case "n":
			return m.enterForm(clientsStateCreate)
		case "enter":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.entries) {
				return m, nil
			}

			c := m.entries[idx].Client

			return m, func() tea.Msg { return OpenClientMsg{Client: c} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ClientsModel) enterForm(state clientsState) (tea.Model, tea.Cmd) {
	switch state {
	case clientsStateSearch:
		query := m.filter.Query
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Key("query").
					Title("Buscar").
					Description("Nombre, teléfono o correo").
					Value(&query),
			),
		).WithWidth(45).WithShowHelp(false)
	case clientsStateCreate:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Key("name").
					Title("Nombre").
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("el nombre es obligatorio")
						}

						return nil
					}),
				huh.NewInput().
					Key("phone").
					Title("Teléfono"),
				huh.NewInput().
					Key("email").
					Title("Correo"),
			),
		).WithWidth(45).WithShowHelp(false)
	}

	m.state = state
	m.table.Blur()

	return m, m.form.Init()
}

func (m ClientsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = clientsStateBrowse
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

	if m.state == clientsStateSearch {
		m.filter.Query = strings.TrimSpace(m.form.GetString("query"))
		m.state = clientsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()
	}

	cmd = m.createCmd()
	m.state = clientsStateBrowse
	m.form = nil
	m.table.Focus()

	return m, cmd
}

func (m ClientsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Cargando clientes...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	scope := "Todos"
	if m.filter.ActiveOnly {
		scope = "Activos"
	}

	query := m.filter.Query
	if query == "" {
		query = "-"
	}

	header := fmt.Sprintf("Filtro: [a] %s | [/] Búsqueda: %s", activeStyle(scope), activeStyle(query))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		boxed(m.table.View()),
	)

	if m.state != clientsStateBrowse && m.form != nil {
		title := "Buscar cliente"
		if m.state == clientsStateCreate {
			title = "Nuevo cliente"
		}

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel(title, m.form.View()))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ClientsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		active := "sí"
		if !e.Active {
			active = "no"
		}

		rows = append(rows, table.Row{
			e.Name,
			e.Phone,
			FormatAmount(e.Outstanding),
			active,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadClientsMsg struct {
	entries []*client.Entry
	err     error
}

func (m ClientsModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.clientService.List(ctx, filter)

		return loadClientsMsg{entries: entries, err: err}
	}
}

type clientCreatedMsg struct {
	client *client.Client
	err    error
}

func (m ClientsModel) createCmd() tea.Cmd {
	params := client.CreateParams{
		Name:  m.form.GetString("name"),
		Phone: m.form.GetString("phone"),
		Email: m.form.GetString("email"),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		c, err := m.clientService.Create(ctx, params)

		return clientCreatedMsg{client: c, err: err}
	}
}

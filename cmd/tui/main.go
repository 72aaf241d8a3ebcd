package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/cartera/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/cartera/internal/client"
	clientStore "github.com/MrJamesThe3rd/cartera/internal/client/store"
	"github.com/MrJamesThe3rd/cartera/internal/config"
	"github.com/MrJamesThe3rd/cartera/internal/database"
	"github.com/MrJamesThe3rd/cartera/internal/importer"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/statement"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
	txStore "github.com/MrJamesThe3rd/cartera/internal/transaction/store"
)

type model struct {
	services      view.Services
	importService *importer.Service
	company       string

	currentView View
	size        tea.WindowSizeMsg

	clientsView view.ClientsModel
	ledgerView  view.LedgerModel
	importView  view.ImportModel
}

type View int

const (
	ViewMenu    View = 0
	ViewClients View = 1
	ViewLedger  View = 2
	ViewImport  View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	now, err := cfg.Clock()
	if err != nil {
		slog.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	policy, err := transaction.ParsePaidPolicy(cfg.Ledger.PaidPolicy)
	if err != nil {
		slog.Error("invalid paid policy", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	txRepo := txStore.New(db)
	txSvc := transaction.NewService(txRepo, transaction.WithPaidPolicy(policy), transaction.WithClock(now))
	clientSvc := client.NewService(clientStore.New(db), txSvc)

	services := view.Services{
		Clients:      clientSvc,
		Transactions: txSvc,
		Payments:     payment.NewService(txRepo, payment.WithPaidPolicy(policy), payment.WithClock(now)),
		Statements:   statement.NewService(clientSvc, txSvc, cfg.Statement.Company, now),
	}

	return model{
		services:      services,
		importService: importer.NewService(clientSvc),
		company:       cfg.App.Name,
		currentView:   ViewMenu,
		clientsView:   view.NewClientsModel(clientSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// resize replays the last known window size to a freshly opened view.
func (m model) resize() tea.Cmd {
	if m.size.Height == 0 {
		return nil
	}

	size := m.size

	return func() tea.Msg { return size }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewClients
				m.clientsView = view.NewClientsModel(m.services.Clients)

				return m, tea.Batch(m.clientsView.Init(), m.resize())
			case "2":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.importService)

				return m, m.importView.Init()
			}
		}
	case view.OpenClientMsg:
		m.currentView = ViewLedger
		m.ledgerView = view.NewLedgerModel(m.services, msg.Client)

		return m, tea.Batch(m.ledgerView.Init(), m.resize())
	case view.BackMsg:
		if m.currentView == ViewLedger {
			m.currentView = ViewClients
			return m, m.clientsView.Init()
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewClients:
		var newModel tea.Model
		newModel, cmd = m.clientsView.Update(msg)
		m.clientsView = newModel.(view.ClientsModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.company + "\n\n" +
				"1. Clientes\n" +
				"2. Importar clientes\n\n" +
				"q. Salir",
		)
	case ViewClients:
		return m.clientsView.View()
	case ViewLedger:
		return m.ledgerView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Vista desconocida"
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

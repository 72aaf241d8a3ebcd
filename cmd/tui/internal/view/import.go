package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/cartera/internal/importer"
)

type ImportModel struct {
	CommonModel
	svc    *importer.Service
	form   *huh.Form
	result *importer.Result
	err    error
	busy   bool
}

func NewImportModel(svc *importer.Service) ImportModel {
	return ImportModel{
		svc:  svc,
		form: newImportForm(),
	}
}

func newImportForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Ruta del archivo CSV").
				Description("Columnas Nombre;Teléfono;Correo").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("la ruta es obligatoria")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importDoneMsg:
		m.busy = false
		m.result = msg.result
		m.err = msg.err

		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.result != nil || m.err != nil {
			if msg.String() == "enter" {
				m.result, m.err = nil, nil
				m.form = newImportForm()

				return m, m.form.Init()
			}

			return m, nil
		}
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		return m, m.importCmd(strings.TrimSpace(m.form.GetString("path")))
	}

	return m, cmd
}

func (m ImportModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch {
	case m.busy:
		return style.Render("Importando clientes...")
	case m.err != nil:
		return style.Render(errorStyle(Describe(m.err)) + "\n\nEnter: otro archivo | Esc: volver")
	case m.result != nil:
		return style.Render(m.resultView() + "\n\nEnter: otro archivo | Esc: volver")
	}

	return style.Render(panel("Importar clientes", m.form.View()) + "\n\nEsc: volver")
}

func (m ImportModel) resultView() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Codificación: %s\n", m.result.Charset)
	fmt.Fprintf(&sb, "Creados: %s\n", activeStyle(fmt.Sprint(len(m.result.Created))))
	fmt.Fprintf(&sb, "Omitidos: %d\n", len(m.result.Skipped))

	for _, s := range m.result.Skipped {
		fmt.Fprintf(&sb, "  fila %d %s: %s\n", s.Row, s.Name, s.Reason)
	}

	return sb.String()
}

type importDoneMsg struct {
	result *importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importDoneMsg{err: fmt.Errorf("opening %s: %w", path, err)}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res, err := m.svc.Import(ctx, importer.FormatCSV, f)

		return importDoneMsg{result: res, err: err}
	}
}

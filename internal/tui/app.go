package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/rainhub/internal/config"
	"github.com/user/rainhub/internal/state"
)

// detailErrorCap bounds how many error-log entries the detail pane shows.
const detailErrorCap = 10

type model struct {
	cfg      *config.Config
	store    *state.Store
	list     list.Model
	runs     []*state.Run
	selected *state.Run // non-nil while the detail pane is open
	width    int
	height   int
	err      error
}

type runItem struct {
	run *state.Run
}

func (r runItem) Title() string {
	return fmt.Sprintf("%s %s → %s", statusIcon(r.run.Status), r.run.ID, r.run.CollectionName)
}

func (r runItem) Description() string {
	age := time.Since(r.run.StartedAt).Round(time.Minute)
	return fmt.Sprintf("%s · %s · started %s ago", r.run.Status, r.run.Progress(), age)
}

func (r runItem) FilterValue() string {
	return r.run.ID + " " + r.run.CollectionName + " " + string(r.run.Status)
}

func statusIcon(s state.Status) string {
	switch s {
	case state.StatusRunning:
		return "[>]"
	case state.StatusCompleted:
		return "[+]"
	case state.StatusFailed:
		return "[!]"
	case state.StatusPaused:
		return "[=]"
	default:
		return "[?]"
	}
}

func initialModel(cfg *config.Config) model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Import Runs"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)

	return model{
		cfg:   cfg,
		store: state.NewStore(cfg.ImportsDir()),
		list:  l,
	}
}

type runsMsg struct {
	runs []*state.Run
	err  error
}

func (m model) Init() tea.Cmd {
	return m.loadRuns
}

func (m model) loadRuns() tea.Msg {
	runs, err := m.store.ListAll()
	return runsMsg{runs: runs, err: err}
}

func (m model) deleteSelected() tea.Cmd {
	item, ok := m.list.SelectedItem().(runItem)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		m.store.Delete(item.run.ID)
		runs, err := m.store.ListAll()
		return runsMsg{runs: runs, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.selected == nil {
				return m, tea.Quit
			}
			m.selected = nil
			return m, nil
		case "esc":
			m.selected = nil
			return m, nil
		case "enter":
			if item, ok := m.list.SelectedItem().(runItem); ok {
				m.selected = item.run
			}
			return m, nil
		case "j", "down":
			if m.selected == nil {
				m.list.CursorDown()
			}
			return m, nil
		case "k", "up":
			if m.selected == nil {
				m.list.CursorUp()
			}
			return m, nil
		case "g":
			if m.selected == nil {
				m.list.Select(0)
			}
			return m, nil
		case "G":
			if m.selected == nil {
				if items := m.list.Items(); len(items) > 0 {
					m.list.Select(len(items) - 1)
				}
			}
			return m, nil
		case "r":
			return m, m.loadRuns
		case "d":
			if m.selected == nil {
				return m, m.deleteSelected()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)

	case runsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.runs = msg.runs
		m.list.SetItems(runsToItems(msg.runs))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func runsToItems(runs []*state.Run) []list.Item {
	items := make([]list.Item, 0, len(runs))
	for _, run := range runs {
		items = append(items, runItem{run: run})
	}
	return items
}

var (
	detailTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.selected != nil {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(m.list.View())
	help := "[j/k]nav [g/G]top/end [Enter]details [d]elete [r]efresh [q]uit"
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m model) detailView() string {
	run := m.selected

	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(fmt.Sprintf("%s %s", statusIcon(run.Status), run.ID)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(" " + value + "\n")
	}
	row("Status:    ", string(run.Status))
	row("Collection:", run.CollectionName)
	row("Progress:  ", run.Progress())
	row("Duration:  ", run.Duration().Round(time.Second).String())
	row("Fetched:   ", fmt.Sprintf("%d", run.TotalFetched))
	row("Saved:     ", fmt.Sprintf("%d", run.TotalSaved))
	row("Skipped:   ", fmt.Sprintf("%d", run.TotalSkipped))
	row("Failed:    ", fmt.Sprintf("%d", run.TotalFailed))
	if run.NextCursor != "" {
		row("Cursor:    ", run.NextCursor)
	}

	if len(run.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(detailTitleStyle.Render(fmt.Sprintf("Errors (%d)", len(run.Errors))))
		b.WriteString("\n")
		shown := run.Errors
		if len(shown) > detailErrorCap {
			shown = shown[len(shown)-detailErrorCap:]
		}
		for _, e := range shown {
			b.WriteString(fmt.Sprintf("  %s  %s: %s\n",
				e.Timestamp.Format("15:04:05"), e.ExternalID, e.Message))
		}
		if len(run.Errors) > detailErrorCap {
			b.WriteString(detailLabelStyle.Render(
				fmt.Sprintf("  ... and %d more\n", len(run.Errors)-detailErrorCap)))
		}
	}

	b.WriteString(helpStyle.Render("[Esc/q]back"))
	return b.String()
}

// Run starts the TUI application
func Run(cfg *config.Config) error {
	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

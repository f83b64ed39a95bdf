package view

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

const refreshInterval = 500 * time.Millisecond

// Source is what the dashboard reads from the record store.
type Source interface {
	Snapshot() []entity.Document
	Subscribe() (<-chan struct{}, func())
}

type mode int

const (
	modeGrid mode = iota
	modeJSON
)

// changeMsg signals that the store changed
type changeMsg struct{}

// tickMsg is the fallback refresh
type tickMsg time.Time

// drainedMsg is sent once the batch being watched has finished
type drainedMsg struct{}

// dashboardModel is the bubbletea model for the live dashboard.
type dashboardModel struct {
	source   Source
	changes  <-chan struct{}
	done     <-chan struct{}
	docs     []entity.Document
	stats    entity.Stats
	progress progress.Model
	render   *Renderer
	theme    Theme
	mode     mode
	drained  bool
	quitting bool
}

func newDashboardModel(src Source, changes <-chan struct{}, done <-chan struct{}, width int) dashboardModel {
	m := dashboardModel{
		source:  src,
		changes: changes,
		done:    done,
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		render: NewRenderer(DefaultTheme, width),
		theme:  DefaultTheme,
	}
	m.refresh()
	return m
}

func (m *dashboardModel) refresh() {
	m.docs = m.source.Snapshot()
	m.stats = entity.CountStats(m.docs)
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.changes),
		waitForDrain(m.done),
		tickCmd(),
		m.progress.Init(),
	)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "tab", "j":
			if m.mode == modeGrid {
				m.mode = modeJSON
			} else {
				m.mode = modeGrid
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.render = NewRenderer(m.theme, msg.Width)
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case drainedMsg:
		m.refresh()
		m.drained = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m dashboardModel) renderContent() string {
	header := m.render.Stats(m.stats)

	var pct float64
	if m.stats.Total > 0 {
		pct = float64(m.stats.Completed+m.stats.Failed) / float64(m.stats.Total)
	}
	bar := fmt.Sprintf("%s %d/%d", m.progress.ViewAs(pct), m.stats.Completed+m.stats.Failed, m.stats.Total)

	var body string
	if m.mode == modeJSON {
		js, err := m.render.JSON(m.docs)
		if err != nil {
			js = m.theme.errorStyle().Render(err.Error())
		}
		body = js
	} else {
		body = m.render.Grid(m.docs)
	}

	hint := m.theme.hintStyle().Render("tab: toggle cards/JSON  q: stop watching (processing continues)")
	if m.drained || m.quitting {
		hint = ""
	}
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n", header, bar, body, hint)
}

// waitForChange blocks on the subscription in a command so Update never blocks.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changeMsg{}
	}
}

func waitForDrain(done <-chan struct{}) tea.Cmd {
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		<-done
		return drainedMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunDashboard shows the live dashboard until done is closed or the user quits.
// Quitting early only stops the display; the queue keeps working.
func RunDashboard(src Source, done <-chan struct{}, width int) (quit bool, err error) {
	changes, cancel := src.Subscribe()
	defer cancel()

	p := tea.NewProgram(newDashboardModel(src, changes, done, width))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("dashboard UI error: %w", err)
	}
	if m, ok := final.(dashboardModel); ok {
		return m.quitting, nil
	}
	return false, nil
}

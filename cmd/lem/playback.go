package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"lemontycoon/internal/game"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD60A"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#FFD60A")).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	saleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52B788"))
	missStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E63946"))
	starStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4A261")).Bold(true)
)

const playbackWindow = 12

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type revealMsg struct{}

// playbackModel reveals the customer log one line per tick.
type playbackModel struct {
	report   game.DayReport
	shown    int
	interval time.Duration
	spinner  spinner.Model
	done     bool
}

func newPlaybackModel(report game.DayReport, total time.Duration) playbackModel {
	n := max(len(report.Log), 1)
	interval := total / time.Duration(n)
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle))
	return playbackModel{report: report, interval: interval, spinner: sp}
}

func (m playbackModel) reveal() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return revealMsg{} })
}

func (m playbackModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reveal())
}

func (m playbackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter", " ":
			m.shown = len(m.report.Log)
			m.done = true
			return m, tea.Quit
		}
	case revealMsg:
		if m.shown < len(m.report.Log) {
			m.shown++
		}
		if m.shown >= len(m.report.Log) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.reveal()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m playbackModel) View() string {
	var b strings.Builder
	header := titleStyle.Render(fmt.Sprintf("🍋 Day %d  %s", m.report.Day, weatherLabel(m.report.Weather)))
	if !m.done {
		header = m.spinner.View() + " " + header
	}
	b.WriteString(header + "\n")

	start := max(0, m.shown-playbackWindow)
	for _, e := range m.report.Log[start:m.shown] {
		b.WriteString(styledLogLine(e) + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d customers  (enter to skip)", m.shown, len(m.report.Log))))
	return boxStyle.Render(b.String()) + "\n"
}

func styledLogLine(e game.LogEntry) string {
	tick := dimStyle.Render(fmt.Sprintf("#%-3d", e.Tick))
	switch e.Kind {
	case game.KindSale:
		return tick + " " + saleStyle.Render("✓ "+e.Message)
	case game.KindMiss:
		return tick + " " + missStyle.Render("✗ "+e.Message)
	default:
		return tick + " " + starStyle.Render("★ "+e.Message)
	}
}

// playDay animates the log in a terminal, then prints the summary.
func playDay(report game.DayReport, total time.Duration) error {
	if len(report.Log) == 0 {
		renderDaySummary(report)
		return nil
	}
	if _, err := tea.NewProgram(newPlaybackModel(report, total)).Run(); err != nil {
		return err
	}
	renderDaySummary(report)
	return nil
}

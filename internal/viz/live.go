package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odecast/internal/train"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// ProgressMsg carries one epoch of training progress into the TUI.
type ProgressMsg train.Progress

// DoneMsg signals that training finished (Err is nil on success).
type DoneMsg struct{ Err error }

// Monitor is a terminal dashboard for a running training session.
// Feed it with Program.Send from a trainer epoch observer.
type Monitor struct {
	system    string
	epochs    int
	trainHist []float64
	valHist   []float64
	gradHist  []float64
	current   train.Progress
	done      bool
	err       error
}

func NewMonitor(system string, epochs int) Monitor {
	return Monitor{system: system, epochs: epochs}
}

func (m Monitor) Init() tea.Cmd { return nil }

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.current = train.Progress(msg)
		m.trainHist = append(m.trainHist, msg.TrainLoss)
		if !math.IsNaN(msg.ValLoss) {
			m.valHist = append(m.valHist, msg.ValLoss)
		}
		m.gradHist = append(m.gradHist, msg.GradNorm)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Monitor) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.system)+" TRAINING") + "\n")

	if len(m.trainHist) > 1 {
		chart := asciigraph.Plot(m.trainHist,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("train loss"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Epoch") + valueStyle.Render(fmt.Sprintf("%d/%d", m.current.Epoch, m.epochs)) + "\n")
	s.WriteString(labelStyle.Render("Train loss") + valueStyle.Render(fmt.Sprintf("%.6f", m.current.TrainLoss)) + "\n")
	if !math.IsNaN(m.current.ValLoss) {
		s.WriteString(labelStyle.Render("Val loss") + valueStyle.Render(fmt.Sprintf("%.6f", m.current.ValLoss)) + "\n")
	}
	s.WriteString(labelStyle.Render("Grad norm") + valueStyle.Render(fmt.Sprintf("%.4f", m.current.GradNorm)) + "\n")

	if len(m.gradHist) > 1 {
		s.WriteString(labelStyle.Render("Grad trend") + Sparkline(m.gradHist, 30) + "\n")
	}

	if m.done {
		if m.err != nil {
			s.WriteString("\n" + doneStyle.Render(fmt.Sprintf("stopped: %v", m.err)) + "\n")
		} else {
			s.WriteString("\n" + doneStyle.Render("training complete") + "\n")
		}
	}

	s.WriteString(helpStyle.Render("q: quit"))
	return s.String()
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sentvec/internal/domain"
)

// ClassifierPort is the TUI-facing subset of the pipeline.
type ClassifierPort interface {
	Classify(text string) (domain.Prediction, error)
	Similar(text string, topK int) ([]domain.SimilarResult, error)
}

// Model is the Bubble Tea model for the interactive classifier.
type Model struct {
	service    ClassifierPort
	input      textinput.Model
	viewport   viewport.Model
	prediction *domain.Prediction
	similar    []domain.SimilarResult
	summary    string
	status     string
	cursor     int
	ready      bool
}

// New creates a new TUI model instance.
func New(service ClassifierPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a movie review and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, summary: summary, status: "Model trained. Type to classify."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and input boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 2 // header + summary
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				pred, err := m.service.Classify(text)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.prediction = nil
					m.similar = nil
				} else {
					m.prediction = &pred
					sims, err := m.service.Similar(text, 10)
					if err != nil {
						m.status = "Error: " + err.Error()
						m.similar = nil
					} else {
						m.similar = sims
						m.cursor = 0
						m.status = fmt.Sprintf("Classified %d words", len(strings.Fields(text)))
					}
				}
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "down":
			if len(m.similar) > 0 {
				m.cursor = (m.cursor + 1) % len(m.similar)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if len(m.similar) > 0 {
				m.cursor = (m.cursor - 1 + len(m.similar)) % len(m.similar)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Sentiment Classifier")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	result := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + result + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.prediction == nil {
		return "No prediction yet."
	}
	verdict := renderVerdict(*m.prediction)
	if len(m.similar) == 0 {
		return verdict
	}
	r := m.similar[m.cursor]
	title := fmt.Sprintf("Similar review %d/%d  score=%.3f  [%s]",
		m.cursor+1, len(m.similar), r.Score, r.Review.Label)
	return verdict + "\n\n" + title + "\n" + r.Review.Text
}

func renderVerdict(pred domain.Prediction) string {
	style := negativeStyle
	if pred.Label == domain.LabelPositive {
		style = positiveStyle
	}
	return fmt.Sprintf("%s  (%.1f%% confident)", style.Render(strings.ToUpper(pred.Label)), pred.Probability*100)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	positiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	negativeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"caddiff/internal/cad"
)

// MsgOutcomesReady indicates that the snapshots have been diffed.
type MsgOutcomesReady []*cad.Outcome

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.resizeDetails()
		return m, nil

	case MsgOutcomesReady:
		m.Loading = false
		m.Err = nil
		m.Outcomes = msg
		if m.KindIdx >= len(m.Outcomes) {
			m.KindIdx = 0
		}
		m.selectKind(m.KindIdx)
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				// Keep the filter, leave input mode.
				m.InputMode = false
				m.InputBuffer.Blur()
				m.performSearch()
				return m, nil
			case tea.KeyEsc:
				m.clearSearch()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			m.performSearch()
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "?", "esc":
				m.ShowHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.SearchActive {
				m.clearSearch()
				return m, nil
			}
			m.NormalRightFocus = false
		case "?":
			m.ShowHelp = true
		case "tab":
			if len(m.Outcomes) > 1 {
				m.selectKind((m.KindIdx + 1) % len(m.Outcomes))
			}
		case "shift+tab":
			if len(m.Outcomes) > 1 {
				m.selectKind((m.KindIdx + len(m.Outcomes) - 1) % len(m.Outcomes))
			}
		case "enter", "right", "l":
			m.NormalRightFocus = true
		case "left", "h":
			m.NormalRightFocus = false
		case "up", "k":
			if m.NormalRightFocus {
				m.DetailsViewport.LineUp(1)
			} else if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.refreshDetails()
			}
		case "down", "j":
			if m.NormalRightFocus {
				m.DetailsViewport.LineDown(1)
			} else if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
				m.refreshDetails()
			}
		case "g", "home":
			m.SelectedIdx = 0
			m.refreshDetails()
		case "G", "end":
			if len(m.FilteredIndices) > 0 {
				m.SelectedIdx = len(m.FilteredIndices) - 1
			}
			m.refreshDetails()
		case "r":
			m.Loading = true
			return m, m.loadCmd()
		case "/":
			m.InputMode = true
			m.NormalRightFocus = false
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue("")
			return m, textinput.Blink
		}
	}

	return m, cmd
}

// selectKind switches to Outcomes[idx] and reapplies the active filter.
func (m *AppModel) selectKind(idx int) {
	m.KindIdx = idx
	m.Items = nil
	if out := m.Outcome(); out != nil {
		m.Items = out.Items()
	}
	m.SelectedIdx = 0
	m.performSearch()
}

func (m *AppModel) clearSearch() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.performSearch()
}

// performSearch filters Items by case-insensitive key prefix.
func (m *AppModel) performSearch() {
	term := strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
	m.SearchActive = term != ""

	var result []int
	for i, item := range m.Items {
		if term == "" || strings.HasPrefix(strings.ToLower(item.Key), term) {
			result = append(result, i)
		}
	}
	m.FilteredIndices = result

	// Bounds check
	if m.SelectedIdx >= len(m.FilteredIndices) {
		if len(m.FilteredIndices) > 0 {
			m.SelectedIdx = len(m.FilteredIndices) - 1
		} else {
			m.SelectedIdx = 0
		}
	}
	m.refreshDetails()
}

// refreshDetails rebuilds the details panel for the selected item.
func (m *AppModel) refreshDetails() {
	m.DetailsViewport.SetContent(m.detailsContent())
	m.DetailsViewport.GotoTop()
}

func (m *AppModel) resizeDetails() {
	_, rightWidth, interiorHeight := m.layout()
	m.DetailsViewport.Width = rightWidth
	// Title line is rendered above the viewport.
	m.DetailsViewport.Height = interiorHeight - 1
}

func (m AppModel) loadCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		if load == nil {
			return MsgError(errNoLoader)
		}
		outcomes, err := load()
		if err != nil {
			return MsgError(err)
		}
		return MsgOutcomesReady(outcomes)
	}
}

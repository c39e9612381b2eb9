package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"caddiff/internal/cad"
	"caddiff/internal/model"
)

// contextRadius is how many export lines are shown around a record.
const contextRadius = 2

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	adviceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Sky Blue/Cyan
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	activeColor = lipgloss.Color("205")
	borderColor = lipgloss.Color("63")
)

// layout returns the panel widths and the interior height shared by both panels.
func (m AppModel) layout() (leftWidth, rightWidth, interiorHeight int) {
	// Subtracting 6 for horizontal margin (borders x2 + buffer)
	netWidth := m.WindowSize.Width - 6
	if netWidth < 20 {
		netWidth = 20
	}
	leftWidth = netWidth / 2
	rightWidth = netWidth - leftWidth

	// Total box height (including borders)
	boxHeight := m.WindowSize.Height - 6
	if boxHeight < 6 {
		boxHeight = 6
	}
	interiorHeight = boxHeight - 2
	return leftWidth, rightWidth, interiorHeight
}

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Diffing CAD snapshots... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press r to retry, q to quit.\n", m.Err)
	}
	if m.ShowHelp {
		return m.renderHelpDialog()
	}

	leftWidth, rightWidth, interiorHeight := m.layout()

	// LEFT PANEL: classified records
	var leftView strings.Builder
	header := m.renderHeader()
	leftView.WriteString(header)
	leftView.WriteString("\n\n")

	// Windowing Logic for Left Panel
	// Header lines plus 1 blank line
	visibleItems := interiorHeight - strings.Count(header, "\n") - 2
	if visibleItems < 1 {
		visibleItems = 1
	}
	startIdx := 0
	endIdx := len(m.FilteredIndices)

	if len(m.FilteredIndices) > visibleItems {
		if m.SelectedIdx >= visibleItems/2 {
			startIdx = m.SelectedIdx - (visibleItems / 2)
		}
		if startIdx+visibleItems > len(m.FilteredIndices) {
			startIdx = len(m.FilteredIndices) - visibleItems
		}
		endIdx = startIdx + visibleItems
	}

	if len(m.FilteredIndices) == 0 {
		if m.SearchActive {
			leftView.WriteString(dimStyle.Render("No keys match the filter."))
		} else {
			leftView.WriteString(dimStyle.Render("No differences."))
		}
	}

	for i := startIdx; i < endIdx; i++ {
		item := m.Items[m.FilteredIndices[i]]
		line := truncate(itemLine(item), leftWidth-2)

		style := normalStyle
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case item.Marked:
			style = adviceStyle
		}
		leftView.WriteString(style.Render(line))
		leftView.WriteString("\n")
	}

	lBorderColor := borderColor
	if !m.NormalRightFocus {
		lBorderColor = activeColor
	}
	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lBorderColor).
		Render(strings.TrimSuffix(leftView.String(), "\n"))

	// RIGHT PANEL: Details
	rBorderColor := borderColor
	if m.NormalRightFocus {
		rBorderColor = activeColor
	}
	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(rBorderColor).
		Render(panelTitleStyle.Render("Details") + "\n" + m.DetailsViewport.View())

	// Footer
	help := "↑/↓: Navigate • Enter: Details • Tab: Switch Kind • /: Filter • r: Reload • ?: Help • q: Quit"
	if m.NormalRightFocus {
		help = "Details Mode: ↑/↓: Scroll • Esc/←: Return to List • ?: Help • q: Quit"
	}
	footer := "\n\n" + help
	if m.InputMode {
		footer = fmt.Sprintf("\n\nFilter: %s", m.InputBuffer.View())
	} else if m.SearchActive {
		footer = fmt.Sprintf("\n\nFilter: %q (%d of %d) • Esc: Clear\n%s", m.InputBuffer.Value(), len(m.FilteredIndices), len(m.Items), help)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right) + footer
}

// renderHeader shows the kind tabs and the summary counts of the active outcome.
func (m AppModel) renderHeader() string {
	var tabs []string
	for i, out := range m.Outcomes {
		name := out.Info.Kind.Title()
		if i == m.KindIdx {
			tabs = append(tabs, titleStyle.Render(name))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+name+" "))
		}
	}

	out := m.Outcome()
	if out == nil {
		return strings.Join(tabs, " ")
	}
	c := out.Counts()
	summary := fmt.Sprintf("Shift %d • Del %d • Add %d • Unchanged %d", c.Shifted, c.Deleted, c.Added, c.Unchanged)
	header := strings.Join(tabs, " ") + "\n" + panelTitleStyle.Render(summary)
	if skipped := out.NewStats.Skipped + out.OldStats.Skipped; skipped > 0 {
		header += "\n" + dimStyle.Render(fmt.Sprintf("Skipped malformed lines: new %d, old %d", out.NewStats.Skipped, out.OldStats.Skipped))
	}
	return header
}

func itemLine(item cad.Item) string {
	line := fmt.Sprintf("%s %-5s %s %s", item.Class.Icon(), item.Class, model.SideIcon(item.Side), item.Key)
	if item.Marked {
		line += " " + model.MarkOverThreshold
	}
	return line
}

// detailsContent renders the selected item's report lines followed by the
// surrounding lines of each export it appears in.
func (m AppModel) detailsContent() string {
	item, ok := m.Selected()
	out := m.Outcome()
	if !ok || out == nil {
		return "\nNo entries found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nKey:        %s", item.Key)
	status := fmt.Sprintf("%s %s", item.Class.Icon(), item.Class)
	if item.Marked {
		status += "  " + adviceStyle.Render(model.MarkOverThreshold+" over threshold")
	}
	fmt.Fprintf(&b, "\nStatus:     %s", status)
	fmt.Fprintf(&b, "\nSide:       %s %s", model.SideIcon(item.Side), item.Side)

	b.WriteString("\n\n--- Report Lines ---")
	for _, l := range item.Lines {
		b.WriteString("\n" + l)
	}

	if item.NewLine > 0 {
		m.writeSourceContext(&b, out.Info.NewLabel, out.NewFile, item.NewLine)
	}
	if item.OldLine > 0 {
		m.writeSourceContext(&b, out.Info.OldLabel, out.OldFile, item.OldLine)
	}
	return b.String()
}

func (m AppModel) writeSourceContext(b *strings.Builder, label, path string, line int) {
	fmt.Fprintf(b, "\n\n--- %s (%s) ---", label, path)
	if m.src == nil {
		return
	}
	f, err := m.src.OpenFile(path)
	if err != nil {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("Could not read file: %v", err)))
		return
	}
	defer f.Close()
	ctx := model.GetLineContext(f, line, contextRadius)
	if ctx.ErrorMsg != "" {
		b.WriteString("\n" + dimStyle.Render(ctx.ErrorMsg))
		return
	}
	for _, l := range ctx.Lines {
		if ctx.IsTarget(l) {
			b.WriteString("\n" + targetStyle.Render(fmt.Sprintf("» %4d  %s", l.Number, l.Text)))
		} else {
			fmt.Fprintf(b, "\n  %4d  %s", l.Number, l.Text)
		}
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width < 4 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

const helpText = `CAD Diff Browser

Records are listed in report order: shifted, deleted, then added.
Entries marked *** moved further than the distance threshold.

Keys
  ↑/↓ or j/k     Move through the list (scroll details when focused)
  g / G          First / last entry
  Enter or →     Focus the details panel
  Esc or ←       Back to the list, or clear the filter
  Tab            Switch between Nails and Parts
  /              Filter by key prefix
  r              Re-read both snapshots
  ?              Toggle this help
  q              Quit`

func (m AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := w * 80 / 100
	if helpWidth < 40 {
		helpWidth = 40
	}
	if helpWidth > w-4 {
		helpWidth = w - 4
	}

	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(helpText)

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCmd())
}

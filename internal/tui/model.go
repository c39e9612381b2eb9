package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"caddiff/internal/cad"
)

var errNoLoader = errors.New("no snapshot loader configured")

// Loader produces the outcomes to browse, one per diffed kind.
type Loader func() ([]*cad.Outcome, error)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Outcomes []*cad.Outcome
	Items    []cad.Item // Items of the active outcome, in report order
	Loading  bool
	Err      error

	// UI State
	KindIdx          int // Index into Outcomes
	SelectedIdx      int // Index into FilteredIndices
	WindowSize       tea.WindowSizeMsg
	NormalRightFocus bool // Arrow keys scroll the details panel
	ShowHelp         bool

	// Search State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // Indices of Items to show
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model

	src  *cad.Source
	load Loader
}

// InitialModel returns the initial state. src decodes the snapshot exports
// whose source lines are shown next to each record.
func InitialModel(src *cad.Source, load Loader) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Key prefix..."
	ti.CharLimit = 50
	ti.Width = 20

	return AppModel{
		Loading:         true,
		InputBuffer:     ti,
		SelectedIdx:     0,
		DetailsViewport: viewport.New(40, 10),
		src:             src,
		load:            load,
	}
}

// Outcome returns the outcome being browsed, or nil before loading finishes.
func (m AppModel) Outcome() *cad.Outcome {
	if m.KindIdx < 0 || m.KindIdx >= len(m.Outcomes) {
		return nil
	}
	return m.Outcomes[m.KindIdx]
}

// Selected returns the highlighted item.
func (m AppModel) Selected() (cad.Item, bool) {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return cad.Item{}, false
	}
	return m.Items[m.FilteredIndices[m.SelectedIdx]], true
}

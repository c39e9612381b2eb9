package model

// Centralized icons for the report and the TUI.
// Using simple single-width characters for consistent terminal rendering
const (
	IconShift   = "↔" // Moved between versions
	IconDeleted = "✗" // Only in the old snapshot
	IconAdded   = "+" // Only in the new snapshot
	IconTop     = "▲"
	IconBottom  = "▼"

	// MarkOverThreshold is appended to report distance lines that exceed the mil threshold.
	MarkOverThreshold = "***"
)

// SideIcon returns the icon for a board side.
func SideIcon(s Side) string {
	if s == Bottom {
		return IconBottom
	}
	return IconTop
}

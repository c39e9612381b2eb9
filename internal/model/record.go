package model

import "strings"

// Side is the board side a record is placed on.
type Side int

const (
	Top Side = iota
	Bottom
)

// String returns the single-letter token used by the CAD exports.
func (s Side) String() string {
	if s == Bottom {
		return "B"
	}
	return "T"
}

// ParseSide reads a side token such as "(T)", "B" or "(Bottom)".
// Surrounding parentheses are stripped and only the first letter counts.
func ParseSide(tok string) (Side, bool) {
	tok = strings.Trim(tok, "()")
	if tok == "" {
		return Top, false
	}
	switch tok[0] {
	case 'T', 't':
		return Top, true
	case 'B', 'b':
		return Bottom, true
	}
	return Top, false
}

// Record is implemented by every CAD record kind.
type Record interface {
	Key() string
	BoardSide() Side
	Position() (x, y float64)
	SourceLine() int
}

// NailRecord is one test point from a Nails.asc export.
type NailRecord struct {
	X       float64 // inches
	Y       float64 // inches
	Side    Side
	NetName string
	Line    int // 1-based line in the export, display only
}

func (n NailRecord) Key() string { return n.NetName }
func (n NailRecord) BoardSide() Side { return n.Side }
func (n NailRecord) Position() (x, y float64) { return n.X, n.Y }
func (n NailRecord) SourceLine() int { return n.Line }

// PartRecord is one placed component from a Parts.asc export.
type PartRecord struct {
	PartID   string
	X        float64 // inches
	Y        float64 // inches
	Rotation float64 // degrees
	Grid     string
	Side     Side
	Line     int // 1-based line in the export, display only
}

func (p PartRecord) Key() string { return p.PartID }
func (p PartRecord) BoardSide() Side { return p.Side }
func (p PartRecord) Position() (x, y float64) { return p.X, p.Y }
func (p PartRecord) SourceLine() int { return p.Line }

// Shift pairs the new and old version of a record whose geometry changed.
type Shift[R Record] struct {
	New R
	Old R
}

// Result is the classification of a new snapshot against an old one.
// Every slice is sorted by key.
type Result[R Record] struct {
	Shifted   []Shift[R]
	Deleted   []R      // key only in the old snapshot
	Added     []R      // key only in the new snapshot
	Unchanged []string // keys in both snapshots that did not shift
}

// SideCount tallies records per board side.
type SideCount struct {
	Top    int
	Bottom int
}

// Add counts one record on side s.
func (c *SideCount) Add(s Side) {
	if s == Bottom {
		c.Bottom++
		return
	}
	c.Top++
}

// CountSides tallies the sides of recs.
func CountSides[R Record](recs []R) SideCount {
	var c SideCount
	for _, r := range recs {
		c.Add(r.BoardSide())
	}
	return c
}

// CountShiftSides tallies shifted pairs by the side of their new record.
func CountShiftSides[R Record](shifts []Shift[R]) SideCount {
	var c SideCount
	for _, s := range shifts {
		c.Add(s.New.BoardSide())
	}
	return c
}

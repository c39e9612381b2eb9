package cad

import (
	"caddiff/internal/model"
)

// Class is the classification of one keyed record.
type Class int

const (
	ClassShifted Class = iota
	ClassDeleted
	ClassAdded
)

func (c Class) String() string {
	switch c {
	case ClassShifted:
		return "Shift"
	case ClassDeleted:
		return "Del"
	case ClassAdded:
		return "Add"
	}
	return "Unknown"
}

// Icon returns the display icon for the class.
func (c Class) Icon() string {
	switch c {
	case ClassDeleted:
		return model.IconDeleted
	case ClassAdded:
		return model.IconAdded
	}
	return model.IconShift
}

// Outcome is one orchestration's parsed, classified snapshot pair.
// Exactly one of Nails and Parts is set, matching Info.Kind.
type Outcome struct {
	Info     ReportInfo
	NewFile  string
	OldFile  string
	NewStats ParseStats
	OldStats ParseStats

	Nails *model.Result[model.NailRecord]
	Parts *model.Result[model.PartRecord]

	// ReportPath is where Run wrote the text report. Empty after Diff.
	ReportPath string
}

// Counts summarises the classification.
func (o *Outcome) Counts() Counts {
	switch {
	case o.Nails != nil:
		return countsOf(*o.Nails)
	case o.Parts != nil:
		return countsOf(*o.Parts)
	}
	return Counts{}
}

// Render returns the full text report.
func (o *Outcome) Render() string {
	switch {
	case o.Nails != nil:
		return RenderNails(o.Info, *o.Nails)
	case o.Parts != nil:
		return RenderParts(o.Info, *o.Parts)
	}
	return ""
}

// Item is a flattened view of one classified record, in report order.
type Item struct {
	Class   Class
	Key     string
	Side    model.Side // new side for shifts, own side otherwise
	Lines   []string   // the report lines for this record
	NewLine int        // line in the new export, 0 if absent
	OldLine int        // line in the old export, 0 if absent
	Marked  bool       // distance line carries the over-threshold marker
}

// Items lists the shifted, deleted and added records in report order.
func (o *Outcome) Items() []Item {
	switch {
	case o.Nails != nil:
		return buildItems(o.Info, *o.Nails, NailLine, func(s model.Shift[model.NailRecord]) (string, bool) {
			return NailDistanceLine(s, o.Info.ThresholdMil), OverThreshold(DistanceMil(s.New, s.Old), o.Info.ThresholdMil)
		})
	case o.Parts != nil:
		return buildItems(o.Info, *o.Parts, PartLine, func(s model.Shift[model.PartRecord]) (string, bool) {
			return PartDistanceLine(s), true
		})
	}
	return nil
}

func buildItems[R model.Record](info ReportInfo, res model.Result[R], line func(string, R) string, distance func(model.Shift[R]) (string, bool)) []Item {
	items := make([]Item, 0, len(res.Shifted)+len(res.Deleted)+len(res.Added))
	for _, s := range res.Shifted {
		dist, marked := distance(s)
		items = append(items, Item{
			Class:   ClassShifted,
			Key:     s.New.Key(),
			Side:    s.New.BoardSide(),
			Lines:   []string{line(info.NewLabel, s.New), line(info.OldLabel, s.Old), dist},
			NewLine: s.New.SourceLine(),
			OldLine: s.Old.SourceLine(),
			Marked:  marked,
		})
	}
	for _, r := range res.Deleted {
		items = append(items, Item{
			Class:   ClassDeleted,
			Key:     r.Key(),
			Side:    r.BoardSide(),
			Lines:   []string{line(info.OldLabel, r)},
			OldLine: r.SourceLine(),
		})
	}
	for _, r := range res.Added {
		items = append(items, Item{
			Class:   ClassAdded,
			Key:     r.Key(),
			Side:    r.BoardSide(),
			Lines:   []string{line(info.NewLabel, r)},
			NewLine: r.SourceLine(),
		})
	}
	return items
}

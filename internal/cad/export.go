package cad

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"caddiff/internal/model"
)

// Export formats for machine-readable output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// ExportDoc is the machine-readable form of one or more outcomes.
type ExportDoc struct {
	Reports []ExportReport `json:"reports" toml:"reports"`
}

// ExportReport mirrors one text report.
type ExportReport struct {
	Kind         string         `json:"kind" toml:"kind"`
	NewLabel     string         `json:"new_label" toml:"new_label"`
	OldLabel     string         `json:"old_label" toml:"old_label"`
	NewDir       string         `json:"new_dir" toml:"new_dir"`
	OldDir       string         `json:"old_dir" toml:"old_dir"`
	ThresholdMil float64        `json:"threshold_mil" toml:"threshold_mil"`
	Unchanged    int            `json:"unchanged" toml:"unchanged"`
	Shifted      []ExportShift  `json:"shifted" toml:"shifted"`
	Deleted      []ExportRecord `json:"deleted" toml:"deleted"`
	Added        []ExportRecord `json:"added" toml:"added"`
}

// ExportRecord is one record. Rotation and Grid are only set for parts.
type ExportRecord struct {
	Key      string   `json:"key" toml:"key"`
	X        float64  `json:"x" toml:"x"`
	Y        float64  `json:"y" toml:"y"`
	Side     string   `json:"side" toml:"side"` // "T" or "B"
	Rotation *float64 `json:"rotation,omitempty" toml:"rotation,omitempty"`
	Grid     string   `json:"grid,omitempty" toml:"grid,omitempty"`
	Line     int      `json:"line" toml:"line"`
}

// ExportShift is one shifted pair with its measured change.
type ExportShift struct {
	Key           string       `json:"key" toml:"key"`
	New           ExportRecord `json:"new" toml:"new"`
	Old           ExportRecord `json:"old" toml:"old"`
	DistanceInch  float64      `json:"distance_inch" toml:"distance_inch"`
	DistanceMil   float64      `json:"distance_mil" toml:"distance_mil"`
	RotationDelta *float64     `json:"rotation_delta,omitempty" toml:"rotation_delta,omitempty"`
	OverThreshold bool         `json:"over_threshold" toml:"over_threshold"`
}

// NewExportDoc converts outcomes into their machine-readable form.
func NewExportDoc(outcomes []*Outcome) ExportDoc {
	doc := ExportDoc{Reports: make([]ExportReport, 0, len(outcomes))}
	for _, o := range outcomes {
		rep := ExportReport{
			Kind:         string(o.Info.Kind),
			NewLabel:     o.Info.NewLabel,
			OldLabel:     o.Info.OldLabel,
			NewDir:       o.Info.NewDir,
			OldDir:       o.Info.OldDir,
			ThresholdMil: o.Info.ThresholdMil,
			Unchanged:    o.Counts().Unchanged,
			Shifted:      []ExportShift{},
			Deleted:      []ExportRecord{},
			Added:        []ExportRecord{},
		}
		switch {
		case o.Nails != nil:
			for _, s := range o.Nails.Shifted {
				mil := DistanceMil(s.New, s.Old)
				rep.Shifted = append(rep.Shifted, ExportShift{
					Key:           s.New.Key(),
					New:           exportNail(s.New),
					Old:           exportNail(s.Old),
					DistanceInch:  Distance(s.New, s.Old),
					DistanceMil:   mil,
					OverThreshold: OverThreshold(mil, o.Info.ThresholdMil),
				})
			}
			rep.Deleted = appendExported(rep.Deleted, o.Nails.Deleted, exportNail)
			rep.Added = appendExported(rep.Added, o.Nails.Added, exportNail)
		case o.Parts != nil:
			for _, s := range o.Parts.Shifted {
				delta := RotationDelta(s.New, s.Old)
				rep.Shifted = append(rep.Shifted, ExportShift{
					Key:           s.New.Key(),
					New:           exportPart(s.New),
					Old:           exportPart(s.Old),
					DistanceInch:  Distance(s.New, s.Old),
					DistanceMil:   DistanceMil(s.New, s.Old),
					RotationDelta: &delta,
					OverThreshold: true,
				})
			}
			rep.Deleted = appendExported(rep.Deleted, o.Parts.Deleted, exportPart)
			rep.Added = appendExported(rep.Added, o.Parts.Added, exportPart)
		}
		doc.Reports = append(doc.Reports, rep)
	}
	return doc
}

// Export writes outcomes to w in format (json or toml).
func Export(w io.Writer, format string, outcomes []*Outcome) error {
	doc := NewExportDoc(outcomes)
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(doc)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func exportNail(n model.NailRecord) ExportRecord {
	return ExportRecord{Key: n.NetName, X: n.X, Y: n.Y, Side: n.Side.String(), Line: n.Line}
}

func exportPart(p model.PartRecord) ExportRecord {
	rot := p.Rotation
	return ExportRecord{Key: p.PartID, X: p.X, Y: p.Y, Side: p.Side.String(), Rotation: &rot, Grid: p.Grid, Line: p.Line}
}

func appendExported[R model.Record](dst []ExportRecord, recs []R, conv func(R) ExportRecord) []ExportRecord {
	for _, r := range recs {
		dst = append(dst, conv(r))
	}
	return dst
}

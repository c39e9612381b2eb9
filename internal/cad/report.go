package cad

import (
	"fmt"
	"strings"
	"time"

	"caddiff/internal/model"
)

const (
	ruleWidth  = 80
	timeLayout = "2006-01-02 15:04:05"
)

var (
	summaryRule = strings.Repeat("=", ruleWidth)
	sectionRule = strings.Repeat("-", ruleWidth)
)

// ReportInfo carries the labels and settings printed in a report.
type ReportInfo struct {
	Kind            Kind
	NewLabel        string // line prefix for new-snapshot records
	OldLabel        string // line prefix for old-snapshot records, the base version
	NewDir          string
	OldDir          string
	ThresholdMil    float64
	RotationEpsilon float64 // parts only
	GeneratedAt     time.Time
}

// Counts summarises a classification.
type Counts struct {
	Shifted   int
	Deleted   int
	Added     int
	Unchanged int
}

func countsOf[R model.Record](res model.Result[R]) Counts {
	return Counts{
		Shifted:   len(res.Shifted),
		Deleted:   len(res.Deleted),
		Added:     len(res.Added),
		Unchanged: len(res.Unchanged),
	}
}

// RenderNails renders the four-section nails report.
func RenderNails(info ReportInfo, res model.Result[model.NailRecord]) string {
	var b strings.Builder
	writeSummary(&b, info, countsOf(res))

	writeSectionHeader(&b, 1, "Shift", info.Kind, model.CountShiftSides(res.Shifted))
	b.WriteString("Following xy location of test point be shifted between two version\n")
	if len(res.Shifted) == 0 {
		b.WriteString("(none)\n")
	}
	for _, s := range res.Shifted {
		b.WriteString(NailLine(info.NewLabel, s.New) + "\n")
		b.WriteString(NailLine(info.OldLabel, s.Old) + "\n")
		b.WriteString(NailDistanceLine(s, info.ThresholdMil) + "\n")
		b.WriteString("\n")
	}

	writeRecordSection(&b, info, 2, "Del", "old", info.OldLabel, res.Deleted, NailLine)
	writeRecordSection(&b, info, 3, "Add", "new", info.NewLabel, res.Added, NailLine)
	return b.String()
}

// RenderParts renders the four-section parts report.
func RenderParts(info ReportInfo, res model.Result[model.PartRecord]) string {
	var b strings.Builder
	writeSummary(&b, info, countsOf(res))

	writeSectionHeader(&b, 1, "Shift", info.Kind, model.CountShiftSides(res.Shifted))
	b.WriteString("Following xy location or rotation of part be shifted between two version\n")
	if len(res.Shifted) == 0 {
		b.WriteString("(none)\n")
	}
	for _, s := range res.Shifted {
		b.WriteString(PartLine(info.NewLabel, s.New) + "\n")
		b.WriteString(PartLine(info.OldLabel, s.Old) + "\n")
		b.WriteString(PartDistanceLine(s) + "\n")
		b.WriteString("\n")
	}

	writeRecordSection(&b, info, 2, "Del", "old", info.OldLabel, res.Deleted, PartLine)
	writeRecordSection(&b, info, 3, "Add", "new", info.NewLabel, res.Added, PartLine)
	return b.String()
}

// NailLine formats one nail the way every report section lists it.
func NailLine(label string, n model.NailRecord) string {
	return fmt.Sprintf("%s     %.4f    %.4f   (%s)   %s", label, n.X, n.Y, n.Side, n.NetName)
}

// PartLine formats one part the way every report section lists it.
func PartLine(label string, p model.PartRecord) string {
	return fmt.Sprintf("%s     %s    %.4f    %.4f    %.1f    %s   (%s)",
		label, p.PartID, p.X, p.Y, p.Rotation, p.Grid, p.Side)
}

// NailDistanceLine formats the distance of a shifted nail, marked when it is
// strictly past thresholdMil.
func NailDistanceLine(s model.Shift[model.NailRecord], thresholdMil float64) string {
	inch := Distance(s.New, s.Old)
	mil := inch * MilPerInch
	line := fmt.Sprintf("Distance = %.4f inch (%.1f mil)", inch, mil)
	if OverThreshold(mil, thresholdMil) {
		line += " " + model.MarkOverThreshold
	}
	return line
}

// PartDistanceLine formats the distance and rotation change of a shifted part.
// Shifted parts always carry the marker.
func PartDistanceLine(s model.Shift[model.PartRecord]) string {
	inch := Distance(s.New, s.Old)
	return fmt.Sprintf("Distance = %.4f inch (%.1f mil)  Rotation = %.1f -> %.1f deg %s",
		inch, inch*MilPerInch, s.Old.Rotation, s.New.Rotation, model.MarkOverThreshold)
}

func writeSummary(b *strings.Builder, info ReportInfo, c Counts) {
	fmt.Fprintf(b, "CAD Diff Report - %s    %s\n", info.Kind.Title(), info.GeneratedAt.Format(timeLayout))
	b.WriteString(summaryRule + "\n")
	fmt.Fprintf(b, "Summary (base version: %s)\n", info.OldLabel)
	fmt.Fprintf(b, "Shift = %d, Del = %d, Add = %d, Unchanged = %d\n", c.Shifted, c.Deleted, c.Added, c.Unchanged)
	if info.Kind == Parts {
		fmt.Fprintf(b, "Threshold = %.1f mil, rotation > %g deg\n", info.ThresholdMil, info.RotationEpsilon)
	} else {
		fmt.Fprintf(b, "Threshold = %.1f mil (distance marker only)\n", info.ThresholdMil)
	}
	fmt.Fprintf(b, "New Version = %s  %s\n", info.NewLabel, info.NewDir)
	fmt.Fprintf(b, "Old Version = %s  %s\n", info.OldLabel, info.OldDir)
	b.WriteString(summaryRule + "\n")
}

func writeSectionHeader(b *strings.Builder, part int, verb string, kind Kind, sides model.SideCount) {
	b.WriteString("\n" + sectionRule + "\n")
	fmt.Fprintf(b, "[Part %d] %s %s\n", part, verb, kind.Title())
	fmt.Fprintf(b, "TOP Side  = %d\n", sides.Top)
	fmt.Fprintf(b, "Bottom Side  = %d\n", sides.Bottom)
	b.WriteString("\n")
}

// writeRecordSection renders the Del or Add section; version names the only
// snapshot the listed records exist in.
func writeRecordSection[R model.Record](b *strings.Builder, info ReportInfo, part int, verb, version, label string, recs []R, line func(string, R) string) {
	writeSectionHeader(b, part, verb, info.Kind, model.CountSides(recs))
	fmt.Fprintf(b, "Following %s only exist in %s version (%s)\n", info.Kind.Noun(), version, label)
	if len(recs) == 0 {
		b.WriteString("(none)\n")
	}
	for _, r := range recs {
		b.WriteString(line(label, r) + "\n")
	}
}

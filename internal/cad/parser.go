package cad

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"caddiff/internal/model"
)

const (
	// nailSentinel starts every data line of a Nails.asc export.
	nailSentinel = "$"
	// partHeader starts the header rows of a Parts.asc export.
	partHeader = "Part"

	minNailTokens = 8
	minPartTokens = 6
)

// ParseStats describes what a parse kept and dropped.
type ParseStats struct {
	Records    int // records produced
	Skipped    int // candidate data lines dropped as malformed
	Duplicates int // records whose key repeats an earlier record
}

// ParseNails reads a Nails.asc export. Only lines starting with "$" are data;
// data lines with too few tokens or unparseable coordinates are skipped.
// Token layout: [1]=x [2]=y [5]=(T|B) [7]=net name.
func ParseNails(r io.Reader) ([]model.NailRecord, ParseStats, error) {
	var (
		records []model.NailRecord
		stats   ParseStats
		seen    = make(map[string]struct{})
	)

	err := scanLines(r, func(lineNum int, line string) {
		if !strings.HasPrefix(line, nailSentinel) {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < minNailTokens {
			stats.Skipped++
			return
		}
		x, okX := parseNumber(fields[1])
		y, okY := parseNumber(fields[2])
		side, okSide := model.ParseSide(fields[5])
		if !okX || !okY || !okSide {
			stats.Skipped++
			return
		}

		rec := model.NailRecord{
			X:       x,
			Y:       y,
			Side:    side,
			NetName: fields[7],
			Line:    lineNum,
		}
		if _, dup := seen[rec.Key()]; dup {
			stats.Duplicates++
		}
		seen[rec.Key()] = struct{}{}
		records = append(records, rec)
	})

	stats.Records = len(records)
	return records, stats, err
}

// ParseParts reads a Parts.asc export. Blank lines and "Part" header rows are
// ignored; lines with too few tokens or unparseable numbers are skipped.
// Token layout: [0]=part id [1]=x [2]=y [3]=rotation [4]=grid [5]=(T|B).
func ParseParts(r io.Reader) ([]model.PartRecord, ParseStats, error) {
	var (
		records []model.PartRecord
		stats   ParseStats
		seen    = make(map[string]struct{})
	)

	err := scanLines(r, func(lineNum int, line string) {
		if line == "" || strings.HasPrefix(line, partHeader) {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < minPartTokens {
			stats.Skipped++
			return
		}
		x, okX := parseNumber(fields[1])
		y, okY := parseNumber(fields[2])
		rot, okR := parseNumber(fields[3])
		side, okSide := model.ParseSide(fields[5])
		if !okX || !okY || !okR || !okSide {
			stats.Skipped++
			return
		}

		rec := model.PartRecord{
			PartID:   fields[0],
			X:        x,
			Y:        y,
			Rotation: rot,
			Grid:     fields[4],
			Side:     side,
			Line:     lineNum,
		}
		if _, dup := seen[rec.Key()]; dup {
			stats.Duplicates++
		}
		seen[rec.Key()] = struct{}{}
		records = append(records, rec)
	})

	stats.Records = len(records)
	return records, stats, err
}

// scanLines calls fn with every trimmed line of r and its 1-based number.
func scanLines(r io.Reader, fn func(lineNum int, line string)) error {
	scanner := bufio.NewScanner(r)
	// Large buffer for long net names and comment rows
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fn(lineNum, strings.TrimSpace(scanner.Text()))
	}
	return scanner.Err()
}

// parseNumber parses a coordinate or rotation token. NaN and infinities are
// rejected along with anything strconv cannot read.
func parseNumber(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

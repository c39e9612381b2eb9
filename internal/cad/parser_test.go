package cad

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddiff/internal/model"
)

const nailsFixture = `Nails.asc exported 2025/12/16
# Nail   X        Y       Type  Grid  T/B  Virtual  Net
$1   1.0000   2.0000   100  A1  (T)  N  NET7
$2   3.5000  -0.2500   100  A2  (B)  N  GND   trailing tokens
$3   bad      2.0000   100  A3  (T)  N  NET8
$4   1.0
   $5   0.5000   0.5000   100  A5  (T)  N  NET9

$6   0.1000   0.2000   100  A6  (X)  N  NET10
$7   9.0000   9.0000   100  A7  (B)  N  NET7
`

func TestParseNails(t *testing.T) {
	recs, stats, err := ParseNails(strings.NewReader(nailsFixture))
	require.NoError(t, err)

	want := []model.NailRecord{
		{X: 1, Y: 2, Side: model.Top, NetName: "NET7", Line: 3},
		{X: 3.5, Y: -0.25, Side: model.Bottom, NetName: "GND", Line: 4},
		{X: 0.5, Y: 0.5, Side: model.Top, NetName: "NET9", Line: 7},
		{X: 9, Y: 9, Side: model.Bottom, NetName: "NET7", Line: 10},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Errorf("ParseNails mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ParseStats{Records: 4, Skipped: 3, Duplicates: 1}, stats)
}

func TestParseNails_OnlySentinelLines(t *testing.T) {
	input := "X 1.0 2.0 a b (T) c NET1\nPart 1 2 3 4 (T) 6 NET2\n"
	recs, stats, err := ParseNails(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, stats.Skipped)
}

const partsFixture = `Part   X        Y        Rot     Grid    T/B
PartList generated by CAD

U5     0.0000   0.0000   90      GRIDA   (T)
R12    1.2500   0.7500   180.5   G2      (B)   extra
C3     x        0.0      0       G3      (T)
C4     1.0      0.0      zero    G4      (T)
C5     1.0      0.0
Q1     2.0      2.0      270     G9      (T)
`

func TestParseParts(t *testing.T) {
	recs, stats, err := ParseParts(strings.NewReader(partsFixture))
	require.NoError(t, err)

	want := []model.PartRecord{
		{PartID: "U5", X: 0, Y: 0, Rotation: 90, Grid: "GRIDA", Side: model.Top, Line: 4},
		{PartID: "R12", X: 1.25, Y: 0.75, Rotation: 180.5, Grid: "G2", Side: model.Bottom, Line: 5},
		{PartID: "Q1", X: 2, Y: 2, Rotation: 270, Grid: "G9", Side: model.Top, Line: 9},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Errorf("ParseParts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ParseStats{Records: 3, Skipped: 3}, stats)
}

func TestParse_RejectsNonFiniteNumbers(t *testing.T) {
	nails := `$1   NaN      2.0000   100  A1  (T)  N  NET1
$2   1.0000   +Inf     100  A2  (T)  N  NET2
$3   -inf     1.0000   100  A3  (B)  N  NET3
$4   1.0000   2.0000   100  A4  (B)  N  NET4
`
	nrecs, nstats, err := ParseNails(strings.NewReader(nails))
	require.NoError(t, err)
	assert.Equal(t, []string{"NET4"}, keysOf(nrecs))
	assert.Equal(t, ParseStats{Records: 1, Skipped: 3}, nstats)

	parts := `U1  nan  0.0  0    G1  (T)
U2  0.0  0.0  Inf  G2  (T)
U3  0.0  0.0  45   G3  (B)
`
	precs, pstats, err := ParseParts(strings.NewReader(parts))
	require.NoError(t, err)
	assert.Equal(t, []string{"U3"}, keysOf(precs))
	assert.Equal(t, ParseStats{Records: 1, Skipped: 2}, pstats)
}

func TestParse_Deterministic(t *testing.T) {
	a, _, err := ParseNails(strings.NewReader(nailsFixture))
	require.NoError(t, err)
	b, _, err := ParseNails(strings.NewReader(nailsFixture))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	p1, _, err := ParseParts(strings.NewReader(partsFixture))
	require.NoError(t, err)
	p2, _, err := ParseParts(strings.NewReader(partsFixture))
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestParse_Empty(t *testing.T) {
	nails, stats, err := ParseNails(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, nails)
	assert.Equal(t, ParseStats{}, stats)

	parts, _, err := ParseParts(strings.NewReader("Part X Y Rot Grid T/B\n"))
	require.NoError(t, err)
	assert.Empty(t, parts)
}

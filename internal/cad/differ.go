package cad

import (
	"maps"
	"math"
	"slices"

	"caddiff/internal/model"
)

const (
	// MilPerInch converts report distances from inches to mil.
	MilPerInch = 1000.0

	// DefaultThresholdMil is the shift tolerance used by both kinds.
	DefaultThresholdMil = 3.0

	// DefaultRotationEpsilon is the smallest rotation change, in degrees, that counts as a part shift.
	DefaultRotationEpsilon = 0.0001

	// milEpsilon absorbs float error from subtracting inch coordinates, so a
	// move of exactly the threshold compares equal to it.
	milEpsilon = 1e-6
)

// ShiftPolicy decides whether a record present in both snapshots has shifted.
type ShiftPolicy[R model.Record] func(newRec, oldRec R) bool

// Differ classifies the records of two snapshots by key.
type Differ[R model.Record] struct {
	shifted ShiftPolicy[R]
}

// NewDiffer returns a Differ that uses policy for keys present in both snapshots.
func NewDiffer[R model.Record](policy ShiftPolicy[R]) *Differ[R] {
	return &Differ[R]{shifted: policy}
}

// NewNailDiffer flags a nail as shifted when x, y or side differ at all.
// The mil threshold only marks report lines for nails; it never decides inclusion.
func NewNailDiffer() *Differ[model.NailRecord] {
	return NewDiffer(func(n, o model.NailRecord) bool {
		return n.X != o.X || n.Y != o.Y || n.Side != o.Side
	})
}

// NewPartDiffer flags a part as shifted when it moved at least thresholdMil
// or its rotation changed by more than rotationEpsilon degrees.
func NewPartDiffer(thresholdMil, rotationEpsilon float64) *Differ[model.PartRecord] {
	return NewDiffer(func(n, o model.PartRecord) bool {
		if ReachesThreshold(DistanceMil(n, o), thresholdMil) {
			return true
		}
		return RotationDelta(n, o) > rotationEpsilon
	})
}

// Diff classifies newRecs against oldRecs. Later records with a repeated key
// replace earlier ones. All output slices are sorted by key.
func (d *Differ[R]) Diff(newRecs, oldRecs []R) model.Result[R] {
	newByKey := Index(newRecs)
	oldByKey := Index(oldRecs)

	var res model.Result[R]
	for _, key := range sortedKeys(newByKey) {
		n := newByKey[key]
		o, ok := oldByKey[key]
		switch {
		case !ok:
			res.Added = append(res.Added, n)
		case d.shifted(n, o):
			res.Shifted = append(res.Shifted, model.Shift[R]{New: n, Old: o})
		default:
			res.Unchanged = append(res.Unchanged, key)
		}
	}
	for _, key := range sortedKeys(oldByKey) {
		if _, ok := newByKey[key]; !ok {
			res.Deleted = append(res.Deleted, oldByKey[key])
		}
	}
	return res
}

// Index maps each key to the last record carrying it.
func Index[R model.Record](recs []R) map[string]R {
	m := make(map[string]R, len(recs))
	for _, r := range recs {
		m[r.Key()] = r
	}
	return m
}

// Distance is the straight-line XY distance between two records, in inches.
func Distance(a, b model.Record) float64 {
	ax, ay := a.Position()
	bx, by := b.Position()
	return math.Hypot(ax-bx, ay-by)
}

// DistanceMil is Distance converted to mil.
func DistanceMil(a, b model.Record) float64 {
	return Distance(a, b) * MilPerInch
}

// RotationDelta is the absolute rotation change between two parts, in degrees.
func RotationDelta(a, b model.PartRecord) float64 {
	return math.Abs(a.Rotation - b.Rotation)
}

// ReachesThreshold reports whether a distance in mil is at or past the threshold.
func ReachesThreshold(distanceMil, thresholdMil float64) bool {
	return distanceMil >= thresholdMil-milEpsilon
}

// OverThreshold reports whether a distance in mil is strictly past the threshold.
func OverThreshold(distanceMil, thresholdMil float64) bool {
	return distanceMil > thresholdMil+milEpsilon
}

func sortedKeys[R any](m map[string]R) []string {
	return slices.Sorted(maps.Keys(m))
}

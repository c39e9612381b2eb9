package cad

import (
	"fmt"
	"strings"
)

// Kind names one of the CAD record kinds that can be diffed.
type Kind string

const (
	Nails Kind = "nails"
	Parts Kind = "parts"
)

// AllKinds lists every kind in the order reports are produced.
var AllKinds = []Kind{Nails, Parts}

// Title is the capitalised name used in report headers.
func (k Kind) Title() string {
	switch k {
	case Nails:
		return "Nails"
	case Parts:
		return "Parts"
	}
	return string(k)
}

// Noun is what one record of the kind is called in descriptive report lines.
func (k Kind) Noun() string {
	if k == Parts {
		return "part"
	}
	return "test point"
}

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nails", "nail":
		return Nails, nil
	case "parts", "part":
		return Parts, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// ParseKinds resolves a list of kind names. "all" expands to every kind.
// Duplicates are dropped and the result follows AllKinds order.
func ParseKinds(names []string) ([]Kind, error) {
	want := make(map[Kind]bool)
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), "all") {
			for _, k := range AllKinds {
				want[k] = true
			}
			continue
		}
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		want[k] = true
	}
	var kinds []Kind
	for _, k := range AllKinds {
		if want[k] {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: no kind selected", ErrUnknownKind)
	}
	return kinds, nil
}

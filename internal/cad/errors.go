package cad

import "errors"

var (
	// ErrSnapshotMissing means a snapshot directory or export file does not exist.
	ErrSnapshotMissing = errors.New("snapshot file not found")

	// ErrUnknownKind means a kind name is neither nails nor parts.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrUnknownEncoding means the input encoding label is not recognised.
	ErrUnknownEncoding = errors.New("unknown input encoding")
)

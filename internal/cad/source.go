package cad

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the charset assumed for CAD exports.
const DefaultEncoding = "utf-8"

// Source opens export files inside snapshot directories and decodes them to UTF-8.
type Source struct {
	fs       afero.Fs
	enc      encoding.Encoding
	encoding string
}

// NewSource returns a Source reading from fsys. encodingName is a WHATWG label
// such as "utf-8", "big5" or "windows-1252"; empty means DefaultEncoding.
func NewSource(fsys afero.Fs, encodingName string) (*Source, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encodingName)
	}
	return &Source{fs: fsys, enc: enc, encoding: encodingName}, nil
}

// Encoding returns the label the Source decodes with.
func (s *Source) Encoding() string {
	return s.encoding
}

// Path joins a snapshot directory and an export file name.
func (s *Source) Path(dir, name string) string {
	return filepath.Join(dir, name)
}

// Open opens name inside the snapshot directory dir. A leading byte order
// mark overrides the configured encoding.
func (s *Source) Open(dir, name string) (io.ReadCloser, error) {
	info, err := s.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: snapshot directory %s", ErrSnapshotMissing, dir)
		}
		return nil, fmt.Errorf("stat snapshot %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSnapshotMissing, dir)
	}

	return s.OpenFile(s.Path(dir, name))
}

// OpenFile opens an export by path and decodes it the same way Open does.
func (s *Source) OpenFile(path string) (io.ReadCloser, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	dec := unicode.BOMOverride(s.enc.NewDecoder())
	return &decodedFile{Reader: transform.NewReader(f, dec), file: f}, nil
}

// decodedFile reads through a decoder and closes the underlying file.
type decodedFile struct {
	io.Reader
	file afero.File
}

func (d *decodedFile) Close() error {
	return d.file.Close()
}

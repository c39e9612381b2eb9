package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ContextLine is one numbered line of a source file.
type ContextLine struct {
	Number int
	Text   string
}

// LineContext represents a line from a snapshot export with surrounding context
type LineContext struct {
	Lines      []ContextLine // Window around the target, in file order
	LineNumber int           // Line number of the target
	ErrorMsg   string        // Error message if file couldn't be read
}

// IsTarget reports whether l is the line the context was built around.
func (c LineContext) IsTarget(l ContextLine) bool {
	return l.Number == c.LineNumber
}

// ExpandTilde expands ~ to the user's home directory
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}
	return path
}

// GetLineContext scans r, already decoded to UTF-8, and returns the target line
// with radius lines of context on each side.
func GetLineContext(r io.Reader, lineNumber, radius int) LineContext {
	result := LineContext{
		LineNumber: lineNumber,
	}

	first := lineNumber - radius
	last := lineNumber + radius

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	currentLine := 0
	for scanner.Scan() {
		currentLine++
		if currentLine < first {
			continue
		}
		if currentLine > last {
			break
		}
		result.Lines = append(result.Lines, ContextLine{Number: currentLine, Text: scanner.Text()})
	}

	if err := scanner.Err(); err != nil {
		result.ErrorMsg = fmt.Sprintf("Error reading file: %v", err)
		return result
	}

	if lineNumber < 1 || lineNumber > currentLine {
		result.ErrorMsg = fmt.Sprintf("Line %d out of range (file has %d lines)", lineNumber, currentLine)
		result.Lines = nil
	}

	return result
}

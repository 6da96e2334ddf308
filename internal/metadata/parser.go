// Package metadata parses the line-oriented key = value metadata files a
// catalog publishes for each simulation.
package metadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// IsDataLine reports whether line is non-empty and starts with a letter.
// Blank lines, separators and comment or number prefixed lines are not.
func IsDataLine(line string) bool {
	r, size := utf8.DecodeRuneInString(line)
	if size == 0 {
		return false
	}
	return unicode.IsLetter(r)
}

// DataLines returns the data lines of lines, in order.
func DataLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		if IsDataLine(l) {
			out = append(out, l)
		}
	}
	return out
}

// Parse turns raw metadata lines into a record. Each data line is split on
// its first '='; lines without one are skipped. Values are numbers when they
// parse as float64, text otherwise. A repeated name keeps the last value.
//
// An empty record means no data lines were found.
func Parse(lines []string) *types.SimulationRecord {
	rec := types.NewSimulationRecord()
	for _, l := range lines {
		if !IsDataLine(l) {
			continue
		}
		name, value, ok := strings.Cut(l, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		rec.Set(name, types.ParseValue(value))
	}
	return rec
}

// SplitLines splits text on newlines, dropping a trailing carriage return
// from each line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ParseText parses metadata held in a string.
func ParseText(text string) *types.SimulationRecord {
	return Parse(SplitLines(text))
}

// ReadLines reads every line from r.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ParseFile parses the metadata file at path.
func ParseFile(path string) (*types.SimulationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(lines), nil
}

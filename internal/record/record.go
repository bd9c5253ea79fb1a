// Package record persists game outcomes as JSON lines, one game.Outcome per
// line. Hands are stored as {"label": count} objects.
package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lox/dealerbench/internal/fileutil"
	"github.com/lox/dealerbench/internal/game"
)

// ErrInvalidRecord is returned for lines that do not decode to a valid
// outcome.
var ErrInvalidRecord = errors.New("invalid record")

// maxLine bounds a single record line.
const maxLine = 1 << 20

// Write stores outcomes at path atomically.
func Write(path string, outcomes []game.Outcome) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, outcomes)
	})
}

// Encode writes outcomes as JSON lines.
func Encode(w io.Writer, outcomes []game.Outcome) error {
	enc := json.NewEncoder(w)
	for i, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	return nil
}

// Read loads and validates the records at path.
func Read(path string) ([]game.Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	outcomes, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return outcomes, nil
}

// Decode reads JSON-line records from r. Blank lines are skipped. Every
// record must use known fields and rank labels and pass game.Outcome's
// validation.
func Decode(r io.Reader) ([]game.Outcome, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var outcomes []game.Outcome
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(text))
		dec.DisallowUnknownFields()
		var o game.Outcome
		if err := dec.Decode(&o); err != nil {
			return nil, fmt.Errorf("%w at line %d: %w", ErrInvalidRecord, line, err)
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("%w at line %d: %w", ErrInvalidRecord, line, err)
		}
		outcomes = append(outcomes, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return outcomes, nil
}

// Package tle parses and validates NORAD two-line element sets.
package tle

import (
	"errors"
	"strings"

	"github.com/openorbit/gs-tracker/internal/types"
)

// LineLength is the fixed length of both TLE data lines.
const LineLength = 69

var (
	// ErrInsufficientLines is returned when the input has fewer than 3 lines
	ErrInsufficientLines = errors.New("tle: expected 3 lines (name, line 1, line 2)")
	// ErrInvalidTle1Length is returned when line 1 is not exactly 69 characters
	ErrInvalidTle1Length = errors.New("tle: line 1 must be exactly 69 characters")
	// ErrInvalidTle2Length is returned when line 2 is not exactly 69 characters
	ErrInvalidTle2Length = errors.New("tle: line 2 must be exactly 69 characters")
	// ErrInvalidTle1Checksum is returned when line 1 fails checksum verification
	ErrInvalidTle1Checksum = errors.New("tle: line 1 checksum mismatch")
	// ErrInvalidTle2Checksum is returned when line 2 fails checksum verification
	ErrInvalidTle2Checksum = errors.New("tle: line 2 checksum mismatch")
)

// Parse parses a raw three-line element block into a TLEData value.
//
// The input must contain at least three newline-separated lines: the
// satellite name, then the two fixed-format data lines. Each line is
// trimmed of surrounding whitespace before validation. Checks run in a
// fixed order and the first violation is reported: line count, line 1
// length, line 2 length. Parse is a pure transform with no side effects.
//
// Checksum digits are not verified here; callers that want enforcement
// use VerifyChecksums.
func Parse(raw string) (*types.TLEData, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 3 {
		return nil, ErrInsufficientLines
	}

	data := &types.TLEData{
		Tle0: strings.TrimSpace(lines[0]),
		Tle1: strings.TrimSpace(lines[1]),
		Tle2: strings.TrimSpace(lines[2]),
	}

	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks the structural invariants of an already-assembled
// TLEData, such as one received in a job submission payload. It applies
// the same length checks as Parse, in the same order.
func Validate(d *types.TLEData) error {
	if len(d.Tle1) != LineLength {
		return ErrInvalidTle1Length
	}
	if len(d.Tle2) != LineLength {
		return ErrInvalidTle2Length
	}
	return nil
}

// Checksum computes the NORAD mod-10 checksum over all but the last
// character of a TLE data line: digits count their value, a minus sign
// counts 1, everything else counts 0.
func Checksum(line string) int {
	sum := 0
	for _, c := range line[:len(line)-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// VerifyChecksums checks that the trailing checksum digit of each data
// line matches the computed mod-10 sum. Structural validation runs
// first so Checksum never sees a short line.
func VerifyChecksums(d *types.TLEData) error {
	if err := Validate(d); err != nil {
		return err
	}
	if int(d.Tle1[LineLength-1]-'0') != Checksum(d.Tle1) {
		return ErrInvalidTle1Checksum
	}
	if int(d.Tle2[LineLength-1]-'0') != Checksum(d.Tle2) {
		return ErrInvalidTle2Checksum
	}
	return nil
}

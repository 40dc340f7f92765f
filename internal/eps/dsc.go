// Package eps extracts descriptive metadata from EPS/PostScript files.
//
// Nothing here interprets PostScript. The extraction is heuristic and
// best-effort: it reads Document Structuring Convention comments
// (`%%Key: value`) and scans the program text for a handful of operators that
// hint at fonts, color models and object counts. Malformed files yield
// partial metadata rather than errors wherever possible.
package eps

import (
	"encoding/binary"
	"errors"
	"regexp"
	"strings"
)

// dosEPSMagic is the header of a DOS EPS binary file (C5 D0 D3 C6) that
// wraps the PostScript section together with a TIFF or WMF preview.
var dosEPSMagic = []byte{0xC5, 0xD0, 0xD3, 0xC6}

// dscLine matches `%%Key: value` and bare `%%Key` comment lines.
var dscLine = regexp.MustCompile(`^%%([A-Za-z][A-Za-z0-9_\-]*)(?::[ \t]*(.*?))?[ \t]*$`)

// HasBinaryHeader reports whether data starts with a DOS EPS binary header.
func HasBinaryHeader(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for i, b := range dosEPSMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}

// PostScriptSection returns the PostScript program from data. For DOS EPS
// files the section is located through the offsets in the binary header,
// otherwise data is returned as-is.
func PostScriptSection(data []byte) ([]byte, error) {
	if !HasBinaryHeader(data) {
		return data, nil
	}
	if len(data) < 12 {
		return nil, errors.New("truncated DOS EPS header")
	}
	offset := binary.LittleEndian.Uint32(data[4:8])
	length := binary.LittleEndian.Uint32(data[8:12])
	end := uint64(offset) + uint64(length)
	if offset < 12 || end > uint64(len(data)) {
		return nil, errors.New("DOS EPS header points outside the file")
	}
	return data[offset:end], nil
}

// ParseDSC collects Document Structuring Convention comments from text. Keys
// are kept as written (e.g. "BoundingBox"); the first occurrence wins, except
// that an "(atend)" placeholder is replaced by a later concrete value.
// Continuation lines (`%%+`) are appended to the previous key.
func ParseDSC(text string) map[string]string {
	comments := make(map[string]string)
	lastKey := ""

	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, "%%") {
			continue
		}
		if strings.HasPrefix(line, "%%+") {
			if lastKey != "" {
				cont := strings.TrimSpace(strings.TrimPrefix(line, "%%+"))
				comments[lastKey] = strings.TrimSpace(comments[lastKey] + " " + cont)
			}
			continue
		}

		m := dscLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], strings.TrimSpace(m[2])
		existing, seen := comments[key]
		if !seen || (existing == "(atend)" && value != "") {
			comments[key] = value
		}
		lastKey = key
	}

	return comments
}

// unquote strips PostScript string parentheses from DSC values such as
// `%%Title: (Company Logo)`.
func unquote(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}

package storage

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/muurk/camcfg/internal/schema"
)

const (
	// MaxFileSize bounds parse time and flash wear
	MaxFileSize = 16 * 1024

	// MaxLineLength is the longest physical line the parsers accept
	MaxLineLength = 512
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LineKind classifies a physical line
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineSection
	LineKeyValue
	LineMalformed
	LineTooLong
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineSection:
		return "section"
	case LineKeyValue:
		return "key/value"
	case LineTooLong:
		return "too long"
	default:
		return "malformed"
	}
}

// Line is one classified line of an INI file
type Line struct {
	Number int
	Kind   LineKind
	Name   string // section name for LineSection
	Key    string // for LineKeyValue
	Value  string // for LineKeyValue, trimmed and without inline comment
	Raw    string
}

// Scanner splits INI data into classified lines
type Scanner struct {
	sc   *bufio.Scanner
	line Line
	n    int
}

// NewScanner returns a Scanner over data. A leading UTF-8 BOM is skipped.
func NewScanner(data []byte) *Scanner {
	data = bytes.TrimPrefix(data, utf8BOM)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, MaxLineLength+1), MaxFileSize+1)
	return &Scanner{sc: sc}
}

// Next advances to the next line
func (s *Scanner) Next() bool {
	if !s.sc.Scan() {
		return false
	}
	s.n++
	s.line = classify(s.n, s.sc.Text())
	return true
}

// Line returns the current line
func (s *Scanner) Line() Line {
	return s.line
}

// Err returns the first read error
func (s *Scanner) Err() error {
	return s.sc.Err()
}

func classify(n int, raw string) Line {
	l := Line{Number: n, Raw: raw}
	if len(raw) > MaxLineLength {
		l.Kind = LineTooLong
		return l
	}

	text := strings.TrimSpace(raw)
	switch {
	case text == "":
		l.Kind = LineBlank

	case text[0] == ';' || text[0] == '#':
		l.Kind = LineComment

	case text[0] == '[':
		end := strings.IndexByte(text, ']')
		if end < 0 {
			l.Kind = LineMalformed
			return l
		}
		rest := strings.TrimSpace(text[end+1:])
		if rest != "" && rest[0] != ';' && rest[0] != '#' {
			l.Kind = LineMalformed
			return l
		}
		l.Kind = LineSection
		l.Name = strings.TrimSpace(text[1:end])
		if l.Name == "" {
			l.Kind = LineMalformed
		}

	default:
		eq := strings.IndexByte(text, '=')
		if eq <= 0 {
			l.Kind = LineMalformed
			return l
		}
		l.Kind = LineKeyValue
		l.Key = strings.TrimSpace(text[:eq])
		value := strings.TrimSpace(text[eq+1:])
		l.Value = strings.TrimSpace(value[:schema.CommentStart(value)])
		if l.Key == "" {
			l.Kind = LineMalformed
		}
	}
	return l
}

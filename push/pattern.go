package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// A pattern is compiled into a sequence of segments before any argument is
// substituted.  Text segments are emitted verbatim; the two placeholder kinds
// each consume one argument, in order of appearance:
//
//	?  json encode the argument
//	@  splice the argument's textual value in unquoted (e.g. an identifier)
type segKind int

const (
	segText segKind = iota
	segJSON
	segLiteral
)

type segment struct {
	kind segKind
	text string // segText only
}

// parsePattern scans the pattern left to right, splitting it into text runs
// and placeholder occurrences.
func parsePattern(pattern string) []segment {
	var segs []segment
	var start = 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '?', '@':
			if i > start {
				segs = append(segs, segment{segText, pattern[start:i]})
			}
			if pattern[i] == '?' {
				segs = append(segs, segment{kind: segJSON})
			} else {
				segs = append(segs, segment{kind: segLiteral})
			}
			start = i + 1
		}
	}
	if start < len(pattern) {
		segs = append(segs, segment{segText, pattern[start:]})
	}
	return segs
}

// Compile substitutes args into pattern and returns one line of client
// script, indented by two spaces and terminated by a semicolon.
//
// The number of placeholders in pattern must equal len(args); a mismatch
// returns an error rather than emitting script containing "undefined".
func Compile(pattern string, args ...interface{}) (string, error) {
	var segs = parsePattern(pattern)
	var buf bytes.Buffer
	buf.WriteString("  ")
	var argIndex = 0
	for _, seg := range segs {
		switch seg.kind {
		case segText:
			buf.WriteString(seg.text)
			continue
		}
		if argIndex >= len(args) {
			return "", fmt.Errorf("push: pattern %q has more placeholders than arguments (%d)", pattern, len(args))
		}
		var arg = args[argIndex]
		argIndex++
		switch seg.kind {
		case segJSON:
			var enc, err = marshalJS(arg)
			if err != nil {
				return "", fmt.Errorf("push: pattern %q argument %d: %v", pattern, argIndex-1, err)
			}
			buf.WriteString(enc)
		case segLiteral:
			buf.WriteString(literalText(arg))
		}
	}
	if argIndex < len(args) {
		return "", fmt.Errorf("push: pattern %q has %d placeholders but %d arguments", pattern, argIndex, len(args))
	}
	buf.WriteString(";")
	return buf.String(), nil
}

// marshalJS json-encodes v for use inside a script block.  The output is
// script text, not HTML, so the encoder's <, >, & escaping is disabled.
func marshalJS(v interface{}) (string, error) {
	var buf bytes.Buffer
	var enc = json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encode appends a newline.
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// literalText returns the unquoted textual form of v.
func literalText(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", v)
}

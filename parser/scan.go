package parser

import (
	"strings"

	"github.com/hupe1980/reactmesh/core"
)

// marker is a line-initial label found in the buffer. start is the offset of
// the line holding the label; body is the offset right after its colon.
type marker struct {
	label string
	start int
	body  int
}

// markerAt reports whether a known label begins the line at offset i.
// Horizontal whitespace before the label is tolerated.
func markerAt(buf string, i int) (marker, bool) {
	k := i
	for k < len(buf) && (buf[k] == ' ' || buf[k] == '\t') {
		k++
	}
	rest := buf[k:]
	for _, label := range core.Labels {
		if len(rest) > len(label) && rest[len(label)] == ':' && strings.HasPrefix(rest, label) {
			return marker{label: label, start: i, body: k + len(label) + 1}, true
		}
	}
	return marker{}, false
}

// nextMarker returns the first marker whose line starts at or after from.
func nextMarker(buf string, from int) (marker, bool) {
	for i := from; i < len(buf); {
		if i == 0 || buf[i-1] == '\n' {
			if m, ok := markerAt(buf, i); ok {
				return m, true
			}
		}
		j := strings.IndexByte(buf[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
	}
	return marker{}, false
}

// findLabel returns the first marker carrying label at or after from.
func findLabel(buf, label string, from int) (marker, bool) {
	for {
		m, ok := nextMarker(buf, from)
		if !ok {
			return marker{}, false
		}
		if m.label == label {
			return m, true
		}
		from = m.body
	}
}

// resumeAt returns the offset from which an unsuccessful search must be
// retried once more text arrives: the start of the last, possibly incomplete,
// line. Completed lines without a marker never gain one.
func resumeAt(buf string, from int) int {
	if from >= len(buf) {
		return from
	}
	if i := strings.LastIndexByte(buf[from:], '\n'); i >= 0 {
		return from + i + 1
	}
	return from
}

// next returns the next marker after the cursor and advances the cursor past
// it. When none is found the cursor moves to the last line start and records
// that the rest of buf holds no line break, so each byte of an unfinished
// line is searched once however many deltas it spans.
func next(tc *core.TurnContext, buf string) (marker, bool) {
	from := tc.Cursor.Scan
	if seen := tc.Cursor.Seen; seen > from {
		if from == 0 || buf[from-1] == '\n' {
			if m, ok := markerAt(buf, from); ok {
				tc.Cursor.Scan, tc.Cursor.Seen = m.body, m.body
				return m, true
			}
		}
		j := strings.IndexByte(buf[seen:], '\n')
		if j < 0 {
			tc.Cursor.Seen = len(buf)
			return marker{}, false
		}
		from = seen + j + 1
	}
	m, ok := nextMarker(buf, from)
	if !ok {
		tc.Cursor.Scan = resumeAt(buf, from)
		tc.Cursor.Seen = len(buf)
		return marker{}, false
	}
	tc.Cursor.Scan, tc.Cursor.Seen = m.body, m.body
	return m, true
}

// Extract locates the first start label in buf and returns the trimmed text
// up to the first end label that follows it. When end is empty or has not
// arrived yet the text runs to the end of buf. The boolean is false when the
// start label is absent.
func Extract(buf, start, end string) (string, bool) {
	m, ok := findLabel(buf, start, 0)
	if !ok {
		return "", false
	}
	stop := len(buf)
	if end != "" {
		if e, ok := findLabel(buf, end, m.body); ok {
			stop = e.start
		}
	}
	return strings.TrimSpace(buf[m.body:stop]), true
}

// StripQuotes removes one matching layer of triple backticks, double quotes
// or single backticks around s. Callers trim s first.
func StripQuotes(s string) string {
	switch {
	case len(s) >= 6 && strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```"):
		return s[3 : len(s)-3]
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		return s[1 : len(s)-1]
	case len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`':
		return s[1 : len(s)-1]
	default:
		return s
	}
}

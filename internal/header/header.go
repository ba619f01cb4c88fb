// Package header parses the metadata block at the top of a note.
//
// The grammar is a restricted two-level subset of YAML: a key line
// ("tags:") followed by zero or more list items ("  - value"). A key line
// with an inline scalar ("date: 2024-01-01") is accepted and kept as a
// single-element sequence.
package header

import (
	"fmt"
	"strings"

	"github.com/starford/vaultsort/internal/apperr"
)

// Delimiter opens and closes the header block.
const Delimiter = "---"

// ListMarker prefixes every list item line.
const ListMarker = "  -"

// Property is one key of a header with its ordered values.
type Property struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
	Inline bool     `json:"inline,omitempty"`
}

// Header is an ordered mapping from property name to values.
type Header struct {
	props []Property
	index map[string]int
}

// New returns an empty header.
func New() *Header {
	return &Header{index: make(map[string]int)}
}

// Extract returns the raw header lines of a note: everything after the
// first line up to the first line equal to the closing delimiter. The
// first line is the opening delimiter by convention; its content is not
// checked. When limit is positive the closing delimiter must appear within
// the first limit lines.
func Extract(data []byte, limit int) ([]string, error) {
	lines := strings.Split(string(data), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	for i := 1; i < len(lines); i++ {
		if limit > 0 && i > limit {
			return nil, fmt.Errorf("%w: no closing delimiter within %d lines", apperr.ErrNoHeader, limit)
		}
		if lines[i] == Delimiter {
			return lines[1:i], nil
		}
	}
	return nil, fmt.Errorf("%w: closing delimiter not found", apperr.ErrNoHeader)
}

// Parse builds a Header from raw header lines. Blank lines are skipped.
// A list item before any key is an error.
func Parse(lines []string) (*Header, error) {
	h := New()
	current := ""
	for n, raw := range lines {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, ListMarker) {
			if current == "" {
				return nil, fmt.Errorf("%w: line %d: %q", apperr.ErrUndefinedKey, n+1, line)
			}
			h.Append(current, strings.TrimSpace(strings.TrimPrefix(line, ListMarker)))
			continue
		}
		key, value, inline := splitKeyLine(line)
		if inline {
			h.SetInline(key, value)
		} else {
			h.Set(key)
		}
		current = key
	}
	return h, nil
}

// ParseFile extracts and parses the header of a whole note.
func ParseFile(data []byte, limit int) (*Header, error) {
	lines, err := Extract(data, limit)
	if err != nil {
		return nil, err
	}
	return Parse(lines)
}

func splitKeyLine(line string) (key, value string, inline bool) {
	if strings.HasSuffix(line, ":") {
		return strings.TrimSuffix(line, ":"), "", false
	}
	if i := strings.Index(line, ": "); i > 0 {
		return line[:i], strings.TrimSpace(line[i+2:]), true
	}
	return line, "", false
}

func (h *Header) slot(key string) *Property {
	if i, ok := h.index[key]; ok {
		return &h.props[i]
	}
	h.index[key] = len(h.props)
	h.props = append(h.props, Property{Key: key, Values: []string{}})
	return &h.props[len(h.props)-1]
}

// Set resets key to the given list values. A key seen again keeps its
// original position.
func (h *Header) Set(key string, values ...string) {
	p := h.slot(key)
	p.Values = append([]string{}, values...)
	p.Inline = false
}

// SetInline resets key to a single inline scalar.
func (h *Header) SetInline(key, value string) {
	p := h.slot(key)
	p.Values = []string{value}
	p.Inline = true
}

// Append adds a list value to key, creating the key when missing.
func (h *Header) Append(key, value string) {
	p := h.slot(key)
	p.Values = append(p.Values, value)
	p.Inline = false
}

// Get returns the values of key and whether the key was present.
func (h *Header) Get(key string) ([]string, bool) {
	i, ok := h.index[key]
	if !ok {
		return nil, false
	}
	return h.props[i].Values, true
}

// First returns the first value of key. ok is false when the key is absent
// or has no values.
func (h *Header) First(key string) (string, bool) {
	vs, ok := h.Get(key)
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	_, ok := h.index[key]
	return ok
}

// HasValue reports whether key holds value exactly.
func (h *Header) HasValue(key, value string) bool {
	vs, _ := h.Get(key)
	for _, v := range vs {
		if v == value {
			return true
		}
	}
	return false
}

// HasTag reports whether the list under key contains tag, comparing
// normalized tags.
func (h *Header) HasTag(key, tag string) bool {
	want := NormalizeTag(tag)
	vs, _ := h.Get(key)
	for _, v := range vs {
		if NormalizeTag(v) == want {
			return true
		}
	}
	return false
}

// Keys returns property names in header order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.props))
	for i, p := range h.props {
		out[i] = p.Key
	}
	return out
}

// Properties returns a copy of the properties in header order.
func (h *Header) Properties() []Property {
	out := make([]Property, len(h.props))
	for i, p := range h.props {
		out[i] = Property{Key: p.Key, Values: append([]string{}, p.Values...), Inline: p.Inline}
	}
	return out
}

// Lines serializes the header back to key lines and list item lines.
func (h *Header) Lines() []string {
	var out []string
	for _, p := range h.props {
		if p.Inline && len(p.Values) == 1 {
			out = append(out, p.Key+": "+p.Values[0])
			continue
		}
		out = append(out, p.Key+":")
		for _, v := range p.Values {
			out = append(out, ListMarker+" "+v)
		}
	}
	return out
}

// Block renders the header as a complete delimited block ending in a newline.
func (h *Header) Block() string {
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	for _, l := range h.Lines() {
		b.WriteString(l + "\n")
	}
	b.WriteString(Delimiter + "\n")
	return b.String()
}

// Unquote strips one pair of matching surrounding quotes.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// NormalizeTag makes `"#Work"`, `#work` and `work` compare equal.
func NormalizeTag(v string) string {
	return strings.ToLower(strings.TrimPrefix(Unquote(v), "#"))
}

// Package xmlmap decodes arbitrary XML documents into nested maps.
//
// Tag names are stripped of their namespace prefix and converted to
// lower snake case ("exceptionCode" -> "exception_code", "OAuth" -> "o_auth",
// "result-list" -> "result_list"). Leaf elements become strings, empty or
// xsi:nil elements become nil, and repeated sibling tags collapse into a
// []any in document order. Attributes other than nil are dropped.
package xmlmap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Map is a decoded element: child tag name to string, nil, []any or Map.
type Map map[string]any

// String returns the string stored under key, or "" when absent or not a leaf.
func (m Map) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Map returns the nested element stored under key.
func (m Map) Map(key string) (Map, bool) {
	v, ok := m[key].(Map)
	return v, ok
}

// Strings returns the leaf values stored under key, whether the tag
// appeared once or repeatedly.
func (m Map) Strings(key string) []string {
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Has reports whether key is present, including nil-valued elements.
func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

type frame struct {
	name     string
	children Map
	text     strings.Builder
	isNil    bool
}

// Parse decodes the document read from r. Mismatched or unclosed tags are
// an error. A body without any element decodes to an empty Map.
func Parse(r io.Reader) (Map, error) {
	dec := xml.NewDecoder(r)

	root := Map{}
	var stack []*frame

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: Snake(t.Name.Local)}
			for _, a := range t.Attr {
				if a.Name.Local == "nil" && strings.EqualFold(a.Value, "true") {
					f.isNil = true
				}
			}
			stack = append(stack, f)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("decode xml: unexpected </%s>", t.Name.Local)
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			parent := root
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.children == nil {
					top.children = Map{}
				}
				parent = top.children
			}
			add(parent, f.name, f.value())
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("decode xml: unclosed <%s>", stack[len(stack)-1].name)
	}
	return root, nil
}

func (f *frame) value() any {
	if f.children != nil {
		return f.children
	}
	if f.isNil {
		return nil
	}
	text := strings.TrimSpace(f.text.String())
	if text == "" {
		return nil
	}
	return text
}

func add(m Map, key string, v any) {
	existing, ok := m[key]
	if !ok {
		m[key] = v
		return
	}
	if list, ok := existing.([]any); ok {
		m[key] = append(list, v)
		return
	}
	m[key] = []any{existing, v}
}

var (
	reAcronym = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	reCamel   = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// Snake converts a tag name to lower snake case.
func Snake(s string) string {
	s = strings.ReplaceAll(s, "::", "/")
	s = reAcronym.ReplaceAllString(s, "${1}_${2}")
	s = reCamel.ReplaceAllString(s, "${1}_${2}")
	s = strings.NewReplacer(".", "_", "-", "_").Replace(s)
	return strings.ToLower(s)
}

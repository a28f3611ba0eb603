// Package xmltree decodes an XML document into nested maps keyed by element
// name.
//
// An element with child elements becomes a map[string]any, an element holding
// only text becomes a string, and sibling elements that share a name are
// collected into a []any in document order. Attributes are dropped. The root
// element name is the only key of the returned Tree:
//
//	<ListBucketResult><Name>b</Name><Contents>..</Contents><Contents>..</Contents></ListBucketResult>
//
// decodes to
//
//	Tree{"ListBucketResult": map[string]any{"Name": "b", "Contents": []any{..., ...}}}
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Tree is a decoded document.
type Tree map[string]any

// Decode reads one document from r.
func Decode(r io.Reader) (Tree, error) {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("xmltree: no root element")
			}

			return nil, fmt.Errorf("xmltree: %w", err)
		}

		if start, ok := tok.(xml.StartElement); ok {
			v, err := decodeElement(dec)
			if err != nil {
				return nil, err
			}

			return Tree{start.Name.Local: v}, nil
		}
	}
}

// Parse decodes p. An empty or whitespace-only p gives a nil Tree and no error.
func Parse(p []byte) (Tree, error) {
	if len(bytes.TrimSpace(p)) == 0 {
		return nil, nil
	}

	return Decode(bytes.NewReader(p))
}

// decodeElement consumes tokens up to and including the matching end element.
func decodeElement(dec *xml.Decoder) (any, error) {
	var (
		text     strings.Builder
		children map[string]any
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			v, err := decodeElement(dec)
			if err != nil {
				return nil, err
			}

			if children == nil {
				children = make(map[string]any)
			}

			add(children, t.Name.Local, v)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if children != nil {
				return children, nil
			}

			return strings.TrimSpace(text.String()), nil
		}
	}
}

func add(m map[string]any, name string, v any) {
	prev, ok := m[name]
	if !ok {
		m[name] = v
		return
	}

	if list, ok := prev.([]any); ok {
		m[name] = append(list, v)
		return
	}

	m[name] = []any{prev, v}
}

// Root returns the name of the root element, or "" for an empty Tree.
func (t Tree) Root() string {
	for k := range t {
		return k
	}

	return ""
}

// Get walks path from the root and returns the value found there.
func (t Tree) Get(path ...string) (any, bool) {
	var cur any = map[string]any(t)
	for _, name := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = m[name]; !ok {
			return nil, false
		}
	}

	return cur, true
}

// String returns the text at path, or "" when path does not lead to text.
func (t Tree) String(path ...string) string {
	v, _ := t.Get(path...)
	s, _ := v.(string)

	return s
}

// List returns the value at path as a list. A single element gives a list of
// one and a missing path gives nil, so callers need not care whether the
// document repeated the element.
func (t Tree) List(path ...string) []any {
	v, ok := t.Get(path...)
	if !ok {
		return nil
	}

	if list, ok := v.([]any); ok {
		return list
	}

	return []any{v}
}

// Maps is List filtered to the entries that have child elements.
func (t Tree) Maps(path ...string) []Tree {
	var out []Tree
	for _, v := range t.List(path...) {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Tree(m))
		}
	}

	return out
}

package sign

import (
	"iter"
	"net/http"
	"sort"
	"strings"
)

// Header is a case-insensitive mapping of header names to values.
//
// The zero value is an empty Header ready to use. Names keep the casing they
// were last set with for display, but lookups ignore case: Get("content-type")
// and Get("Content-TYPE") return the same value.
type Header struct {
	m map[string]headerField
}

type headerField struct {
	name  string
	value string
}

// NewHeader returns a Header holding the given pairs.
func NewHeader(kv map[string]string) Header {
	h := Header{m: make(map[string]headerField, len(kv))}
	for k, v := range kv {
		h.Set(k, v)
	}

	return h
}

// HeaderFromHTTP copies an http.Header. Multiple values for one name are
// joined with a comma.
func HeaderFromHTTP(src http.Header) Header {
	h := Header{m: make(map[string]headerField, len(src))}
	for k, v := range src {
		h.Set(k, strings.Join(v, ","))
	}

	return h
}

// Set stores value under name, replacing any value stored under another
// casing of the same name.
func (h *Header) Set(name, value string) {
	if h.m == nil {
		h.m = make(map[string]headerField)
	}

	h.m[strings.ToLower(name)] = headerField{name: name, value: value}
}

// Get returns the value stored under name, or "".
func (h Header) Get(name string) string {
	return h.m[strings.ToLower(name)].value
}

// Lookup returns the value stored under name and whether it was present.
func (h Header) Lookup(name string) (string, bool) {
	f, ok := h.m[strings.ToLower(name)]
	return f.value, ok
}

// Has reports whether name is present.
func (h Header) Has(name string) bool {
	_, ok := h.m[strings.ToLower(name)]
	return ok
}

// Del removes name.
func (h *Header) Del(name string) {
	delete(h.m, strings.ToLower(name))
}

// Len returns the number of distinct names.
func (h Header) Len() int {
	return len(h.m)
}

// Names returns the lower-cased names in lexicographic order.
func (h Header) Names() []string {
	names := make([]string, 0, len(h.m))
	for k := range h.m {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// All iterates over the lower-cased names and their values in name order.
func (h Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range h.Names() {
			if !yield(k, h.m[k].value) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (h Header) Clone() Header {
	c := Header{m: make(map[string]headerField, len(h.m))}
	for k, v := range h.m {
		c.m[k] = v
	}

	return c
}

// WriteTo copies every field into dst.
func (h Header) WriteTo(dst http.Header) {
	for _, f := range h.m {
		dst.Set(f.name, f.value)
	}
}

// Map returns the fields keyed by their lower-cased name.
func (h Header) Map() map[string]string {
	m := make(map[string]string, len(h.m))
	for k, f := range h.m {
		m[k] = f.value
	}

	return m
}

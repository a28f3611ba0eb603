package sign

import (
	"net/url"
	"strings"
)

// Param is one query parameter.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered set of query parameters. Names are case-sensitive.
type Params []Param

// Set replaces the value of name in place, or appends it.
func (p *Params) Set(name, value string) {
	for i := range *p {
		if (*p)[i].Name == name {
			(*p)[i].Value = value
			return
		}
	}

	*p = append(*p, Param{Name: name, Value: value})
}

// Get returns the value of name and whether it was present.
func (p Params) Get(name string) (string, bool) {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value, true
		}
	}

	return "", false
}

// Clone returns a copy that can be extended without touching p.
func (p Params) Clone() Params {
	return append(Params(nil), p...)
}

// Encode renders the parameters in their stored order. Parameters with an
// empty value are written as a bare name ("?acl").
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(kv.Name))
		if kv.Value != "" {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(kv.Value))
		}
	}

	return b.String()
}

// ParamsFromValues converts url.Values; the order follows sorted names.
func ParamsFromValues(v url.Values) Params {
	var p Params
	for _, k := range sortedKeys(v) {
		p = append(p, Param{Name: k, Value: v.Get(k)})
	}

	return p
}

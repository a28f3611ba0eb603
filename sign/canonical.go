package sign

import (
	"sort"
	"strings"
)

// HeaderPrefix marks the service headers that take part in the signature.
const HeaderPrefix = "x-oss-"

// Well known header names.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentLength = "Content-Length"
	HeaderContentMD5    = "Content-MD5"
	HeaderContentType   = "Content-Type"
	HeaderDate          = "Date"
)

// Request describes a single call before it is signed. It is built fresh for
// every call and must not be changed once a signature has been derived from it.
type Request struct {
	Method string
	Bucket string
	Object string
	Header Header
	Params Params

	// Expires is an absolute expiry in Unix seconds. When set the request is
	// signed for query delivery and Expires replaces the Date field.
	Expires int64
}

// subResources are the query parameters that belong to the canonical resource.
var subResources = map[string]struct{}{
	"acl":                          {},
	"append":                       {},
	"bucketInfo":                   {},
	"cname":                        {},
	"comp":                         {},
	"cors":                         {},
	"delete":                       {},
	"endTime":                      {},
	"img":                          {},
	"lifecycle":                    {},
	"live":                         {},
	"location":                     {},
	"logging":                      {},
	"objectMeta":                   {},
	"partNumber":                   {},
	"position":                     {},
	"qos":                          {},
	"referer":                      {},
	"replication":                  {},
	"replicationLocation":          {},
	"replicationProgress":          {},
	"response-cache-control":       {},
	"response-content-disposition": {},
	"response-content-encoding":    {},
	"response-content-language":    {},
	"response-content-type":        {},
	"response-expires":             {},
	"restore":                      {},
	"security-token":               {},
	"startTime":                    {},
	"stat":                         {},
	"status":                       {},
	"style":                        {},
	"styleName":                    {},
	"symlink":                      {},
	"tagging":                      {},
	"uploadId":                     {},
	"uploads":                      {},
	"versionId":                    {},
	"versioning":                   {},
	"versions":                     {},
	"vod":                          {},
	"website":                      {},
	"x-oss-process":                {},
}

// IsSubResource reports whether the query parameter name is part of the
// canonical resource.
func IsSubResource(name string) bool {
	_, ok := subResources[name]
	return ok
}

// CanonicalString returns the text that is signed for r. date is the value of
// the date field: the Date header in header mode, the decimal Expires in query
// mode.
func CanonicalString(r *Request, date string) string {
	var b strings.Builder

	b.WriteString(strings.ToUpper(r.Method))
	b.WriteByte('\n')
	b.WriteString(strings.TrimSpace(r.Header.Get(HeaderContentMD5)))
	b.WriteByte('\n')
	b.WriteString(strings.TrimSpace(r.Header.Get(HeaderContentType)))
	b.WriteByte('\n')
	b.WriteString(date)
	b.WriteByte('\n')
	b.WriteString(CanonicalHeaders(r.Header))
	b.WriteString(CanonicalResource(r.Bucket, r.Object, r.Params))

	return b.String()
}

// CanonicalHeaders renders the x-oss- headers of h as sorted "name:value\n"
// lines.
func CanonicalHeaders(h Header) string {
	var b strings.Builder
	for name, value := range h.All() {
		if !strings.HasPrefix(name, HeaderPrefix) {
			continue
		}

		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(value))
		b.WriteByte('\n')
	}

	return b.String()
}

// SignedHeaderNames returns the lower-cased names of the x-oss- headers in h,
// sorted.
func SignedHeaderNames(h Header) []string {
	var names []string
	for _, name := range h.Names() {
		if strings.HasPrefix(name, HeaderPrefix) {
			names = append(names, name)
		}
	}

	return names
}

// CanonicalResource renders /bucket/object followed by the recognised
// sub-resources of params sorted by name.
func CanonicalResource(bucket, object string, params Params) string {
	var b strings.Builder

	b.WriteByte('/')
	if bucket != "" {
		b.WriteString(bucket)
		b.WriteByte('/')
		b.WriteString(object)
	}

	var subs []Param
	for _, p := range params {
		if IsSubResource(p.Name) {
			subs = append(subs, p)
		}
	}

	if len(subs) == 0 {
		return b.String()
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Name < subs[j].Name
	})

	for i, p := range subs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}

		b.WriteString(p.Name)
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(p.Value)
		}
	}

	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

package sign

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Scheme is the Authorization header scheme.
const Scheme = "OSS"

// Query parameter names used by query delivery.
const (
	ParamAccessKeyID = "OSSAccessKeyId"
	ParamExpires     = "Expires"
	ParamSignature   = "Signature"
)

// Artifact is a signature packaged for delivery. It is either a HeaderAuth or
// a QuerySignature.
type Artifact interface {
	// Apply adds the artifact to the outgoing headers and query parameters.
	Apply(h *Header, p *Params)

	artifact()
}

// HeaderAuth carries a signature in the Authorization header.
type HeaderAuth struct {
	Authorization string
	Date          string
}

func (HeaderAuth) artifact() {}

// Apply sets the Authorization and Date headers.
func (a HeaderAuth) Apply(h *Header, _ *Params) {
	h.Set(HeaderDate, a.Date)
	h.Set(HeaderAuthorization, a.Authorization)
}

// QuerySignature carries a signature in the URL.
type QuerySignature struct {
	AccessKeyID string
	Expires     int64
	Signature   string

	// SignedHeaders are the x-oss- headers folded into the signature. They
	// must be sent verbatim with the URL.
	SignedHeaders []string
}

func (QuerySignature) artifact() {}

// Apply appends OSSAccessKeyId, Expires and Signature.
func (q QuerySignature) Apply(_ *Header, p *Params) {
	p.Set(ParamAccessKeyID, q.AccessKeyID)
	p.Set(ParamExpires, strconv.FormatInt(q.Expires, 10))
	p.Set(ParamSignature, q.Signature)
}

// FormatDate formats t the way the Date header expects.
func FormatDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// HeaderAuth signs r with now as the date field.
func (s *Signer) HeaderAuth(r *Request, now time.Time) HeaderAuth {
	date := FormatDate(now)
	sig := s.Sign(CanonicalString(r, date))

	return HeaderAuth{
		Authorization: Authorization(s.cred.AccessKeyID, sig),
		Date:          date,
	}
}

// QuerySignature signs r for URL delivery, valid until the absolute Unix time
// expires. Nothing is checked against the local clock.
func (s *Signer) QuerySignature(r *Request, expires int64) QuerySignature {
	sig := s.Sign(CanonicalString(r, strconv.FormatInt(expires, 10)))

	return QuerySignature{
		AccessKeyID:   s.cred.AccessKeyID,
		Expires:       expires,
		Signature:     sig,
		SignedHeaders: SignedHeaderNames(r.Header),
	}
}

// Artifact signs r in the mode its Expires field selects.
func (s *Signer) Artifact(r *Request, now time.Time) Artifact {
	if r.Expires > 0 {
		return s.QuerySignature(r, r.Expires)
	}

	return s.HeaderAuth(r, now)
}

// Authorization formats an Authorization header value.
func Authorization(accessKeyID, signature string) string {
	return Scheme + " " + accessKeyID + ":" + signature
}

// ParseAuthorization splits an Authorization header value into its access key
// id and signature.
func ParseAuthorization(v string) (accessKeyID, signature string, ok bool) {
	rest, found := strings.CutPrefix(v, Scheme+" ")
	if !found {
		return "", "", false
	}

	accessKeyID, signature, ok = strings.Cut(rest, ":")
	if !ok || accessKeyID == "" || signature == "" {
		return "", "", false
	}

	return accessKeyID, signature, true
}

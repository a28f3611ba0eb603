package sign

import (
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/jobstoit/ossio/errs"
)

const (
	docAccessKeyID = "44CF9590006BF252F707"
	docSecret      = "OtxrzxIsfpFjA7SwPzILwy8Bw21TLhquhboDYROV"
)

func docRequest() *Request {
	return &Request{
		Method: http.MethodPut,
		Bucket: "oss-example",
		Object: "nelson",
		Header: NewHeader(map[string]string{
			"Content-MD5":       "ODBGOERFMDMzQTczRUY3NUE3NzA5QzdFNUYzMDQxNEM=",
			"Content-Type":      "text/html",
			"X-OSS-Meta-Author": "foo@bar.com",
			"X-OSS-Magic":       "abracadabra",
			"Content-Length":    "11",
		}),
	}
}

func TestCanonicalString(t *testing.T) {
	expect := "PUT\n" +
		"ODBGOERFMDMzQTczRUY3NUE3NzA5QzdFNUYzMDQxNEM=\n" +
		"text/html\n" +
		"Thu, 17 Nov 2005 18:49:58 GMT\n" +
		"x-oss-magic:abracadabra\n" +
		"x-oss-meta-author:foo@bar.com\n" +
		"/oss-example/nelson"

	if a := CanonicalString(docRequest(), "Thu, 17 Nov 2005 18:49:58 GMT"); a != expect {
		t.Errorf("expect %q, got %q", expect, a)
	}
}

func TestCanonicalStringEmptyFields(t *testing.T) {
	r := &Request{Method: "get", Bucket: "oss-example", Object: "oss-api.pdf"}

	expect := "GET\n\n\n1141889120\n/oss-example/oss-api.pdf"
	if a := CanonicalString(r, "1141889120"); a != expect {
		t.Errorf("expect %q, got %q", expect, a)
	}
}

func TestCanonicalHeadersTrimAndCase(t *testing.T) {
	h := NewHeader(map[string]string{
		"X-Oss-B":       "  two ",
		"x-OSS-a":       "one",
		"x-oss-meta-z":  "last",
		"Cache-Control": "no-cache",
	})

	expect := "x-oss-a:one\nx-oss-b:two\nx-oss-meta-z:last\n"
	if a := CanonicalHeaders(h); a != expect {
		t.Errorf("expect %q, got %q", expect, a)
	}

	if a := CanonicalHeaders(Header{}); a != "" {
		t.Errorf("expect no lines for an empty header, got %q", a)
	}
}

func TestCanonicalResource(t *testing.T) {
	cases := map[string]struct {
		bucket, object string
		params         Params
		expect         string
	}{
		"service": {
			expect: "/",
		},
		"bucket": {
			bucket: "b",
			expect: "/b/",
		},
		"object": {
			bucket: "b", object: "dir/o.txt",
			expect: "/b/dir/o.txt",
		},
		"bare sub-resource": {
			bucket: "b",
			params: Params{{Name: "acl"}},
			expect: "/b/?acl",
		},
		"sorted sub-resources with values": {
			bucket: "b", object: "o",
			params: Params{
				{Name: "uploadId", Value: "abc"},
				{Name: "partNumber", Value: "2"},
			},
			expect: "/b/o?partNumber=2&uploadId=abc",
		},
		"ordinary params excluded": {
			bucket: "b",
			params: Params{
				{Name: "prefix", Value: "test"},
				{Name: "max-keys", Value: "30"},
				{Name: "delete"},
			},
			expect: "/b/?delete",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if a := CanonicalResource(c.bucket, c.object, c.params); a != c.expect {
				t.Errorf("expect %q, got %q", c.expect, a)
			}
		})
	}
}

func TestSum(t *testing.T) {
	canonical := CanonicalString(docRequest(), "Thu, 17 Nov 2005 18:49:58 GMT")

	if e, a := "26NBxoKdsyly4EDv6inkoDft/yA=", Sum(docSecret, canonical); e != a {
		t.Errorf("expect %q, got %q", e, a)
	}

	if e, a := "EwaNTn1erJGkimiJ9WmXgwnANLc=", Sum(docSecret, "GET\n\n\n1141889120\n/oss-example/oss-api.pdf"); e != a {
		t.Errorf("expect %q, got %q", e, a)
	}
}

func TestSumDeterministic(t *testing.T) {
	inputs := []struct{ secret, canonical string }{
		{"secret", ""},
		{"secret", "GET\n\n\n1700000000\n/bucket/?acl"},
		{docSecret, "PUT\n\ntext/plain\nMon, 02 Jan 2006 15:04:05 GMT\n/b/ünïcode"},
	}

	for _, in := range inputs {
		first := Sum(in.secret, in.canonical)
		for range 100 {
			if a := Sum(in.secret, in.canonical); a != first {
				t.Fatalf("expect stable signature %q, got %q", first, a)
			}
		}

		if len(first) != 28 {
			t.Errorf("expect 28 base64 characters, got %d", len(first))
		}
	}

	if e, a := "poubVZbWOaGp2LBU1jFHOtu3FuE=", Sum("secret", "GET\n\n\n1700000000\n/bucket/?acl"); e != a {
		t.Errorf("expect %q, got %q", e, a)
	}
}

func TestNewSignerRejectsMalformedCredential(t *testing.T) {
	bad := []Credential{
		{},
		{AccessKeyID: "id"},
		{AccessKeySecret: "secret"},
		{AccessKeyID: " id", AccessKeySecret: "secret"},
		{AccessKeyID: "id", AccessKeySecret: "secret\n"},
	}

	for _, c := range bad {
		if _, err := NewSigner(c); !errs.IsConfiguration(err) {
			t.Errorf("expect configuration error for %+v, got %v", c, err)
		}
	}
}

func TestHeaderAuth(t *testing.T) {
	s, err := NewSigner(Credential{AccessKeyID: docAccessKeyID, AccessKeySecret: docSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	auth := s.HeaderAuth(docRequest(), time.Date(2005, 11, 17, 18, 49, 58, 0, time.UTC))

	if e, a := "Thu, 17 Nov 2005 18:49:58 GMT", auth.Date; e != a {
		t.Errorf("expect date %q, got %q", e, a)
	}

	if e, a := "OSS 44CF9590006BF252F707:26NBxoKdsyly4EDv6inkoDft/yA=", auth.Authorization; e != a {
		t.Errorf("expect authorization %q, got %q", e, a)
	}

	h := Header{}
	auth.Apply(&h, nil)
	if e, a := auth.Authorization, h.Get("authorization"); e != a {
		t.Errorf("expect %q, got %q", e, a)
	}
}

func TestHeaderAuthUsesGivenTime(t *testing.T) {
	s, _ := NewSigner(Credential{AccessKeyID: "id", AccessKeySecret: "secret"})
	r := &Request{Method: http.MethodGet, Bucket: "b", Object: "o"}

	a1 := s.HeaderAuth(r, time.Unix(1700000000, 0))
	a2 := s.HeaderAuth(r, time.Unix(1700000001, 0))

	if a1.Date == a2.Date || a1.Authorization == a2.Authorization {
		t.Errorf("expect a different signature for a different timestamp")
	}
}

func TestQuerySignature(t *testing.T) {
	s, _ := NewSigner(Credential{AccessKeyID: docAccessKeyID, AccessKeySecret: docSecret})
	r := &Request{
		Method: http.MethodGet,
		Bucket: "oss-example",
		Object: "oss-api.pdf",
		Header: NewHeader(map[string]string{"x-oss-meta-b": "2", "X-Oss-Meta-A": "1", "Range": "bytes=0-1"}),
	}
	r.Expires = 1141889120

	q := s.QuerySignature(&Request{Method: r.Method, Bucket: r.Bucket, Object: r.Object}, r.Expires)
	if e, a := "EwaNTn1erJGkimiJ9WmXgwnANLc=", q.Signature; e != a {
		t.Errorf("expect %q, got %q", e, a)
	}

	q = s.QuerySignature(r, r.Expires)
	if e, a := []string{"x-oss-meta-a", "x-oss-meta-b"}, q.SignedHeaders; !reflect.DeepEqual(e, a) {
		t.Errorf("expect %v, got %v", e, a)
	}

	var p Params
	q.Apply(nil, &p)
	if e, a := 3, len(p); e != a {
		t.Fatalf("expect %d params, got %d", e, a)
	}

	if e, a := docAccessKeyID, paramValue(p, ParamAccessKeyID); e != a {
		t.Errorf("expect %q, got %q", e, a)
	}

	if e, a := "1141889120", paramValue(p, ParamExpires); e != a {
		t.Errorf("expect %q, got %q", e, a)
	}

	if _, ok := s.Artifact(r, time.Now()).(QuerySignature); !ok {
		t.Errorf("expect a query signature when Expires is set")
	}

	r.Expires = 0
	if _, ok := s.Artifact(r, time.Now()).(HeaderAuth); !ok {
		t.Errorf("expect a header signature when Expires is unset")
	}
}

func TestParseAuthorization(t *testing.T) {
	id, sig, ok := ParseAuthorization("OSS id:c2ln")
	if !ok || id != "id" || sig != "c2ln" {
		t.Errorf("unexpected parse result %q %q %v", id, sig, ok)
	}

	for _, v := range []string{"", "AWS id:sig", "OSS id", "OSS :sig", "OSS id:"} {
		if _, _, ok := ParseAuthorization(v); ok {
			t.Errorf("expect %q to be rejected", v)
		}
	}
}

func paramValue(p Params, name string) string {
	v, _ := p.Get(name)
	return v
}

package osstest

import (
	"crypto/hmac"
	"net/http"
	"strconv"

	"github.com/jobstoit/ossio/sign"
)

// authenticate checks the signature of a request. Anonymous requests are let
// through for buckets whose ACL allows them.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		switch {
		case query.Has(sign.ParamSignature):
			if !s.verifyQuery(w, r) {
				return
			}
		case r.Header.Get(sign.HeaderAuthorization) != "":
			if !s.verifyHeader(w, r) {
				return
			}
		default:
			if !s.allowAnonymous(r) {
				writeError(w, r, http.StatusForbidden, "AccessDenied", "You have no right to access this object because of bucket acl.")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) verifyQuery(w http.ResponseWriter, r *http.Request) bool {
	query := r.URL.Query()

	if query.Get(sign.ParamAccessKeyID) != s.cred.AccessKeyID {
		writeError(w, r, http.StatusForbidden, "InvalidAccessKeyId", "The OSS Access Key Id you provided does not exist in our records.")
		return false
	}

	expiresParam := query.Get(sign.ParamExpires)
	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusForbidden, "AccessDenied", "Expires is not a number.")
		return false
	}

	if s.Now().Unix() > expires {
		writeError(w, r, http.StatusForbidden, "AccessDenied", "Request has expired.")
		return false
	}

	return s.checkSignature(w, r, expiresParam, query.Get(sign.ParamSignature))
}

func (s *Server) verifyHeader(w http.ResponseWriter, r *http.Request) bool {
	id, signature, ok := sign.ParseAuthorization(r.Header.Get(sign.HeaderAuthorization))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "Authorization header is invalid.")
		return false
	}

	if id != s.cred.AccessKeyID {
		writeError(w, r, http.StatusForbidden, "InvalidAccessKeyId", "The OSS Access Key Id you provided does not exist in our records.")
		return false
	}

	date := r.Header.Get(sign.HeaderDate)
	t, err := http.ParseTime(date)
	if err != nil {
		writeError(w, r, http.StatusForbidden, "AccessDenied", "OSS authentication requires a valid Date.")
		return false
	}

	if skew := s.Now().Sub(t); skew > MaxClockSkew || skew < -MaxClockSkew {
		writeError(w, r, http.StatusForbidden, "RequestTimeTooSkewed", "The difference between the request time and the current time is too large.")
		return false
	}

	return s.checkSignature(w, r, date, signature)
}

func (s *Server) checkSignature(w http.ResponseWriter, r *http.Request, date, signature string) bool {
	req := &sign.Request{
		Method: r.Method,
		Bucket: bucketName(r),
		Object: objectKey(r),
		Header: sign.HeaderFromHTTP(r.Header),
		Params: sign.ParamsFromValues(r.URL.Query()),
	}

	want := sign.Sum(s.cred.AccessKeySecret, sign.CanonicalString(req, date))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		writeError(w, r, http.StatusForbidden, "SignatureDoesNotMatch", "The request signature we calculated does not match the signature you provided.")
		return false
	}

	return true
}

func (s *Server) allowAnonymous(r *http.Request) bool {
	name := bucketName(r)
	if name == "" {
		return false
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		return false
	}

	switch b.acl {
	case aclPublicReadWrite:
		return true
	case aclPublicRead:
		return r.Method == http.MethodGet || r.Method == http.MethodHead
	default:
		return false
	}
}

package sign

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/jobstoit/ossio/errs"
)

// Credential is an access key pair.
type Credential struct {
	AccessKeyID     string
	AccessKeySecret string
}

// Validate rejects empty keys and keys padded with whitespace.
func (c Credential) Validate() error {
	if c.AccessKeyID == "" {
		return errs.New(errs.ErrKindConfiguration, "access key id is empty")
	}

	if c.AccessKeySecret == "" {
		return errs.New(errs.ErrKindConfiguration, "access key secret is empty")
	}

	if strings.TrimSpace(c.AccessKeyID) != c.AccessKeyID || strings.TrimSpace(c.AccessKeySecret) != c.AccessKeySecret {
		return errs.New(errs.ErrKindConfiguration, "access key pair contains surrounding whitespace")
	}

	return nil
}

// Sum returns base64(HMAC-SHA1(secret, canonical)).
func Sum(secret, canonical string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(canonical))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Signer signs requests with one credential. It holds no mutable state.
type Signer struct {
	cred Credential
}

// NewSigner validates cred and returns a Signer for it.
func NewSigner(cred Credential) (*Signer, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	return &Signer{cred: cred}, nil
}

// AccessKeyID returns the public half of the credential.
func (s *Signer) AccessKeyID() string {
	return s.cred.AccessKeyID
}

// Sign returns the signature of a canonical string.
func (s *Signer) Sign(canonical string) string {
	return Sum(s.cred.AccessKeySecret, canonical)
}

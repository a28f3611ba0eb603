package ossio

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	smithyxml "github.com/aws/smithy-go/encoding/xml"
	"github.com/jobstoit/ossio/sign"
	"github.com/jobstoit/ossio/xmltree"
)

// Response is the outcome of a completed exchange, whatever its status.
type Response struct {
	Status int
	Header sign.Header

	// Body holds the body when it was accumulated, and always for a status
	// outside 2xx.
	Body []byte

	// Doc is the decoded body of listing, ACL and multi-delete calls and of
	// error documents. Its only key is the root element name, for example
	// "ListBucketResult" or "Error".
	Doc xmltree.Tree

	// ObjectURL is the URL of the uploaded object. It is set by PutObject and
	// CopyObject.
	ObjectURL string

	// Written is the number of body bytes delivered to the destination.
	Written int64
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// RequestID returns the x-oss-request-id header.
func (r *Response) RequestID() string {
	return r.Header.Get(headerRequestID)
}

// decodeDoc decodes Body when it holds an XML document. A body that does not
// parse leaves Doc nil; the raw bytes stay in Body.
func (r *Response) decodeDoc() {
	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return
	}

	doc, err := xmltree.Parse(trimmed)
	if err != nil {
		return
	}

	r.Doc = doc
}

// ServiceError describes a response outside 2xx. It implements
// smithy.APIError.
type ServiceError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

var _ smithy.APIError = (*ServiceError)(nil)

// ServiceError returns the error carried by a response outside 2xx, or nil.
// Code and Message come from the <Error> document when there is one, and from
// the status otherwise (HEAD responses have no body).
func (r *Response) ServiceError() *ServiceError {
	if r == nil || r.OK() {
		return nil
	}

	e := &ServiceError{
		Status:    r.Status,
		RequestID: r.RequestID(),
	}

	if len(bytes.TrimSpace(r.Body)) > 0 {
		if c, err := smithyxml.GetErrorResponseComponents(bytes.NewReader(r.Body), true); err == nil {
			e.Code, e.Message = c.Code, c.Message
		}
	}

	if e.Code == "" {
		e.Code = strings.ReplaceAll(http.StatusText(r.Status), " ", "")
	}

	if e.Message == "" {
		e.Message = http.StatusText(r.Status)
	}

	return e
}

// Err returns ServiceError as an error, or nil for a 2xx response.
func (r *Response) Err() error {
	if e := r.ServiceError(); e != nil {
		return e
	}

	return nil
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("oss: %d %s: %s", e.Status, e.Code, e.Message)
	if e.RequestID != "" {
		msg += " (request id " + e.RequestID + ")"
	}

	return msg
}

// ErrorCode returns the error code of the document, for example "NoSuchKey".
func (e *ServiceError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the human readable message.
func (e *ServiceError) ErrorMessage() string {
	return e.Message
}

// ErrorFault tells a rejected request from a failing service.
func (e *ServiceError) ErrorFault() smithy.ErrorFault {
	switch {
	case e.Status >= 500:
		return smithy.FaultServer
	case e.Status >= 400:
		return smithy.FaultClient
	default:
		return smithy.FaultUnknown
	}
}

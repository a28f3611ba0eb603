package ossio

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/xml"
	"net/http"

	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/sign"
	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// ListObjectsInput filters an object listing. Zero fields are not sent.
type ListObjectsInput struct {
	Bucket    string
	Prefix    string
	Marker    string
	Delimiter string
	MaxKeys   int
}

// ListObjects lists the objects of a bucket. The decoded body is under
// Doc["ListBucketResult"]; use Doc.List("ListBucketResult", "Contents") for
// the entries.
func (c *Client) ListObjects(ctx context.Context, in ListObjectsInput) (*Response, error) {
	if err := validateBucket(in.Bucket); err != nil {
		return nil, err
	}

	req := &sign.Request{Method: http.MethodGet, Bucket: in.Bucket}
	setParam(&req.Params, "prefix", in.Prefix)
	setParam(&req.Params, "marker", in.Marker)
	setParam(&req.Params, "delimiter", in.Delimiter)
	setMaxKeys(&req.Params, in.MaxKeys)

	return c.doDocument(ctx, req)
}

// PutObjectInput describes an upload.
type PutObjectInput struct {
	Bucket string
	Object string
	Source Source

	// Header is sent with the object, for example Content-Type or
	// x-oss-meta-* metadata. A Content-Length given here overrides the length
	// of the source.
	Header sign.Header
}

// PutObject uploads an object. Response.ObjectURL is set to the URL of the
// object.
func (c *Client) PutObject(ctx context.Context, in PutObjectInput) (*Response, error) {
	if err := validateObject(in.Bucket, in.Object); err != nil {
		return nil, err
	}

	if in.Source == nil {
		return nil, errs.New(errs.ErrKindInvalidArgument, "put object requires a source")
	}

	req := &sign.Request{
		Method: http.MethodPut,
		Bucket: in.Bucket,
		Object: in.Object,
		Header: in.Header,
	}

	res, err := c.Do(ctx, req, in.Source, Discard())
	if err != nil {
		return nil, err
	}

	res.ObjectURL = c.ObjectURL(in.Bucket, in.Object)

	return res, nil
}

// GetObjectInput describes a download.
type GetObjectInput struct {
	Bucket string
	Object string

	// Dest receives the body. The body is accumulated in Response.Body when
	// Dest is nil.
	Dest Destination

	// Header is sent with the request, for example Range.
	Header sign.Header
}

// GetObject downloads an object.
func (c *Client) GetObject(ctx context.Context, in GetObjectInput) (*Response, error) {
	if err := validateObject(in.Bucket, in.Object); err != nil {
		return nil, err
	}

	dst := in.Dest
	if dst == nil {
		dst = Accumulate()
	}

	req := &sign.Request{
		Method: http.MethodGet,
		Bucket: in.Bucket,
		Object: in.Object,
		Header: in.Header,
	}

	return c.Do(ctx, req, nil, dst)
}

// HeadObject reads the headers of an object. The status is 404 when the
// object does not exist.
func (c *Client) HeadObject(ctx context.Context, bucket, object string) (*Response, error) {
	if err := validateObject(bucket, object); err != nil {
		return nil, err
	}

	req := &sign.Request{
		Method: http.MethodHead,
		Bucket: bucket,
		Object: object,
	}

	return c.Do(ctx, req, nil, Discard())
}

// CopyObjectInput describes a server side copy.
type CopyObjectInput struct {
	SourceBucket string
	SourceObject string
	Bucket       string
	Object       string

	// Header is sent with the request, for example x-oss-metadata-directive.
	Header sign.Header
}

// CopyObject copies an object within the service. The decoded body is under
// Doc["CopyObjectResult"].
func (c *Client) CopyObject(ctx context.Context, in CopyObjectInput) (*Response, error) {
	if err := validateObject(in.SourceBucket, in.SourceObject); err != nil {
		return nil, err
	}

	if err := validateObject(in.Bucket, in.Object); err != nil {
		return nil, err
	}

	req := &sign.Request{
		Method: http.MethodPut,
		Bucket: in.Bucket,
		Object: in.Object,
		Header: in.Header.Clone(),
	}
	req.Header.Set(headerCopySource, "/"+in.SourceBucket+"/"+s3utils.EncodePath(in.SourceObject))

	res, err := c.doDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	res.ObjectURL = c.ObjectURL(in.Bucket, in.Object)

	return res, nil
}

// DeleteObject deletes an object. The service answers 204, also when the
// object did not exist.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) (*Response, error) {
	if err := validateObject(bucket, object); err != nil {
		return nil, err
	}

	req := &sign.Request{
		Method: http.MethodDelete,
		Bucket: bucket,
		Object: object,
	}

	return c.Do(ctx, req, nil, Discard())
}

// DeleteObjectsInput names the objects of one multi-object delete.
type DeleteObjectsInput struct {
	Bucket  string
	Objects []string

	// Quiet asks the service to leave successful deletes out of the result.
	Quiet bool
}

type deleteRequest struct {
	XMLName xml.Name       `xml:"Delete"`
	Quiet   bool           `xml:"Quiet"`
	Objects []deleteObject `xml:"Object"`
}

type deleteObject struct {
	Key string `xml:"Key"`
}

// DeleteObjects deletes several objects in one request. The keys are sent in
// the given order and the quiet flag is passed through; the result is under
// Doc["DeleteResult"] and is not filtered or counted here.
func (c *Client) DeleteObjects(ctx context.Context, in DeleteObjectsInput) (*Response, error) {
	if err := validateBucket(in.Bucket); err != nil {
		return nil, err
	}

	if len(in.Objects) == 0 {
		return nil, errs.New(errs.ErrKindInvalidArgument, "delete objects requires at least one key")
	}

	body, err := deleteBody(in.Objects, in.Quiet)
	if err != nil {
		return nil, err
	}

	sum := md5.Sum(body)
	req := &sign.Request{
		Method: http.MethodPost,
		Bucket: in.Bucket,
		Header: sign.NewHeader(map[string]string{
			sign.HeaderContentMD5:  base64.StdEncoding.EncodeToString(sum[:]),
			sign.HeaderContentType: contentTypeXML,
		}),
		Params: sign.Params{{Name: "delete"}},
	}

	res, err := c.Do(ctx, req, FromBytes(body), Accumulate())
	if err != nil {
		return nil, err
	}

	if res.OK() {
		res.decodeDoc()
	}

	return res, nil
}

func deleteBody(keys []string, quiet bool) ([]byte, error) {
	doc := deleteRequest{
		Quiet:   quiet,
		Objects: make([]deleteObject, len(keys)),
	}

	for i, k := range keys {
		if k == "" {
			return nil, errs.New(errs.ErrKindInvalidArgument, "delete objects got an empty key")
		}

		doc.Objects[i] = deleteObject{Key: k}
	}

	p, err := xml.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "encoding delete request", err)
	}

	return append([]byte(xml.Header), p...), nil
}

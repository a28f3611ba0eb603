package ossio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/metrics"
	"github.com/jobstoit/ossio/sign"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerSecurityToken = "x-oss-security-token"
	paramSecurityToken  = "security-token"
)

// Do signs req, sends it with the body of src and delivers a 2xx response body
// into dst. A nil src sends no body and a nil dst discards the body.
//
// Every completed exchange returns a Response and a nil error, whatever its
// status. A response outside 2xx never reaches dst: its body is kept in
// Response.Body and decoded into Response.Doc when it is an XML document.
// A ToFile destination is only created once a 2xx status has arrived, so a
// failed call leaves an existing file untouched.
//
// Errors are returned only when nothing could be sent (errs.ErrKindNotFound,
// errs.ErrKindInvalidArgument), when the exchange failed on the wire or ctx
// was cancelled (errs.ErrKindTransport), or when writing dst failed
// (errs.ErrKindIO). Files opened for src or dst are closed before Do returns.
// Readers and writers given by the caller are never closed. Every call with a
// non-nil req is traced, including those failing before anything is sent.
//
// A request with Expires set is signed in the URL, otherwise the Authorization
// and Date headers are signed with the current time.
func (c *Client) Do(ctx context.Context, req *sign.Request, src Source, dst Destination) (*Response, error) {
	if req == nil {
		return nil, errs.New(errs.ErrKindInvalidArgument, "request is nil")
	}

	ctx, span := c.tracer.Start(ctx, "oss."+strings.ToLower(req.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("oss.bucket", req.Bucket),
			attribute.String("oss.object", req.Object),
		),
	)
	defer span.End()

	res, sent, err := c.do(ctx, req, src, dst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		c.logger.DebugContext(ctx, "request failed",
			requestGroup(req),
			slog.Any("error", err),
		)

		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", res.Status))
	if res.Status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(res.Status))
	}

	if c.metrics != nil {
		if sent > 0 {
			c.metrics.ObserveTransfer(metrics.DirectionUpload, sent)
		}
		c.metrics.ObserveTransfer(metrics.DirectionDownload, res.Written)
	}

	c.logger.DebugContext(ctx, "request done",
		requestGroup(req),
		slog.Int("status", res.Status),
		slog.Int64("sent", sent),
		slog.Int64("bytes", res.Written),
	)

	return res, nil
}

// do runs the local checks and the exchange. It reports the number of request
// body bytes handed to the transport.
func (c *Client) do(ctx context.Context, req *sign.Request, src Source, dst Destination) (*Response, int64, error) {
	if dst == nil {
		dst = Discard()
	}

	if err := dst.check(); err != nil {
		return nil, 0, err
	}

	var body *payload
	if src != nil {
		var err error
		if body, err = src.open(); err != nil {
			return nil, 0, err
		}
		defer body.release()
	}

	httpReq, err := c.newHTTPRequest(ctx, req, body)
	if err != nil {
		return nil, 0, err
	}

	res, err := c.exchange(httpReq, dst)

	var sent int64
	if body != nil {
		sent = body.sent.Load()
	}

	return res, sent, err
}

// newHTTPRequest signs req and builds the outgoing request around body.
func (c *Client) newHTTPRequest(ctx context.Context, req *sign.Request, body *payload) (*http.Request, error) {
	signed := *req
	signed.Header = req.Header.Clone()
	signed.Params = req.Params.Clone()

	contentLength := int64(-1)
	if body != nil {
		contentLength = body.size
	}

	if v, ok := signed.Header.Lookup(sign.HeaderContentLength); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n < 0 {
			return nil, errs.Newf(errs.ErrKindInvalidArgument, "invalid %s header %q", sign.HeaderContentLength, v)
		}

		contentLength = n
		signed.Header.Del(sign.HeaderContentLength)
	}

	if c.sessionToken != "" {
		if signed.Expires > 0 {
			signed.Params.Set(paramSecurityToken, c.sessionToken)
		} else {
			signed.Header.Set(headerSecurityToken, c.sessionToken)
		}
	}

	header, params := signed.Header.Clone(), signed.Params.Clone()
	c.signer.Artifact(&signed, c.clock()).Apply(&header, &params)

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), c.resourceURL(req.Bucket, req.Object, params), nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "building request", err)
	}

	header.WriteTo(httpReq.Header)

	switch {
	case body == nil:
		httpReq.Body = http.NoBody
		httpReq.ContentLength = 0
	default:
		// a Content-Length header caps the body
		if contentLength >= 0 {
			body.body = io.LimitReader(body.body, contentLength)
		}
		httpReq.Body = body.requestBody()
		httpReq.ContentLength = contentLength
		if contentLength == 0 {
			httpReq.Body = http.NoBody
		}
	}

	return httpReq, nil
}

// exchange sends httpReq and consumes a 2xx response into dst.
func (c *Client) exchange(httpReq *http.Request, dst Destination) (*Response, error) {
	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "sending request", err)
	}
	defer httpRes.Body.Close()

	res := &Response{
		Status: httpRes.StatusCode,
		Header: sign.HeaderFromHTTP(httpRes.Header),
	}

	if res.Status < 200 || res.Status >= 300 {
		p, err := io.ReadAll(httpRes.Body)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindTransport, "reading response body", err)
		}

		res.Body = p
		res.decodeDoc()

		return res, nil
	}

	sk, err := dst.open()
	if err != nil {
		return nil, err
	}
	defer sk.release()

	rd := &trackingReader{r: httpRes.Body}
	n, err := io.Copy(sk.w, rd)
	res.Written = n
	if err != nil {
		if rd.err != nil {
			return nil, errs.Wrap(errs.ErrKindTransport, "reading response body", err)
		}

		return nil, errs.Wrap(errs.ErrKindIO, "writing response body", err)
	}

	if err := sk.commit(); err != nil {
		return nil, err
	}

	if sk.buf != nil {
		res.Body = sk.buf.Bytes()
	}

	return res, nil
}

// trackingReader remembers read errors so they can be told apart from write
// errors after io.Copy.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}

	return n, err
}

func requestGroup(req *sign.Request) slog.Attr {
	return slog.Group("request",
		slog.String("method", req.Method),
		slog.String("bucket", req.Bucket),
		slog.String("object", req.Object),
	)
}

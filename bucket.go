package ossio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jobstoit/ossio/xmltree"
)

// Bucket is an abstraction to interact with objects in your OSS bucket.
//
// Unlike the Client operations, Bucket methods turn a response outside 2xx
// into an error: a *ServiceError, or fs.ErrNotExist for a missing object.
type Bucket struct {
	name        string
	concurrency int
	logger      *slog.Logger
	cli         *Client
}

// Object is one entry of a bucket listing.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	StorageClass string
}

// OpenBucket returns a bucket to interact with. It fails with
// errs.ErrKindNotFound when the bucket does not exist, unless
// WithBucketCreateIfNotExists is given.
func (c *Client) OpenBucket(ctx context.Context, name string, opts ...BucketOption) (*Bucket, error) {
	if err := validateBucket(name); err != nil {
		return nil, err
	}

	builder := newBucketBuilder(c)
	BucketOptions(opts...)(builder)

	return builder.Build(ctx, c, name)
}

// Bucket returns a handle on name without checking that it exists.
func (c *Client) Bucket(name string) *Bucket {
	return &Bucket{
		name:        name,
		cli:         c,
		concurrency: c.concurrency,
		logger:      c.logger.With(slog.String("bucket", name)),
	}
}

// Open is the fs.FS implementation for the Bucket.
//
// Open returns an fs.ErrInvalid error for a name fs.ValidPath rejects and an
// fs.ErrNotExist error if the object doesn't exist.
func (b *Bucket) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	ctx := context.Background()

	info, err := b.Stat(ctx, name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	rd := b.NewReader(ctx, name)
	rd.info = info

	return rd, nil
}

// Glob is the fs.GlobFS implementation for the Bucket. The listing is
// narrowed to the part of pattern before its first meta character.
func (b *Bucket) Glob(pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}

	prefix := pattern
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		prefix = pattern[:i]
	}

	objs, err := b.List(context.Background(), prefix)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, obj := range objs {
		if ok, _ := path.Match(pattern, obj.Key); ok {
			matches = append(matches, obj.Key)
		}
	}

	return matches, nil
}

// Stat returns the size and modification time of an object.
func (b *Bucket) Stat(ctx context.Context, key string) (fs.FileInfo, error) {
	res, err := b.cli.HeadObject(ctx, b.name, key)
	if err != nil {
		return nil, err
	}

	switch {
	case res.Status == http.StatusNotFound:
		return nil, fs.ErrNotExist
	case !res.OK():
		return nil, res.Err()
	}

	info := &objectInfo{name: path.Base(key)}
	info.size, _ = strconv.ParseInt(res.Header.Get("Content-Length"), 10, 64)
	info.modTime, _ = http.ParseTime(res.Header.Get("Last-Modified"))

	return info, nil
}

// Exists returns a a boolean indicating whether the requested object exists.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	res, err := b.cli.HeadObject(ctx, b.name, key)
	if err != nil {
		return false, err
	}

	switch {
	case res.Status == http.StatusNotFound:
		return false, nil
	case !res.OK():
		return false, res.Err()
	}

	return true, nil
}

// Delete deletes the given object keys. More than one key is deleted with
// multi-object deletes of at most 1000 keys, run concurrently.
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	switch len(keys) {
	case 0:
		return nil
	case 1:
		res, err := b.cli.DeleteObject(ctx, b.name, keys[0])
		if err != nil {
			return err
		}

		return res.Err()
	}

	var (
		err error
		mux sync.Mutex
		wg  sync.WaitGroup
	)

	cl := newConcurrencyLock(b.concurrency)
	for batch := range slices.Chunk(keys, deleteLimit) {
		cl.Lock()
		wg.Add(1)

		go func() {
			defer wg.Done()
			defer cl.Unlock()

			derr := b.deleteBatch(ctx, batch)

			mux.Lock()
			defer mux.Unlock()

			err = errors.Join(err, derr)
		}()
	}

	wg.Wait()

	return err
}

func (b *Bucket) deleteBatch(ctx context.Context, keys []string) error {
	b.logger.DebugContext(ctx, "delete batch", slog.Int("keys", len(keys)))

	res, err := b.cli.DeleteObjects(ctx, DeleteObjectsInput{
		Bucket:  b.name,
		Objects: keys,
		Quiet:   true,
	})
	if err != nil {
		return err
	}

	return res.Err()
}

// List returns the objects whose key starts with prefix, following the
// listing markers until the listing is complete.
//
// Use the empty prefix to list all the objects in the bucket.
func (b *Bucket) List(ctx context.Context, prefix string) ([]Object, error) {
	var (
		objs   []Object
		marker string
	)

	for {
		res, err := b.cli.ListObjects(ctx, ListObjectsInput{
			Bucket:  b.name,
			Prefix:  prefix,
			Marker:  marker,
			MaxKeys: deleteLimit,
		})
		if err != nil {
			return nil, err
		}

		if !res.OK() {
			return nil, res.Err()
		}

		page := parseContents(res.Doc)
		objs = append(objs, page...)

		if res.Doc.String("ListBucketResult", "IsTruncated") != "true" || len(page) == 0 {
			return objs, nil
		}

		marker = res.Doc.String("ListBucketResult", "NextMarker")
		if marker == "" {
			marker = page[len(page)-1].Key
		}
	}
}

func parseContents(doc xmltree.Tree) []Object {
	entries := doc.Maps("ListBucketResult", "Contents")
	objs := make([]Object, 0, len(entries))

	for _, e := range entries {
		obj := Object{
			Key:          e.String("Key"),
			ETag:         e.String("ETag"),
			StorageClass: e.String("StorageClass"),
		}
		obj.Size, _ = strconv.ParseInt(e.String("Size"), 10, 64)
		obj.LastModified, _ = time.Parse(time.RFC3339, e.String("LastModified"))

		objs = append(objs, obj)
	}

	return objs
}

// NewReader returns a new ObjectReader to do io.Reader opperations with your
// object. The download starts on the first Read.
func (b *Bucket) NewReader(ctx context.Context, key string, opts ...ObjectReaderOption) *ObjectReader {
	ctx, cancel := context.WithCancel(ctx)

	rd := &ObjectReader{
		ctx:    ctx,
		cancel: cancel,
		cli:    b.cli,
		bucket: b.name,
		key:    key,
		logger: b.logger,
	}

	ObjectReaderOptions(opts...)(rd)

	return rd
}

// ReadAll reads all the bytes of the given object
func (b *Bucket) ReadAll(ctx context.Context, key string, opts ...ObjectReaderOption) ([]byte, error) {
	rd := b.NewReader(ctx, key, opts...)
	defer rd.Close()

	return io.ReadAll(rd)
}

// NewWriter returns a new ObjectWriter to do io.Write opparations with your
// object. The object is uploaded while it is written; Close must be called to
// finish the upload.
func (b *Bucket) NewWriter(ctx context.Context, key string, opts ...ObjectWriterOption) *ObjectWriter {
	wr := &ObjectWriter{
		ctx:    ctx,
		cli:    b.cli,
		bucket: b.name,
		key:    key,
		logger: b.logger,
	}

	ObjectWriterOptions(opts...)(wr)

	return wr
}

// WriteFrom writes all the bytes from the reader into the given object
func (b *Bucket) WriteFrom(ctx context.Context, key string, from io.Reader, opts ...ObjectWriterOption) (int64, error) {
	wr := b.NewWriter(ctx, key, opts...)
	defer wr.Close()

	n, err := io.Copy(wr, from)
	if err != nil {
		return n, err
	}

	return n, wr.Close()
}

// WriteAll writes all the given bytes into the given object
func (b *Bucket) WriteAll(ctx context.Context, key string, p []byte, opts ...ObjectWriterOption) (int, error) {
	wr := b.NewWriter(ctx, key, opts...)
	defer wr.Close()

	n, err := wr.Write(p)
	if err != nil {
		return n, err
	}

	return n, wr.Close()
}

// Client returns the client the Bucket uses
func (b *Bucket) Client() *Client {
	return b.cli
}

// Name returns the specified bucket's name
func (b *Bucket) Name() string {
	return b.name
}

type objectInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (i *objectInfo) Name() string       { return i.name }
func (i *objectInfo) Size() int64        { return i.size }
func (i *objectInfo) Mode() fs.FileMode  { return 0o444 }
func (i *objectInfo) ModTime() time.Time { return i.modTime }
func (i *objectInfo) IsDir() bool        { return false }
func (i *objectInfo) Sys() any           { return nil }

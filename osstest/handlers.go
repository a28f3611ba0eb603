package osstest

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jobstoit/ossio/sign"
)

const (
	aclPrivate         = "private"
	aclPublicRead      = "public-read"
	aclPublicReadWrite = "public-read-write"

	location        = "oss-test"
	defaultMaxKeys  = 100
	maxKeysLimit    = 1000
	metaPrefix      = "x-oss-meta-"
	headerACL       = "x-oss-acl"
	headerCopySrc   = "x-oss-copy-source"
	defaultMimeType = "application/octet-stream"
)

type bucket struct {
	name    string
	acl     string
	created time.Time
	objects map[string]*object
}

type object struct {
	data        []byte
	contentType string
	meta        sign.Header
	etag        string
	modified    time.Time
}

func validACL(acl string) bool {
	switch acl {
	case aclPrivate, aclPublicRead, aclPublicReadWrite:
		return true
	default:
		return false
	}
}

func (s *Server) owner() owner {
	return owner{ID: s.ownerID, DisplayName: s.ownerID}
}

// handleGetBucket serves the bucket listing, the bucket ACL and, on the
// service host, the bucket list.
func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	name := bucketName(r)
	if name == "" {
		s.listBuckets(w, r)
		return
	}

	if r.URL.Query().Has("acl") {
		s.getBucketACL(w, r, name)
		return
	}

	s.listObjects(w, r, name)
}

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	prefix, marker := query.Get("prefix"), query.Get("marker")

	maxKeys, ok := parseMaxKeys(query.Get("max-keys"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "max-keys is not a valid number.")
		return
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	names := sortedNames(s.buckets)
	res := listAllMyBucketsResult{Owner: s.owner()}
	if query.Has("prefix") || query.Has("marker") || query.Has("max-keys") {
		res.Prefix, res.Marker, res.MaxKeys = prefix, marker, maxKeys
	}

	for _, n := range names {
		if !strings.HasPrefix(n, prefix) || n <= marker {
			continue
		}

		if len(res.Buckets.Bucket) == maxKeys {
			res.IsTruncated = true
			res.NextMarker = res.Buckets.Bucket[maxKeys-1].Name
			break
		}

		b := s.buckets[n]
		res.Buckets.Bucket = append(res.Buckets.Bucket, bucketEntry{
			Name:         b.name,
			Location:     location,
			CreationDate: b.created.UTC().Format(time.RFC3339),
		})
	}

	writeXML(w, http.StatusOK, res)
}

func (s *Server) listObjects(w http.ResponseWriter, r *http.Request, name string) {
	query := r.URL.Query()
	prefix, marker, delimiter := query.Get("prefix"), query.Get("marker"), query.Get("delimiter")

	maxKeys, ok := parseMaxKeys(query.Get("max-keys"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "max-keys is not a valid number.")
		return
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	res := listBucketResult{
		Name:      name,
		Prefix:    prefix,
		Marker:    marker,
		MaxKeys:   maxKeys,
		Delimiter: delimiter,
	}

	var (
		last     string
		prefixes = make(map[string]struct{})
	)

	for _, key := range sortedNames(b.objects) {
		if !strings.HasPrefix(key, prefix) || key <= marker {
			continue
		}

		if len(res.Contents)+len(res.CommonPrefixes) == maxKeys {
			res.IsTruncated = true
			res.NextMarker = last
			break
		}

		if delimiter != "" {
			if i := strings.Index(key[len(prefix):], delimiter); i >= 0 {
				cp := key[:len(prefix)+i+len(delimiter)]
				if _, seen := prefixes[cp]; !seen {
					prefixes[cp] = struct{}{}
					res.CommonPrefixes = append(res.CommonPrefixes, commonPrefix{Prefix: cp})
				}

				last = key
				continue
			}
		}

		obj := b.objects[key]
		res.Contents = append(res.Contents, objectEntry{
			Key:          key,
			LastModified: obj.modified.UTC().Format(time.RFC3339),
			ETag:         obj.etag,
			Size:         len(obj.data),
			StorageClass: "Standard",
			Owner:        s.owner(),
		})
		last = key
	}

	writeXML(w, http.StatusOK, res)
}

func (s *Server) getBucketACL(w http.ResponseWriter, r *http.Request, name string) {
	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	writeXML(w, http.StatusOK, accessControlPolicy{Owner: s.owner(), Grant: b.acl})
}

// handlePutBucket creates a bucket or, with ?acl, replaces its ACL.
func (s *Server) handlePutBucket(w http.ResponseWriter, r *http.Request) {
	name := bucketName(r)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "InvalidBucketName", "The specified bucket is not valid.")
		return
	}

	acl := r.Header.Get(headerACL)
	if acl == "" {
		acl = aclPrivate
	}

	if !validACL(acl) {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "no such bucket access control exists")
		return
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	b, exists := s.buckets[name]

	if r.URL.Query().Has("acl") {
		if !exists {
			writeNoSuchBucket(w, r)
			return
		}

		b.acl = acl
		w.WriteHeader(http.StatusOK)

		return
	}

	if exists {
		writeError(w, r, http.StatusConflict, "BucketAlreadyExists", "The requested bucket name is not available.")
		return
	}

	s.buckets[name] = &bucket{
		name:    name,
		acl:     acl,
		created: s.nowLocked(),
		objects: make(map[string]*object),
	}

	w.Header().Set("Location", "/"+name)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	name := bucketName(r)

	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	if len(b.objects) > 0 {
		writeError(w, r, http.StatusConflict, "BucketNotEmpty", "The bucket you tried to delete is not empty.")
		return
	}

	delete(s.buckets, name)
	w.WriteHeader(http.StatusNoContent)
}

// handlePostBucket serves multi-object deletes.
func (s *Server) handlePostBucket(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("delete") {
		writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed", "The specified method is not allowed against this resource.")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "IncompleteBody", "The request body could not be read.")
		return
	}

	sum := md5.Sum(body)
	if r.Header.Get(sign.HeaderContentMD5) != base64.StdEncoding.EncodeToString(sum[:]) {
		writeError(w, r, http.StatusBadRequest, "InvalidDigest", "The Content-MD5 you specified was invalid.")
		return
	}

	var req deleteRequest
	if err := xml.Unmarshal(body, &req); err != nil || len(req.Objects) == 0 {
		writeError(w, r, http.StatusBadRequest, "MalformedXML", "The XML you provided was not well-formed.")
		return
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[bucketName(r)]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	var res deleteResult
	for _, o := range req.Objects {
		delete(b.objects, o.Key)

		if !req.Quiet {
			res.Deleted = append(res.Deleted, deletedEntry{Key: o.Key})
		}
	}

	writeXML(w, http.StatusOK, res)
}

func (s *Server) handlePutObject(w http.ResponseWriter, r *http.Request) {
	if src := r.Header.Get(headerCopySrc); src != "" {
		s.copyObject(w, r, src)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "IncompleteBody", "The request body could not be read.")
		return
	}

	if want := r.Header.Get(sign.HeaderContentMD5); want != "" {
		sum := md5.Sum(data)
		if want != base64.StdEncoding.EncodeToString(sum[:]) {
			writeError(w, r, http.StatusBadRequest, "InvalidDigest", "The Content-MD5 you specified was invalid.")
			return
		}
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[bucketName(r)]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	obj := &object{
		data:        data,
		contentType: r.Header.Get(sign.HeaderContentType),
		meta:        metaOf(r.Header),
		etag:        etagOf(data),
		modified:    s.nowLocked(),
	}
	b.objects[objectKey(r)] = obj

	w.Header().Set("ETag", obj.etag)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) copyObject(w http.ResponseWriter, r *http.Request, src string) {
	src, err := url.PathUnescape(src)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "Copy Source is invalid.")
		return
	}

	srcBucket, srcKey, ok := strings.Cut(strings.TrimPrefix(src, "/"), "/")
	if !ok || srcKey == "" {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "Copy Source must mention the source bucket and key: /sourcebucket/sourcekey.")
		return
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	sb, ok := s.buckets[srcBucket]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	so, ok := sb.objects[srcKey]
	if !ok {
		writeNoSuchKey(w, r)
		return
	}

	db, ok := s.buckets[bucketName(r)]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	obj := &object{
		data:        slices.Clone(so.data),
		contentType: so.contentType,
		meta:        so.meta.Clone(),
		etag:        so.etag,
		modified:    s.nowLocked(),
	}

	if r.Header.Get("x-oss-metadata-directive") == "REPLACE" {
		obj.contentType = r.Header.Get(sign.HeaderContentType)
		obj.meta = metaOf(r.Header)
	}

	db.objects[objectKey(r)] = obj

	writeXML(w, http.StatusOK, copyObjectResult{
		ETag:         obj.etag,
		LastModified: obj.modified.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookupObject(w, r)
	if !ok {
		return
	}

	writeObjectHeader(w, obj)

	total := int64(len(obj.data))
	rangeHdr := r.Header.Get("Range")
	if rangeHdr == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(obj.data)

		return
	}

	start, end, ok := parseRange(rangeHdr, total)
	if !ok {
		w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(total, 10))
		writeError(w, r, http.StatusRequestedRangeNotSatisfiable, "InvalidRange", "The requested range cannot be satisfied.")
		return
	}

	w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(total, 10))
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = w.Write(obj.data[start : end+1])
}

func (s *Server) handleHeadObject(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookupObject(w, r)
	if !ok {
		return
	}

	writeObjectHeader(w, obj)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[bucketName(r)]
	if !ok {
		writeNoSuchBucket(w, r)
		return
	}

	delete(b.objects, objectKey(r))
	w.WriteHeader(http.StatusNoContent)
}

// lookupObject returns a copy of the object's header fields and a reference to
// its data, which is never modified in place.
func (s *Server) lookupObject(w http.ResponseWriter, r *http.Request) (*object, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()

	b, ok := s.buckets[bucketName(r)]
	if !ok {
		writeNoSuchBucket(w, r)
		return nil, false
	}

	obj, ok := b.objects[objectKey(r)]
	if !ok {
		writeNoSuchKey(w, r)
		return nil, false
	}

	cp := *obj

	return &cp, true
}

func writeObjectHeader(w http.ResponseWriter, obj *object) {
	contentType := obj.contentType
	if contentType == "" {
		contentType = defaultMimeType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", obj.etag)
	w.Header().Set("Last-Modified", obj.modified.UTC().Format(http.TimeFormat))

	for name, value := range obj.meta.All() {
		w.Header().Set(name, value)
	}
}

func writeNoSuchBucket(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist.")
}

func writeNoSuchKey(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
}

func (s *Server) nowLocked() time.Time {
	return time.Now().Add(s.offset)
}

func metaOf(h http.Header) sign.Header {
	var meta sign.Header
	for name, value := range sign.HeaderFromHTTP(h).All() {
		if strings.HasPrefix(name, metaPrefix) {
			meta.Set(name, value)
		}
	}

	return meta
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return `"` + strings.ToUpper(hex.EncodeToString(sum[:])) + `"`
}

func parseMaxKeys(v string) (int, bool) {
	if v == "" {
		return defaultMaxKeys, true
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}

	return min(n, maxKeysLimit), true
}

// parseRange parses a Range header of form "bytes=start-end" (single-range only).
// Returns start, end (inclusive), and ok.
func parseRange(hdr string, total int64) (int64, int64, bool) {
	ranges, found := strings.CutPrefix(hdr, "bytes=")
	if !found || strings.Contains(ranges, ",") {
		return 0, 0, false
	}

	first, last, found := strings.Cut(strings.TrimSpace(ranges), "-")
	if !found {
		return 0, 0, false
	}

	if first == "" {
		suffix, err := strconv.ParseInt(last, 10, 64)
		if err != nil || suffix <= 0 {
			return 0, 0, false
		}

		return max(total-suffix, 0), total - 1, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= total {
		return 0, 0, false
	}

	if last == "" {
		return start, total - 1, true
	}

	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return 0, 0, false
	}

	return start, min(end, total-1), true
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)

	return names
}

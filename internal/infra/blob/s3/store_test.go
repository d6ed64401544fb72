package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"kineticcore/internal/blob/core"
)

type fakeObject struct {
	body        []byte
	contentType string
	meta        map[string]string
}

// fakeBucket answers the path-style S3 calls Store issues.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	puts    int
}

func newFakeStore(t *testing.T) (*Store, *fakeBucket) {
	t.Helper()
	fake := &fakeBucket{objects: make(map[string]fakeObject)}
	store, err := New(context.Background(), Config{
		Bucket:          "reports",
		Endpoint:        "https://s3.test.local",
		PathStyle:       true,
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		HTTPClient:      &http.Client{Transport: fake},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store, fake
}

func response(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: header, Body: io.NopCloser(bytes.NewReader(body))}
}

func (f *fakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return f.list(req.URL.Query().Get("prefix")), nil
	}
	obj, ok := f.objects[key]
	switch req.Method {
	case http.MethodHead, http.MethodGet:
		if !ok {
			return response(http.StatusNotFound, nil, nil), nil
		}
		header := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {`"etag-` + key + `"`},
			"Last-Modified":  {time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat)},
		}
		for k, v := range obj.meta {
			header.Set("X-Amz-Meta-"+k, v)
		}
		if req.Method == http.MethodHead {
			return response(http.StatusOK, nil, header), nil
		}
		return response(http.StatusOK, obj.body, header), nil
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeChunked(body)
		}
		meta := map[string]string{}
		for name, values := range req.Header {
			if lower := strings.ToLower(name); strings.HasPrefix(lower, "x-amz-meta-") {
				meta[strings.TrimPrefix(lower, "x-amz-meta-")] = values[0]
			}
		}
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), meta: meta}
		f.puts++
		return response(http.StatusOK, nil, http.Header{"Etag": {`"etag-` + key + `"`}}), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return response(http.StatusNoContent, nil, nil), nil
	}
	return response(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeBucket) list(prefix string) *http.Response {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2026-01-02T03:04:05Z</LastModified></Contents>", k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return response(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

// decodeChunked strips aws-chunked framing: "<hex>[;ext]\r\n<data>\r\n" repeated until a zero chunk.
func decodeChunked(raw []byte) []byte {
	var out []byte
	for len(raw) > 0 {
		line, rest, ok := bytes.Cut(raw, []byte("\r\n"))
		if !ok {
			break
		}
		sizeField, _, _ := bytes.Cut(line, []byte(";"))
		size, err := strconv.ParseInt(string(sizeField), 16, 64)
		if err != nil || size == 0 || int64(len(rest)) < size {
			break
		}
		out = append(out, rest[:size]...)
		raw = bytes.TrimPrefix(rest[size:], []byte("\r\n"))
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeStore(t)
	payload := `{"report":"r-1"}`
	if _, err := store.Put(ctx, "m1/r-1.json", strings.NewReader(payload), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"model": "m1"},
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "m1/r-1.json", strings.NewReader("{}"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if fake.puts != 1 {
		t.Fatalf("expected one upload, got %d", fake.puts)
	}

	info, rc, err := store.Get(ctx, "m1/r-1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != payload {
		t.Fatalf("unexpected body %q", body)
	}
	if info.ContentType != "application/json" || info.Metadata["model"] != "m1" || info.ETag != "etag-m1/r-1.json" {
		t.Fatalf("unexpected info %+v", info)
	}

	list, err := store.List(ctx, "m1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "m1/r-1.json" || list[0].Size != int64(len(payload)) {
		t.Fatalf("unexpected list %+v", list)
	}

	ok, err := store.Delete(ctx, "m1/r-1.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "m1/r-1.json"); err != nil || ok {
		t.Fatalf("second delete should report missing, got %v %v", ok, err)
	}
}

func TestStoreMissingObject(t *testing.T) {
	ctx := context.Background()
	store, _ := newFakeStore(t)
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
}

func TestStorePresignURL(t *testing.T) {
	store, _ := newFakeStore(t)
	url, err := store.PresignURL(context.Background(), "m1/r-1.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "/reports/m1/r-1.json") || !strings.Contains(url, "X-Amz-Expires=900") {
		t.Fatalf("unexpected presigned url %s", url)
	}
	if store.Driver() != core.DriverS3 || store.Bucket() != "reports" {
		t.Fatalf("unexpected store identity")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/information-sharing-networks/pass-issuer/internal/blob"
)

// fakeBucket serves path-style PutObject and GetObject requests for one bucket.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/passes/")
	switch r.Method {
	case http.MethodPut:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.objects[key] = b
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		b, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		_, _ = w.Write(b)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string][]byte{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		Bucket:          "passes",
		Region:          "ap-southeast-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
	})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return s, bucket
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, bucket := newTestStore(t)

	content := []byte(`{"cipherText":"abc","iv":"def","tag":"ghi","salt":"jkl"}`)
	receipt, err := s.Put(ctx, "6a0f8a53-1c2d", content)
	if err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	if !bytes.Equal(bucket.objects["6a0f8a53-1c2d"], content) {
		t.Errorf("bucket holds %q, want %q", bucket.objects["6a0f8a53-1c2d"], content)
	}
	if err := blob.VerifyContent(content, receipt.CID); err != nil {
		t.Errorf("receipt CID does not match content: %v", err)
	}
	if !strings.Contains(receipt.Location, "6a0f8a53-1c2d") {
		t.Errorf("Location = %s", receipt.Location)
	}

	got, err := s.Get(ctx, "6a0f8a53-1c2d")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Get() = %q, want %q", got, content)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Region: "eu-west-2"}); err == nil {
		t.Errorf("New() without a bucket succeeded")
	}
	if _, err := New(Config{Bucket: "passes"}); err == nil {
		t.Errorf("New() without a region succeeded")
	}
}

func TestPut_InvalidKey(t *testing.T) {
	s, bucket := newTestStore(t)
	if _, err := s.Put(context.Background(), "/abs", []byte("x")); !errors.Is(err, blob.ErrInvalidKey) {
		t.Errorf("Put() error = %v, want ErrInvalidKey", err)
	}
	if len(bucket.objects) != 0 {
		t.Errorf("invalid key reached the bucket")
	}
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style S3 calls S3Service makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/bucket")
	key = strings.TrimPrefix(key, "/")

	switch {
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>bucket</Name>`)
		for k, size := range f.objects {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			fmt.Fprintf(&b, `<Contents><Key>%s</Key><LastModified>2024-01-01T00:00:00.000Z</LastModified><Size>%d</Size></Contents>`, k, size)
		}
		b.WriteString(`<IsTruncated>false</IsTruncated></ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, b.String())
	case r.Method == http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		n, _ := io.Copy(io.Discard, r.Body)
		f.objects[key] = int(n)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}

func newFakeS3Service(t *testing.T) (*S3Service, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]int{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AK", SecretAccessKey: "SK"}, nil
		}),
		RetryMaxAttempts: 1,
	})
	svc, err := NewS3Service(client, S3Options{Bucket: "bucket", KeyPrefix: "/uploads/", URLExpiry: time.Minute})
	require.NoError(t, err)
	return svc, fake
}

func TestS3Service_PutListDelete(t *testing.T) {
	svc, fake := newFakeS3Service(t)
	ctx := context.Background()

	require.NoError(t, svc.Put(ctx, "1-a.png", strings.NewReader("abc")))
	assert.Equal(t, []string{"uploads/1-a.png"}, fake.keys())

	err := svc.Put(ctx, "1-a.png", strings.NewReader("again"))
	require.ErrorIs(t, err, ErrObjectExists)

	objects, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "1-a.png", objects[0].Key)

	require.NoError(t, svc.Delete(ctx, "1-a.png"))
	assert.Empty(t, fake.keys())
}

func TestS3Service_URLIsPresigned(t *testing.T) {
	svc, _ := newFakeS3Service(t)

	u, err := svc.URL(context.Background(), "1-a.png")
	require.NoError(t, err)
	assert.Contains(t, u, "/bucket/uploads/1-a.png")
	assert.Contains(t, u, "X-Amz-Signature=")
	assert.Contains(t, u, "X-Amz-Expires=60")
}

func TestNewS3Service_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3Service(s3.New(s3.Options{Region: "us-east-1"}), S3Options{})
	require.Error(t, err)
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// apiError implements smithy.APIError.
type apiError struct {
	code string
	msg  string
}

func (e *apiError) Error() string                 { return e.msg }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.msg }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

var (
	errNoSuchKey = &apiError{code: "NoSuchKey", msg: "no such key"}
	errNotFound  = &apiError{code: "NotFound", msg: "not found"}
)

// mockS3 is an in-memory S3 backend.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr  error
	headErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errNoSuchKey
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Bucket+"/"+*in.Key]; !ok {
		return nil, errNotFound
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3WriteAndRead(t *testing.T) {
	mock := newMockS3()
	store := NewS3(mock, "bucket", "runs/")
	ctx := context.Background()

	w, err := store.Write(ctx, "r1/report.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "score: 0.9"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := mock.objects["bucket/runs/r1/report.yaml"]; !ok {
		t.Fatalf("objects = %v, want key runs/r1/report.yaml", mock.objects)
	}

	r, err := store.Read(ctx, "r1/report.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "score: 0.9" {
		t.Fatalf("got %q, want %q", got, "score: 0.9")
	}
}

func TestS3ReadNotExist(t *testing.T) {
	store := NewS3(newMockS3(), "bucket", "")
	_, err := store.Read(context.Background(), "nope.wav")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestS3Exists(t *testing.T) {
	mock := newMockS3()
	store := NewS3(mock, "bucket", "")
	ctx := context.Background()
	mock.objects["bucket/a.wav"] = []byte("x")

	ok, err := store.Exists(ctx, "a.wav")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true", ok, err)
	}
	ok, err = store.Exists(ctx, "b.wav")
	if err != nil || ok {
		t.Fatalf("Exists(b.wav) = %v, %v, want false", ok, err)
	}

	mock.headErr = &apiError{code: "AccessDenied", msg: "denied"}
	if _, err := store.Exists(ctx, "a.wav"); err == nil {
		t.Fatal("Exists with AccessDenied succeeded")
	}
}

func TestS3WriteError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("upload failed")
	store := NewS3(mock, "bucket", "")

	w, err := store.Write(context.Background(), "f")
	if err != nil {
		t.Fatal(err)
	}
	// The failed upload closes the pipe, so Write may or may not see it.
	w.Write([]byte("data"))
	if err := w.Close(); err == nil || err.Error() != "upload failed" {
		t.Fatalf("Close = %v, want upload failed", err)
	}
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	c := NewS3Client(S3Config{Endpoint: "http://localhost:9000", PathStyle: true})
	opts := c.Options()
	if opts.Region != "eu-west-1" {
		t.Fatalf("Region = %q, want eu-west-1", opts.Region)
	}
	if !opts.UsePathStyle {
		t.Fatal("UsePathStyle = false, want true")
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Fatalf("BaseEndpoint = %v, want http://localhost:9000", opts.BaseEndpoint)
	}

	c = NewS3Client(S3Config{Region: "ap-east-1"})
	if got := c.Options().Region; got != "ap-east-1" {
		t.Fatalf("Region = %q, want ap-east-1", got)
	}
}

func TestS3Abort(t *testing.T) {
	mock := newMockS3()
	store := NewS3(mock, "bucket", "")
	ctx := context.Background()

	w, err := store.Write(ctx, "report.json")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "partial")
	if err := w.(Aborter).Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, ok := mock.objects["bucket/report.json"]; ok {
		t.Fatal("aborted upload created an object")
	}
}

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/polarmc/yggdrasil/internal/common"
	sc "github.com/polarmc/yggdrasil/internal/server/config"
)

func testStore(t *testing.T) *S3Store {
	t.Helper()
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	store, err := NewS3Store(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPutSendsBucketKeyAndBody(t *testing.T) {
	var captured *s3.PutObjectInput
	orig := putObject
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		captured = in
		return &s3.PutObjectOutput{}, nil
	}
	defer func() { putObject = orig }()

	store := testStore(t)
	if err := store.Put(context.Background(), "textures/abc", []byte("png"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}

	if aws.ToString(captured.Bucket) != "textures" {
		t.Errorf("bucket = %q", aws.ToString(captured.Bucket))
	}
	if aws.ToString(captured.Key) != "textures/abc" {
		t.Errorf("key = %q", aws.ToString(captured.Key))
	}
	if aws.ToString(captured.ContentType) != "image/png" {
		t.Errorf("content type = %q", aws.ToString(captured.ContentType))
	}
	body, _ := io.ReadAll(captured.Body)
	if !bytes.Equal(body, []byte("png")) {
		t.Error("body mismatch")
	}
}

func TestGetReturnsBody(t *testing.T) {
	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("stored")))}, nil
	}
	defer func() { getObject = orig }()

	store := testStore(t)
	data, err := store.Get(context.Background(), "textures/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(data, []byte("stored")) {
		t.Error("body mismatch")
	}
}

func TestGetMissMapsToNotFound(t *testing.T) {
	orig := getObject
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return nil, errors.New("NoSuchKey")
	}
	defer func() { getObject = orig }()

	store := testStore(t)
	if _, err := store.Get(context.Background(), "textures/missing"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if err := m.Put(ctx, "k", []byte("v"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	// overwriting the same key is harmless and does not grow the store
	if err := m.Put(ctx, "k", []byte("v"), "image/png"); err != nil {
		t.Fatalf("put again: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want 1", m.Len())
	}

	data, err := m.Get(ctx, "k")
	if err != nil || !bytes.Equal(data, []byte("v")) {
		t.Fatalf("get: %v %q", err, data)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

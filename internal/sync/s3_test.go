package sync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Destination_Write(t *testing.T) {
	fp := &fakePutter{}
	d := &S3Destination{client: fp, bucket: "backups", key: "datacol/backup.jsonl"}

	data := []byte(`{"type":"header"}` + "\n")
	if err := d.Write(context.Background(), data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if aws.ToString(fp.in.Bucket) != "backups" || aws.ToString(fp.in.Key) != "datacol/backup.jsonl" {
		t.Fatalf("unexpected target %s/%s", aws.ToString(fp.in.Bucket), aws.ToString(fp.in.Key))
	}
	if aws.ToString(fp.in.ContentType) != "application/x-ndjson" {
		t.Fatalf("content type = %q", aws.ToString(fp.in.ContentType))
	}
	if aws.ToInt64(fp.in.ContentLength) != int64(len(data)) {
		t.Fatalf("content length = %d", aws.ToInt64(fp.in.ContentLength))
	}
	if string(fp.body) != string(data) {
		t.Fatalf("body = %q", fp.body)
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	d := &S3Destination{client: &fakePutter{err: errors.New("NoSuchBucket")}, bucket: "b", key: "k"}
	if err := d.Write(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewS3Destination_RequiresBucketAndKey(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), "", "k", "us-east-1", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
	if _, err := NewS3Destination(context.Background(), "b", "", "us-east-1", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPutter struct {
	err  error
	in   *s3.PutObjectInput
	body []byte
}

func (r *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.in = in
	r.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestUploadProof(t *testing.T) {
	put := &recordingPutter{}
	store := newProofStore(put, "proofs-bucket", "https://cdn.example.com/")
	id := uuid.MustParse("7d9f4c1e-2b3a-4c5d-8e6f-0a1b2c3d4e5f")

	url, err := store.UploadProof(context.Background(), "user_1", id, []byte("jpegdata"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/proofs/user_1/7d9f4c1e-2b3a-4c5d-8e6f-0a1b2c3d4e5f.jpg", url)
	assert.Equal(t, "proofs-bucket", aws.ToString(put.in.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(put.in.ContentType))
	assert.Equal(t, int64(8), aws.ToInt64(put.in.ContentLength))
	assert.Equal(t, []byte("jpegdata"), put.body)
}

func TestUploadProof_DetectsContentType(t *testing.T) {
	put := &recordingPutter{}
	store := newProofStore(put, "b", "https://cdn.example.com")

	png := []byte("\x89PNG\r\n\x1a\n0000")
	url, err := store.UploadProof(context.Background(), "u", uuid.Nil, png, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", aws.ToString(put.in.ContentType))
	assert.Contains(t, url, ".png")
}

func TestUploadProof_Error(t *testing.T) {
	store := newProofStore(&recordingPutter{err: errors.New("access denied")}, "b", "https://cdn")

	_, err := store.UploadProof(context.Background(), "u", uuid.New(), []byte("x"), "image/png")
	assert.ErrorContains(t, err, "access denied")
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", extension("image/jpeg"))
	assert.Equal(t, ".webp", extension("image/webp; charset=binary"))
	assert.Equal(t, "", extension("application/octet-stream"))
}

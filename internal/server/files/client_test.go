package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	bucketExists bool
	existsErr    error
	madeBucket   bool
	putKey       string
	putType      string
	putErr       error
	removedKey   string
	removeErr    error
}

func (f *fakeAPI) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.existsErr
}

func (f *fakeAPI) MakeBucket(_ context.Context, _ string, _ minio.MakeBucketOptions) error {
	f.madeBucket = true
	return nil
}

func (f *fakeAPI) PutObject(_ context.Context, _, objectName string, _ io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.putKey = objectName
	f.putType = opts.ContentType
	return minio.UploadInfo{Key: objectName}, f.putErr
}

func (f *fakeAPI) RemoveObject(_ context.Context, _, objectName string, _ minio.RemoveObjectOptions) error {
	f.removedKey = objectName
	return f.removeErr
}

func TestNewClientWithAPI_CreatesMissingBucket(t *testing.T) {
	api := &fakeAPI{bucketExists: false}

	_, err := NewClientWithAPI(context.Background(), api, "uploads", "http://localhost:9000")
	require.NoError(t, err)
	assert.True(t, api.madeBucket)
}

func TestNewClientWithAPI_BucketCheckError(t *testing.T) {
	api := &fakeAPI{existsErr: errors.New("connection refused")}

	_, err := NewClientWithAPI(context.Background(), api, "uploads", "http://localhost:9000")
	assert.Error(t, err)
}

func TestClient_Upload(t *testing.T) {
	api := &fakeAPI{bucketExists: true}
	client, err := NewClientWithAPI(context.Background(), api, "uploads", "http://localhost:9000/")
	require.NoError(t, err)

	url, err := client.Upload(context.Background(), "avatars/u-1.png", "image/png",
		bytes.NewReader([]byte("png-bytes")), 9)
	require.NoError(t, err)

	assert.Equal(t, "avatars/u-1.png", api.putKey)
	assert.Equal(t, "image/png", api.putType)
	assert.Equal(t, "http://localhost:9000/uploads/avatars/u-1.png", url)
}

func TestClient_Upload_Error(t *testing.T) {
	api := &fakeAPI{bucketExists: true, putErr: errors.New("quota exceeded")}
	client, err := NewClientWithAPI(context.Background(), api, "uploads", "http://localhost:9000")
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "a.png", "image/png", bytes.NewReader(nil), 0)
	assert.Error(t, err)
}

func TestClient_Delete(t *testing.T) {
	api := &fakeAPI{bucketExists: true}
	client, err := NewClientWithAPI(context.Background(), api, "uploads", "http://localhost:9000")
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), "avatars/u-1.png"))
	assert.Equal(t, "avatars/u-1.png", api.removedKey)
}

func TestClient_RemoveByURL(t *testing.T) {
	api := &fakeAPI{bucketExists: true}
	client, err := NewClientWithAPI(context.Background(), api, "uploads", "http://localhost:9000")
	require.NoError(t, err)

	t.Run("own url resolves to object key", func(t *testing.T) {
		require.NoError(t, client.RemoveByURL(context.Background(), "http://localhost:9000/uploads/u-1/avatar.png"))
		assert.Equal(t, "u-1/avatar.png", api.removedKey)
	})

	t.Run("foreign url is ignored", func(t *testing.T) {
		api.removedKey = ""
		require.NoError(t, client.RemoveByURL(context.Background(), "https://example.com/avatar.png"))
		assert.Empty(t, api.removedKey)
	})

	t.Run("remove error propagates", func(t *testing.T) {
		api.removeErr = errors.New("object locked")
		assert.Error(t, client.RemoveByURL(context.Background(), "http://localhost:9000/uploads/u-1/avatar.png"))
	})
}

package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func sampleResult() *models.SyncResult {
	res := models.NewSyncResult("6f1c", 42)
	res.Fetched = 3
	res.Inserted = 2
	res.AddError("remote_id %d: detail fetch failed", 9)
	res.CompletedAt = time.Date(2026, 3, 7, 23, 30, 0, 0, time.FixedZone("x", -3600))
	return res
}

func TestArchive_PutsJSON(t *testing.T) {
	up := &fakeUploader{}
	a := NewArchiver(up, "reports", "rostersync/")

	key, err := a.Archive(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "rostersync/tag-42/2026/03/08/6f1c.json", key)
	assert.Equal(t, "reports", aws.ToString(up.input.Bucket))
	assert.Equal(t, key, aws.ToString(up.input.Key))
	assert.Equal(t, "application/json", aws.ToString(up.input.ContentType))

	var got map[string]any
	require.NoError(t, json.Unmarshal(up.body, &got))
	assert.Equal(t, "6f1c", got["run_id"])
	assert.EqualValues(t, 2, got["inserted"])
	assert.Len(t, got["errors"], 1)
}

func TestArchive_UploadError(t *testing.T) {
	a := NewArchiver(&fakeUploader{err: errors.New("access denied")}, "reports", "")

	_, err := a.Archive(context.Background(), sampleResult())
	require.ErrorContains(t, err, "put reports/tag-42/2026/03/08/6f1c.json: access denied")
}

func TestNewS3Client_StaticCredentials(t *testing.T) {
	c, err := NewS3Client(context.Background(), S3Config{
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	})
	require.NoError(t, err)
	opts := c.Options()
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "us-east-1", opts.Region)
}

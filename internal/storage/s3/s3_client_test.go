package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pagepick/internal/config"
)

func testClient(t *testing.T, expiry int64) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), &config.S3Config{
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		AccessKey:     "test-access",
		SecretKey:     "test-secret",
		PresignExpiry: expiry,
	})
	require.NoError(t, err)
	return c
}

func TestURI(t *testing.T) {
	assert.Equal(t, "s3://bucket/extracted/a.pdf", URI("bucket", "extracted/a.pdf"))
}

func TestGetPresignedURL(t *testing.T) {
	c := testClient(t, 600)

	url, err := c.GetPresignedURL(context.Background(), "outputs", "extracted/report.pdf")
	require.NoError(t, err)

	assert.Contains(t, url, "http://localhost:9000/outputs/extracted/report.pdf")
	assert.Contains(t, url, "X-Amz-Expires=600")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestUpload_MissingSource(t *testing.T) {
	c := testClient(t, 0)
	_, err := c.Upload(context.Background(), "outputs", "k.pdf", "/nonexistent/file.pdf", "application/pdf")
	assert.Error(t, err)
}

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/littlefs/pkg/kv"
	"github.com/marmos91/littlefs/pkg/kv/kvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The conformance suite needs an S3-compatible endpoint such as Localstack:
//
//	LITTLEFS_S3_ENDPOINT=http://localhost:4566 go test ./pkg/kv/s3/
func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("LITTLEFS_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("LITTLEFS_S3_ENDPOINT not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	bucket := fmt.Sprintf("littlefs-test-%d", time.Now().UnixNano())
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)

	n := 0
	suite := &kvtest.StoreTestSuite{
		NewStore: func(t *testing.T) kv.Store {
			n++
			s, err := New(client, bucket, fmt.Sprintf("run-%d/", n))
			require.NoError(t, err)
			return s
		},
		Atomic: true,
	}
	suite.Run(t)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "bucket", "")
	assert.Error(t, err)

	_, err = NewClient(context.Background(), Config{})
	assert.Error(t, err)
}

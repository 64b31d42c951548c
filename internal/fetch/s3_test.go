package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/chunkr/internal/chunk"
	"github.com/tanq16/chunkr/internal/utils"
)

type fakeS3 struct {
	inputs []*s3.GetObjectInput
	body   string
	err    error

	// fullBody answers ranged requests with the whole object and no Content-Range.
	fullBody bool
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentLength: aws.Int64(int64(len(f.body))),
	}
	if params.Range != nil && !f.fullBody {
		out.ContentRange = aws.String(fmt.Sprintf("%s/%d", strings.Replace(*params.Range, "=", " ", 1), len(f.body)))
	}
	return out, nil
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/path/to/file.zip")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/file.zip", key)

	for _, bad := range []string{"my-bucket/file", "s3://my-bucket", "s3://my-bucket/", "s3:///key"} {
		_, _, err := parseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

func TestS3TransportRangedGet(t *testing.T) {
	api := &fakeS3{body: "0123456789"}
	transport := &S3Transport{client: api}

	resp, err := transport.Get(context.Background(), "s3://b/k", &chunk.ByteRange{Start: 0, End: 9})
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, int64(10), resp.ContentLength)

	require.Len(t, api.inputs, 1)
	assert.Equal(t, "b", aws.ToString(api.inputs[0].Bucket))
	assert.Equal(t, "k", aws.ToString(api.inputs[0].Key))
	assert.Equal(t, "bytes=0-9", aws.ToString(api.inputs[0].Range))

	resp, err = transport.Get(context.Background(), "s3://b/k", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, api.inputs[1].Range)
}

func TestS3TransportRangeIgnored(t *testing.T) {
	api := &fakeS3{body: "0123456789", fullBody: true}
	transport := &S3Transport{client: api}

	resp, err := transport.Get(context.Background(), "s3://b/k", &chunk.ByteRange{Start: 2, End: 4})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = FetchSegment(context.Background(), transport, "s3://b/k", chunk.ByteRange{Start: 2, End: 4})
	assert.ErrorIs(t, err, utils.ErrChunkLength)
}

func TestS3TransportMapsResponseErrors(t *testing.T) {
	api := &fakeS3{err: &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusForbidden}},
			Err:      errors.New("AccessDenied"),
		},
	}}
	transport := &S3Transport{client: api}

	resp, err := transport.Get(context.Background(), "s3://b/k", &chunk.ByteRange{Start: 0, End: 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, resp.Success())

	api.err = errors.New("dial tcp: no route to host")
	_, err = transport.Get(context.Background(), "s3://b/k", nil)
	assert.ErrorContains(t, err, "no route to host")
}

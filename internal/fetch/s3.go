package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/chunkr/internal/chunk"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Transport serves s3://bucket/key URLs with (ranged) GetObject calls.
type S3Transport struct {
	client s3API
}

// NewS3Transport loads the shared AWS config for profile. SDK retries are
// disabled so that a failed chunk fails the download like any other
// transport.
func NewS3Transport(ctx context.Context, profile string) (*S3Transport, error) {
	if profile == "" {
		profile = "default"
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	log.Debug().Str("op", "fetch/s3").Msgf("loaded AWS config for profile %s (region %s)", profile, cfg.Region)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.DisableLogOutputChecksumValidationSkipped = true
	})
	return &S3Transport{client: client}, nil
}

func (t *S3Transport) Get(ctx context.Context, url string, r *chunk.ByteRange) (*Response, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if r != nil {
		input.Range = aws.String(r.Header())
	}
	out, err := t.client.GetObject(ctx, input)
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return &Response{StatusCode: respErr.HTTPStatusCode(), ContentLength: -1, Body: http.NoBody}, nil
		}
		return nil, err
	}
	resp := &Response{
		StatusCode:    http.StatusOK,
		ContentLength: aws.ToInt64(out.ContentLength),
		Body:          out.Body,
	}
	if out.ContentLength == nil {
		resp.ContentLength = -1
	}
	if r != nil && out.ContentRange != nil {
		resp.StatusCode = http.StatusPartialContent
	}
	return resp, nil
}

func parseS3URL(rawURL string) (string, string, error) {
	trimmed, ok := strings.CutPrefix(rawURL, "s3://")
	if !ok {
		return "", "", fmt.Errorf("invalid S3 URL %q: missing s3:// scheme", rawURL)
	}
	bucket, key, _ := strings.Cut(trimmed, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: expected s3://bucket/key", rawURL)
	}
	return bucket, key, nil
}

package archive

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/time/rate"

	"github.com/isohyet-io/isohyet/config"
	"github.com/isohyet-io/isohyet/iox"
	"github.com/isohyet-io/isohyet/types"
)

// S3Client reads hourly slices from S3-compatible object storage.
// Uses the AWS SDK default credential chain (env vars, shared config,
// IAM role). Fetches are rate limited client-side because the archive
// throttles aggressively under a full worker pool.
type S3Client struct {
	client  *s3.Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// NewS3Client creates an archive client from config.
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerMinute)/60.0, 1)
	}

	return &S3Client{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		limiter: limiter,
	}, nil
}

// FetchHour implements Client.
func (c *S3Client) FetchHour(ctx context.Context, date types.Date, hour int) (*types.HourlySlice, error) {
	key := ObjectKey(c.prefix, date, hour)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, WrapFetchError(err, key)
	}
	defer iox.DiscardClose(out.Body)

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, WrapFetchError(err, key)
	}

	slice, err := DecodeSlice(data)
	if err != nil {
		return nil, &FetchError{Kind: ErrDecode, Key: key, Err: err}
	}

	if slice.Date != date || slice.Hour != hour {
		return nil, &FetchError{
			Kind: ErrDecode,
			Key:  key,
			Err:  fmt.Errorf("object labeled %s hour %02d", slice.Date, slice.Hour),
		}
	}

	return slice, nil
}

// Close implements Client. The underlying SDK client holds no resources
// that require explicit release.
func (c *S3Client) Close() error { return nil }

// Verify S3Client implements Client.
var _ Client = (*S3Client)(nil)

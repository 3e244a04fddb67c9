// Package storage purges mirrored product images from S3 compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// maxDeleteBatch is the S3 DeleteObjects limit
const maxDeleteBatch = 1000

// objectAPI is the subset of the S3 client the cleaner calls
type objectAPI interface {
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3ImageCleaner deletes the mirrored images of one remote product.
// Objects live under <prefix>/<site>/<remote_id>/.
type S3ImageCleaner struct {
	client objectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// S3ImageCleanerOption configures the cleaner
type S3ImageCleanerOption func(*S3ImageCleaner)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3ImageCleanerOption {
	return func(c *S3ImageCleaner) {
		c.logger = logger
	}
}

// NewS3ImageCleaner builds a cleaner from the storage configuration.
// Works with AWS S3 and S3 compatible services (MinIO, RustFS).
func NewS3ImageCleaner(ctx context.Context, cfg *config.StorageConfig, opts ...S3ImageCleanerOption) (*S3ImageCleaner, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3ImageCleaner(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func newS3ImageCleaner(client objectAPI, bucket, prefix string, opts ...S3ImageCleanerOption) *S3ImageCleaner {
	c := &S3ImageCleaner{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check verifies the bucket is reachable. Called once at startup.
func (c *S3ImageCleaner) Check(ctx context.Context) error {
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("storage: bucket %q unavailable: %w", c.bucket, err)
	}
	return nil
}

// KeyPrefix returns the object prefix of a remote product's images
func (c *S3ImageCleaner) KeyPrefix(site shared.SiteCode, remoteID int64) string {
	return path.Join(c.prefix, site.String(), strconv.FormatInt(remoteID, 10)) + "/"
}

// CleanupImages deletes every object under the product's prefix.
// Per-object failures are reported in the details and make the report unsuccessful.
func (c *S3ImageCleaner) CleanupImages(ctx context.Context, site shared.SiteCode, remoteID int64) (integration.CleanupReport, error) {
	prefix := c.KeyPrefix(site, remoteID)
	ctx, span := telemetry.StartSpan(ctx, "storage.cleanup_images",
		telemetry.WithAttribute(telemetry.SpanAttrSite, site.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRemoteID, remoteID),
	)
	defer span.End()

	keys, err := c.listKeys(ctx, prefix)
	if err != nil {
		telemetry.RecordError(span, err)
		return integration.CleanupReport{}, fmt.Errorf("%w: list %s: %v", integration.ErrImageCleanupFailed, prefix, err)
	}
	if len(keys) == 0 {
		return integration.CleanupReport{Success: true, Details: []string{"no mirrored images under " + prefix}}, nil
	}

	report := integration.CleanupReport{Success: true}
	deleted := 0
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		failed, err := c.deleteBatch(ctx, keys[start:end])
		if err != nil {
			telemetry.RecordError(span, err)
			return report, fmt.Errorf("%w: delete %s: %v", integration.ErrImageCleanupFailed, prefix, err)
		}
		deleted += end - start - len(failed)
		if len(failed) > 0 {
			report.Success = false
			report.Details = append(report.Details, failed...)
		}
	}
	report.Details = append(report.Details, fmt.Sprintf("deleted %d of %d objects under %s", deleted, len(keys), prefix))

	telemetry.SetAttribute(span, "objects_deleted", deleted)
	c.logger.Info("Mirrored images removed",
		zap.String("site", site.String()),
		zap.Int64("remote_id", remoteID),
		zap.Int("deleted", deleted),
		zap.Int("found", len(keys)),
	)
	return report, nil
}

func (c *S3ImageCleaner) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pager := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// deleteBatch returns one detail line per object S3 refused to delete
func (c *S3ImageCleaner) deleteBatch(ctx context.Context, keys []string) ([]string, error) {
	ids := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		ids[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}
	out, err := c.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return nil, err
	}

	var failed []string
	for _, e := range out.Errors {
		failed = append(failed, fmt.Sprintf("%s: %s %s", aws.ToString(e.Key), aws.ToString(e.Code), aws.ToString(e.Message)))
	}
	return failed, nil
}

var _ integration.ImageCleaner = (*S3ImageCleaner)(nil)

package restore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vadviktor/icebreaker/pkg/logging"
)

// S3API is the subset of the S3 client the restorer needs.
// *s3.Client satisfies it; tests inject a mock.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	RestoreObject(ctx context.Context, params *s3.RestoreObjectInput, optFns ...func(*s3.Options)) (*s3.RestoreObjectOutput, error)
}

// Summary counts what happened to the objects under the prefix
type Summary struct {
	Scanned    int // objects seen
	Requested  int // restoration requests issued (or would be, in dry-run)
	InProgress int // restorations already underway
	Restored   int // objects already restored
	Skipped    int // objects not in Deep Archive
}

// Restorer walks an S3 prefix and requests restoration of Deep Archive objects
type Restorer struct {
	client S3API
	bucket string
	prefix string
	days   int32
	dryRun bool
}

// New creates a restorer for the given bucket and prefix
func New(client S3API, bucket, prefix string, days int32, dryRun bool) *Restorer {
	return &Restorer{
		client: client,
		bucket: bucket,
		prefix: prefix,
		days:   days,
		dryRun: dryRun,
	}
}

// ParsePath splits an s3://bucket/prefix path into bucket and prefix
func ParsePath(path string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(path, "s3://") {
		return "", "", fmt.Errorf("path must start with s3://, got %q", path)
	}

	parts := strings.SplitN(strings.TrimPrefix(path, "s3://"), "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("path %q has no bucket", path)
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}

// Run iterates the prefix and processes every object. It returns the summary
// of what was scanned; per-object restore failures are logged and counted but
// do not abort the walk.
func (r *Restorer) Run(ctx context.Context) (*Summary, error) {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
		OptionalObjectAttributes: []types.OptionalObjectAttributes{
			types.OptionalObjectAttributesRestoreStatus,
		},
	})

	logging.Info("processing objects", "bucket", r.bucket, "prefix", r.prefix)

	summary := &Summary{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return summary, fmt.Errorf("listing objects: %w", err)
		}

		for _, obj := range page.Contents {
			r.processObject(ctx, obj, summary)
		}
	}

	logging.Info("processing complete",
		"scanned", summary.Scanned,
		"requested", summary.Requested,
		"inProgress", summary.InProgress,
		"restored", summary.Restored,
	)
	return summary, nil
}

func (r *Restorer) processObject(ctx context.Context, obj types.Object, summary *Summary) {
	if obj.Key == nil {
		return
	}
	summary.Scanned++

	key := *obj.Key

	if obj.StorageClass != types.ObjectStorageClassDeepArchive {
		summary.Skipped++
		return
	}

	if r.dryRun {
		logging.Info("would restore", "key", key)
		summary.Requested++
		return
	}

	status := obj.RestoreStatus

	switch {
	case notBeingRestored(status):
		logging.Info("requesting restoration", "key", key)
		summary.Requested++

		_, err := r.client.RestoreObject(ctx, &s3.RestoreObjectInput{
			Bucket: aws.String(r.bucket),
			Key:    aws.String(key),
			RestoreRequest: &types.RestoreRequest{
				Days: aws.Int32(r.days),
				GlacierJobParameters: &types.GlacierJobParameters{
					Tier: types.TierBulk,
				},
			},
		})
		if err != nil {
			logging.Warn("failed to restore object", "key", key, "error", err)
		}

	case isRestored(status):
		expiry := "N/A"
		if status.RestoreExpiryDate != nil {
			expiry = status.RestoreExpiryDate.Format(time.RFC3339)
		}
		logging.Info("already restored", "key", key, "expires", expiry)
		summary.Restored++

	default:
		logging.Info("restoration in progress", "key", key)
		summary.InProgress++
	}
}

// notBeingRestored reports whether the object has neither a pending nor a
// completed restoration. No status at all means nothing was ever requested.
func notBeingRestored(status *types.RestoreStatus) bool {
	if status == nil {
		return true
	}

	inProgress := status.IsRestoreInProgress != nil && *status.IsRestoreInProgress

	return !inProgress && status.RestoreExpiryDate == nil
}

func isRestored(status *types.RestoreStatus) bool {
	if status == nil {
		return false
	}

	inProgress := status.IsRestoreInProgress != nil && *status.IsRestoreInProgress

	return !inProgress && status.RestoreExpiryDate != nil
}

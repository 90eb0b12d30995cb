package restore

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{
			name:       "Bucket And Prefix",
			path:       "s3://mybucket/myfolder/sub",
			wantBucket: "mybucket",
			wantPrefix: "myfolder/sub",
		},
		{
			name:       "Bucket Only",
			path:       "s3://mybucket",
			wantBucket: "mybucket",
			wantPrefix: "",
		},
		{
			name:    "Missing Scheme",
			path:    "mybucket/myfolder",
			wantErr: true,
		},
		{
			name:    "Empty Bucket",
			path:    "s3:///myfolder",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := ParsePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if bucket != tt.wantBucket {
				t.Errorf("Expected bucket %q, got %q", tt.wantBucket, bucket)
			}
			if prefix != tt.wantPrefix {
				t.Errorf("Expected prefix %q, got %q", tt.wantPrefix, prefix)
			}
		})
	}
}

func TestRunClassifiesObjects(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour)
	mock := &MockS3{
		Pages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					// Standard storage: skipped
					{Key: aws.String("standard.txt"), StorageClass: types.ObjectStorageClassStandard},
					// Deep Archive, never restored: request issued
					{Key: aws.String("cold.txt"), StorageClass: types.ObjectStorageClassDeepArchive},
					// Deep Archive, restoration underway
					{
						Key:          aws.String("thawing.txt"),
						StorageClass: types.ObjectStorageClassDeepArchive,
						RestoreStatus: &types.RestoreStatus{
							IsRestoreInProgress: aws.Bool(true),
						},
					},
					// Deep Archive, already restored
					{
						Key:          aws.String("warm.txt"),
						StorageClass: types.ObjectStorageClassDeepArchive,
						RestoreStatus: &types.RestoreStatus{
							IsRestoreInProgress: aws.Bool(false),
							RestoreExpiryDate:   &expiry,
						},
					},
				},
				IsTruncated: aws.Bool(false),
			},
		},
	}

	r := New(mock, "mybucket", "prefix", 7, false)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Scanned != 4 {
		t.Errorf("Expected 4 scanned, got %d", summary.Scanned)
	}
	if summary.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", summary.Skipped)
	}
	if summary.Requested != 1 {
		t.Errorf("Expected 1 requested, got %d", summary.Requested)
	}
	if summary.InProgress != 1 {
		t.Errorf("Expected 1 in progress, got %d", summary.InProgress)
	}
	if summary.Restored != 1 {
		t.Errorf("Expected 1 restored, got %d", summary.Restored)
	}

	if len(mock.RestoreCalls) != 1 {
		t.Fatalf("Expected 1 restore request, got %d", len(mock.RestoreCalls))
	}
	call := mock.RestoreCalls[0]
	if *call.Key != "cold.txt" {
		t.Errorf("Expected restore request for cold.txt, got %q", *call.Key)
	}
	if *call.RestoreRequest.Days != 7 {
		t.Errorf("Expected 7 restore days, got %d", *call.RestoreRequest.Days)
	}
	if call.RestoreRequest.GlacierJobParameters.Tier != types.TierBulk {
		t.Errorf("Expected bulk tier, got %v", call.RestoreRequest.GlacierJobParameters.Tier)
	}
}

func TestRunDryRunIssuesNoRequests(t *testing.T) {
	mock := &MockS3{
		Pages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					{Key: aws.String("cold.txt"), StorageClass: types.ObjectStorageClassDeepArchive},
					{Key: aws.String("cold2.txt"), StorageClass: types.ObjectStorageClassDeepArchive},
				},
				IsTruncated: aws.Bool(false),
			},
		},
	}

	r := New(mock, "mybucket", "", 1, true)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Requested != 2 {
		t.Errorf("Expected 2 would-be requests, got %d", summary.Requested)
	}
	if len(mock.RestoreCalls) != 0 {
		t.Errorf("Expected no restore calls in dry-run, got %d", len(mock.RestoreCalls))
	}
}

func TestRunIgnoresRestoreFailures(t *testing.T) {
	mock := &MockS3{
		Pages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					{Key: aws.String("a.txt"), StorageClass: types.ObjectStorageClassDeepArchive},
					{Key: aws.String("b.txt"), StorageClass: types.ObjectStorageClassDeepArchive},
				},
				IsTruncated: aws.Bool(false),
			},
		},
		RestoreErr: context.DeadlineExceeded,
	}

	r := New(mock, "mybucket", "", 1, false)
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should not fail on per-object restore errors: %v", err)
	}

	// Both objects were attempted despite the first failure
	if len(mock.RestoreCalls) != 2 {
		t.Errorf("Expected 2 restore attempts, got %d", len(mock.RestoreCalls))
	}
	if summary.Requested != 2 {
		t.Errorf("Expected 2 requested, got %d", summary.Requested)
	}
}

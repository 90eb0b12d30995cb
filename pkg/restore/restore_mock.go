package restore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockS3 is a mock implementation of S3API for testing
type MockS3 struct {
	Pages        []*s3.ListObjectsV2Output
	ListErr      error
	RestoreErr   error
	RestoreCalls []*s3.RestoreObjectInput

	page int
}

func (m *MockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if m.page >= len(m.Pages) {
		return &s3.ListObjectsV2Output{}, nil
	}
	out := m.Pages[m.page]
	m.page++
	return out, nil
}

func (m *MockS3) RestoreObject(ctx context.Context, params *s3.RestoreObjectInput, optFns ...func(*s3.Options)) (*s3.RestoreObjectOutput, error) {
	m.RestoreCalls = append(m.RestoreCalls, params)
	if m.RestoreErr != nil {
		return nil, m.RestoreErr
	}
	return &s3.RestoreObjectOutput{}, nil
}

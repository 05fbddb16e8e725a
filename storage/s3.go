package storage

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Prefix = "thumbnails/"

// S3Store uploads thumbnails to an S3 bucket.
type S3Store struct {
	uploader  *manager.Uploader
	bucket    string
	region    string
	publicURL string
}

// NewS3Store creates a store for bucket. When publicURL is empty, URLs point
// at the bucket's virtual-hosted endpoint.
func NewS3Store(client manager.UploadAPIClient, bucket, region, publicURL string) *S3Store {
	return &S3Store{
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		region:    region,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *S3Store) Store(ctx context.Context, filename string, content []byte, contentType string) (string, error) {
	key := s3Prefix + newKey(filename, contentType)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: int64(len(content)),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) URL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + escapeKey(key)
	}
	return "https://" + s.bucket + ".s3." + s.region + ".amazonaws.com/" + escapeKey(key)
}

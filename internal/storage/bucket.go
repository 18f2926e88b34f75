package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"studybridge/internal/intake"
	"studybridge/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BucketStorage stores student documents in an S3 bucket. It satisfies the
// intake Uploader port.
type BucketStorage struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewBucketStorage(client *s3.Client, bucket, publicBaseURL string) *BucketStorage {
	return &BucketStorage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// Upload writes the candidate's content under a fresh object key and
// returns the key and its public location.
func (s *BucketStorage) Upload(ctx context.Context, c intake.Candidate) (intake.UploadResult, error) {
	key := objectKey(c.FileName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(c.Content),
		ContentType:   aws.String(c.MediaType),
		ContentLength: aws.Int64(c.Size),
	})
	if err != nil {
		return intake.UploadResult{}, fmt.Errorf("upload %s: %w", c.FileName, err)
	}

	return intake.UploadResult{
		StorageKey: key,
		PublicURL:  s.PublicURL(key),
	}, nil
}

// Delete removes a stored object, used when a document record is removed.
func (s *BucketStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the public location for a stored object.
func (s *BucketStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
}

// objectKey namespaces uploads and prefixes a nanoid so two files with the
// same name never collide.
func objectKey(fileName string) string {
	base := strings.ReplaceAll(path.Base(fileName), " ", "_")
	return fmt.Sprintf("documents/%s-%s", utils.NanoIDSize(12), base)
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DeleteObjects accepts at most this many keys per request.
const deleteBatchSize = 1000

var errBucketRequired = errors.New("storage bucket is required")

// S3Service stores exports in Amazon S3 (or compatible APIs).
type S3Service struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
}

func NewS3Service(client *s3.Client) *S3Service {
	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
	}
}

func (s *S3Service) Upload(ctx context.Context, obj Object) (string, error) {
	if obj.Bucket == "" {
		return "", errBucketRequired
	}
	key := strings.Trim(obj.Key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", obj.Bucket, key), nil
}

func (s *S3Service) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if bucket == "" {
		return "", errBucketRequired
	}
	if ttl <= 0 {
		return "", fmt.Errorf("link ttl must be positive")
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Service) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if bucket == "" {
		return nil, errBucketRequired
	}

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []ObjectInfo
	pages := s3.NewListObjectsV2Paginator(s.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
			})
		}
	}
	return objects, nil
}

// DeletePrefix removes every object under prefix and reports how many were
// deleted. An empty prefix is rejected so a bucket is never wiped by accident.
func (s *S3Service) DeletePrefix(ctx context.Context, bucket, prefix string) (int, error) {
	if strings.TrimSpace(prefix) == "" {
		return 0, fmt.Errorf("prefix is required")
	}
	objects, err := s.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for len(objects) > 0 {
		n := min(len(objects), deleteBatchSize)
		ids := make([]types.ObjectIdentifier, n)
		for i, obj := range objects[:n] {
			ids[i] = types.ObjectIdentifier{Key: aws.String(obj.Key)}
		}
		objects = objects[n:]

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return deleted + n - len(out.Errors), fmt.Errorf("delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
		}
		deleted += n
	}
	return deleted, nil
}

var _ Service = (*S3Service)(nil)

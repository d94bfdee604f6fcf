// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/recordgate/recordgate/pkg/errors"
)

// S3Store implements Store against an S3 bucket.
type S3Store struct {
	client s3API
	bucket string
}

// s3API is the subset of the S3 client the store uses; narrowed for tests.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Store creates an S3-backed object store with static credentials.
func NewS3Store(ctx context.Context, region, bucket, accessKeyID, secretAccessKey string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// newS3StoreWithClient builds a store around an existing client, for tests.
func newS3StoreWithClient(client s3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// StatObject issues a HEAD for the key and maps the result to ObjectInfo.
func (s *S3Store) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewObjectNotFoundError(fmt.Sprintf("no object for key %q", key), err)
		}
		return nil, errors.NewUpstreamUnavailableError("object store metadata fetch failed", err)
	}

	return &ObjectInfo{
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		Metadata:      out.Metadata,
	}, nil
}

// GetObject opens the object body stream.
func (s *S3Store) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewObjectNotFoundError(fmt.Sprintf("no object for key %q", key), err)
		}
		return nil, errors.NewUpstreamUnavailableError("object store fetch failed", err)
	}
	return out.Body, nil
}

// isNotFound reports whether the SDK error means the key is absent.
// HeadObject surfaces this as types.NotFound, GetObject as types.NoSuchKey.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return stderrors.As(err, &notFound) || stderrors.As(err, &noSuchKey)
}

var _ Store = (*S3Store)(nil)

// Package storage talks to the S3-compatible object store holding project
// files and team avatars. Uploads and downloads never pass through the
// server: clients receive presigned URLs instead.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// PresignExpiry is the lifetime of every URL handed out by Store.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObjects = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error) {
		return c.DeleteObjects(ctx, in)
	}

	now         = time.Now
	newObjectID = uuid.NewString
)

// Settings carries what Store needs from the server configuration.
type Settings struct {
	Region        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	PublicBaseURL string
}

// Store issues presigned URLs and removes objects.
type Store struct {
	settings Settings
	client   *s3.Client
	presign  *s3.PresignClient
}

func New(ctx context.Context, s Settings) (*Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.BaseEndpoint)
		o.UsePathStyle = true
	})
	return &Store{settings: s, client: client, presign: newS3PresignClient(client)}, nil
}

// PresignPut returns a URL the client can PUT the object body to.
func (s *Store) PresignPut(ctx context.Context, bucket, key, contentType string) (string, error) {
	in := &s3.PutObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := presignPutObject(s.presign, ctx, in, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

func (s *Store) PresignGet(ctx context.Context, bucket, key string) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// Remove deletes the objects and returns a per-key error for those the store
// refused. A transport failure is reported for every key.
func (s *Store) Remove(ctx context.Context, bucket string, keys []string) map[string]error {
	failed := make(map[string]error)
	if len(keys) == 0 {
		return failed
	}

	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}
	out, err := deleteObjects(s.client, ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		for _, k := range keys {
			failed[k] = fmt.Errorf("remove %s/%s: %w", bucket, k, err)
		}
		return failed
	}
	for _, e := range out.Errors {
		key := aws.ToString(e.Key)
		failed[key] = fmt.Errorf("remove %s/%s: %s", bucket, key, aws.ToString(e.Message))
	}
	return failed
}

// PublicURL is the unsigned link of an object in a publicly readable bucket.
func (s *Store) PublicURL(bucket, key string) string {
	return strings.TrimRight(s.settings.PublicBaseURL, "/") + "/" + bucket + "/" + key
}

// ProjectFileKey builds "{projectID}/{unixMillis}-{uuid}.{ext}".
func ProjectFileKey(projectID, fileName string) string {
	return fmt.Sprintf("%s/%d-%s%s", projectID, now().UnixMilli(), newObjectID(), extension(fileName))
}

// AvatarKey builds "avatars/{unixMillis}-{uuid}.{ext}".
func AvatarKey(fileName string) string {
	return fmt.Sprintf("avatars/%d-%s%s", now().UnixMilli(), newObjectID(), extension(fileName))
}

func extension(fileName string) string {
	return strings.ToLower(path.Ext(fileName))
}

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/abrezinsky/picklecup/internal/config"
	"github.com/abrezinsky/picklecup/internal/models"
)

// ObjectAPI is the part of the S3 client the store uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the snapshot as a JSON object in S3 or an S3-compatible
// service such as Cloudflare R2 or MinIO.
type S3Store struct {
	api    ObjectAPI
	bucket string
	key    string
}

// NewS3Store loads the default AWS credential chain unless static keys are
// configured. A custom endpoint switches to path-style addressing.
func NewS3Store(ctx context.Context, cfg config.Remote) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for S3: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithAPI(client, cfg.S3Bucket, cfg.S3Key), nil
}

func NewS3StoreWithAPI(api ObjectAPI, bucket, key string) *S3Store {
	if key == "" {
		key = "tournament.json"
	}
	return &S3Store{api: api, bucket: bucket, key: key}
}

func (s *S3Store) Load(ctx context.Context) (*models.Tournament, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get object (key: %s): %w", s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object (key: %s): %w", s.key, err)
	}
	return decode(data)
}

func (s *S3Store) Save(ctx context.Context, t *models.Tournament) error {
	data, err := encode(t)
	if err != nil {
		return err
	}
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object (key: %s): %w", s.key, err)
	}
	return nil
}

func (s *S3Store) Mode() string { return ModeRealDB }
func (s *S3Store) Name() string { return "s3" }

package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/rs/zerolog/log"
)

const pngContentType = "image/png"

type S3ContainerStorageCredentials struct {
	AccessKey string
	SecretKey string
}

type S3ContainerStorage struct {
	svc    *s3.Client
	bucket string
	key    string
}

type S3ContainerStorageOpts struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	HTTPClient     *http.Client
}

func NewS3ContainerStorage(opts S3ContainerStorageOpts) (*S3ContainerStorage, error) {
	if opts.Bucket == "" || opts.Key == "" {
		return nil, fmt.Errorf("bucket and key are required")
	}

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")

	if opts.AccessKey != "" && opts.SecretKey != "" {
		accessKey = opts.AccessKey
		secretKey = opts.SecretKey
	}

	cfg, err := getAWSConfig(accessKey, secretKey, opts.Region, opts.Endpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	svc := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3ContainerStorage{
		svc:    svc,
		bucket: opts.Bucket,
		key:    opts.Key,
	}, nil
}

func getAWSConfig(accessKey string, secretKey string, region string, endpoint string, httpClient *http.Client) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if endpoint != "" {
		endpointResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpoint,
				HostnameImmutable: true,
			}, nil
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(endpointResolver))
	}

	if accessKey != "" && secretKey != "" {
		credentials := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials))
	}

	if httpClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(httpClient))
	}

	return config.LoadDefaultConfig(context.TODO(), loadOpts...)
}

func (s3c *S3ContainerStorage) Load(ctx context.Context) ([]byte, error) {
	buf := manager.NewWriteAtBuffer([]byte{})

	downloader := manager.NewDownloader(s3c.svc)
	n, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s3c.bucket),
		Key:    aws.String(s3c.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object <%s>: %w", s3c.Location(), err)
	}

	log.Debug().Str("location", s3c.Location()).Int64("bytes", n).Msg("container downloaded")
	return buf.Bytes(), nil
}

func (s3c *S3ContainerStorage) Persist(ctx context.Context, data []byte) error {
	length := int64(len(data))

	uploader := manager.NewUploader(s3c.svc)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s3c.bucket),
		Key:           aws.String(s3c.key),
		Body:          bytes.NewReader(data),
		ContentLength: &length,
		ContentType:   aws.String(pngContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload container <%s>: %w", s3c.Location(), err)
	}

	log.Debug().Str("location", s3c.Location()).Int64("bytes", length).Msg("container uploaded")
	return nil
}

func (s3c *S3ContainerStorage) Location() string {
	return fmt.Sprintf("s3://%s/%s", s3c.bucket, s3c.key)
}

func (s3c *S3ContainerStorage) Mode() common.StorageMode {
	return common.StorageModeS3
}

func (s3c *S3ContainerStorage) Cleanup() error {
	return nil
}

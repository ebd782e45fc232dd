package utils

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// ObjectStore uploads objects to one S3 bucket and hands out presigned URLs.
type ObjectStore struct {
	bucket  string
	region  string
	once    sync.Once
	initErr error
	client  *s3.Client
	presign *s3.PresignClient
}

func NewObjectStore(region, bucket string) *ObjectStore {
	return &ObjectStore{bucket: bucket, region: region}
}

// init loads the AWS config on first use so the server can start without credentials.
func (o *ObjectStore) init() error {
	o.once.Do(func() {
		cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(o.region))
		if err != nil {
			o.initErr = fmt.Errorf("unable to load SDK config: %w", err)
			return
		}
		o.client = s3.NewFromConfig(cfg)
		o.presign = s3.NewPresignClient(o.client)
		logrus.WithField("bucket", o.bucket).Info("S3 Client Initialized")
	})
	return o.initErr
}

// UploadFile uploads a file to S3 and returns the Object Key
func (o *ObjectStore) UploadFile(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error) {
	if err := o.init(); err != nil {
		return "", err
	}

	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return objectKey, nil
}

// PresignedURL generates a presigned GET URL for an object
func (o *ObjectStore) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	if err := o.init(); err != nil {
		return "", err
	}

	request, err := o.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	return request.URL, nil
}

package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"coi-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the MinIO client with COI service specific functionality.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// Storage defines bucket names for the COI service.
var Storage = struct {
	Certificates      string
	ExtractionResults string
}{
	Certificates:      "coi-certificates",
	ExtractionResults: "coi-extraction-results",
}

var BucketNames = []string{
	Storage.Certificates,
	Storage.ExtractionResults,
}

func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		log.Printf("Invalid value for MinIO secure flag: %v. Defaulting to false.", err)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err = minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{
		client: minioClient,
		config: cfg,
	}

	if err := mc.ensureRequiredBuckets(); err != nil {
		return nil, fmt.Errorf("failed to ensure required buckets: %w", err)
	}

	log.Printf("MinIO client initialized successfully with %d buckets", len(BucketNames))
	return mc, nil
}

func (mc *MinioClient) ensureRequiredBuckets() error {
	ctx := context.Background()
	for _, bucketName := range BucketNames {
		if err := mc.ensureBucket(ctx, bucketName); err != nil {
			return fmt.Errorf("failed to ensure bucket %s: %w", bucketName, err)
		}
	}
	return nil
}

func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		err := mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: mc.config.MinioLocation,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
		}
		log.Printf("Created bucket: %s", bucketName)
	}
	return nil
}

// UploadBytes uploads byte data to the specified bucket.
func (mc *MinioClient) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := mc.client.PutObject(ctx, bucketName, objectName, reader, int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload bytes to %s in bucket %s: %w", objectName, bucketName, err)
	}
	return nil
}

// GetFile retrieves an object from the specified bucket. The caller closes
// the returned reader.
func (mc *MinioClient) GetFile(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	obj, err := mc.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", objectName, bucketName, err)
	}
	return obj, nil
}

// GetFileBytes retrieves an object fully into memory.
func (mc *MinioClient) GetFileBytes(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	obj, err := mc.GetFile(ctx, bucketName, objectName)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	return data, nil
}

// DeleteFile removes an object from the specified bucket.
func (mc *MinioClient) DeleteFile(ctx context.Context, bucketName, objectName string) error {
	err := mc.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", objectName, bucketName, err)
	}
	return nil
}

// ResourceURL builds the externally resolvable URL for a stored object.
func (mc *MinioClient) ResourceURL(bucketName, objectName string) string {
	base := strings.TrimSuffix(mc.config.MinioResourceURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, bucketName, objectName)
}

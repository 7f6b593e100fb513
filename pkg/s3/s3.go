package s3

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ItfS3 interface {
	Enabled() bool
	GetImage(ctx context.Context, key string) ([]byte, error)
	PutImage(ctx context.Context, key string, data []byte, metadata map[string]string) error
}

type s3Cache struct {
	client     *s3.S3
	bucketName string
	enabled    bool
}

// New builds the S3-backed cache for processed images. When no bucket is
// configured the cache runs disabled: lookups miss and writes are dropped,
// which keeps the service usable without S3 credentials.
func New(log *logrus.Logger) (ItfS3, error) {
	bucketName := os.Getenv("S3_BUCKET_NAME")
	if bucketName == "" {
		bucketName = os.Getenv("AWS_BUCKET_NAME")
	}

	if bucketName == "" {
		log.Warn("S3 caching disabled: S3_BUCKET_NAME not set")
		return &s3Cache{enabled: false}, nil
	}

	sess, err := newSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	client := s3.New(sess)

	if _, err := client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(bucketName)}); err != nil {
		log.Warnf("S3 caching disabled: bucket %s not accessible: %v", bucketName, err)
		return &s3Cache{enabled: false}, nil
	}

	log.Infof("S3 caching enabled: bucket=%s region=%s", bucketName, os.Getenv("AWS_REGION"))

	return &s3Cache{
		client:     client,
		bucketName: bucketName,
		enabled:    true,
	}, nil
}

func (s *s3Cache) Enabled() bool {
	return s.enabled
}

// GetImage returns the cached bytes for key, or (nil, nil) on a cache miss.
func (s *s3Cache) GetImage(ctx context.Context, key string) ([]byte, error) {
	if !s.enabled {
		return nil, nil
	}

	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from S3 cache: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *s3Cache) PutImage(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	if !s.enabled {
		return nil
	}

	meta := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		meta[k] = aws.String(v)
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("image/jpeg"),
		Metadata:     meta,
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return fmt.Errorf("failed to write to S3 cache: %w", err)
	}

	return nil
}

// CacheKeyFromContent derives the cache key for a processed image from the
// raw upload bytes and the requested scale. The two-character prefix fans
// keys out across partitions.
func CacheKeyFromContent(content []byte, scale float64) string {
	return cacheKey(func(h *bytes.Buffer) {
		h.Write(content)
	}, scale)
}

// CacheKeyFromIdentifier derives a cache key from an HTTP freshness
// identifier (ETag, Last-Modified or the URL itself) plus the scale.
func CacheKeyFromIdentifier(identifier string, scale float64) string {
	return cacheKey(func(h *bytes.Buffer) {
		h.WriteString(identifier)
	}, scale)
}

func cacheKey(write func(*bytes.Buffer), scale float64) string {
	buf := new(bytes.Buffer)
	write(buf)
	buf.WriteString(strconv.FormatFloat(scale, 'g', -1, 64))

	sum := sha256.Sum256(buf.Bytes())
	hash := hex.EncodeToString(sum[:])

	return fmt.Sprintf("processed/%s/%s.jpg", hash[:2], hash)
}

func newSession() (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})
}

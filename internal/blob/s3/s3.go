// Package s3 is a blob store backed by an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/information-sharing-networks/pass-issuer/internal/blob"
)

// Config selects the bucket and credentials. Empty credentials fall back to the
// SDK's default chain (environment, shared config, instance role).
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint overrides the S3 endpoint, e.g. for an S3-compatible service.
	// Setting it also switches to path-style addressing.
	Endpoint string
}

// Store is a blob.Store writing objects to one bucket.
type Store struct {
	bucket   string
	client   *s3.S3
	uploader *s3manager.Uploader
}

var _ blob.Store = (*Store)(nil)

// New creates a store for cfg.Bucket.
func New(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3: region is required")
	}

	awsCfg := aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: failed to create session: %w", err)
	}

	client := s3.New(sess)
	return &Store{
		bucket:   cfg.Bucket,
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, content []byte) (blob.Receipt, error) {
	name, err := blob.CleanKey(key)
	if err != nil {
		return blob.Receipt{}, err
	}
	id, err := blob.ContentID(content)
	if err != nil {
		return blob.Receipt{}, err
	}

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]*string{"Cid": aws.String(id.String())},
	})
	if err != nil {
		return blob.Receipt{}, fmt.Errorf("s3: failed to upload %s: %w", name, err)
	}

	return blob.Receipt{
		Key:      name,
		CID:      id.String(),
		Size:     len(content),
		Location: out.Location,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	name, err := blob.CleanKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, name)
		}
		return nil, fmt.Errorf("s3: failed to get %s: %w", name, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to read %s: %w", name, err)
	}
	return b, nil
}

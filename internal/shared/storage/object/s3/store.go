package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/suiscode/ai-resume/internal/shared/storage/object"
)

// MaxObjectBytes bounds a single archived upload.
const MaxObjectBytes = 20 << 20

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures Store. KMSKeyID selects SSE-KMS; otherwise SSE-S3 is used.
type Options struct {
	Bucket   string
	Prefix   string
	KMSKeyID string
}

// Store archives objects in S3 under the hashed owner layout from object.BuildKey.
type Store struct {
	client API
	opts   Options
	now    func() time.Time
}

// New builds a Store from a loaded AWS config.
func New(cfg aws.Config, opts Options) (*Store, error) {
	return NewWithClient(s3.NewFromConfig(cfg), opts)
}

func NewWithClient(client API, opts Options) (*Store, error) {
	opts.Bucket = strings.TrimSpace(opts.Bucket)
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	opts.Prefix = strings.Trim(strings.TrimSpace(opts.Prefix), "/")
	opts.KMSKeyID = strings.TrimSpace(opts.KMSKeyID)
	return &Store{client: client, opts: opts, now: time.Now}, nil
}

// Put buffers the body so the upload carries a length and a SHA-256
// checksum that S3 verifies.
func (s *Store) Put(ctx context.Context, obj object.Object) (object.Stored, error) {
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	key, err := object.BuildKey(obj.Owner, obj.FileName, s.now())
	if err != nil {
		return object.Stored{}, err
	}
	data, err := io.ReadAll(io.LimitReader(obj.Body, MaxObjectBytes+1))
	if err != nil {
		return object.Stored{}, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxObjectBytes {
		return object.Stored{}, fmt.Errorf("object exceeds %d bytes", MaxObjectBytes)
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	sum := sha256.Sum256(data)

	in := &s3.PutObjectInput{
		Bucket:            aws.String(s.opts.Bucket),
		Key:               aws.String(s.fullKey(key)),
		Body:              bytes.NewReader(data),
		ContentLength:     aws.Int64(int64(len(data))),
		ContentType:       aws.String(contentType),
		ChecksumAlgorithm: s3types.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(base64.StdEncoding.EncodeToString(sum[:])),
	}
	s.encrypt(in)

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return object.Stored{}, fmt.Errorf("s3 put %s: %w", aws.ToString(in.Key), err)
	}
	return object.Stored{Key: key, SizeBytes: int64(len(data)), ContentType: contentType}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := s.fullKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", full, err)
	}
	return out.Body, nil
}

func (s *Store) encrypt(in *s3.PutObjectInput) {
	if s.opts.KMSKeyID == "" {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAes256
		return
	}
	in.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
	in.SSEKMSKeyId = aws.String(s.opts.KMSKeyID)
}

func (s *Store) fullKey(key string) string {
	key = strings.TrimLeft(key, "/")
	switch {
	case s.opts.Prefix == "":
		return key
	case key == "":
		return s.opts.Prefix
	default:
		return s.opts.Prefix + "/" + key
	}
}

var _ object.ObjectStore = (*Store)(nil)

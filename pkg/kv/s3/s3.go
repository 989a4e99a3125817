// Package s3 is a kv.Store that keeps one object per key in an S3 bucket.
//
// Writes made inside Update are buffered and flushed when fn returns nil, so
// a failing transaction writes nothing. The flush itself is a sequence of
// independent PutObject/DeleteObject calls and is therefore not atomic: a
// crash mid-flush can leave a partial commit behind.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/littlefs/pkg/kv"
)

// Config describes the bucket and credentials.
type Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Store talks to a single bucket.
type Store struct {
	mu        sync.Mutex // serializes Update flushes
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// NewClient builds an S3 client from cfg.
//
// A custom Endpoint switches to path-style addressing, which MinIO and
// Localstack require. Without static credentials the default AWS credential
// chain is used.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 store: region is required")
	}

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// New returns a store over an existing bucket. The bucket is not created.
func New(client *s3.Client, bucket, keyPrefix string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{client: client, bucket: bucket, keyPrefix: keyPrefix}, nil
}

// Open is NewClient followed by New.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Bucket, cfg.KeyPrefix)
}

func (s *Store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&txn{ctx: ctx, store: s, readOnly: true})
}

func (s *Store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txn{ctx: ctx, store: s, pending: make(map[string][]byte)}
	if err := fn(t); err != nil {
		return err
	}
	return t.flush()
}

// Close is a no-op; the client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

func (s *Store) objectKey(key string) string { return s.keyPrefix + key }

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer func() { _ = result.Body.Close() }()

	return io.ReadAll(result.Body)
}

func (s *Store) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix))
		}
	}
	return keys, nil
}

type txn struct {
	ctx      context.Context
	store    *Store
	readOnly bool

	// pending maps key to value; a nil value is a delete.
	pending map[string][]byte
}

func (t *txn) Get(key []byte) ([]byte, error) {
	if v, ok := t.pending[string(key)]; ok {
		if v == nil {
			return nil, kv.ErrNotFound
		}
		return bytes.Clone(v), nil
	}
	return t.store.get(t.ctx, string(key))
}

func (t *txn) Set(key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	t.pending[string(key)] = v
	return nil
}

func (t *txn) Delete(key []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	t.pending[string(key)] = nil
	return nil
}

func (t *txn) Scan(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)

	listed, err := t.store.list(t.ctx, p)
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(listed))
	for _, k := range listed {
		set[k] = struct{}{}
	}
	for k, v := range t.pending {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if v == nil {
			delete(set, k)
		} else {
			set[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := t.Get([]byte(k))
		if errors.Is(err, kv.ErrNotFound) {
			continue // deleted concurrently
		}
		if err != nil {
			return err
		}
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) flush() error {
	keys := make([]string, 0, len(t.pending))
	for k := range t.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := t.pending[k]
		if v == nil {
			if _, err := t.store.client.DeleteObject(t.ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(t.store.bucket),
				Key:    aws.String(t.store.objectKey(k)),
			}); err != nil {
				return fmt.Errorf("failed to delete object %s: %w", k, err)
			}
			continue
		}

		if _, err := t.store.client.PutObject(t.ctx, &s3.PutObjectInput{
			Bucket: aws.String(t.store.bucket),
			Key:    aws.String(t.store.objectKey(k)),
			Body:   bytes.NewReader(v),
		}); err != nil {
			return fmt.Errorf("failed to put object %s: %w", k, err)
		}
	}
	return nil
}

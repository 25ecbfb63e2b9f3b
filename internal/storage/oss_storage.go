package storage

import (
	"bytes"
	"context"
	"fmt"

	"luvv/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// ossStorage stores cards in an Aliyun OSS bucket.
type ossStorage struct {
	bucket *oss.Bucket
	layout objectLayout
}

func NewOSSStorage(cfg config.Config) (Storage, error) {
	endpoint, bucketName := cfg.StorageOSSEndpoint, cfg.StorageOSSBucket
	keyID, keySecret := cfg.StorageOSSAccessKeyID, cfg.StorageOSSAccessKeySecret
	if err := required("OSS", map[string]*string{
		"endpoint":          &endpoint,
		"bucket":            &bucketName,
		"access key id":     &keyID,
		"access key secret": &keySecret,
	}); err != nil {
		return nil, err
	}

	// 连接 10s，读写 60s
	client, err := oss.New(endpoint, keyID, keySecret, oss.Timeout(10, 60))
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}
	return &ossStorage{bucket: bucket, layout: newObjectLayout(cfg.StorageOSSPrefix)}, nil
}

func (s *ossStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if err := checkSave(ctx, data); err != nil {
		return "", err
	}
	key := s.layout.key(opts)

	if opts.SkipIfExists {
		exists, err := s.bucket.IsObjectExist(key, oss.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("oss exists %s: %w", key, err)
		}
		if exists {
			return key, nil
		}
	}

	if err := s.bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(contentTypeFor(opts)),
		oss.ContentLength(int64(len(data))),
	); err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}
	return key, nil
}

var _ Storage = (*ossStorage)(nil)

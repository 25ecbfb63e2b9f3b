package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"luvv/internal/config"

	"github.com/tencentyun/cos-go-sdk-v5"
)

const cosRequestTimeout = 60 * time.Second

// cosStorage stores cards in a Tencent Cloud COS bucket.
type cosStorage struct {
	client *cos.Client
	layout objectLayout
}

func NewCOSStorage(cfg config.Config) (Storage, error) {
	bucketURL, secretID, secretKey := cfg.StorageCOSBucketURL, cfg.StorageCOSSecretID, cfg.StorageCOSSecretKey
	if err := required("COS", map[string]*string{
		"bucket URL": &bucketURL,
		"secret id":  &secretID,
		"secret key": &secretKey,
	}); err != nil {
		return nil, err
	}
	parsed, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}

	httpClient := &http.Client{
		Timeout:   cosRequestTimeout,
		Transport: &cos.AuthorizationTransport{SecretID: secretID, SecretKey: secretKey},
	}
	return &cosStorage{
		client: cos.NewClient(&cos.BaseURL{BucketURL: parsed}, httpClient),
		layout: newObjectLayout(cfg.StorageCOSPrefix),
	}, nil
}

func (s *cosStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if err := checkSave(ctx, data); err != nil {
		return "", err
	}
	key := s.layout.key(opts)

	if opts.SkipIfExists {
		resp, err := s.client.Object.Head(ctx, key, nil)
		closeCOSBody(resp)
		if err == nil {
			return key, nil
		}
		if !cos.IsNotFoundError(err) {
			return "", fmt.Errorf("cos head %s: %w", key, err)
		}
	}

	resp, err := s.client.Object.Put(ctx, key, bytes.NewReader(data), &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:   contentTypeFor(opts),
			ContentLength: int64(len(data)),
		},
	})
	closeCOSBody(resp)
	if err != nil {
		return "", fmt.Errorf("cos put %s: %w", key, err)
	}
	return key, nil
}

func closeCOSBody(resp *cos.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

var _ Storage = (*cosStorage)(nil)

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/noah-isme/horario-api/pkg/config"
)

// MinioBlobStore stores the snapshot blob as a single object in a bucket.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
	object string
}

// NewMinioBlobStore builds an object-storage backed blob store.
func NewMinioBlobStore(cfg config.MinioConfig, object string) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if object == "" {
		object = "horario.json"
	}
	return &MinioBlobStore{client: client, bucket: cfg.Bucket, object: object}, nil
}

func (s *MinioBlobStore) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

func (s *MinioBlobStore) Load(ctx context.Context) ([]byte, bool, error) {
	object, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read snapshot object: %w", err)
	}
	return data, true, nil
}

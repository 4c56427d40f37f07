package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrObjectNotFound is returned by ObjectStore implementations for a
// missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the blob backend behind the file service.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*ObjectInfo, error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
}

type ObjectInfo struct {
	Key         string
	Size        uint64
	ContentType string
	ModTime     time.Time
}

func contentTypeOf(headers nats.Header) string {
	if headers != nil {
		if ct := headers.Get("Content-Type"); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}

func toInfo(info *jetstream.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:         info.Name,
		Size:        info.Size,
		ContentType: contentTypeOf(info.Headers),
		ModTime:     info.ModTime,
	}
}

// JetStreamObjectStore keeps objects in a NATS JetStream object store bucket.
type JetStreamObjectStore struct {
	store jetstream.ObjectStore
}

// NewJetStreamObjectStore opens bucket, creating it when missing.
func NewJetStreamObjectStore(ctx context.Context, js jetstream.JetStream, bucket string) (*JetStreamObjectStore, error) {
	store, err := js.ObjectStore(ctx, bucket)
	if err == nil {
		return &JetStreamObjectStore{store: store}, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to open object store bucket: %w", err)
	}

	store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Uploaded files",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store bucket: %w", err)
	}
	return &JetStreamObjectStore{store: store}, nil
}

func (s *JetStreamObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (*ObjectInfo, error) {
	meta := jetstream.ObjectMeta{
		Name:    key,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}
	info, err := s.store.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store object: %w", err)
	}
	return toInfo(info), nil
}

func (s *JetStreamObjectStore) Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error) {
	result, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object data: %w", err)
	}
	info, err := result.Info()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object info: %w", err)
	}
	return data, toInfo(info), nil
}

func (s *JetStreamObjectStore) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *JetStreamObjectStore) List(ctx context.Context) ([]*ObjectInfo, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoObjectsFound) {
			return []*ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	objects := make([]*ObjectInfo, 0, len(infos))
	for _, info := range infos {
		objects = append(objects, toInfo(info))
	}
	return objects, nil
}

func (s *JetStreamObjectStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := s.store.GetInfo(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object info: %w", err)
	}
	return toInfo(info), nil
}

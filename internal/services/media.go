package services

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/inkpost/blogapi/internal/storage"
	"github.com/inkpost/blogapi/types"
)

// MaxMediaSize caps a single upload.
const MaxMediaSize = 10 << 20

const mediaPrefix = "media/"

var (
	ErrMediaTooLarge = errors.New("media exceeds 10 MiB")
	ErrMediaEmpty    = errors.New("media is empty")
	ErrMediaNotFound = errors.New("media not found")
)

// MediaStore is the subset of storage.Storage used for uploads.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type MediaService struct {
	store MediaStore
}

func NewMediaService(store MediaStore) *MediaService {
	return &MediaService{store: store}
}

// Upload stores r under a fresh key that keeps the extension of filename.
func (s *MediaService) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (types.Media, error) {
	if size <= 0 {
		return types.Media{}, ErrMediaEmpty
	}
	if size > MaxMediaSize {
		return types.Media{}, ErrMediaTooLarge
	}

	ext := strings.ToLower(path.Ext(filename))
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			contentType = guessed
		} else {
			contentType = "application/octet-stream"
		}
	}

	key := mediaPrefix + uuid.NewString() + ext
	if err := s.store.Put(ctx, key, io.LimitReader(r, size), size, contentType); err != nil {
		return types.Media{}, err
	}
	return types.Media{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		URL:         "/" + key,
	}, nil
}

// Open returns the stored object for key. Keys outside the media prefix are
// reported as not found.
func (s *MediaService) Open(ctx context.Context, key string) (storage.Object, error) {
	key, ok := mediaKey(key)
	if !ok {
		return storage.Object{}, ErrMediaNotFound
	}
	obj, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return storage.Object{}, ErrMediaNotFound
		}
		return storage.Object{}, err
	}
	return obj, nil
}

// Delete removes the object at key. Backends treat a missing object as
// deleted, so existence is checked first to report ErrMediaNotFound.
func (s *MediaService) Delete(ctx context.Context, key string) error {
	obj, err := s.Open(ctx, key)
	if err != nil {
		return err
	}
	_ = obj.Close()

	key, _ = mediaKey(key)
	return s.store.Delete(ctx, key)
}

func mediaKey(key string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, mediaPrefix) || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

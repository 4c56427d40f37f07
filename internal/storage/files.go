// Package storage stores uploaded files in an object store and issues
// presigned download links for them.
package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/paging"
)

const (
	maxNameLength = 255
	maxPresignTTL = 24 * time.Hour
)

var SortFields = paging.SortFields{
	"name":      "name",
	"size":      "size",
	"createdAt": "createdAt",
}

type FileDto struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PresignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// File is a downloaded object.
type File struct {
	FileDto
	Data []byte
}

type Service struct {
	store      ObjectStore
	presigner  *Presigner
	baseURL    string
	defaultTTL time.Duration
	maxBytes   int64
}

func NewService(store ObjectStore, presigner *Presigner, baseURL string, defaultTTL time.Duration, maxBytes int64) *Service {
	return &Service{
		store:      store,
		presigner:  presigner,
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaultTTL: defaultTTL,
		maxBytes:   maxBytes,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// SanitizeName reduces an uploaded file name to a safe base name.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "file"
	}
	if len(out) > maxNameLength {
		out = out[:maxNameLength]
	}
	return out
}

func splitKey(key string) (id, name string) {
	id, name, ok := strings.Cut(key, "/")
	if !ok {
		return "", key
	}
	return id, name
}

func toDto(info *ObjectInfo) FileDto {
	id, name := splitKey(info.Key)
	return FileDto{
		ID:          id,
		Name:        name,
		Size:        int64(info.Size),
		ContentType: info.ContentType,
		CreatedAt:   info.ModTime,
	}
}

func (s *Service) Upload(ctx context.Context, name string, data []byte, contentType string) (FileDto, error) {
	if len(data) == 0 {
		return FileDto{}, apperr.Validation("file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return FileDto{}, apperr.Validation("file exceeds the %d byte limit", s.maxBytes)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key := uuid.NewString() + "/" + SanitizeName(name)
	info, err := s.store.Put(ctx, key, data, contentType)
	if err != nil {
		return FileDto{}, apperr.Unexpected("store file", err)
	}
	return toDto(info), nil
}

// resolve finds the object key for a file id.
func (s *Service) resolve(ctx context.Context, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Validation("file id must be a UUID, got %q", id)
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		return "", apperr.Unexpected("list files", err)
	}
	for _, obj := range objects {
		if objID, _ := splitKey(obj.Key); objID == id {
			return obj.Key, nil
		}
	}
	return "", apperr.NotFound(map[string]string{"id": id}, "file %s not found", id)
}

func (s *Service) get(ctx context.Context, key string) (*File, error) {
	data, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			id, _ := splitKey(key)
			return nil, apperr.NotFound(map[string]string{"id": id}, "file %s not found", id)
		}
		return nil, apperr.Unexpected("get file", err)
	}
	return &File{FileDto: toDto(info), Data: data}, nil
}

func (s *Service) Download(ctx context.Context, id string) (*File, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, key)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return apperr.NotFound(map[string]string{"id": id}, "file %s not found", id)
		}
		return apperr.Unexpected("delete file", err)
	}
	return nil
}

// List applies the paging contract in memory; the object store has no
// server-side ordering.
func (s *Service) List(ctx context.Context, req paging.Request) (paging.Result[FileDto], error) {
	if err := req.Validate(SortFields); err != nil {
		return paging.Result[FileDto]{}, err
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		return paging.Result[FileDto]{}, apperr.Unexpected("list files", err)
	}

	needle := strings.ToLower(req.Search)
	files := make([]FileDto, 0, len(objects))
	for _, obj := range objects {
		dto := toDto(obj)
		if dto.ID == "" {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(dto.Name), needle) {
			continue
		}
		files = append(files, dto)
	}

	field := req.Column(SortFields, "createdAt")
	byField := func(a, b FileDto) int {
		switch field {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "size":
			return cmp.Compare(a.Size, b.Size)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		c := byField(files[i], files[j])
		if c == 0 {
			c = strings.Compare(files[i].ID, files[j].ID)
		}
		if req.IsAscending {
			return c < 0
		}
		return c > 0
	})

	total := int64(len(files))
	start := min(req.Offset(), len(files))
	end := min(start+req.PageSize, len(files))
	return paging.Result[FileDto]{Items: files[start:end], TotalCount: total}, nil
}

// Presign issues a download URL for id valid for ttl. Zero ttl uses the
// configured default.
func (s *Service) Presign(ctx context.Context, id string, ttl time.Duration) (PresignedURL, error) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl < 0 || ttl > maxPresignTTL {
		return PresignedURL{}, apperr.Validation("expiry must be between 1s and %s", maxPresignTTL)
	}

	key, err := s.resolve(ctx, id)
	if err != nil {
		return PresignedURL{}, err
	}

	token, expires, err := s.presigner.Sign(key, ttl)
	if err != nil {
		return PresignedURL{}, apperr.Unexpected("sign download token", err)
	}
	return PresignedURL{
		URL:       fmt.Sprintf("%s/files/presigned?token=%s", s.baseURL, url.QueryEscape(token)),
		ExpiresAt: expires.UTC(),
	}, nil
}

// OpenPresigned returns the file a presigned token grants access to.
func (s *Service) OpenPresigned(ctx context.Context, token string) (*File, error) {
	if token == "" {
		return nil, apperr.Validation("token is required")
	}
	key, err := s.presigner.Verify(token)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	return s.get(ctx, key)
}

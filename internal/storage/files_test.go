package storage

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/paging"
)

// tickingClock advances one second per call so uploads have distinct times.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newService() *Service {
	return NewService(NewMemoryStore(tickingClock()), NewPresigner("0123456789abcdef0123456789abcdef"), "http://files.test/", 15*time.Minute, 1024)
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\cv.docx`: "cv.docx",
		"my photo (1).png":    "my_photo__1_.png",
		".hidden":             "hidden",
		"":                    "file",
		"..":                  "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), in)
	}
	assert.Len(t, SanitizeName(strings.Repeat("a", 400)), maxNameLength)
}

func TestUploadDownloadDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	dto, err := svc.Upload(ctx, "notes.txt", []byte("hello world"), "")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", dto.Name)
	assert.EqualValues(t, 11, dto.Size)
	assert.Contains(t, dto.ContentType, "text/plain")

	file, err := svc.Download(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(file.Data))
	assert.Equal(t, dto.ID, file.ID)

	require.NoError(t, svc.Delete(ctx, dto.ID))
	_, err = svc.Download(ctx, dto.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, dto.ID)))
}

func TestUploadValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, "empty", nil, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Upload(ctx, "big", make([]byte, 2048), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDownloadRejectsMalformedID(t *testing.T) {
	_, err := newService().Download(context.Background(), "not-a-uuid")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListPagesAndSearches(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Upload(ctx, fmt.Sprintf("doc-%d.txt", i), []byte("x"), "text/plain")
		require.NoError(t, err)
	}
	_, err := svc.Upload(ctx, "image.png", []byte("x"), "image/png")
	require.NoError(t, err)

	res, err := svc.List(ctx, paging.Request{Search: "DOC", PageIndex: 1, PageSize: 2, OrderBy: "name", IsAscending: true})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.TotalCount)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "doc-2.txt", res.Items[0].Name)
	assert.Equal(t, "doc-3.txt", res.Items[1].Name)

	newest, err := svc.List(ctx, paging.Request{PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, "image.png", newest.Items[0].Name)

	beyond, err := svc.List(ctx, paging.Request{PageIndex: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.EqualValues(t, 6, beyond.TotalCount)

	_, err = svc.List(ctx, paging.Request{PageSize: 10, OrderBy: "owner"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListRejectsOverflowingOffset(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.Upload(ctx, "a.txt", []byte("x"), "text/plain")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err = svc.List(ctx, paging.Request{PageIndex: math.MaxInt / 50, PageSize: 100})
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPresignRoundTrip(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	dto, err := svc.Upload(ctx, "a.txt", []byte("secret"), "text/plain")
	require.NoError(t, err)

	signed, err := svc.Presign(ctx, dto.ID, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed.URL, "http://files.test/files/presigned?token="))

	u, err := url.Parse(signed.URL)
	require.NoError(t, err)
	file, err := svc.OpenPresigned(ctx, u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "secret", string(file.Data))

	_, err = svc.OpenPresigned(ctx, "garbage")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Presign(ctx, dto.ID, 48*time.Hour)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPresignerExpiry(t *testing.T) {
	p := NewPresigner("0123456789abcdef")
	now := time.Now()
	p.now = func() time.Time { return now }

	token, _, err := p.Sign("id/a.txt", time.Minute)
	require.NoError(t, err)

	key, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "id/a.txt", key)

	p.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = p.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewPresigner("another-signing-key")
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

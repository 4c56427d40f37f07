package service

import (
	"context"
	"time"

	"github.com/Tomlord1122/todo-api/internal/paging"
	"github.com/Tomlord1122/todo-api/internal/response"
	"github.com/Tomlord1122/todo-api/internal/storage"
)

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type DownloadFile struct {
	ID string
}

type DeleteFile struct {
	ID string
}

type ListFiles struct {
	paging.Request
}

type PresignFile struct {
	ID               string `json:"-"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

type OpenPresigned struct {
	Token string
}

type fileService struct {
	files *storage.Service
}

func (s *fileService) UploadFile(ctx context.Context, req UploadFile) (response.Response[storage.FileDto], error) {
	dto, err := s.files.Upload(ctx, req.Name, req.Data, req.ContentType)
	if err != nil {
		return fail[storage.FileDto](err)
	}
	return response.Created(dto, "File uploaded"), nil
}

func (s *fileService) DownloadFile(ctx context.Context, req DownloadFile) (response.Response[storage.File], error) {
	file, err := s.files.Download(ctx, req.ID)
	if err != nil {
		return fail[storage.File](err)
	}
	return response.OK(*file, "OK"), nil
}

func (s *fileService) DeleteFile(ctx context.Context, req DeleteFile) (response.Response[response.Empty], error) {
	if err := s.files.Delete(ctx, req.ID); err != nil {
		return fail[response.Empty](err)
	}
	return response.OK(response.Empty{}, "File deleted"), nil
}

func (s *fileService) ListFiles(ctx context.Context, req ListFiles) (response.Collection[storage.FileDto], error) {
	page, err := s.files.List(ctx, req.Request)
	if err != nil {
		return fail[[]storage.FileDto](err)
	}
	return response.Page(page.Items, page.TotalCount, req.PageIndex, req.PageSize), nil
}

func (s *fileService) PresignFile(ctx context.Context, req PresignFile) (response.Response[storage.PresignedURL], error) {
	signed, err := s.files.Presign(ctx, req.ID, time.Duration(req.ExpiresInSeconds)*time.Second)
	if err != nil {
		return fail[storage.PresignedURL](err)
	}
	return response.OK(signed, "Presigned URL issued"), nil
}

func (s *fileService) OpenPresigned(ctx context.Context, req OpenPresigned) (response.Response[storage.File], error) {
	file, err := s.files.OpenPresigned(ctx, req.Token)
	if err != nil {
		return fail[storage.File](err)
	}
	return response.OK(*file, "OK"), nil
}

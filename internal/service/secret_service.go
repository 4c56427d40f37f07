package service

import (
	"context"

	"github.com/Tomlord1122/todo-api/internal/paging"
	"github.com/Tomlord1122/todo-api/internal/response"
	"github.com/Tomlord1122/todo-api/internal/secrets"
)

type GetSecret struct {
	Name string
}

type ListSecrets struct {
	paging.Request
}

type CreateSecret struct {
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

type UpdateSecret struct {
	Name        string  `json:"-"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

type DeleteSecret struct {
	Name string
}

type secretService struct {
	manager *secrets.Manager
}

func (s *secretService) GetSecret(ctx context.Context, req GetSecret) (response.Response[secrets.Secret], error) {
	secret, err := s.manager.Get(ctx, req.Name)
	if err != nil {
		return fail[secrets.Secret](err)
	}
	return response.OK(*secret, "OK"), nil
}

func (s *secretService) ListSecrets(ctx context.Context, req ListSecrets) (response.Collection[secrets.Metadata], error) {
	page, err := s.manager.List(ctx, req.Request)
	if err != nil {
		return fail[[]secrets.Metadata](err)
	}
	return response.Page(page.Items, page.TotalCount, req.PageIndex, req.PageSize), nil
}

func (s *secretService) CreateSecret(ctx context.Context, req CreateSecret) (response.Response[secrets.Metadata], error) {
	meta, err := s.manager.Create(ctx, req.Name, req.Value, req.Description)
	if err != nil {
		return fail[secrets.Metadata](err)
	}
	return response.Created(meta, "Secret created"), nil
}

func (s *secretService) UpdateSecret(ctx context.Context, req UpdateSecret) (response.Response[secrets.Metadata], error) {
	meta, err := s.manager.Update(ctx, req.Name, req.Value, req.Description)
	if err != nil {
		return fail[secrets.Metadata](err)
	}
	return response.OK(meta, "Secret updated"), nil
}

func (s *secretService) DeleteSecret(ctx context.Context, req DeleteSecret) (response.Response[response.Empty], error) {
	if err := s.manager.Delete(ctx, req.Name); err != nil {
		return fail[response.Empty](err)
	}
	return response.OK(response.Empty{}, "Secret deleted"), nil
}

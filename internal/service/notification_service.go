package service

import (
	"context"

	"github.com/Tomlord1122/todo-api/internal/notify"
	"github.com/Tomlord1122/todo-api/internal/response"
)

type notificationService struct {
	dispatcher *notify.Dispatcher
}

func (s *notificationService) SendEmail(ctx context.Context, req notify.Email) (response.Response[notify.Dispatched], error) {
	out, err := s.dispatcher.SendEmail(ctx, req)
	if err != nil {
		return fail[notify.Dispatched](err)
	}
	return response.Accepted(out, "Email queued"), nil
}

func (s *notificationService) SendSMS(ctx context.Context, req notify.SMS) (response.Response[notify.Dispatched], error) {
	out, err := s.dispatcher.SendSMS(ctx, req)
	if err != nil {
		return fail[notify.Dispatched](err)
	}
	return response.Accepted(out, "SMS queued"), nil
}

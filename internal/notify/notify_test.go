package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{subject: subject, data: data})
	return nil
}

func TestSendEmail(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub)

	out, err := d.SendEmail(context.Background(), Email{To: " Ann <ann@example.com> ", Subject: "Hi", Body: "Todo due"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, SubjectEmail, pub.sent[0].subject)

	var env struct {
		ID      string `json:"id"`
		Kind    string `json:"kind"`
		Payload Email  `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.sent[0].data, &env))
	assert.Equal(t, out.ID, env.ID)
	assert.Equal(t, "email", env.Kind)
	assert.Equal(t, "ann@example.com", env.Payload.To)
}

func TestEmailValidation(t *testing.T) {
	d := NewDispatcher(&fakePublisher{})
	for name, msg := range map[string]Email{
		"bad address":       {To: "nobody", Subject: "s", Body: "b"},
		"missing subject":   {To: "a@b.co", Body: "b"},
		"multiline subject": {To: "a@b.co", Subject: "a\r\nBcc: x@y.z", Body: "b"},
		"missing body":      {To: "a@b.co", Subject: "s"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.SendEmail(context.Background(), msg)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestSendSMS(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub)

	_, err := d.SendSMS(context.Background(), SMS{PhoneNumber: "+44 7911 123456", Message: "hello"})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, SubjectSMS, pub.sent[0].subject)
	assert.Contains(t, string(pub.sent[0].data), `"phoneNumber":"+447911123456"`)
}

func TestSMSValidation(t *testing.T) {
	d := NewDispatcher(&fakePublisher{})
	for name, msg := range map[string]SMS{
		"no plus":       {PhoneNumber: "4155550123", Message: "m"},
		"too short":     {PhoneNumber: "+12", Message: "m"},
		"empty message": {PhoneNumber: "+14155550123", Message: " "},
		"too long":      {PhoneNumber: "+14155550123", Message: strings.Repeat("x", maxSMSLength+1)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.SendSMS(context.Background(), msg)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestPublishFailureIsUnexpected(t *testing.T) {
	d := NewDispatcher(&fakePublisher{err: errors.New("nats: timeout")})
	_, err := d.SendSMS(context.Background(), SMS{PhoneNumber: "+14155550123", Message: "m"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
}

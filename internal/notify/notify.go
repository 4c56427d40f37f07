// Package notify validates email and SMS notifications and hands them to
// the message bus for delivery.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

const (
	SubjectEmail = "notifications.email"
	SubjectSMS   = "notifications.sms"

	maxSMSLength     = 1600
	maxSubjectLength = 998
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Publisher delivers a payload to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SMS struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

// Dispatched identifies an accepted notification.
type Dispatched struct {
	ID string `json:"id"`
}

type envelope struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	Payload   any       `json:"payload"`
}

type Dispatcher struct {
	pub Publisher
	now func() time.Time
}

func NewDispatcher(pub Publisher) *Dispatcher {
	return &Dispatcher{pub: pub, now: time.Now}
}

func (e *Email) validate() error {
	e.To = strings.TrimSpace(e.To)
	e.Subject = strings.TrimSpace(e.Subject)
	addr, err := mail.ParseAddress(e.To)
	if err != nil {
		return apperr.Validation("to must be a valid email address")
	}
	e.To = addr.Address
	if e.Subject == "" {
		return apperr.Validation("subject is required")
	}
	if len(e.Subject) > maxSubjectLength || strings.ContainsAny(e.Subject, "\r\n") {
		return apperr.Validation("subject must be a single line of at most %d characters", maxSubjectLength)
	}
	if strings.TrimSpace(e.Body) == "" {
		return apperr.Validation("body is required")
	}
	return nil
}

func (s *SMS) validate() error {
	s.PhoneNumber = strings.ReplaceAll(strings.TrimSpace(s.PhoneNumber), " ", "")
	if !e164.MatchString(s.PhoneNumber) {
		return apperr.Validation("phoneNumber must be in E.164 format, e.g. +14155550123")
	}
	if strings.TrimSpace(s.Message) == "" {
		return apperr.Validation("message is required")
	}
	if n := len([]rune(s.Message)); n > maxSMSLength {
		return apperr.Validation("message must be at most %d characters, got %d", maxSMSLength, n)
	}
	return nil
}

func (d *Dispatcher) SendEmail(ctx context.Context, msg Email) (Dispatched, error) {
	if err := msg.validate(); err != nil {
		return Dispatched{}, err
	}
	return d.dispatch(ctx, SubjectEmail, "email", msg)
}

func (d *Dispatcher) SendSMS(ctx context.Context, msg SMS) (Dispatched, error) {
	if err := msg.validate(); err != nil {
		return Dispatched{}, err
	}
	return d.dispatch(ctx, SubjectSMS, "sms", msg)
}

func (d *Dispatcher) dispatch(ctx context.Context, subject, kind string, payload any) (Dispatched, error) {
	env := envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: d.now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Dispatched{}, apperr.Unexpected("encode notification", err)
	}
	if err := d.pub.Publish(ctx, subject, data); err != nil {
		return Dispatched{}, apperr.Unexpected(fmt.Sprintf("publish %s notification", kind), err)
	}
	return Dispatched{ID: env.ID}, nil
}

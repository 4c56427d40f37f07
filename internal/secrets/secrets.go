// Package secrets stores named values encrypted at rest.
package secrets

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/paging"
	"github.com/Tomlord1122/todo-api/internal/repository"
)

const maxValueBytes = 64 << 10

var namePattern = regexp.MustCompile(`^[A-Za-z0-9/_+=.@-]{1,128}$`)

var SortFields = paging.SortFields{
	"id":        "secrets.id",
	"name":      "secrets.name",
	"createdAt": "secrets.created_at",
	"updatedAt": "secrets.updated_at",
}

// Metadata describes a secret without its value.
type Metadata struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Secret struct {
	Metadata
	Value string `json:"value"`
}

type Manager struct {
	db     *gorm.DB
	sealer *sealer
}

// NewManager requires a 32-byte key.
func NewManager(db *gorm.DB, key []byte) (*Manager, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, sealer: s}, nil
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return apperr.Validation("secret name must match %s", namePattern.String())
	}
	return nil
}

func validateValue(value string) error {
	if value == "" {
		return apperr.Validation("secret value is required")
	}
	if len(value) > maxValueBytes {
		return apperr.Validation("secret value must be at most %d bytes", maxValueBytes)
	}
	return nil
}

func queries(sess *repository.Session) *repository.Query[domain.Secret] {
	return repository.NewQuery[domain.Secret](sess, "secrets", SortFields, "secrets.id")
}

func toMetadata(s *domain.Secret) Metadata {
	return Metadata{
		Name:        s.Name,
		Description: s.Description,
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (m *Manager) load(sess *repository.Session, name string) (*domain.Secret, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	secret, err := queries(sess).FindOne(repository.ByName("secrets", name))
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, apperr.NotFound(map[string]string{"name": name}, "secret %q not found", name)
	}
	return secret, nil
}

func (m *Manager) Get(ctx context.Context, name string) (*Secret, error) {
	secret, err := m.load(repository.NewSession(ctx, m.db), name)
	if err != nil {
		return nil, err
	}

	plaintext, err := m.sealer.open(secret.Name, secret.Ciphertext)
	if err != nil {
		return nil, apperr.Unexpected("open secret "+name, err)
	}
	return &Secret{Metadata: toMetadata(secret), Value: string(plaintext)}, nil
}

// List never returns values.
func (m *Manager) List(ctx context.Context, req paging.Request) (paging.Result[Metadata], error) {
	var where repository.Scope
	if req.Search != "" {
		where = func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(secrets.name) LIKE ? ESCAPE '\'`, paging.LikePattern(req.Search))
		}
	}

	res, err := queries(repository.NewSession(ctx, m.db)).Find(where, req)
	if err != nil {
		return paging.Result[Metadata]{}, err
	}

	items := make([]Metadata, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, toMetadata(&res.Items[i]))
	}
	return paging.Result[Metadata]{Items: items, TotalCount: res.TotalCount}, nil
}

func (m *Manager) Create(ctx context.Context, name, value string, description *string) (Metadata, error) {
	if err := validateName(name); err != nil {
		return Metadata{}, err
	}
	if err := validateValue(value); err != nil {
		return Metadata{}, err
	}

	sess := repository.NewSession(ctx, m.db)
	exists, err := queries(sess).Exists(repository.ByName("secrets", name))
	if err != nil {
		return Metadata{}, err
	}
	if exists {
		return Metadata{}, apperr.Conflict("secret %q already exists", name)
	}

	ciphertext, err := m.sealer.seal(name, []byte(value))
	if err != nil {
		return Metadata{}, apperr.Unexpected("seal secret", err)
	}

	secret := &domain.Secret{
		Name:        name,
		Description: normalize(description),
		Ciphertext:  ciphertext,
		Version:     1,
	}
	cmd := repository.NewCommand[domain.Secret](sess)
	cmd.Add(secret)
	if err := cmd.Persist(); err != nil {
		return Metadata{}, err
	}
	return toMetadata(secret), nil
}

// Update re-seals value and bumps the version. A nil description keeps the
// current one.
func (m *Manager) Update(ctx context.Context, name, value string, description *string) (Metadata, error) {
	if err := validateValue(value); err != nil {
		return Metadata{}, err
	}

	sess := repository.NewSession(ctx, m.db)
	secret, err := m.load(sess, name)
	if err != nil {
		return Metadata{}, err
	}

	ciphertext, err := m.sealer.seal(secret.Name, []byte(value))
	if err != nil {
		return Metadata{}, apperr.Unexpected("seal secret", err)
	}
	secret.Ciphertext = ciphertext
	secret.Version++
	if description != nil {
		secret.Description = normalize(description)
	}

	cmd := repository.NewCommand[domain.Secret](sess)
	cmd.Update(secret)
	if err := cmd.Persist(); err != nil {
		return Metadata{}, err
	}
	return toMetadata(secret), nil
}

func (m *Manager) Delete(ctx context.Context, name string) error {
	sess := repository.NewSession(ctx, m.db)
	secret, err := m.load(sess, name)
	if err != nil {
		return err
	}

	cmd := repository.NewCommand[domain.Secret](sess)
	cmd.Delete(secret)
	return cmd.Persist()
}

func normalize(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s Secret) String() string {
	return fmt.Sprintf("Secret{Name:%s Version:%d}", s.Name, s.Version)
}

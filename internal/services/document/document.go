// Package document бизнес-логика сервера синхронизации: хранение документов
// пользователей с кешем чтения и событиями об изменениях.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/household-ledger/internal/cache"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/rabbitmq"
	"github.com/magabrotheeeer/household-ledger/internal/storage/repository"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

var (
	// ErrNotFound документа пользователя нет.
	ErrNotFound = errors.New("document not found")
	// ErrValidation документ не прошел проверку.
	ErrValidation = errors.New("validation failed")
)

// Repository хранилище документов.
type Repository interface {
	GetDocument(ctx context.Context, userID string) (*wire.RawDocument, error)
	UpsertDocument(ctx context.Context, doc wire.RawDocument, updatedAt int64) error
	DeleteDocument(ctx context.Context, userID string) (int, error)
}

// Cache кеш документов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Publisher публикует события об изменениях.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service сервис документов.
type Service struct {
	repo  Repository
	cache Cache
	pub   Publisher
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher включает публикацию событий.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithClock задает источник времени для updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает сервис. Без WithPublisher события не публикуются.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch возвращает документ пользователя, сначала из кеша.
func (s *Service) Fetch(ctx context.Context, userID string) (*wire.RawDocument, error) {
	const op = "document.Fetch"
	key := cache.DocumentKey(userID)

	var cached wire.RawDocument
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read document from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	doc, err := s.repo.GetDocument(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, key, doc, s.ttl); err != nil {
		s.log.Warn("failed to cache document", slog.String("key", key), sl.Err(err))
	}
	return doc, nil
}

// Push сохраняет переданные поля документа и возвращает новое updatedAt.
func (s *Service) Push(ctx context.Context, doc wire.RawDocument) (int64, error) {
	const op = "document.Push"
	if err := Validate(doc); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	updatedAt := s.now().UnixMilli()
	if err := s.repo.UpsertDocument(ctx, doc, updatedAt); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, doc.UserID)

	present := doc.Present()
	fields := make([]string, 0, len(present))
	for _, f := range present {
		fields = append(fields, string(f))
	}
	s.publish(ctx, rabbitmq.KeyDocumentUpdated, rabbitmq.DocumentEvent{UserID: doc.UserID, Fields: fields, At: s.now()})

	s.log.Info("document saved", slog.String("user_id", doc.UserID), slog.Any("fields", fields))
	return updatedAt, nil
}

// Remove удаляет документ пользователя и возвращает число удаленных документов.
func (s *Service) Remove(ctx context.Context, userID string) (int, error) {
	const op = "document.Remove"
	n, err := s.repo.DeleteDocument(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userID)

	if n > 0 {
		s.publish(ctx, rabbitmq.KeyDocumentDeleted, rabbitmq.DocumentEvent{UserID: userID, At: s.now()})
	}
	s.log.Info("document removed", slog.String("user_id", userID), slog.Int("deleted", n))
	return n, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	key := cache.DocumentKey(userID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) publish(ctx context.Context, key string, ev rabbitmq.DocumentEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, key, ev); err != nil {
		s.log.Warn("failed to publish document event", slog.String("routing_key", key), sl.Err(err))
	}
}

// Validate проверяет месячные группы документа: месяц обязателен и лежит в 0–11.
func Validate(doc wire.RawDocument) error {
	if doc.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	for _, f := range []wire.Field{wire.FieldExpenses, wire.FieldIncome, wire.FieldNotes} {
		v := *doc.Value(f)
		if !wire.IsSet(v) {
			continue
		}
		var groups []struct {
			Month *int `json:"month"`
		}
		if err := json.Unmarshal(v, &groups); err != nil {
			return fmt.Errorf("%w: %s must be a list of month groups", ErrValidation, f)
		}
		for i, g := range groups {
			if g.Month == nil {
				return fmt.Errorf("%w: %s[%d].month is required", ErrValidation, f, i)
			}
			if *g.Month < 0 || *g.Month >= models.MonthsInYear {
				return fmt.Errorf("%w: %s[%d].month %d out of range", ErrValidation, f, i, *g.Month)
			}
		}
	}
	return nil
}

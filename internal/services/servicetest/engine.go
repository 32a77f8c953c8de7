// Package servicetest содержит тестовую замену движка синхронизации для
// сервисов предметной области.
package servicetest

import (
	"context"
	"errors"
	"sync"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// ErrSave ошибка записи, которую возвращает Engine при Fail.
var ErrSave = errors.New("save failed")

// Engine хранит снимок в памяти и запоминает записанные разделы.
type Engine struct {
	mu       sync.Mutex
	snapshot models.Snapshot
	fail     bool
	saved    [][]models.Slice
}

// NewEngine создает Engine с заданным снимком.
func NewEngine(s models.Snapshot) *Engine {
	return &Engine{snapshot: s.Clone()}
}

// Fail заставляет следующие Mutate завершаться ошибкой.
func (e *Engine) Fail(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = fail
}

// Saved разделы, переданные в каждый успешный Mutate.
func (e *Engine) Saved() [][]models.Slice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saved
}

func (e *Engine) Current(string) (models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone(), nil
}

func (e *Engine) Mutate(_ context.Context, _ string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	work := e.snapshot.Clone()
	if err := fn(&work); err != nil {
		return work, err
	}
	if e.fail {
		return work, ErrSave
	}
	e.snapshot.Assign(work, parts...)
	e.saved = append(e.saved, parts)
	return e.snapshot.Clone(), nil
}

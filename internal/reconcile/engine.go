// Package reconcile движок синхронизации снимка пользователя между устройством
// и сервером документов.
//
// Главное правило движка: запись на сервер разрешена только после того, как
// для текущего пользователя завершилась загрузка. Иначе пустой локальный
// снимок может затереть данные пользователя на сервере.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/remote"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

// RemoteStore сервер документов.
type RemoteStore interface {
	Fetch(ctx context.Context, userID string) (*wire.Document, error)
	Push(ctx context.Context, doc wire.Document) error
	Delete(ctx context.Context, userID string) error
}

// Mirror локальная копия снимков.
type Mirror interface {
	Write(ctx context.Context, identity string, s models.Snapshot, parts ...models.Slice) error
	ReadSnapshot(ctx context.Context, identity string) (models.Snapshot, bool, error)
	Clear(ctx context.Context, identity string) error
	ReadLegacy(ctx context.Context) (models.Snapshot, bool, error)
	ClearLegacy(ctx context.Context) error
}

// Identity источник текущего пользователя.
type Identity interface {
	Snapshot() (id string, ok bool, generation uint64)
}

// State состояние движка для пользователя.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "unloaded"
}

// Status итог загрузки.
type Status int

const (
	// StatusLoaded документ получен с сервера.
	StatusLoaded Status = iota
	// StatusEmpty у пользователя еще нет документа.
	StatusEmpty
	// StatusOffline сервер недоступен, снимок взят из памяти, зеркала или по умолчанию.
	StatusOffline
	// StatusStale ответ пришел для пользователя, который уже не активен, и отброшен.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	case StatusOffline:
		return "offline"
	case StatusStale:
		return "stale"
	}
	return "unknown"
}

// LoadResult результат загрузки. Snapshot всегда пригоден к использованию.
type LoadResult struct {
	Snapshot models.Snapshot
	Status   Status
	// Err восстановимая ошибка для уведомления пользователя.
	Err error
	// Conflict на устройстве есть старые локальные данные, и на сервере тоже
	// есть данные. Требуется ручной выбор через Resolve.
	Conflict bool
	// PendingLocal старые локальные данные есть, а сервер пуст.
	PendingLocal bool
}

// Option настройка движка.
type Option func(*Engine)

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов записей.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// Engine движок синхронизации.
type Engine struct {
	remote RemoteStore
	mirror Mirror
	ident  Identity
	log    *slog.Logger
	now    func() time.Time
	newID  func() string

	mu         sync.Mutex
	loaded     bool
	loadedID   string
	loadedGen  uint64
	current    models.Snapshot
	lastGood   map[string]models.Snapshot
	pending    *models.Snapshot
	pendingFor string
}

// New создает движок.
func New(rs RemoteStore, mirror Mirror, ident Identity, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		remote:   rs,
		mirror:   mirror,
		ident:    ident,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
		lastGood: make(map[string]models.Snapshot),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State возвращает состояние движка для identity.
func (e *Engine) State(identity string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadedForLocked(identity) {
		return StateLoaded
	}
	return StateUnloaded
}

// Load загружает снимок identity с сервера. Ошибки наружу не пробрасываются:
// результат всегда содержит пригодный снимок и статус.
func (e *Engine) Load(ctx context.Context, identity string) LoadResult {
	const op = "reconcile.Load"
	log := e.log.With(slog.String("op", op), slog.String("identity", identity))

	cur, ok, gen := e.ident.Snapshot()
	if !ok || cur != identity {
		log.Warn("load requested for inactive identity")
		return LoadResult{Snapshot: models.NewSnapshot(), Status: StatusStale, Err: ErrStaleIdentity}
	}

	res := LoadResult{}
	doc, err := e.remote.Fetch(ctx, identity)
	switch {
	case err == nil:
		res.Snapshot = wire.Decode(*doc)
		res.Status = StatusLoaded
		if n := res.Snapshot.BackfillIDs(e.newID); n > 0 {
			log.Info("assigned ids to legacy records", slog.Int("count", n))
		}
	case errors.Is(err, remote.ErrNotFound):
		res.Snapshot = models.NewSnapshot()
		res.Status = StatusEmpty
	default:
		log.Warn("remote unavailable, using fallback snapshot", sl.Err(err))
		res.Status = StatusOffline
		res.Err = err
		res.Snapshot = e.fallback(ctx, identity)
	}

	var (
		legacy      models.Snapshot
		legacyFound bool
		legacyRead  bool
	)
	if res.Status != StatusOffline {
		legacy, legacyFound, legacyRead = e.readLegacy(ctx)
	}

	e.mu.Lock()
	if !e.isCurrent(identity, gen) {
		e.mu.Unlock()
		log.Info("discarding response for stale identity", slog.String("status", res.Status.String()))
		return LoadResult{Snapshot: models.NewSnapshot(), Status: StatusStale, Err: ErrStaleIdentity}
	}
	if legacyRead {
		e.applyLegacyLocked(identity, legacy, legacyFound, &res)
	}
	e.loaded = true
	e.loadedID = identity
	e.loadedGen = gen
	e.current = res.Snapshot.Clone()
	if res.Status != StatusOffline {
		e.lastGood[identity] = res.Snapshot.Clone()
	}
	e.mu.Unlock()

	if res.Status != StatusOffline {
		if err := e.mirror.Write(ctx, identity, res.Snapshot); err != nil {
			log.Warn("failed to refresh mirror", sl.Err(err))
		}
	}

	log.Info("snapshot loaded", slog.String("status", res.Status.String()),
		slog.Bool("conflict", res.Conflict), slog.Bool("pending_local", res.PendingLocal))
	return res
}

// Save записывает снимок целиком.
func (e *Engine) Save(ctx context.Context, identity string, s models.Snapshot) error {
	return e.SaveSlices(ctx, identity, s, models.AllSlices...)
}

// SaveSlices записывает на сервер только перечисленные разделы снимка одним
// запросом. До загрузки для текущего пользователя возвращает ErrNotLoaded,
// не обращаясь к сети. Повторов нет: решение о повторе принимает вызывающий.
func (e *Engine) SaveSlices(ctx context.Context, identity string, s models.Snapshot, parts ...models.Slice) error {
	const op = "reconcile.SaveSlices"
	log := e.log.With(slog.String("op", op), slog.String("identity", identity))

	e.mu.Lock()
	if !e.loadedForLocked(identity) {
		e.mu.Unlock()
		log.Warn("save rejected before load")
		return fmt.Errorf("%s: %w", op, ErrNotLoaded)
	}
	gen := e.loadedGen
	e.mu.Unlock()

	if len(parts) == 0 {
		parts = models.AllSlices
	}
	now := e.now()
	doc := wire.Encode(s, parts, now)
	doc.UserID = identity

	if err := e.remote.Push(ctx, doc); err != nil {
		log.Warn("save failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	saved := s.Clone()
	saved.UpdatedAt = now.UnixMilli()

	e.mu.Lock()
	if e.isCurrent(identity, gen) && e.loadedForLocked(identity) {
		e.current.Assign(saved, parts...)
		e.current.UpdatedAt = saved.UpdatedAt
		e.lastGood[identity] = e.current.Clone()
	}
	e.mu.Unlock()

	if err := e.mirror.Write(ctx, identity, saved, parts...); err != nil {
		log.Warn("failed to refresh mirror", sl.Err(err))
	}
	return nil
}

// Current возвращает копию снимка, которым владеет движок.
func (e *Engine) Current(identity string) (models.Snapshot, error) {
	const op = "reconcile.Current"
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loadedForLocked(identity) {
		return models.NewSnapshot(), fmt.Errorf("%s: %w", op, ErrNotLoaded)
	}
	return e.current.Clone(), nil
}

// Mutate применяет fn к копии снимка движка и записывает разделы parts.
// Снимок движка меняется только после успешной записи.
func (e *Engine) Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error) {
	const op = "reconcile.Mutate"
	work, err := e.Current(identity)
	if err != nil {
		return work, fmt.Errorf("%s: %w", op, err)
	}
	if err := fn(&work); err != nil {
		return work, fmt.Errorf("%s: %w", op, err)
	}
	if err := e.SaveSlices(ctx, identity, work, parts...); err != nil {
		return work, fmt.Errorf("%s: %w", op, err)
	}
	return e.Current(identity)
}

// DeleteAll удаляет документ на сервере и, только при успехе, локальное зеркало.
func (e *Engine) DeleteAll(ctx context.Context, identity string) error {
	const op = "reconcile.DeleteAll"
	log := e.log.With(slog.String("op", op), slog.String("identity", identity))

	if identity == "" {
		return fmt.Errorf("%s: %w", op, ErrNoIdentity)
	}
	if err := e.remote.Delete(ctx, identity); err != nil {
		log.Warn("remote delete failed, local mirror kept", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := e.mirror.Clear(ctx, identity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.mu.Lock()
	delete(e.lastGood, identity)
	if e.loaded && e.loadedID == identity {
		e.current = models.NewSnapshot()
	}
	e.mu.Unlock()

	log.Info("all data deleted")
	return nil
}

// ForceDownload перечитывает документ с сервера и заменяет им локальное
// зеркало. Если сервер недоступен, зеркало не трогается.
func (e *Engine) ForceDownload(ctx context.Context, identity string) LoadResult {
	const op = "reconcile.ForceDownload"
	res := e.Load(ctx, identity)
	if res.Status != StatusLoaded && res.Status != StatusEmpty {
		return res
	}
	if err := e.mirror.Clear(ctx, identity); err != nil {
		e.log.Warn("failed to clear mirror", slog.String("op", op), sl.Err(err))
		return res
	}
	if err := e.mirror.Write(ctx, identity, res.Snapshot); err != nil {
		e.log.Warn("failed to refresh mirror", slog.String("op", op), sl.Err(err))
	}
	return res
}

func (e *Engine) fallback(ctx context.Context, identity string) models.Snapshot {
	e.mu.Lock()
	last, ok := e.lastGood[identity]
	e.mu.Unlock()
	if ok {
		return last.Clone()
	}

	s, found, err := e.mirror.ReadSnapshot(ctx, identity)
	if err != nil {
		e.log.Warn("mirror read failed", slog.String("identity", identity), sl.Err(err))
		return models.NewSnapshot()
	}
	if !found {
		return models.NewSnapshot()
	}
	return s
}

// readLegacy читает старые данные устройства, не меняя состояние движка.
// ok ложно, если прочитать не удалось.
func (e *Engine) readLegacy(ctx context.Context) (models.Snapshot, bool, bool) {
	local, found, err := e.mirror.ReadLegacy(ctx)
	if err != nil {
		e.log.Warn("legacy mirror read failed", sl.Err(err))
		return models.Snapshot{}, false, false
	}
	return local, found, true
}

// applyLegacyLocked вызывается под e.mu после проверки актуальности identity.
func (e *Engine) applyLegacyLocked(identity string, local models.Snapshot, found bool, res *LoadResult) {
	if !found {
		e.pending, e.pendingFor = nil, ""
		return
	}
	e.pending = &local
	e.pendingFor = identity
	if res.Snapshot.HasRecords() {
		res.Conflict = true
	} else {
		res.PendingLocal = true
	}
}

// loadedForLocked вызывается под e.mu.
func (e *Engine) loadedForLocked(identity string) bool {
	return e.loaded && e.loadedID == identity && e.isCurrent(identity, e.loadedGen)
}

func (e *Engine) isCurrent(identity string, gen uint64) bool {
	cur, ok, g := e.ident.Snapshot()
	return ok && cur == identity && g == gen
}

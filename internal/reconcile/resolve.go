package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// Choice решение пользователя по старым локальным данным.
type Choice string

const (
	// UseRemote оставить данные сервера, локальные удалить.
	UseRemote Choice = "remote"
	// UseLocal отправить локальные данные на сервер целиком.
	UseLocal Choice = "local"
	// MergeBoth объединить локальные и серверные данные.
	MergeBoth Choice = "merge"
)

// Trigger источник запроса на слияние.
type Trigger int

const (
	TriggerAutomatic Trigger = iota
	// TriggerManual явное действие пользователя.
	TriggerManual
)

// legacySlices разделы, которые хранились на устройстве до синхронизации.
var legacySlices = []models.Slice{
	models.SliceExpenses,
	models.SliceIncome,
	models.SliceNotes,
	models.SliceFleet,
}

// ParseChoice разбирает значение флага.
func ParseChoice(s string) (Choice, error) {
	switch Choice(s) {
	case UseRemote, UseLocal, MergeBoth:
		return Choice(s), nil
	}
	return "", fmt.Errorf("unknown choice %q", s)
}

// Resolution итог Resolve. Kept показывает, чьи данные остались: при
// слиянии с разными UpdatedAt одна из сторон отбрасывается целиком.
type Resolution struct {
	Snapshot models.Snapshot
	Kept     Side
}

// Pending сообщает, есть ли у identity старые локальные данные, ожидающие решения.
func (e *Engine) Pending(identity string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil && e.pendingFor == identity
}

// Resolve применяет решение пользователя по старым локальным данным. Это
// единственный путь, на котором выполняется слияние, и только по явной
// команде пользователя.
func (e *Engine) Resolve(ctx context.Context, identity string, choice Choice, trigger Trigger) (Resolution, error) {
	const op = "reconcile.Resolve"
	log := e.log.With(slog.String("op", op), slog.String("identity", identity), slog.String("choice", string(choice)))

	if trigger != TriggerManual {
		log.Warn("merge rejected without user action")
		return Resolution{}, fmt.Errorf("%s: %w", op, ErrMergeNotTriggered)
	}

	e.mu.Lock()
	if e.pending == nil || e.pendingFor != identity {
		e.mu.Unlock()
		return Resolution{}, fmt.Errorf("%s: %w", op, ErrNoConflict)
	}
	local := e.pending.Clone()
	e.mu.Unlock()

	current, err := e.Current(identity)
	if err != nil {
		return Resolution{Snapshot: current}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		next models.Snapshot
		kept Side
	)
	switch choice {
	case UseRemote:
		next, kept = current, SideRemote
	case UseLocal:
		next, kept = current.Clone(), SideLocal
		next.Assign(local, legacySlices...)
	case MergeBoth:
		merged := Merge(local, current, e.now())
		next, kept = current.Clone(), MergeWinner(local, current)
		next.Assign(merged, legacySlices...)
	default:
		return Resolution{Snapshot: current}, fmt.Errorf("%s: unknown choice %q", op, choice)
	}

	if choice != UseRemote {
		next.BackfillIDs(e.newID)
		if err := e.SaveSlices(ctx, identity, next, legacySlices...); err != nil {
			return Resolution{Snapshot: current}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := e.mirror.ClearLegacy(ctx); err != nil {
		log.Warn("failed to clear legacy data", sl.Err(err))
	}
	e.mu.Lock()
	e.pending, e.pendingFor = nil, ""
	e.mu.Unlock()

	log.Info("local data resolved", slog.String("kept", string(kept)))
	snap, err := e.Current(identity)
	if err != nil {
		return Resolution{Snapshot: snap, Kept: kept}, fmt.Errorf("%s: %w", op, err)
	}
	return Resolution{Snapshot: snap, Kept: kept}, nil
}

package reconcile

import "errors"

var (
	// ErrNotLoaded запись до завершения загрузки для текущего пользователя.
	ErrNotLoaded = errors.New("snapshot is not loaded for this identity")
	// ErrStaleIdentity пользователь сменился, пока выполнялся запрос.
	ErrStaleIdentity = errors.New("identity changed while request was in flight")
	// ErrNoIdentity пользователь не вошел в систему.
	ErrNoIdentity = errors.New("no active identity")
	// ErrMergeNotTriggered слияние запрошено не пользователем.
	ErrMergeNotTriggered = errors.New("merge requires an explicit user action")
	// ErrNoConflict нет локальных данных, ожидающих решения.
	ErrNoConflict = errors.New("no pending local data to resolve")
)

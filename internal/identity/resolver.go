// Package identity хранит идентификатор активного пользователя в пределах сессии.
//
// Каждая смена идентификатора увеличивает номер поколения. Движок синхронизации
// привязывает состояние «загружено» к паре (идентификатор, поколение), поэтому
// Set и Clear сбрасывают его без обратного вызова.
package identity

import "sync"

// Resolver хранилище текущего идентификатора.
type Resolver struct {
	mu         sync.RWMutex
	id         string
	set        bool
	generation uint64
}

// New создает пустой Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Set делает id текущим идентификатором и открывает новое поколение.
func (r *Resolver) Set(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = id
	r.set = true
	r.generation++
}

// Get возвращает текущий идентификатор; false, если пользователь не вошел.
func (r *Resolver) Get() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id, r.set
}

// Clear удаляет идентификатор при выходе.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = ""
	r.set = false
	r.generation++
}

// Generation номер текущего поколения.
func (r *Resolver) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Snapshot атомарно возвращает идентификатор и поколение.
func (r *Resolver) Snapshot() (id string, ok bool, generation uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id, r.set, r.generation
}

package detect

import "sync"

type dedupKey struct {
	candidate string
	brand     string
}

// dedupWindow is a bounded FIFO of recently alerted (candidate, brand) pairs
// with set-backed membership. Shared by all workers, so the read-modify-write
// is guarded by a mutex.
type dedupWindow struct {
	mu    sync.Mutex
	limit int
	set   map[dedupKey]struct{}
	ring  []dedupKey
	head  int
	size  int
}

func newDedupWindow(limit int) *dedupWindow {
	if limit < 1 {
		limit = 1
	}
	return &dedupWindow{
		limit: limit,
		set:   make(map[dedupKey]struct{}, limit),
		ring:  make([]dedupKey, limit),
	}
}

// Insert records the pair and returns true if it was not already present.
// The oldest pair is evicted once the window is full.
func (w *dedupWindow) Insert(candidate, brand string) bool {
	key := dedupKey{candidate: candidate, brand: brand}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.set[key]; exists {
		return false
	}

	if w.size == w.limit {
		oldest := w.ring[w.head]
		delete(w.set, oldest)
		w.ring[w.head] = key
		w.head = (w.head + 1) % w.limit
	} else {
		w.ring[(w.head+w.size)%w.limit] = key
		w.size++
	}
	w.set[key] = struct{}{}
	return true
}

// Len reports the number of pairs currently tracked.
func (w *dedupWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

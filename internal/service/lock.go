package service

import (
	"sort"
	"sync"
)

// KeyedLocker is the single-writer guard around every validate-then-mutate
// sequence in the term, session and attendance workflows. One shared
// instance must back all mutating services so that, for example, a term
// garbage-collection cannot count sessions while an attendance closure is
// pruning them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLocker constructs an empty locker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for every given key and returns the function that
// releases them. Keys are deduplicated and acquired in sorted order so two
// callers contending on overlapping key sets cannot deadlock. Mutexes are
// retained for the process lifetime; the key space is bounded by the
// students and teachers of one academy.
func (l *KeyedLocker) Lock(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, key)
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, key := range uniq {
		l.mu.Lock()
		m, ok := l.locks[key]
		if !ok {
			m = &sync.Mutex{}
			l.locks[key] = m
		}
		l.mu.Unlock()
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// studentKey serializes every mutation touching one student's enrollments,
// including the cross-class weekly-conflict checks.
func studentKey(id string) string { return "student:" + id }

// teacherKey serializes bookings across all classes of one teacher.
func teacherKey(id string) string { return "teacher:" + id }

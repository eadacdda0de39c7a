package hashmap

import (
	"github.com/one-edge/portal/internal/task"
	"sync"
	"time"
)

type expiringEntry[V any] struct {
	value    V
	inserted time.Time
}

// ExpiringMap is a thread safe map whose values expire after a fixed lifetime.
// Expired values are never returned; they are removed from memory by Cleanup or the scheduled cleanup task.
type ExpiringMap[K comparable, V any] struct {
	mtx      sync.RWMutex
	entries  map[K]expiringEntry[V]
	lifetime time.Duration
	now      func() time.Time

	cleanupTask *task.RepeatingTask
}

// NewExpiring creates a new expiring map whose values exist for a specific lifetime
func NewExpiring[K comparable, V any](lifetime time.Duration) *ExpiringMap[K, V] {
	return &ExpiringMap[K, V]{
		entries:  make(map[K]expiringEntry[V]),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Size returns the amount of stored key-value pairs, including expired ones not yet cleaned up
func (obj *ExpiringMap[K, V]) Size() int {
	obj.mtx.RLock()
	defer obj.mtx.RUnlock()
	return len(obj.entries)
}

// Lookup returns the value assigned to the given key and whether it exists and is not expired yet
func (obj *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	obj.mtx.RLock()
	defer obj.mtx.RUnlock()
	entry, ok := obj.entries[key]
	if !ok || obj.expired(entry) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set sets a key-value pair and resets its lifetime
func (obj *ExpiringMap[K, V]) Set(key K, value V) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	obj.entries[key] = expiringEntry[V]{
		value:    value,
		inserted: obj.now(),
	}
}

// Unset deletes the value assigned to the given key
func (obj *ExpiringMap[K, V]) Unset(key K) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	delete(obj.entries, key)
}

// Cleanup removes all expired values and returns how many were removed
func (obj *ExpiringMap[K, V]) Cleanup() int {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	n := 0
	for key, entry := range obj.entries {
		if obj.expired(entry) {
			delete(obj.entries, key)
			n++
		}
	}
	return n
}

// ScheduleCleanupTask schedules a task that calls Cleanup in a specific interval.
// StopCleanupTask has to be called as soon as the map is no longer needed.
func (obj *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	if obj.cleanupTask != nil {
		return
	}
	obj.cleanupTask = task.NewRepeating(func() {
		obj.Cleanup()
	}, tick)
	obj.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task if it was scheduled
func (obj *ExpiringMap[K, V]) StopCleanupTask() {
	if obj.cleanupTask == nil {
		return
	}
	obj.cleanupTask.Stop(false)
	obj.cleanupTask = nil
}

func (obj *ExpiringMap[K, V]) expired(entry expiringEntry[V]) bool {
	return obj.now().Sub(entry.inserted) >= obj.lifetime
}

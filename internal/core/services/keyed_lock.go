package services

import (
	"fmt"
	"sort"
	"sync"
)

// KeyedMutex serializes work per string key. The task service and the
// reminder scheduler share one instance so a firing reminder contends on the
// same critical section as a concurrent transition for that task.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutexes for the given keys in sorted order and returns
// the release function. Sorting keeps multi-key callers deadlock-free.
func (k *KeyedMutex) Lock(keys ...string) func() {
	if len(keys) == 0 {
		return func() {}
	}
	sort.Strings(keys)
	k.mu.Lock()
	acquired := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		m := k.locks[key]
		if m == nil {
			m = &sync.Mutex{}
			k.locks[key] = m
		}
		acquired = append(acquired, m)
	}
	k.mu.Unlock()
	for _, m := range acquired {
		m.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func taskLockKey(taskID uint) string {
	return fmt.Sprintf("task:%d", taskID)
}

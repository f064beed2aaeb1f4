package store

import (
	"context"
	"path"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and by redis-less development
// runs. Expiry is checked lazily on read.
type Memory struct {
	mu     sync.Mutex
	values map[string]memoryValue
	lists  map[string][]string
	now    func() time.Time
}

type memoryValue struct {
	data      string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]memoryValue),
		lists:  make(map[string][]string),
		now:    time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return "", false, nil
	}
	if !v.expiresAt.IsZero() && m.now().After(v.expiresAt) {
		delete(m.values, key)
		return "", false, nil
	}
	return v.data, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := memoryValue{data: value}
	if ttl > 0 {
		v.expiresAt = m.now().Add(ttl)
	}
	m.values[key] = v
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	delete(m.lists, key)
	return nil
}

func (m *Memory) Append(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists[key] = append([]string{value}, m.lists[key]...)
	return nil
}

func (m *Memory) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[key]
	n := int64(len(list))
	if n == 0 {
		return nil, nil
	}

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}

	out := make([]string, 0, stop-start+1)
	out = append(out, list[start:stop+1]...)
	return out, nil
}

func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key, v := range m.values {
		if !v.expiresAt.IsZero() && m.now().After(v.expiresAt) {
			delete(m.values, key)
			continue
		}
		if matched, err := path.Match(pattern, key); err == nil && matched {
			keys = append(keys, key)
		}
	}
	for key := range m.lists {
		if matched, err := path.Match(pattern, key); err == nil && matched {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

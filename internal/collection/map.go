/*
 * MIT License
 *
 * Copyright (c) 2023-2026 Olympus Health Team
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package collection provides small concurrency-safe containers shared by the
// runtime. They favor a reader-writer discipline: many concurrent reads, with
// writes serializing on topology changes.
package collection

import "sync"

// Map is a generic, concurrency-safe map guarded by a read-write mutex.
//
// K is the key type and must be comparable. V can be any type.
type Map[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewMap creates and returns a new instance of Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]V),
	}
}

// Set stores a key-value pair. An existing value for the key is replaced.
func (m *Map[K, V]) Set(k K, v V) {
	m.mu.Lock()
	m.data[k] = v
	m.mu.Unlock()
}

// Get retrieves the value associated with the given key. The second return
// value reports whether the key was found.
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	val, ok := m.data[k]
	m.mu.RUnlock()
	return val, ok
}

// Delete removes the key-value pair associated with the given key.
func (m *Map[K, V]) Delete(k K) {
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
}

// Len returns the number of key-value pairs currently stored.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	l := len(m.data)
	m.mu.RUnlock()
	return l
}

// Range iterates over all key-value pairs and executes f for each pair.
// The iteration order is not guaranteed.
func (m *Map[K, V]) Range(f func(K, V)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.data {
		f(k, v)
	}
}

// Values returns a snapshot of the values in the Map.
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([]V, 0, len(m.data))
	for _, v := range m.data {
		values = append(values, v)
	}
	return values
}

// Keys returns a snapshot of the keys in the Map.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Reset clears all key-value pairs from the Map.
func (m *Map[K, V]) Reset() {
	m.mu.Lock()
	clear(m.data)
	m.mu.Unlock()
}

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

package collection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSetGet(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	value, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	// overwrite
	m.Set("a", 10)
	value, ok = m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, value)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMapDelete(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Delete("a")
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Zero(t, m.Len())

	// deleting a missing key is a no-op
	m.Delete("missing")
}

func TestMapLenAndReset(t *testing.T) {
	m := NewMap[int, string]()
	for i := 0; i < 5; i++ {
		m.Set(i, "value")
	}
	assert.Equal(t, 5, m.Len())

	m.Reset()
	assert.Zero(t, m.Len())
}

func TestMapKeysValuesRange(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())
	assert.ElementsMatch(t, []int{1, 2}, m.Values())

	sum := 0
	m.Range(func(_ string, v int) { sum += v })
	assert.Equal(t, 3, sum)
}

func TestMapConcurrentAccess(t *testing.T) {
	m := NewMap[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set(i, i)
			m.Get(i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}

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

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPop(t *testing.T) {
	q := New[int]()
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	assert.Equal(t, 2, q.Len())

	item, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, item)

	item, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, item)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestFIFOOrderAcrossResize(t *testing.T) {
	q := New[int]()
	// go past the initial capacity to force a resize
	for i := 0; i < 100; i++ {
		require.True(t, q.Push(i))
	}
	for i := 0; i < 100; i++ {
		item, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, item)
	}
}

func TestWaitBlocksUntilPush(t *testing.T) {
	q := New[string]()
	got := make(chan string, 1)
	go func() {
		item, ok := q.Wait()
		if ok {
			got <- item
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, q.Push("hello"))

	select {
	case item := <-got:
		assert.Equal(t, "hello", item)
	case <-time.After(time.Second):
		t.Fatal("Wait never returned the pushed item")
	}
}

func TestWaitReturnsOnClose(t *testing.T) {
	q := New[int]()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Wait()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after Close")
	}
}

func TestPushAfterCloseIsDropped(t *testing.T) {
	q := New[int]()
	q.Close()
	assert.True(t, q.IsClosed())
	assert.False(t, q.Push(1))
	assert.Zero(t, q.Len())
}

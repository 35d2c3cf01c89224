// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"sync"
	"testing"

	"github.com/ulala-x/serverlink/internal/queue"
)

func TestFIFOWithinOneChunk(t *testing.T) {
	q := queue.New[int](4, nil)

	for i := range 3 {
		q.Write(i + 100)
	}
	q.Flush()

	for i := range 3 {
		v, ok := q.Read()
		if !ok {
			t.Fatalf("Read(%d): queue unexpectedly empty", i)
		}
		if v != i+100 {
			t.Fatalf("Read(%d): got %d, want %d", i, v, i+100)
		}
	}
	if _, ok := q.Read(); ok {
		t.Fatal("Read on empty queue returned data")
	}
}

func TestWriteNeverBlocksAcrossChunks(t *testing.T) {
	q := queue.New[int](4, nil)

	const n = 100
	for i := range n {
		q.Write(i)
	}
	q.Flush()

	for i := range n {
		v, ok := q.Read()
		if !ok || v != i {
			t.Fatalf("Read(%d): got (%d, %v), want (%d, true)", i, v, ok, i)
		}
	}
}

func TestUnwriteDiscardsUncommitted(t *testing.T) {
	q := queue.New[int](4, nil)

	q.Write(1)
	q.Write(2)
	if !q.Unwrite() {
		t.Fatal("Unwrite should discard the uncommitted write of 2")
	}
	q.Flush()

	v, ok := q.Read()
	if !ok || v != 1 {
		t.Fatalf("Read: got (%d, %v), want (1, true)", v, ok)
	}
	if _, ok := q.Read(); ok {
		t.Fatal("discarded write 2 should not be visible")
	}
}

func TestUnwriteAfterFlushIsNoOp(t *testing.T) {
	q := queue.New[int](4, nil)
	q.Write(1)
	q.Flush()
	if q.Unwrite() {
		t.Fatal("Unwrite must not discard already-flushed data")
	}
}

func TestProbeDoesNotConsume(t *testing.T) {
	q := queue.New[int](4, nil)
	q.Write(42)
	q.Flush()

	var seen int
	if !q.Probe(func(v int) { seen = v }) {
		t.Fatal("Probe reported empty on non-empty queue")
	}
	if seen != 42 {
		t.Fatalf("Probe saw %d, want 42", seen)
	}
	v, ok := q.Read()
	if !ok || v != 42 {
		t.Fatal("Probe must not remove the element")
	}
}

func TestWakeFiresOnceAfterSleep(t *testing.T) {
	var wakes int
	var mu sync.Mutex
	q := queue.New[int](4, func() {
		mu.Lock()
		wakes++
		mu.Unlock()
	})

	if !q.Empty() {
		t.Fatal("new queue should be empty")
	}
	q.Write(1)
	q.Flush()

	mu.Lock()
	got := wakes
	mu.Unlock()
	if got != 1 {
		t.Fatalf("wake count = %d, want 1", got)
	}

	// A second flush with no intervening sleep must not wake again.
	q.Write(2)
	q.Flush()
	mu.Lock()
	got = wakes
	mu.Unlock()
	if got != 1 {
		t.Fatalf("wake count after second flush = %d, want still 1 (consumer never re-slept)", got)
	}
}

func TestSPSCStress(t *testing.T) {
	const n = 200_000
	q := queue.New[int](256, nil)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := range n {
			q.Write(i)
			if i%37 == 0 {
				q.Flush()
			}
		}
		q.Flush()
	}()

	var sum, count int64
	go func() {
		defer wg.Done()
		for count < n {
			v, ok := q.Read()
			if !ok {
				continue
			}
			sum += int64(v)
			count++
		}
	}()

	wg.Wait()
	want := int64(n-1) * n / 2
	if sum != want {
		t.Fatalf("sum = %d, want %d", sum, want)
	}
}

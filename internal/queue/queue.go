// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// pad is cache line padding to prevent false sharing between the
// producer-owned and consumer-owned fields below.
type pad [64]byte

// chunk is one fixed-size link in the queue's growable chain. next is
// written exactly once, by the producer, before the position that
// crosses into it is published; the consumer only dereferences next
// after observing that publish, so the plain pointer needs no atomic
// wrapper of its own.
type chunk[T any] struct {
	items []T
	next  *chunk[T]
}

// Queue is a single-producer/single-consumer FIFO organized as a chain
// of fixed-size chunks. Write never fails: when the producer's current
// chunk fills up, a new one is linked in and writing continues there.
// Backpressure belongs to the caller (see the pipe package's high-water mark),
// not to the queue.
//
// granularity is the number of slots per chunk: 256 for message pipes,
// 16 for command mailboxes, per the engine's pipe-queue contract.
type Queue[T any] struct {
	granularity uint64

	_ pad
	// producer-owned
	writeChunk *chunk[T]
	writePos   uint64
	flushedPos uint64

	_ pad
	published atomix.Uint64
	sleeping  atomix.Bool

	_ pad
	// consumer-owned
	readChunk       *chunk[T]
	readPos         uint64
	cachedPublished uint64

	wake func()
}

// New creates an empty queue with the given chunk granularity. wake is
// invoked (from the producer, inside Flush) whenever the consumer had
// gone to sleep and new data just became visible; pass nil if the
// consumer never blocks.
func New[T any](granularity int, wake func()) *Queue[T] {
	if granularity < 1 {
		panic("queue: granularity must be >= 1")
	}
	c := &chunk[T]{items: make([]T, granularity)}
	return &Queue[T]{
		granularity: uint64(granularity),
		writeChunk:  c,
		readChunk:   c,
		wake:        wake,
	}
}

// Write appends an element to the producer's uncommitted tail. It
// never blocks and never fails; the element is not visible to the
// reader until the next Flush.
func (q *Queue[T]) Write(elem T) {
	slot := q.writePos % q.granularity
	q.writeChunk.items[slot] = elem
	q.writePos++
	if q.writePos%q.granularity == 0 {
		next := &chunk[T]{items: make([]T, q.granularity)}
		q.writeChunk.next = next
		q.writeChunk = next
	}
}

// Unwrite discards the most recent uncommitted Write. It is a no-op if
// everything written so far has already been flushed.
func (q *Queue[T]) Unwrite() bool {
	if q.writePos == q.flushedPos {
		return false
	}
	q.writePos--
	return true
}

// Flush publishes every Write since the last Flush, making it visible
// to the consumer. If the consumer had marked itself sleeping, Flush
// clears that flag and invokes wake exactly once.
func (q *Queue[T]) Flush() {
	if q.writePos == q.flushedPos {
		return
	}
	q.flushedPos = q.writePos
	q.published.StoreRelease(q.flushedPos)
	if q.sleeping.CompareAndSwapAcqRel(true, false) && q.wake != nil {
		q.wake()
	}
}

// checkRead reports whether at least one published element remains
// unread, refreshing the cached publish cursor and the sleeping flag
// as needed. It implements the "sample, and if no progress go to
// sleep" protocol from the queue's concurrency contract.
func (q *Queue[T]) checkRead() bool {
	if q.readPos < q.cachedPublished {
		return true
	}
	q.cachedPublished = q.published.LoadAcquire()
	if q.readPos < q.cachedPublished {
		return true
	}
	q.sleeping.StoreRelease(true)
	// Re-sample after announcing sleep to avoid a lost wakeup against a
	// producer that flushed in between the two loads.
	q.cachedPublished = q.published.LoadAcquire()
	if q.readPos < q.cachedPublished {
		q.sleeping.StoreRelease(false)
		return true
	}
	return false
}

// Read removes and returns the next element. The second return value
// is false if the queue currently has nothing published.
func (q *Queue[T]) Read() (T, bool) {
	var zero T
	if !q.checkRead() {
		return zero, false
	}
	slot := q.readPos % q.granularity
	elem := q.readChunk.items[slot]
	q.readChunk.items[slot] = zero
	q.readPos++
	if q.readPos%q.granularity == 0 {
		q.readChunk = q.readChunk.next
	}
	return elem, true
}

// Probe peeks at the next element without consuming it, invoking fn
// with the element if one is available. It reports whether an
// element was present.
func (q *Queue[T]) Probe(fn func(T)) bool {
	if !q.checkRead() {
		return false
	}
	elem := q.readChunk.items[q.readPos%q.granularity]
	if fn != nil {
		fn(elem)
	}
	return true
}

// Empty reports whether the queue currently has nothing published.
// Like checkRead, it may arm the sleeping flag.
func (q *Queue[T]) Empty() bool {
	return !q.checkRead()
}

// spinWait busy-waits for n spin.Wait pauses. Nothing in this module
// calls it.
func spinWait(n int) {
	sw := spin.Wait{}
	for i := 0; i < n; i++ {
		sw.Once()
	}
}

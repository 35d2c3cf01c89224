// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides the lock-free single-producer/single-consumer
// FIFO that underlies every pipe half and mailbox in the engine.
//
// Unlike a fixed-capacity ring buffer, Queue never blocks the writer:
// it is organized as a singly-linked chain of fixed-size chunks and
// grows a new chunk whenever the current one fills up. Backpressure is
// never applied here — callers that need a high-water mark enforce it
// themselves (see the pipe package) by counting in-flight items
// alongside Queue, exactly as ypipe_t is used in the original engine
// this package is ported from.
//
// Queue is safe for exactly one writer goroutine and one reader
// goroutine at a time; Mailbox wraps Queue with a mutex on the write
// side so that many goroutines may act as producers, matching the
// command/mailbox contract in which any thread may send a command to
// a socket's owning thread.
package queue

// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipe implements the bidirectional link between two
// socket-pattern peers: a pair of internal/queue FIFOs (one per
// direction), per-pipe high-water marks, a batched credit exchange
// that tracks in-flight messages without a shared counter, and the
// delimiter-based orderly shutdown handshake.
package pipe

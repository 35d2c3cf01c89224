// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire holds the Message/frame representation and its wire
// encoding. It sits below internal/pipe and the root socket package so
// both can share one Message type without an import cycle: pipe moves
// Message values through queues, the root package exposes Message to
// callers and serializes it for the inproc transport.
package wire

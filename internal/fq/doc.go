// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fq implements the fair-queue inbound scheduler shared by
// SUB, XSUB, and XPUB: round-robin reads across attached pipes at
// message boundaries, so multi-frame messages from different peers
// are never interleaved. Pipes observed empty are rotated out of the
// active region; a read-activated signal rotates them back in.
package fq

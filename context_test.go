// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk_test

import (
	"testing"

	slk "github.com/ulala-x/serverlink"
)

func TestMaxSocketsEnforced(t *testing.T) {
	ctx := slk.Configure().MaxSockets(1).Build()
	defer ctx.Destroy()

	first := mustSocket(t, slk.NewPair(ctx))
	defer first.Close()

	if _, err := slk.NewPair(ctx); err == nil {
		t.Fatal("expected the second socket to be rejected by MaxSockets")
	}
}

func TestNewSocketAfterDestroyFails(t *testing.T) {
	ctx := slk.NewContext()
	ctx.Destroy()

	if _, err := slk.NewPair(ctx); err == nil {
		t.Fatal("expected socket creation on a destroyed context to fail")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	ctx := slk.NewContext()
	a := mustSocket(t, slk.NewPair(ctx))
	defer a.Close()

	ctx.Destroy()
	ctx.Destroy() // must not panic or double-close sockets

	if !ctx.Terminating() {
		t.Fatal("expected context to report terminating")
	}
}

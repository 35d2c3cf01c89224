// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk_test

import (
	"testing"

	slk "github.com/ulala-x/serverlink"
)

func TestBindDuplicateEndpointFails(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a := mustSocket(t, slk.NewPair(ctx))
	defer a.Close()
	if err := a.Bind("inproc://dup"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	b := mustSocket(t, slk.NewPair(ctx))
	defer b.Close()
	if err := b.Bind("inproc://dup"); err == nil {
		t.Fatal("expected a duplicate bind to fail")
	}
}

func TestConnectWithoutListenerFails(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	s := mustSocket(t, slk.NewPair(ctx))
	defer s.Close()
	if err := s.Connect("inproc://nobody-here"); err == nil {
		t.Fatal("expected connect to an unbound endpoint to fail")
	}
}

func TestUnbindThenConnectFails(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a := mustSocket(t, slk.NewPair(ctx))
	defer a.Close()
	if err := a.Bind("inproc://unbind-me"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := a.Unbind("inproc://unbind-me"); err != nil {
		t.Fatalf("unbind: %v", err)
	}

	b := mustSocket(t, slk.NewPair(ctx))
	defer b.Close()
	if err := b.Connect("inproc://unbind-me"); err == nil {
		t.Fatal("expected connect after unbind to fail")
	}
}

func TestMonitorSeesLifecycleEvents(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	var events []slk.EventType
	a := mustSocket(t, slk.NewPair(ctx))
	defer a.Close()
	a.Monitor(func(e slk.Event) { events = append(events, e.Type) })

	if err := a.Bind("inproc://monitor-me"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	b := mustSocket(t, slk.NewPair(ctx))
	defer b.Close()
	if err := b.Connect("inproc://monitor-me"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	found := map[slk.EventType]bool{}
	for _, e := range events {
		found[e] = true
	}
	if !found[slk.EventListening] {
		t.Fatalf("expected a listening event, got %v", events)
	}
}

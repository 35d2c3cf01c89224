// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mailbox_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ulala-x/serverlink/internal/mailbox"
)

type cmd struct {
	kind string
	n    int
}

func TestSendRecvFIFO(t *testing.T) {
	m := mailbox.New[cmd]()
	for i := range 5 {
		m.Send(cmd{kind: "x", n: i})
	}
	for i := range 5 {
		c, ok := m.TryRecv()
		if !ok || c.n != i {
			t.Fatalf("TryRecv(%d) = (%+v, %v), want n=%d", i, c, ok, i)
		}
	}
	if _, ok := m.TryRecv(); ok {
		t.Fatal("expected empty mailbox")
	}
}

func TestRecvBlocksUntilSend(t *testing.T) {
	m := mailbox.New[cmd]()
	done := make(chan cmd, 1)
	go func() {
		c, ok := m.Recv(time.Second)
		if !ok {
			t.Error("Recv timed out unexpectedly")
			return
		}
		done <- c
	}()

	time.Sleep(10 * time.Millisecond)
	m.Send(cmd{kind: "stop"})

	select {
	case c := <-done:
		if c.kind != "stop" {
			t.Fatalf("got %+v, want kind=stop", c)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv never woke up")
	}
}

func TestRecvTimesOut(t *testing.T) {
	m := mailbox.New[cmd]()
	start := time.Now()
	_, ok := m.Recv(20 * time.Millisecond)
	if ok {
		t.Fatal("expected timeout on empty mailbox")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("Recv timeout took far longer than requested")
	}
}

func TestManyProducersOneConsumer(t *testing.T) {
	m := mailbox.New[cmd]()
	const producers = 8
	const perProducer = 2000

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func(p int) {
			defer wg.Done()
			for i := range perProducer {
				m.Send(cmd{kind: "p", n: p*perProducer + i})
			}
		}(p)
	}

	received := make(map[int]bool)
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		for len(received) < producers*perProducer {
			c, ok := m.Recv(time.Second)
			if !ok {
				continue
			}
			mu.Lock()
			received[c.n] = true
			mu.Unlock()
		}
		close(done)
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never drained all commands")
	}
	if len(received) != producers*perProducer {
		t.Fatalf("received %d distinct commands, want %d", len(received), producers*perProducer)
	}
}

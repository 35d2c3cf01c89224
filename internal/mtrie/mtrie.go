// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mtrie

import "code.hybscloud.com/atomix"

// RmResult is the three-valued outcome of removing a single (prefix,
// peer) pair.
type RmResult int

const (
	NotFound RmResult = iota
	LastValueRemoved
	ValuesRemain
)

type node[P comparable] struct {
	peers    map[P]struct{}
	children map[byte]*node[P]
}

// MultiTrie is a reference-counting-by-set radix tree: each node
// tracks which peers hold a subscription on that exact prefix.
type MultiTrie[P comparable] struct {
	root        node[P]
	numPrefixes atomix.Int32
}

// New returns an empty multi-trie.
func New[P comparable]() *MultiTrie[P] {
	return &MultiTrie[P]{}
}

// Add records that peer is subscribed to prefix. It reports true iff
// no peer held prefix before this call.
func (t *MultiTrie[P]) Add(prefix []byte, peer P) bool {
	n := &t.root
	for _, b := range prefix {
		if n.children == nil {
			n.children = make(map[byte]*node[P])
		}
		child, ok := n.children[b]
		if !ok {
			child = &node[P]{}
			n.children[b] = child
		}
		n = child
	}
	isNew := len(n.peers) == 0
	if n.peers == nil {
		n.peers = make(map[P]struct{})
	}
	n.peers[peer] = struct{}{}
	if isNew {
		t.numPrefixes.Add(1)
	}
	return isNew
}

// Rm removes peer's subscription to prefix.
func (t *MultiTrie[P]) Rm(prefix []byte, peer P) RmResult {
	path := make([]*node[P], 0, len(prefix)+1)
	path = append(path, &t.root)
	n := &t.root
	for _, b := range prefix {
		child, ok := n.children[b]
		if !ok {
			return NotFound
		}
		path = append(path, child)
		n = child
	}
	if _, ok := n.peers[peer]; !ok {
		return NotFound
	}
	delete(n.peers, peer)
	if len(n.peers) == 0 {
		t.numPrefixes.Add(-1)
		t.prune(path, prefix)
		return LastValueRemoved
	}
	return ValuesRemain
}

func (t *MultiTrie[P]) prune(path []*node[P], prefix []byte) {
	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if len(n.peers) != 0 || len(n.children) != 0 {
			break
		}
		delete(path[i-1].children, prefix[i-1])
	}
}

// RmPeer removes peer from every prefix in the trie. callback is
// invoked once per affected prefix; if callOnUniq is true it fires
// only when that prefix now has no subscribers left at all, otherwise
// it fires on every prefix peer held, regardless of remaining
// subscribers — mirroring the redundancy policy used when a pipe
// terminates and XPUB decides whether to propagate an unsubscribe.
func (t *MultiTrie[P]) RmPeer(peer P, callOnUniq bool, callback func(prefix []byte)) {
	t.root.rmPeer(nil, peer, callOnUniq, callback, &t.numPrefixes)
}

func (n *node[P]) rmPeer(prefix []byte, peer P, callOnUniq bool, cb func([]byte), numPrefixes *atomix.Int32) {
	if _, ok := n.peers[peer]; ok {
		delete(n.peers, peer)
		last := len(n.peers) == 0
		if last {
			numPrefixes.Add(-1)
		}
		if cb != nil && (!callOnUniq || last) {
			cb(prefix)
		}
	}
	for b, child := range n.children {
		childPrefix := append(append([]byte(nil), prefix...), b)
		child.rmPeer(childPrefix, peer, callOnUniq, cb, numPrefixes)
		if len(child.peers) == 0 && len(child.children) == 0 {
			delete(n.children, b)
		}
	}
}

// Match invokes cb once for every peer subscribed to any prefix of
// topic (including the empty prefix). Iteration order across peers at
// a single prefix, and across prefixes, is unspecified beyond being
// shortest-to-longest.
func (t *MultiTrie[P]) Match(topic []byte, cb func(peer P)) {
	n := &t.root
	for peer := range n.peers {
		cb(peer)
	}
	for _, b := range topic {
		child, ok := n.children[b]
		if !ok {
			return
		}
		n = child
		for peer := range n.peers {
			cb(peer)
		}
	}
}

// NumPrefixes returns the number of distinct prefixes with at least
// one subscriber.
func (t *MultiTrie[P]) NumPrefixes() int {
	return int(t.numPrefixes.Load())
}

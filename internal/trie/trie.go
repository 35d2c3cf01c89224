// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trie

import "code.hybscloud.com/atomix"

// node is one byte-keyed level of the trie. It exists iff refcount > 0
// or it has at least one live child — the same invariant the engine's
// original prefix trie enforces.
type node struct {
	refcount int32
	children map[byte]*node
}

// Trie is a radix tree over byte-string prefixes, reference-counted so
// that repeated Add/Rm calls on the same prefix behave like a
// subscribe/unsubscribe counter rather than a boolean set.
type Trie struct {
	root        node
	numPrefixes atomix.Int32
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{}
}

// Add adds prefix to the trie. It reports true iff this call created a
// brand new entry (the refcount went from 0 to 1); a duplicate Add on
// an already-held prefix returns false.
func (t *Trie) Add(prefix []byte) bool {
	n := &t.root
	for _, b := range prefix {
		if n.children == nil {
			n.children = make(map[byte]*node)
		}
		child, ok := n.children[b]
		if !ok {
			child = &node{}
			n.children[b] = child
		}
		n = child
	}
	n.refcount++
	isNew := n.refcount == 1
	if isNew {
		t.numPrefixes.Add(1)
	}
	return isNew
}

// Rm removes one holder of prefix. It reports true iff this call
// dropped the refcount to zero (the last holder), which is also when
// now-redundant nodes are pruned from the tree.
func (t *Trie) Rm(prefix []byte) bool {
	path := make([]*node, 0, len(prefix)+1)
	path = append(path, &t.root)
	n := &t.root
	for _, b := range prefix {
		child, ok := n.children[b]
		if !ok {
			return false
		}
		path = append(path, child)
		n = child
	}
	if n.refcount == 0 {
		return false
	}
	n.refcount--
	last := n.refcount == 0
	if last {
		t.numPrefixes.Add(-1)
		t.prune(path, prefix)
	}
	return last
}

// prune removes trailing nodes along path that are now redundant
// (refcount 0 and no children), walking from the leaf back to root.
func (t *Trie) prune(path []*node, prefix []byte) {
	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if n.refcount != 0 || len(n.children) != 0 {
			break
		}
		delete(path[i-1].children, prefix[i-1])
	}
}

// Check reports whether any prefix of data is present in the trie
// (refcount > 0). An Add("") subscription matches every topic.
func (t *Trie) Check(data []byte) bool {
	n := &t.root
	if n.refcount > 0 {
		return true
	}
	for _, b := range data {
		child, ok := n.children[b]
		if !ok {
			return false
		}
		n = child
		if n.refcount > 0 {
			return true
		}
	}
	return false
}

// Apply invokes fn once for every prefix currently held (refcount > 0).
func (t *Trie) Apply(fn func(prefix []byte)) {
	t.root.walk(nil, fn)
}

func (n *node) walk(prefix []byte, fn func([]byte)) {
	if n.refcount > 0 {
		fn(prefix)
	}
	for b, child := range n.children {
		child.walk(append(append([]byte(nil), prefix...), b), fn)
	}
}

// NumPrefixes returns the number of distinct prefixes currently held.
// Safe to call concurrently with Add/Rm from another goroutine.
func (t *Trie) NumPrefixes() int {
	return int(t.numPrefixes.Load())
}

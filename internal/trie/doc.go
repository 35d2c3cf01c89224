// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package trie implements the single-owner subscription structures
// used by SUB/XSUB: a refcounting prefix trie for plain topic
// subscriptions, and a compiled glob matcher set for pattern
// subscriptions (psubscribe/?/*/[set]).
package trie

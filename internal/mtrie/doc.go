// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mtrie implements the multi-owner subscription trie used by
// PUB/XPUB: a radix tree keyed by topic prefix where each node holds
// the set of peers subscribed to that prefix, rather than a single
// refcount. It is generic over the peer identity type so the socket
// package can key it on a pipe pointer without mtrie importing pipe.
package mtrie

// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dist implements the outbound distributor used by PUB/XPUB:
// an ordered list of pipes partitioned by matching <= active <=
// eligible <= total, broadcasting a message to the pipes selected by
// the last match while respecting per-pipe high-water marks and
// multi-part atomicity.
package dist

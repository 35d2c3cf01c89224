// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mailbox implements the per-owner inter-thread command queue
// described by the engine's command/mailbox contract: any goroutine
// may send a command to an owner, but only the owner goroutine ever
// drains it. Mailbox is generic over the command payload type so the
// command vocabulary itself can live next to the code that interprets
// it (socket, pipe) without an import cycle back into mailbox.
package mailbox

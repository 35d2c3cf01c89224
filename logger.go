// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"context"

	liblog "github.com/nabbar/golib/logger"
)

// Logger is the leveled logging interface a Context holds. Context
// defaults to noopLogger; install your own with [Context.SetLogger], or
// wrap a [liblog.Logger] with [NewLogger]. The engine itself makes no
// calls on the installed logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// nabbarLogger adapts a github.com/nabbar/golib/logger.Logger to this
// package's Logger interface. Every level's message is itself the
// format string the underlying logger applies args to, so no
// pre-formatting happens here; data is always nil since lifecycle
// diagnostics carry no structured payload beyond the formatted text.
type nabbarLogger struct {
	log liblog.Logger
}

// NewLogger wraps an existing liblog.Logger (for example one already
// configured with file/syslog/stderr hooks for the embedding service)
// as a [Logger].
func NewLogger(log liblog.Logger) Logger {
	return nabbarLogger{log: log}
}

// NewDefaultLogger builds a [Logger] backed by a fresh
// github.com/nabbar/golib/logger at its default configuration, the
// same one [Context.SetLogger] expects an embedder to supply instead
// of relying on the no-op default.
func NewDefaultLogger(ctx context.Context) Logger {
	return nabbarLogger{log: liblog.New(ctx)}
}

func (l nabbarLogger) Debugf(format string, args ...any) { l.log.Debug(format, nil, args...) }
func (l nabbarLogger) Infof(format string, args ...any)  { l.log.Info(format, nil, args...) }
func (l nabbarLogger) Warnf(format string, args ...any)  { l.log.Warning(format, nil, args...) }
func (l nabbarLogger) Errorf(format string, args ...any) { l.log.Error(format, nil, args...) }

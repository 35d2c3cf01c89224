// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package slk

// RaceEnabled is true when the race detector is active; race_off.go
// defines it as false otherwise. No test in this module reads it.
const RaceEnabled = true

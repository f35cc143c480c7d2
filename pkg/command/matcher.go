// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package command

// IsCommand reports whether field 0 is exactly name (case-sensitive, full
// length) and at least minArgs fields follow it.
func (l *Line) IsCommand(name string, minArgs int) bool {
	if l.fieldCount == 0 {
		return false
	}

	cmd, _ := l.FieldBytes(0)
	if len(cmd) != len(name) {
		return false
	}
	for i := range cmd {
		if cmd[i] != name[i] {
			return false
		}
	}

	return l.fieldCount-1 >= minArgs
}

// ArgCount returns the number of fields after the command name
func (l *Line) ArgCount() int {
	if l.fieldCount == 0 {
		return 0
	}
	return l.fieldCount - 1
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package command

// FieldBytes returns the text of field index as a view into the line buffer.
// The view is only valid until the line is next edited.
func (l *Line) FieldBytes(index int) ([]byte, bool) {
	f, ok := l.Field(index)
	if !ok {
		return nil, false
	}
	return l.buf[f.Start : int(f.Start)+int(f.Length)], true
}

// FieldText returns the text of field index
func (l *Line) FieldText(index int) (string, bool) {
	b, ok := l.FieldBytes(index)
	if !ok {
		return "", false
	}
	return string(b), true
}

// FieldInt parses field index as a signed decimal integer.
//
// An optional leading '-' is followed by digits; parsing stops at the first
// non-digit. A numeric field without digits ("-", ".") yields 0. The value
// accumulates in 32 bits and wraps on overflow.
func (l *Line) FieldInt(index int) (int32, bool) {
	b, ok := l.FieldBytes(index)
	if !ok {
		return 0, false
	}

	i := 0
	negative := false
	if len(b) > 0 && b[0] == '-' {
		negative = true
		i++
	}

	var num uint32
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		num = num*10 + uint32(b[i]-'0')
	}
	if negative {
		num = -num
	}
	return int32(num), true
}

// FieldKind returns the kind of field index
func (l *Line) FieldKind(index int) (Kind, bool) {
	f, ok := l.Field(index)
	if !ok {
		return 0, false
	}
	return f.Kind, true
}

// Args returns the text of every field after the command name
func (l *Line) Args() []string {
	if l.fieldCount < 2 {
		return nil
	}
	args := make([]string, 0, l.fieldCount-1)
	for i := 1; i < l.fieldCount; i++ {
		text, _ := l.FieldText(i)
		args = append(args, text)
	}
	return args
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package command

// Tokenize splits the line into at most MaxFields fields and returns the
// field count. Each run of non-delimiter characters becomes one field whose
// kind comes from its first character. Scanning stops at the end of the line
// or when a sixth field would start. The buffer itself is left untouched.
func (l *Line) Tokenize() int {
	var fields [MaxFields]Field
	count := 0
	atBoundary := true

	for i := 0; i < l.length; i++ {
		c := l.buf[i]

		if isDelimiter(c) {
			atBoundary = true
			continue
		}

		if atBoundary {
			if count == MaxFields {
				break
			}
			kind := KindNumeric
			if isAlpha(c) {
				kind = KindAlpha
			}
			fields[count] = Field{Start: uint8(i), Kind: kind}
			count++
			atBoundary = false
		}
		fields[count-1].Length++
	}

	// Commit in one step so a stale table is never half overwritten
	l.fields = fields
	l.fieldCount = count
	return count
}

// FieldCount returns the number of fields found by the last Tokenize
func (l *Line) FieldCount() int {
	return l.fieldCount
}

// Fields returns a copy of the current field table
func (l *Line) Fields() []Field {
	out := make([]Field, l.fieldCount)
	copy(out, l.fields[:l.fieldCount])
	return out
}

// Field returns the table entry at index
func (l *Line) Field(index int) (Field, bool) {
	if index < 0 || index >= l.fieldCount {
		return Field{}, false
	}
	return l.fields[index], true
}

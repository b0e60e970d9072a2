// Package textref implements the positional attachment-reference
// mini-language embedded in question text: $N references attachment N of
// the owning question, and #$ escapes a literal dollar sign.
package textref

import (
	"strconv"
	"strings"
)

// Kind discriminates the two part variants.
type Kind int

const (
	// KindText is a literal text run.
	KindText Kind = iota
	// KindChip is a reference to an attachment index.
	KindChip
)

// Part is one decoded segment of canonical question text.
type Part struct {
	Kind  Kind
	Text  string // literal run, set for KindText
	Index int    // attachment index, set for KindChip
}

// TextPart builds a literal run part.
func TextPart(s string) Part { return Part{Kind: KindText, Text: s} }

// ChipPart builds an attachment reference part.
func ChipPart(i int) Part { return Part{Kind: KindChip, Index: i} }

// Decode splits canonical question text into literal runs and attachment
// chips. It is total over arbitrary input: a $N whose index falls outside
// [0, attachmentCount) degrades to literal text, #$ always survives as
// literal text, and a string without references decodes to a single text
// part. The empty string decodes to no parts.
func Decode(text string, attachmentCount int) []Part {
	var parts []Part
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, TextPart(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		c := text[i]
		if c != '$' || i+1 >= len(text) || !isDigit(text[i+1]) {
			lit.WriteByte(c)
			i++
			continue
		}
		// A '$' preceded by '#' is the escaped literal form; its digits
		// stay plain text too.
		if i > 0 && text[i-1] == '#' {
			lit.WriteByte(c)
			i++
			continue
		}

		j := i + 1
		for j < len(text) && isDigit(text[j]) {
			j++
		}

		idx, err := strconv.Atoi(text[i+1 : j])
		if err != nil || idx >= attachmentCount {
			// Out-of-range (or absurdly long) reference: emit the matched
			// substring unchanged instead of a broken chip.
			flush()
			parts = append(parts, TextPart(text[i:j]))
			i = j
			continue
		}

		flush()
		parts = append(parts, ChipPart(idx))
		i = j
	}

	flush()
	return parts
}

// Encode is the inverse of Decode: chips become $<index>, literal runs pass
// through verbatim.
func Encode(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch p.Kind {
		case KindChip:
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(p.Index))
		default:
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

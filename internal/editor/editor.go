// Package editor models the rich question-text surface: free text with
// atomic attachment chips inline. The document is an ordered sequence of
// literal runs and chip nodes plus a caret; the canonical stored string
// (with $N references) is always derived from the document, never the
// other way around.
package editor

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/textref"
)

// Errors
var (
	ErrMenuNotOpen       = errors.New("attachment menu is not open")
	ErrBadAttachmentType = errors.New("unknown attachment type")
)

// Editor is a single question-text editing surface.
//
// Caret positions are measured in cells: one cell per rune of literal
// text, one cell per chip. A chip always occupies exactly one cell, which
// is what makes it atomic under deletion and caret movement.
type Editor struct {
	parts       []textref.Part
	caret       int
	attachments []model.Attachment
	menuOpen    bool
	log         zerolog.Logger
}

// New creates an empty editor.
func New(log zerolog.Logger) *Editor {
	return &Editor{log: log.With().Str("component", "editor").Logger()}
}

// Load initializes the surface from a canonical string and its attachment
// list, reconstructing chips with the same index resolution as the display
// codec. The caret lands at the end.
func Load(canonical string, attachments []model.Attachment, log zerolog.Logger) *Editor {
	e := New(log)
	e.attachments = append([]model.Attachment(nil), attachments...)
	e.parts = textref.Decode(canonical, len(attachments))
	e.caret = e.cells()
	return e
}

// Text derives the canonical stored string: chips become $<index>, literal
// runs (soft line breaks included, already \n) pass through.
func (e *Editor) Text() string {
	return textref.Encode(e.parts)
}

// Attachments returns the question's attachment list.
func (e *Editor) Attachments() []model.Attachment {
	return append([]model.Attachment(nil), e.attachments...)
}

// Caret returns the caret cell position.
func (e *Editor) Caret() int { return e.caret }

// MenuOpen reports whether the @-triggered attachment menu is showing.
func (e *Editor) MenuOpen() bool { return e.menuOpen }

// DismissMenu closes the attachment menu without inserting anything. The
// typed @ stays in the text as an ordinary character.
func (e *Editor) DismissMenu() { e.menuOpen = false }

// SetCaret moves the caret, clamped to the document bounds.
func (e *Editor) SetCaret(pos int) {
	if pos < 0 {
		pos = 0
	}
	if max := e.cells(); pos > max {
		pos = max
	}
	e.caret = pos
	e.refreshMenu()
}

// InsertText types s at the caret. Typing a trailing @ opens the
// attachment menu at the caret, mirroring the SPA's fast-add shortcut.
func (e *Editor) InsertText(s string) {
	if s == "" {
		return
	}
	e.insertPart(textref.TextPart(s))
	e.caret += utf8.RuneCountInString(s)
	e.refreshMenu()
}

// InsertLineBreak types a soft line break, stored as a newline.
func (e *Editor) InsertLineBreak() {
	e.InsertText("\n")
}

// InsertAttachment resolves an open attachment menu: the triggering @ is
// replaced by a chip referencing a new attachment appended at the next
// free index. Insertion is atomic — either the attachment exists and its
// chip is in place, or nothing changed.
func (e *Editor) InsertAttachment(attType, url string) (int, error) {
	if !e.menuOpen {
		return 0, ErrMenuNotOpen
	}
	if !model.ValidAttachmentType(attType) {
		return 0, ErrBadAttachmentType
	}

	index := len(e.attachments)
	e.attachments = append(e.attachments, model.Attachment{Type: attType, Link: strings.TrimSpace(url)})

	e.deleteCell(e.caret - 1) // the @
	e.caret--
	e.insertPart(textref.ChipPart(index))
	e.caret++
	e.menuOpen = false
	return index, nil
}

// UpdateAttachment edits an attachment in place (the list editor beside
// the surface); chips referencing the index are unaffected.
func (e *Editor) UpdateAttachment(index int, att model.Attachment) error {
	if index < 0 || index >= len(e.attachments) {
		return errors.New("attachment index out of range")
	}
	e.attachments[index] = att
	return nil
}

// Backspace deletes the cell before the caret. A chip is removed as a
// unit; its attachment stays in the list and is managed separately.
func (e *Editor) Backspace() {
	if e.caret == 0 {
		return
	}
	e.deleteCell(e.caret - 1)
	e.caret--
	e.refreshMenu()
}

// ─── Internal document surgery ──────────────────────────────────────

// cells returns the document length in cells.
func (e *Editor) cells() int {
	n := 0
	for _, p := range e.parts {
		if p.Kind == textref.KindChip {
			n++
		} else {
			n += utf8.RuneCountInString(p.Text)
		}
	}
	return n
}

// locate maps a cell position to (part index, rune offset inside it).
// A position on a part boundary belongs to the following part.
func (e *Editor) locate(pos int) (int, int) {
	for i, p := range e.parts {
		var width int
		if p.Kind == textref.KindChip {
			width = 1
		} else {
			width = utf8.RuneCountInString(p.Text)
		}
		if pos < width {
			return i, pos
		}
		pos -= width
	}
	return len(e.parts), 0
}

// insertPart splices a part in at the caret, splitting a literal run when
// the caret sits inside one, then renormalizes.
func (e *Editor) insertPart(ins textref.Part) {
	i, off := e.locate(e.caret)

	if i < len(e.parts) && e.parts[i].Kind == textref.KindText && off > 0 {
		runes := []rune(e.parts[i].Text)
		before := textref.TextPart(string(runes[:off]))
		after := textref.TextPart(string(runes[off:]))
		rest := append([]textref.Part{after}, e.parts[i+1:]...)
		e.parts = append(append(e.parts[:i:i], before, ins), rest...)
	} else {
		rest := append([]textref.Part{ins}, e.parts[i:]...)
		e.parts = append(e.parts[:i:i], rest...)
	}
	e.normalize()
}

// deleteCell removes the single cell at pos (a rune or a whole chip).
func (e *Editor) deleteCell(pos int) {
	i, off := e.locate(pos)
	if i >= len(e.parts) {
		return
	}
	p := e.parts[i]
	if p.Kind == textref.KindChip {
		e.parts = append(e.parts[:i], e.parts[i+1:]...)
	} else {
		runes := []rune(p.Text)
		e.parts[i].Text = string(runes[:off]) + string(runes[off+1:])
	}
	e.normalize()
}

// normalize merges adjacent literal runs and drops empty ones so part
// boundaries stay canonical.
func (e *Editor) normalize() {
	out := e.parts[:0]
	for _, p := range e.parts {
		if p.Kind == textref.KindText && p.Text == "" {
			continue
		}
		if len(out) > 0 && p.Kind == textref.KindText && out[len(out)-1].Kind == textref.KindText {
			out[len(out)-1].Text += p.Text
			continue
		}
		out = append(out, p)
	}
	e.parts = out
}

// refreshMenu re-evaluates the fast-add trigger: the menu is open exactly
// while the cell before the caret is a literal '@'.
func (e *Editor) refreshMenu() {
	e.menuOpen = false
	if e.caret == 0 {
		return
	}
	i, off := e.locate(e.caret - 1)
	if i >= len(e.parts) || e.parts[i].Kind != textref.KindText {
		return
	}
	runes := []rune(e.parts[i].Text)
	if off < len(runes) && runes[off] == '@' {
		e.menuOpen = true
	}
}

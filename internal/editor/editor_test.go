package editor

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/model"
)

func atts(n int) []model.Attachment {
	out := make([]model.Attachment, n)
	for i := range out {
		out[i] = model.Attachment{Type: "link", Link: "https://example.test"}
	}
	return out
}

func TestTypeAndDerive(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("Hello")
	e.InsertLineBreak()
	e.InsertText("world")
	if got := e.Text(); got != "Hello\nworld" {
		t.Fatalf("canonical text %q", got)
	}
	if e.Caret() != 11 {
		t.Fatalf("caret %d", e.Caret())
	}
}

func TestAtOpensMenuAndInsertReplacesIt(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("See @")
	if !e.MenuOpen() {
		t.Fatal("typing @ must open the attachment menu")
	}

	index, err := e.InsertAttachment("img", "https://img.test/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if index != 0 {
		t.Fatalf("first attachment index %d", index)
	}
	if e.MenuOpen() {
		t.Fatal("menu must close after insertion")
	}
	if got := e.Text(); got != "See $0" {
		t.Fatalf("canonical text %q", got)
	}
	if len(e.Attachments()) != 1 {
		t.Fatalf("attachment count %d", len(e.Attachments()))
	}
}

func TestInsertAttachmentUsesNextFreeIndex(t *testing.T) {
	e := Load("Existing $0 and $1", atts(2), zerolog.Nop())
	e.InsertText(" @")
	index, err := e.InsertAttachment("video", "https://v.test")
	if err != nil {
		t.Fatal(err)
	}
	if index != 2 {
		t.Fatalf("expected index 2, got %d", index)
	}
	if got := e.Text(); got != "Existing $0 and $1 $2" {
		t.Fatalf("canonical text %q", got)
	}
}

func TestInsertAttachmentWithoutMenuFails(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("no trigger here")
	if _, err := e.InsertAttachment("link", "https://x"); err != ErrMenuNotOpen {
		t.Fatalf("expected ErrMenuNotOpen, got %v", err)
	}
	if len(e.Attachments()) != 0 {
		t.Fatal("failed insertion must not touch the attachment list")
	}
}

func TestInsertAttachmentRejectsUnknownType(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("@")
	if _, err := e.InsertAttachment("hologram", "https://x"); err != ErrBadAttachmentType {
		t.Fatalf("expected ErrBadAttachmentType, got %v", err)
	}
	if got := e.Text(); got != "@" {
		t.Fatalf("document must be unchanged, got %q", got)
	}
	if len(e.Attachments()) != 0 {
		t.Fatal("failed insertion must not touch the attachment list")
	}
}

func TestDismissMenuKeepsAt(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("mail me @")
	e.DismissMenu()
	if e.MenuOpen() {
		t.Fatal("dismiss must close the menu")
	}
	e.InsertText("home")
	if got := e.Text(); got != "mail me @home" {
		t.Fatalf("the @ must stay literal, got %q", got)
	}
}

func TestBackspaceDeletesChipAtomically(t *testing.T) {
	e := Load("ab$0cd", atts(1), zerolog.Nop())
	e.SetCaret(3) // right after the chip
	e.Backspace()
	if got := e.Text(); got != "abcd" {
		t.Fatalf("canonical text %q", got)
	}
	if e.Caret() != 2 {
		t.Fatalf("caret %d", e.Caret())
	}
	if len(e.Attachments()) != 1 {
		t.Fatal("deleting a chip must not touch the attachment list")
	}
}

func TestBackspaceDeletesSingleRune(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("héllo")
	e.SetCaret(2)
	e.Backspace()
	if got := e.Text(); got != "hllo" {
		t.Fatalf("canonical text %q", got)
	}
}

func TestBackspaceAtStartIsNoOp(t *testing.T) {
	e := Load("$0", atts(1), zerolog.Nop())
	e.SetCaret(0)
	e.Backspace()
	if got := e.Text(); got != "$0" {
		t.Fatalf("document changed: %q", got)
	}
}

func TestCaretTreatsChipAsOneCell(t *testing.T) {
	e := Load("$0$1xy", atts(2), zerolog.Nop())
	// Cells: [chip0][chip1]['x']['y'] → length 4.
	if e.Caret() != 4 {
		t.Fatalf("load caret %d", e.Caret())
	}
	e.SetCaret(1)
	e.InsertText("Q")
	if got := e.Text(); got != "$0Q$1xy" {
		t.Fatalf("canonical text %q", got)
	}
}

func TestInsertSplitsLiteralRun(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("abcd")
	e.SetCaret(2)
	e.InsertText("@")
	if !e.MenuOpen() {
		t.Fatal("mid-run @ must open the menu")
	}
	if _, err := e.InsertAttachment("audio", "https://a.test"); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "ab$0cd" {
		t.Fatalf("canonical text %q", got)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	canonical := "Intro $0 middle $1 end"
	e := Load(canonical, atts(2), zerolog.Nop())
	if got := e.Text(); got != canonical {
		t.Fatalf("round trip %q", got)
	}
}

func TestLoadOutOfRangeStaysLiteral(t *testing.T) {
	e := Load("broken $5 ref", atts(1), zerolog.Nop())
	if got := e.Text(); got != "broken $5 ref" {
		t.Fatalf("canonical text %q", got)
	}
	// The literal $5 is plain text: deleting its last rune only takes '5'.
	e.SetCaret(9)
	e.Backspace()
	if got := e.Text(); got != "broken $ ref" {
		t.Fatalf("canonical text %q", got)
	}
}

func TestMenuClosesWhenCaretMovesAway(t *testing.T) {
	e := New(zerolog.Nop())
	e.InsertText("a@")
	if !e.MenuOpen() {
		t.Fatal("menu should be open")
	}
	e.SetCaret(0)
	if e.MenuOpen() {
		t.Fatal("menu must close when the caret leaves the trigger")
	}
	e.SetCaret(2)
	if !e.MenuOpen() {
		t.Fatal("menu must re-open when the caret returns behind the @")
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/response"
	"github.com/nooreldin2735/exams-console/internal/textref"
)

// TextHandler renders canonical question text into display parts.
type TextHandler struct{}

// NewTextHandler creates a new TextHandler.
func NewTextHandler() *TextHandler {
	return &TextHandler{}
}

// renderedPart is the wire form of one decoded text segment.
type renderedPart struct {
	Kind       string            `json:"kind"` // text or chip
	Text       string            `json:"text,omitempty"`
	Index      int               `json:"index,omitempty"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
}

// RenderQuestionText godoc
// POST /api/v1/questions/render
// Decodes canonical question text ($N references, #$ escapes) against its
// attachment list into display parts. Chips carry their attachment so the
// client can render thumbnails without another lookup.
func (h *TextHandler) RenderQuestionText(c *gin.Context) {
	var req struct {
		Text        string             `json:"text" binding:"required"`
		Attachments []model.Attachment `json:"attachments" binding:"omitempty,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	parts := textref.Decode(req.Text, len(req.Attachments))
	rendered := make([]renderedPart, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case textref.KindChip:
			att := req.Attachments[p.Index]
			rendered = append(rendered, renderedPart{Kind: "chip", Index: p.Index, Attachment: &att})
		default:
			rendered = append(rendered, renderedPart{Kind: "text", Text: p.Text})
		}
	}

	response.Success(c, http.StatusOK, gin.H{"parts": rendered})
}

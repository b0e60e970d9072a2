package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nooreldin2735/exams-console/internal/composer"
	"github.com/nooreldin2735/exams-console/internal/middleware"
	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/response"
	"github.com/nooreldin2735/exams-console/internal/service"
)

// ComposeHandler drives exam composition sessions over HTTP. Every route
// below /compose/:session_id addresses one live wizard.
type ComposeHandler struct {
	compose *service.ComposeService
}

// NewComposeHandler creates a new ComposeHandler.
func NewComposeHandler(compose *service.ComposeService) *ComposeHandler {
	return &ComposeHandler{compose: compose}
}

// OpenSession godoc
// POST /api/v1/compose
// Starts a composition session for one subject.
func (h *ComposeHandler) OpenSession(c *gin.Context) {
	var req struct {
		SubjectID  int64            `json:"subject_id" binding:"required"`
		Breadcrumb model.Breadcrumb `json:"breadcrumb"`
	}
	if !bindJSON(c, &req) {
		return
	}
	snap := h.compose.Open(req.SubjectID, req.Breadcrumb)
	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// GetSession godoc
// GET /api/v1/compose/:session_id
// Returns the session snapshot including the committed pool.
func (h *ComposeHandler) GetSession(c *gin.Context) {
	snap, err := h.compose.Snapshot(c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// CloseSession godoc
// POST /api/v1/compose/:session_id/close
// Discards the session without submitting.
func (h *ComposeHandler) CloseSession(c *gin.Context) {
	if err := h.compose.Close(c.Param("session_id")); err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

// SelectLecture godoc
// POST /api/v1/compose/:session_id/lecture
func (h *ComposeHandler) SelectLecture(c *gin.Context) {
	var req struct {
		LectureID int64 `json:"lecture_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	snap, err := h.compose.SelectLecture(c.Request.Context(), middleware.UpstreamToken(c), c.Param("session_id"), req.LectureID)
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// SkipLecture godoc
// POST /api/v1/compose/:session_id/skip-lecture
func (h *ComposeHandler) SkipLecture(c *gin.Context) {
	snap, err := h.compose.SkipLecture(c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// ChooseAction godoc
// POST /api/v1/compose/:session_id/action
// Branches into create_new, pick_from_lecture, or pick_from_exam.
func (h *ComposeHandler) ChooseAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	snap, err := h.compose.ChooseAction(c.Param("session_id"), req.Action)
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Back godoc
// POST /api/v1/compose/:session_id/back
func (h *ComposeHandler) Back(c *gin.Context) {
	snap, err := h.compose.Back(c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// AuthorQuestion godoc
// POST /api/v1/compose/:session_id/questions
// Submits a freshly authored question into the pool.
func (h *ComposeHandler) AuthorQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	snap, err := h.compose.AuthorQuestion(c.Param("session_id"), req)
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// ListPickable godoc
// GET /api/v1/compose/:session_id/pickable
// Lists the current picking source with per-question selection state.
func (h *ComposeHandler) ListPickable(c *gin.Context) {
	questions, err := h.compose.ListPickable(c.Request.Context(), middleware.UpstreamToken(c), c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ToggleQuestion godoc
// POST /api/v1/compose/:session_id/toggle
// Flips one question in or out of the local pick set.
func (h *ComposeHandler) ToggleQuestion(c *gin.Context) {
	var q model.Question
	if !bindJSON(c, &q) {
		return
	}
	snap, err := h.compose.ToggleQuestion(c.Param("session_id"), q)
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// BulkToggle godoc
// POST /api/v1/compose/:session_id/bulk-toggle
// Select-all when any source question is unpicked, deselect-all otherwise.
func (h *ComposeHandler) BulkToggle(c *gin.Context) {
	snap, err := h.compose.BulkToggle(c.Request.Context(), middleware.UpstreamToken(c), c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// OpenExamPreview godoc
// POST /api/v1/compose/:session_id/preview
func (h *ComposeHandler) OpenExamPreview(c *gin.Context) {
	var req struct {
		ExamID int64 `json:"exam_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	snap, err := h.compose.OpenExamPreview(c.Param("session_id"), req.ExamID)
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// CloseExamPreview godoc
// DELETE /api/v1/compose/:session_id/preview
func (h *ComposeHandler) CloseExamPreview(c *gin.Context) {
	snap, err := h.compose.CloseExamPreview(c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// ConfirmPicks godoc
// POST /api/v1/compose/:session_id/confirm
// Commits the local pick set into the pool.
func (h *ComposeHandler) ConfirmPicks(c *gin.Context) {
	snap, err := h.compose.ConfirmPicks(c.Param("session_id"))
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// RemovePoolEntry godoc
// DELETE /api/v1/compose/:session_id/pool/:index
func (h *ComposeHandler) RemovePoolEntry(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	snap, err := h.compose.RemovePoolEntry(c.Param("session_id"), index)
	if err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Submit godoc
// POST /api/v1/compose/:session_id/submit
// Finalizes the session into an upstream exam and closes it.
func (h *ComposeHandler) Submit(c *gin.Context) {
	var req model.SubmitExamRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.compose.Submit(c.Request.Context(), middleware.UpstreamToken(c), c.Param("session_id"), req); err != nil {
		failCompose(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"submitted": true})
}

// ─── Error mapping ──────────────────────────────────────────────────

func failCompose(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionExpired)
	case errors.Is(err, service.ErrLectureNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrUnknownAction):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrTitleRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrTitleRequired)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, service.ErrDanglingRef),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidSchedule):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrNoPreviewExam):
		response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
	case errors.Is(err, composer.ErrNoLectureContext):
		response.Fail(c, http.StatusBadRequest, response.ErrNoLecture)
	case errors.Is(err, composer.ErrNotPicking):
		response.Fail(c, http.StatusConflict, response.ErrNotPicking)
	case errors.Is(err, composer.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
	default:
		failUpstream(c, err)
	}
}

func paramIndex(c *gin.Context, name string) (int, bool) {
	index, err := strconv.Atoi(c.Param(name))
	if err != nil || index < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return index, true
}

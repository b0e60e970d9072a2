package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nooreldin2735/exams-console/internal/middleware"
	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/response"
	"github.com/nooreldin2735/exams-console/internal/service"
	"github.com/nooreldin2735/exams-console/internal/upstream"
	"github.com/nooreldin2735/exams-console/internal/validator"
)

// CatalogHandler serves the Year → Term → Subject → Lecture → Question
// hierarchy and exam listings.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListYears godoc
// GET /api/v1/years
func (h *CatalogHandler) ListYears(c *gin.Context) {
	years, err := h.catalog.Years(c.Request.Context(), middleware.UpstreamToken(c))
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"years": years})
}

// ListTerms godoc
// GET /api/v1/terms?year_id=
func (h *CatalogHandler) ListTerms(c *gin.Context) {
	yearID, ok := queryID(c, "year_id")
	if !ok {
		return
	}
	terms, err := h.catalog.Terms(c.Request.Context(), middleware.UpstreamToken(c), yearID)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"terms": terms})
}

// ListSubjects godoc
// GET /api/v1/subjects?term_id=
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	termID, ok := queryID(c, "term_id")
	if !ok {
		return
	}
	subjects, err := h.catalog.Subjects(c.Request.Context(), middleware.UpstreamToken(c), termID)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// ListLectures godoc
// GET /api/v1/lectures?subject_id=
func (h *CatalogHandler) ListLectures(c *gin.Context) {
	subjectID, ok := queryID(c, "subject_id")
	if !ok {
		return
	}
	lectures, err := h.catalog.Lectures(c.Request.Context(), middleware.UpstreamToken(c), subjectID)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lectures": lectures})
}

// ListQuestions godoc
// GET /api/v1/questions?lecture_id=
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	lectureID, ok := queryID(c, "lecture_id")
	if !ok {
		return
	}
	questions, err := h.catalog.Questions(c.Request.Context(), middleware.UpstreamToken(c), lectureID)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListExams godoc
// GET /api/v1/exams
func (h *CatalogHandler) ListExams(c *gin.Context) {
	exams, err := h.catalog.Exams(c.Request.Context(), middleware.UpstreamToken(c))
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// ListExamQuestions godoc
// GET /api/v1/exams/:exam_id/questions
func (h *CatalogHandler) ListExamQuestions(c *gin.Context) {
	examID, ok := paramID(c, "exam_id")
	if !ok {
		return
	}
	questions, err := h.catalog.ExamQuestions(c.Request.Context(), middleware.UpstreamToken(c), examID)
	if err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateYear godoc
// POST /api/v1/years
func (h *CatalogHandler) CreateYear(c *gin.Context) {
	var req model.CreateYearRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.catalog.CreateYear(c.Request.Context(), middleware.UpstreamToken(c), req); err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"created": true})
}

// CreateTerm godoc
// POST /api/v1/terms
func (h *CatalogHandler) CreateTerm(c *gin.Context) {
	var req model.CreateTermRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.catalog.CreateTerm(c.Request.Context(), middleware.UpstreamToken(c), req); err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"created": true})
}

// CreateSubject godoc
// POST /api/v1/subjects
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req model.CreateSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.catalog.CreateSubject(c.Request.Context(), middleware.UpstreamToken(c), req); err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"created": true})
}

// CreateLecture godoc
// POST /api/v1/lectures
func (h *CatalogHandler) CreateLecture(c *gin.Context) {
	var req model.CreateLectureRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.catalog.CreateLecture(c.Request.Context(), middleware.UpstreamToken(c), req); err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"created": true})
}

// CreateQuestion godoc
// POST /api/v1/questions
// Stores a standalone question directly under a lecture.
func (h *CatalogHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.catalog.CreateQuestion(c.Request.Context(), middleware.UpstreamToken(c), req.ToQuestion()); err != nil {
		failUpstream(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"created": true})
}

// ─── Shared helpers ─────────────────────────────────────────────────

// bindJSON binds and validates the body into dst, writing the standard
// validation failure response on error.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failUpstream maps upstream client errors onto the response envelope.
func failUpstream(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upstream.ErrUnauthorized):
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRejected)
	case errors.Is(err, upstream.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, upstream.ErrUnavailable):
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable)
	case errors.Is(err, upstream.ErrBadStatus):
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamRejected)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Package upstream is the REST client for the exams API the console sits
// in front of. It owns the wire quirks: the array-or-{list} envelope,
// legacy question rows, and the two spellings of numeric identity.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/config"
	"github.com/nooreldin2735/exams-console/internal/model"
)

// Domain Errors
var (
	ErrUnavailable  = errors.New("upstream api unreachable")
	ErrUnauthorized = errors.New("upstream rejected the token")
	ErrNotFound     = errors.New("upstream resource not found")
	ErrBadStatus    = errors.New("upstream returned an error status")
)

// Client talks to the upstream exams API. All calls are authenticated with
// the caller's bearer token; the console holds no credentials of its own.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient builds a client against cfg.UpstreamBaseURL.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.UpstreamBaseURL, "/")).
		SetTimeout(cfg.UpstreamTimeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
		log:  log.With().Str("component", "upstream").Logger(),
	}
}

// ─── Catalog reads ──────────────────────────────────────────────────

// Years lists academic years.
func (c *Client) Years(ctx context.Context, token string) ([]model.Year, error) {
	body, err := c.get(ctx, token, "/years", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Year](c.log, body), nil
}

// Terms lists terms under a year.
func (c *Client) Terms(ctx context.Context, token string, yearID int64) ([]model.Term, error) {
	body, err := c.get(ctx, token, "/terms", map[string]string{"year_id": formatID(yearID)})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Term](c.log, body), nil
}

// Subjects lists subjects under a term.
func (c *Client) Subjects(ctx context.Context, token string, termID int64) ([]model.Subject, error) {
	body, err := c.get(ctx, token, "/subjects", map[string]string{"term_id": formatID(termID)})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Subject](c.log, body), nil
}

// Lectures lists lectures under a subject.
func (c *Client) Lectures(ctx context.Context, token string, subjectID int64) ([]model.Lecture, error) {
	body, err := c.get(ctx, token, "/lectures", map[string]string{"subject_id": formatID(subjectID)})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Lecture](c.log, body), nil
}

// Questions lists a lecture's questions, normalized from whatever row
// shape the upstream currently serves.
func (c *Client) Questions(ctx context.Context, token string, lectureID int64) ([]model.Question, error) {
	body, err := c.get(ctx, token, "/questions", map[string]string{"lecture_id": formatID(lectureID)})
	if err != nil {
		return nil, err
	}
	return normalizeRows(decodeList[questionRow](c.log, body)), nil
}

// Exams lists exams visible to the caller.
func (c *Client) Exams(ctx context.Context, token string) ([]model.ExamSummary, error) {
	body, err := c.get(ctx, token, "/exams", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.ExamSummary](c.log, body), nil
}

// ExamQuestions fetches one exam's question list for preview.
func (c *Client) ExamQuestions(ctx context.Context, token string, examID int64) ([]model.Question, error) {
	body, err := c.get(ctx, token, "/exam/show", map[string]string{"exam_id": formatID(examID)})
	if err != nil {
		return nil, err
	}
	return normalizeRows(decodeList[questionRow](c.log, body)), nil
}

// ─── Catalog writes ─────────────────────────────────────────────────

// CreateYear creates an academic year.
func (c *Client) CreateYear(ctx context.Context, token string, req model.CreateYearRequest) error {
	return c.post(ctx, token, "/years/create", req)
}

// CreateTerm creates a term under a year.
func (c *Client) CreateTerm(ctx context.Context, token string, req model.CreateTermRequest) error {
	return c.post(ctx, token, "/terms/create", req)
}

// CreateSubject creates a subject under a term.
func (c *Client) CreateSubject(ctx context.Context, token string, req model.CreateSubjectRequest) error {
	return c.post(ctx, token, "/subjects/create", req)
}

// CreateLecture creates a lecture under a subject.
func (c *Client) CreateLecture(ctx context.Context, token string, req model.CreateLectureRequest) error {
	return c.post(ctx, token, "/lectures/create", req)
}

// CreateQuestion stores a standalone question under a lecture.
func (c *Client) CreateQuestion(ctx context.Context, token string, q model.Question) error {
	return c.post(ctx, token, "/questions/create", q.Payload())
}

// CreateExam submits a finished exam composition.
func (c *Client) CreateExam(ctx context.Context, token string, payload model.CreateExamPayload) error {
	return c.post(ctx, token, "/exams/create", payload)
}

// ─── Transport ──────────────────────────────────────────────────────

func (c *Client) get(ctx context.Context, token, path string, query map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx).SetQueryParams(query)
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, path, err)
	}
	if err := statusError(resp); err != nil {
		c.log.Warn().Str("path", path).Int("status", resp.StatusCode()).Msg("Upstream GET failed")
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) post(ctx context.Context, token, path string, body any) error {
	req := c.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body)
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrUnavailable, path, err)
	}
	if err := statusError(resp); err != nil {
		c.log.Warn().Str("path", path).Int("status", resp.StatusCode()).Msg("Upstream POST failed")
		return err
	}
	return nil
}

func statusError(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code < 400:
		return nil
	case code == 401 || code == 403:
		return ErrUnauthorized
	case code == 404:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %d", ErrBadStatus, code)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ─── Envelope and row normalization ─────────────────────────────────

// decodeList accepts the list shapes the upstream has served over time:
// a bare JSON array, an object with a "list" array, and an empty or null
// body. Anything else is logged and treated as an empty collection; a
// malformed body degrades a listing, it never fails one.
func decodeList[T any](log zerolog.Logger, body []byte) []T {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}
	}

	raw := trimmed
	if raw[0] != '[' {
		var envelope struct {
			List json.RawMessage `json:"list"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Warn().Err(err).Msg("Unrecognized upstream envelope; treating as empty")
			return []T{}
		}
		if len(envelope.List) == 0 || bytes.Equal(envelope.List, []byte("null")) {
			return []T{}
		}
		raw = envelope.List
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Msg("Unrecognized upstream list; treating as empty")
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// questionRow is the union of the current and legacy question row shapes.
// Legacy rows carry text in text_url, the answer in ans, a string question
// type from a three-value scheme, and 1-indexed ease.
type questionRow struct {
	LegacyID     *int64             `json:"ID"`
	RowID        *int64             `json:"id"`
	Question     string             `json:"question"`
	TextURL      string             `json:"text_url"`
	QuestionType *int               `json:"questionType"`
	LegacyType   *string            `json:"type"`
	Answers      string             `json:"answers"`
	Ans          string             `json:"ans"`
	Choices      []string           `json:"choices"`
	Ease         *int               `json:"ease"`
	LectureID    *int64             `json:"lecture_id"`
	Attachments  []model.Attachment `json:"attachments"`
	SectionName  string             `json:"sectionName"`
	Degree       *int               `json:"degree"`
}

// legacyTypeMap translates the legacy three-value question type scheme
// (0 MCQ, 1 written, 2 complex) onto the current ordinals.
var legacyTypeMap = map[string]int{
	"0": model.QuestionTypeMCQSingle,
	"1": model.QuestionTypeWritten,
	"2": model.QuestionTypeComplex,
}

func normalizeRows(rows []questionRow) []model.Question {
	out := make([]model.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out
}

func (r questionRow) normalize() model.Question {
	q := model.Question{
		LegacyID:    r.LegacyID,
		RowID:       r.RowID,
		Question:    r.Question,
		Answers:     r.Answers,
		Choices:     r.Choices,
		Ease:        r.Ease,
		LectureID:   r.LectureID,
		Attachments: r.Attachments,
		SectionName: r.SectionName,
		Degree:      r.Degree,
	}

	legacy := false
	if q.Question == "" && r.TextURL != "" {
		q.Question = r.TextURL
		legacy = true
	}
	if q.Answers == "" && r.Ans != "" {
		q.Answers = r.Ans
		legacy = true
	}

	switch {
	case r.QuestionType != nil:
		q.QuestionType = *r.QuestionType
	case r.LegacyType != nil:
		legacy = true
		if mapped, ok := legacyTypeMap[*r.LegacyType]; ok {
			q.QuestionType = mapped
		}
	}

	// Legacy rows report ease 1-based.
	if legacy && r.Ease != nil {
		normalized := model.NormalizeLegacyEase(*r.Ease)
		q.Ease = &normalized
	}
	return q
}

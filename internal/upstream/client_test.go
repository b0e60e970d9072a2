package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/config"
	"github.com/nooreldin2735/exams-console/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		UpstreamBaseURL: srv.URL,
		UpstreamTimeout: 2 * time.Second,
	}
	return NewClient(cfg, zerolog.Nop()), srv
}

func TestYearsBareArray(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/years" {
			t.Errorf("path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("auth header %q", got)
		}
		w.Write([]byte(`[{"ID":1,"Name":"2026"},{"ID":2,"Name":"2027"}]`))
	}))

	years, err := c.Years(context.Background(), "tok-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0].Name != "2026" {
		t.Fatalf("years %+v", years)
	}
}

func TestTermsListEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("year_id"); got != "7" {
			t.Errorf("year_id %q", got)
		}
		w.Write([]byte(`{"list":[{"ID":3,"Name":"Fall","Year_id":7}]}`))
	}))

	terms, err := c.Terms(context.Background(), "tok", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 1 || terms[0].YearID != 7 {
		t.Fatalf("terms %+v", terms)
	}
}

func TestEmptyBodyMeansEmptyList(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	subjects, err := c.Subjects(context.Background(), "tok", 1)
	if err != nil {
		t.Fatal(err)
	}
	if subjects == nil || len(subjects) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", subjects)
	}
}

func TestQuestionsNormalizesLegacyRows(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lecture_id"); got != "5" {
			t.Errorf("lecture_id %q", got)
		}
		w.Write([]byte(`[{"ID":11,"text_url":"Define $0","type":"1","ans":"velocity","ease":2,"lecture_id":5}]`))
	}))

	questions, err := c.Questions(context.Background(), "tok", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 {
		t.Fatalf("len %d", len(questions))
	}
	q := questions[0]
	if id, ok := q.Identity(); !ok || id != 11 {
		t.Fatalf("identity %v %v", id, ok)
	}
	if q.Question != "Define $0" || q.Answers != "velocity" {
		t.Fatalf("content %+v", q)
	}
	if q.QuestionType != model.QuestionTypeWritten {
		t.Fatalf("legacy type 1 must map to written, got %d", q.QuestionType)
	}
	if q.Ease == nil || *q.Ease != model.EaseMedium {
		t.Fatalf("legacy ease 2 must map to medium, got %v", q.Ease)
	}
}

func TestQuestionsPassesModernRowsThrough(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":4,"question":"Pick one","questionType":0,"answers":"B","choices":["A","B"],"ease":0}]`))
	}))

	questions, err := c.Questions(context.Background(), "tok", 1)
	if err != nil {
		t.Fatal(err)
	}
	q := questions[0]
	if q.QuestionType != model.QuestionTypeMCQSingle || len(q.Choices) != 2 {
		t.Fatalf("modern row mangled: %+v", q)
	}
	if q.Ease == nil || *q.Ease != model.EaseEasy {
		t.Fatalf("modern ease must not be shifted, got %v", q.Ease)
	}
}

func TestExamQuestionsEndpoint(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exam/show" || r.URL.Query().Get("exam_id") != "42" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Write([]byte(`{"list":[{"id":9,"question":"q","questionType":2,"answers":"a"}]}`))
	}))

	questions, err := c.ExamQuestions(context.Background(), "tok", 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 {
		t.Fatalf("len %d", len(questions))
	}
}

func TestUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Years(context.Background(), "expired")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.ExamQuestions(context.Background(), "tok", 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateExamPostsMixedQuestions(t *testing.T) {
	var captured struct {
		Title     string            `json:"title"`
		SubjectID int64             `json:"subject_id"`
		Questions []json.RawMessage `json:"questions"`
	}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/exams/create" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	payload := model.CreateExamPayload{
		Title:     "Midterm",
		SubjectID: 3,
		Questions: []any{int64(10), model.QuestionPayload{Question: "new", Answers: "x", Degree: 1}},
	}
	if err := c.CreateExam(context.Background(), "tok", payload); err != nil {
		t.Fatal(err)
	}
	if captured.Title != "Midterm" || captured.SubjectID != 3 {
		t.Fatalf("captured %+v", captured)
	}
	if string(captured.Questions[0]) != "10" {
		t.Fatalf("reference entry wire form %s", captured.Questions[0])
	}
}

func TestMalformedBodyMeansEmptyList(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lectures":
			w.Write([]byte(`"scheduled maintenance"`))
		case "/subjects":
			w.Write([]byte(`{"list":"not an array"}`))
		default:
			w.Write([]byte(`42`))
		}
	}))

	lectures, err := c.Lectures(context.Background(), "tok", 1)
	if err != nil {
		t.Fatal(err)
	}
	if lectures == nil || len(lectures) != 0 {
		t.Fatalf("scalar body must decode as empty, got %#v", lectures)
	}

	subjects, err := c.Subjects(context.Background(), "tok", 1)
	if err != nil {
		t.Fatal(err)
	}
	if subjects == nil || len(subjects) != 0 {
		t.Fatalf("non-array list field must decode as empty, got %#v", subjects)
	}

	years, err := c.Years(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if years == nil || len(years) != 0 {
		t.Fatalf("numeric body must decode as empty, got %#v", years)
	}
}

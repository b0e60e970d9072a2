package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/composer"
	"github.com/nooreldin2735/exams-console/internal/editor"
	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/textref"
	"github.com/nooreldin2735/exams-console/internal/upstream"
)

// Domain Errors
var (
	ErrSessionNotFound = errors.New("composition session not found")
	ErrUnknownAction   = errors.New("unknown wizard action")
	ErrLectureNotFound = errors.New("lecture not found under this subject")
	ErrTitleRequired   = errors.New("exam title is required")
	ErrNoQuestions     = errors.New("exam has no questions")
	ErrNoPreviewExam   = errors.New("no exam is open in the preview")
	ErrDanglingRef     = errors.New("question text references a missing attachment")
	ErrInvalidDuration = errors.New("exam duration must be positive")
	ErrInvalidSchedule = errors.New("exam end must come after its start")
)

// Close reasons reported on the session event stream.
const (
	CloseReasonSubmitted = "submitted"
	CloseReasonExpired   = "expired"
	CloseReasonClosed    = "closed"
)

// Snapshot is the externally visible state of one composition session.
type Snapshot struct {
	SessionID     string           `json:"session_id"`
	SubjectID     int64            `json:"subject_id"`
	Breadcrumb    model.Breadcrumb `json:"breadcrumb"`
	State         composer.State   `json:"state"`
	LectureID     *int64           `json:"lecture_id"`
	PreviewExamID *int64           `json:"preview_exam_id"`
	PoolSize      int              `json:"pool_size"`
	PickedCount   int              `json:"picked_count"`
	Pool          []model.Question `json:"pool,omitempty"`
	// CloseReason is set only on the final frame a watcher receives
	// before its channel closes: submitted, expired, or closed.
	CloseReason string `json:"close_reason,omitempty"`
}

// PickableQuestion pairs a browsable question with its selection state so
// clients can render checkmarks without re-deriving identity.
type PickableQuestion struct {
	model.Question
	Selected bool `json:"selected"`
}

// session is one live composition session. All access goes through its
// mutex; the workflow itself is not safe for concurrent use.
type session struct {
	id         string
	subjectID  int64
	breadcrumb model.Breadcrumb
	mu         sync.Mutex
	workflow   *composer.Workflow
	lastActive time.Time
	watchers   map[int]chan Snapshot
	nextWatch  int
}

// ComposeService hosts composition sessions: one wizard per session,
// swept after idling past the TTL. Catalog reads inside a session go
// through the shared cached catalog.
type ComposeService struct {
	catalog *CatalogService
	api     *upstream.Client
	ttl     time.Duration

	mu       sync.RWMutex
	sessions map[string]*session

	log zerolog.Logger
}

// NewComposeService creates a new ComposeService.
func NewComposeService(catalog *CatalogService, api *upstream.Client, ttl time.Duration, log zerolog.Logger) *ComposeService {
	return &ComposeService{
		catalog:  catalog,
		api:      api,
		ttl:      ttl,
		sessions: make(map[string]*session),
		log:      log.With().Str("component", "compose_service").Logger(),
	}
}

// ─── Session lifecycle ──────────────────────────────────────────────

// Open starts a composition session for one subject and returns its
// initial snapshot. The breadcrumb is display context only.
func (s *ComposeService) Open(subjectID int64, crumb model.Breadcrumb) Snapshot {
	sess := &session{
		id:         uuid.New().String(),
		subjectID:  subjectID,
		breadcrumb: crumb,
		workflow:   composer.NewWorkflow(nil, s.log),
		lastActive: time.Now(),
		watchers:   make(map[int]chan Snapshot),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.Info().Str("session_id", sess.id).Int64("subject_id", subjectID).Msg("Composition session opened")
	return sess.snapshot(false)
}

// Snapshot returns the current state of a session, including the pool.
func (s *ComposeService) Snapshot(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(true), nil
}

// Close discards a session. Unconfirmed picks and the whole pool go with
// it; only Submit persists anything.
func (s *ComposeService) Close(id string) error {
	return s.closeWith(id, CloseReasonClosed)
}

// Watch subscribes to a session's state changes. The returned cancel
// function must be called when the subscriber goes away.
func (s *ComposeService) Watch(id string) (<-chan Snapshot, func(), error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	ch := make(chan Snapshot, 8)
	key := sess.nextWatch
	sess.nextWatch++
	sess.watchers[key] = ch
	sess.mu.Unlock()

	cancel := func() {
		sess.mu.Lock()
		if _, ok := sess.watchers[key]; ok {
			delete(sess.watchers, key)
			close(ch)
		}
		sess.mu.Unlock()
	}
	return ch, cancel, nil
}

// SweepExpired drops sessions idle past the TTL. Returns how many went.
func (s *ComposeService) SweepExpired() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.mu.Lock()
		sess.closeWatchers(CloseReasonExpired)
		sess.mu.Unlock()
		s.log.Info().Str("session_id", sess.id).Msg("Composition session expired")
	}
	return len(expired)
}

// ─── Wizard navigation ──────────────────────────────────────────────

// SelectLecture resolves lectureID against the session's subject and sets
// it as the wizard's lecture context.
func (s *ComposeService) SelectLecture(ctx context.Context, token, id string, lectureID int64) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	lectures, err := s.catalog.Lectures(ctx, token, sess.subjectID)
	if err != nil {
		return Snapshot{}, err
	}
	var picked *model.Lecture
	for i := range lectures {
		if lectures[i].ID == lectureID {
			picked = &lectures[i]
			break
		}
	}
	if picked == nil {
		return Snapshot{}, ErrLectureNotFound
	}

	return sess.apply(func(w *composer.Workflow) error {
		return w.SelectLecture(*picked)
	})
}

// SkipLecture advances without a lecture context.
func (s *ComposeService) SkipLecture(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error { return w.SkipLecture() })
}

// ChooseAction branches the wizard into one of its three sub-flows.
func (s *ComposeService) ChooseAction(id, action string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error {
		switch composer.State(action) {
		case composer.StateCreateNew:
			return w.ChooseCreateNew()
		case composer.StatePickFromLecture:
			return w.ChoosePickFromLecture()
		case composer.StatePickFromExam:
			return w.ChoosePickFromExam()
		default:
			return ErrUnknownAction
		}
	})
}

// Back steps the wizard one level toward the start.
func (s *ComposeService) Back(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error { return w.Back() })
}

// ─── Authoring and picking ──────────────────────────────────────────

// AuthorQuestion submits a freshly authored question into the session's
// pool. Attachment references in the text must resolve against the
// attached list. The stored text is re-derived from the editing surface,
// so whatever spelling the client sent, the pool holds the canonical one.
func (s *ComposeService) AuthorQuestion(id string, req model.CreateQuestionRequest) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := checkAttachmentRefs(req.Question, len(req.Attachments)); err != nil {
		return Snapshot{}, err
	}
	req.Question = editor.Load(req.Question, req.Attachments, s.log).Text()
	return sess.apply(func(w *composer.Workflow) error {
		return w.SubmitAuthored(req.ToQuestion())
	})
}

// ListPickable returns the questions browsable in the current picking
// sub-session, each annotated with its selection state.
func (s *ComposeService) ListPickable(ctx context.Context, token, id string) ([]PickableQuestion, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	state := sess.workflow.State()
	lecture := sess.workflow.Lecture()
	preview := sess.workflow.PreviewExamID()
	sess.mu.Unlock()

	var source []model.Question
	switch state {
	case composer.StatePickFromLecture:
		if lecture == nil {
			return nil, composer.ErrNoLectureContext
		}
		source, err = s.catalog.Questions(ctx, token, lecture.ID)
	case composer.StatePickFromExam:
		if preview == nil {
			return nil, ErrNoPreviewExam
		}
		source, err = s.catalog.ExamQuestions(ctx, token, *preview)
	default:
		return nil, composer.ErrNotPicking
	}
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]PickableQuestion, 0, len(source))
	for _, q := range source {
		out = append(out, PickableQuestion{Question: q, Selected: sess.workflow.IsSelected(q)})
	}
	return out, nil
}

// ToggleQuestion flips one question in or out of the local pick set.
func (s *ComposeService) ToggleQuestion(id string, q model.Question) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error { return w.Toggle(q) })
}

// BulkToggle applies select-all / deselect-all over the current picking
// source list.
func (s *ComposeService) BulkToggle(ctx context.Context, token, id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	pickable, err := s.ListPickable(ctx, token, id)
	if err != nil {
		return Snapshot{}, err
	}
	list := make([]model.Question, 0, len(pickable))
	for _, p := range pickable {
		list = append(list, p.Question)
	}

	return sess.apply(func(w *composer.Workflow) error { return w.BulkToggle(list) })
}

// OpenExamPreview opens one exam inside the exam browser.
func (s *ComposeService) OpenExamPreview(id string, examID int64) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error { return w.OpenExamPreview(examID) })
}

// CloseExamPreview leaves the nested exam preview.
func (s *ComposeService) CloseExamPreview(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error {
		w.CloseExamPreview()
		return nil
	})
}

// ConfirmPicks commits the local pick set into the pool as a batch.
func (s *ComposeService) ConfirmPicks(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error {
		_, err := w.ConfirmPicks()
		return err
	})
}

// RemovePoolEntry drops one committed question from the pool.
func (s *ComposeService) RemovePoolEntry(id string, index int) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.apply(func(w *composer.Workflow) error { return w.RemoveFromPool(index) })
}

// ─── Submission ─────────────────────────────────────────────────────

// Submit finalizes the session into an exam-creation request upstream and
// closes the session on success.
func (s *ComposeService) Submit(ctx context.Context, token, id string, req model.SubmitExamRequest) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	pool := sess.workflow.Pool()
	subjectID := sess.subjectID
	sess.mu.Unlock()

	if strings.TrimSpace(req.Title) == "" {
		return ErrTitleRequired
	}
	if len(pool) == 0 {
		return ErrNoQuestions
	}
	if req.Settings.DurationMin <= 0 {
		return ErrInvalidDuration
	}
	if req.Settings.StartAt != "" && req.Settings.EndAt != "" && req.Settings.EndAt <= req.Settings.StartAt {
		return ErrInvalidSchedule
	}

	payload := composer.BuildPayload(req.Title, subjectID, req.Settings, pool, s.log)
	if len(payload.Questions) == 0 {
		// Every pool entry was an integrity violation.
		return ErrNoQuestions
	}

	if err := s.api.CreateExam(ctx, token, payload); err != nil {
		return err
	}

	s.catalog.InvalidateExams(ctx)
	s.log.Info().
		Str("session_id", id).
		Int("questions", len(payload.Questions)).
		Msg("Exam submitted upstream")

	return s.closeWith(id, CloseReasonSubmitted)
}

// ─── Internals ──────────────────────────────────────────────────────

func (s *ComposeService) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *ComposeService) closeWith(id, reason string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	sess.workflow.Close()
	sess.closeWatchers(reason)
	sess.mu.Unlock()

	s.log.Info().Str("session_id", id).Str("reason", reason).Msg("Composition session closed")
	return nil
}

// apply runs a mutation under the session lock, refreshes the activity
// clock, and fans the new snapshot out to watchers.
func (sess *session) apply(fn func(*composer.Workflow) error) (Snapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess.workflow); err != nil {
		return Snapshot{}, err
	}
	sess.lastActive = time.Now()

	snap := sess.snapshot(false)
	for _, ch := range sess.watchers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; it will catch up on the next change.
		}
	}
	return snap, nil
}

// snapshot must be called with the session lock held (or before the
// session is shared).
func (sess *session) snapshot(withPool bool) Snapshot {
	w := sess.workflow
	snap := Snapshot{
		SessionID:     sess.id,
		SubjectID:     sess.subjectID,
		Breadcrumb:    sess.breadcrumb,
		State:         w.State(),
		PreviewExamID: w.PreviewExamID(),
		PoolSize:      w.PoolSize(),
		PickedCount:   w.PickedCount(),
	}
	if l := w.Lecture(); l != nil {
		id := l.ID
		snap.LectureID = &id
	}
	if withPool {
		snap.Pool = w.Pool()
	}
	return snap
}

// closeWatchers must be called with the session lock held. Each watcher
// gets a final frame carrying the close reason, then its channel closes.
func (sess *session) closeWatchers(reason string) {
	final := sess.snapshot(false)
	final.CloseReason = reason
	for key, ch := range sess.watchers {
		delete(sess.watchers, key)
		select {
		case ch <- final:
		default:
		}
		close(ch)
	}
}

// checkAttachmentRefs rejects question text whose $N references point past
// the attachment list. Decoding with an unbounded count reveals every
// syntactic reference; any with an index beyond the real list is dangling.
func checkAttachmentRefs(text string, attachmentCount int) error {
	const unbounded = int(^uint(0) >> 1)
	for _, part := range textref.Decode(text, unbounded) {
		if part.Kind == textref.KindChip && part.Index >= attachmentCount {
			return ErrDanglingRef
		}
	}
	return nil
}

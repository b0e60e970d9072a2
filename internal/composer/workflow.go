// Package composer implements the add-question wizard for one exam
// composition session: lecture selection, action choice, fresh authoring,
// and importing existing questions from lectures or other exams.
package composer

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/selection"
)

// State names one step of the wizard.
type State string

const (
	StatePickLecture     State = "pick_lecture"
	StateChooseAction    State = "choose_action"
	StateCreateNew       State = "create_new"
	StatePickFromLecture State = "pick_from_lecture"
	StatePickFromExam    State = "pick_from_exam"
)

// Domain Errors
var (
	ErrInvalidTransition = errors.New("action not allowed in the current step")
	ErrNoLectureContext  = errors.New("picking from a lecture requires a selected lecture")
	ErrNotPicking        = errors.New("no picking sub-session is active")
)

// Workflow drives one composition session's wizard. It owns the output
// question pool and the local selection set; the caller owns nothing but
// the session lifetime.
type Workflow struct {
	state   State
	lecture *model.Lecture // nil = general subject pool
	// previewExamID is the exam open in the orthogonal preview sub-view
	// while picking from exams; it never changes the primary state.
	previewExamID *int64
	picks         *selection.Set
	pool          []model.Question
	log           zerolog.Logger
}

// NewWorkflow starts a wizard in its initial state. existing seeds both
// the output pool and the permanent side of the selection set.
func NewWorkflow(existing []model.Question, log zerolog.Logger) *Workflow {
	w := &Workflow{
		state: StatePickLecture,
		pool:  append([]model.Question(nil), existing...),
		log:   log.With().Str("component", "composer").Logger(),
	}
	w.picks = selection.New(w.pool, log)
	return w
}

// State returns the wizard's current step.
func (w *Workflow) State() State { return w.state }

// Lecture returns the selected lecture context, nil for the general pool.
func (w *Workflow) Lecture() *model.Lecture { return w.lecture }

// PreviewExamID returns the exam open in the preview sub-view, if any.
func (w *Workflow) PreviewExamID() *int64 { return w.previewExamID }

// Pool returns the output question pool in order.
func (w *Workflow) Pool() []model.Question {
	return append([]model.Question(nil), w.pool...)
}

// PoolSize returns the number of questions committed to the exam so far.
func (w *Workflow) PoolSize() int { return len(w.pool) }

// PickedCount returns the running "N questions picked" count of the
// current picking sub-session.
func (w *Workflow) PickedCount() int { return w.picks.Len() }

// SelectLecture sets the lecture context and moves to the action choice.
func (w *Workflow) SelectLecture(l model.Lecture) error {
	if w.state != StatePickLecture {
		return ErrInvalidTransition
	}
	w.lecture = &l
	w.state = StateChooseAction
	return nil
}

// SkipLecture moves to the action choice with no lecture context, i.e. the
// subject-level general pool.
func (w *Workflow) SkipLecture() error {
	if w.state != StatePickLecture {
		return ErrInvalidTransition
	}
	w.lecture = nil
	w.state = StateChooseAction
	return nil
}

// ChooseCreateNew opens the fresh-authoring form.
func (w *Workflow) ChooseCreateNew() error {
	if w.state != StateChooseAction {
		return ErrInvalidTransition
	}
	w.state = StateCreateNew
	return nil
}

// ChoosePickFromLecture opens the lecture question browser. Requires a
// lecture context; the affordance is disabled without one.
func (w *Workflow) ChoosePickFromLecture() error {
	if w.state != StateChooseAction {
		return ErrInvalidTransition
	}
	if w.lecture == nil {
		return ErrNoLectureContext
	}
	w.state = StatePickFromLecture
	return nil
}

// ChoosePickFromExam opens the exam browser. Available regardless of
// lecture context — it spans all exams under the current subject.
func (w *Workflow) ChoosePickFromExam() error {
	if w.state != StateChooseAction {
		return ErrInvalidTransition
	}
	w.state = StatePickFromExam
	return nil
}

// SubmitAuthored appends a freshly authored question to the pool and
// resets the wizard to its initial state (the modal closes after a fresh
// submit). The question is explicitly tagged not-existing and stripped of
// any identity a confused client may have attached.
func (w *Workflow) SubmitAuthored(q model.Question) error {
	if w.state != StateCreateNew {
		return ErrInvalidTransition
	}
	q.IsExisting = false
	q.LegacyID = nil
	q.RowID = nil
	if q.LectureID == nil && w.lecture != nil {
		id := w.lecture.ID
		q.LectureID = &id
	}
	w.pool = append(w.pool, q)
	w.reset()
	return nil
}

// Toggle flips one question's membership in the local selection set.
// Valid only inside a picking sub-session.
func (w *Workflow) Toggle(q model.Question) error {
	if !w.picking() {
		return ErrNotPicking
	}
	if w.picks.IsSelected(q) {
		// Permanent entries are not toggleable; guard here at the call
		// site so the set itself never has to distinguish.
		if id, ok := q.Identity(); ok && w.committed(id) {
			w.log.Debug().Int64("question_id", id).Msg("Toggle refused: question already committed to the pool")
			return nil
		}
	}
	w.picks.Toggle(q)
	return nil
}

// IsSelected reports whether q is picked locally or already in the pool.
func (w *Workflow) IsSelected(q model.Question) bool {
	return w.picks.IsSelected(q)
}

// BulkToggle applies select-all / deselect-all over a source list.
func (w *Workflow) BulkToggle(list []model.Question) error {
	if !w.picking() {
		return ErrNotPicking
	}
	w.picks.BulkToggle(list)
	return nil
}

// OpenExamPreview opens one exam's question list as a nested view inside
// the exam browser. Orthogonal to the primary state.
func (w *Workflow) OpenExamPreview(examID int64) error {
	if w.state != StatePickFromExam {
		return ErrInvalidTransition
	}
	w.previewExamID = &examID
	return nil
}

// CloseExamPreview leaves the nested preview.
func (w *Workflow) CloseExamPreview() {
	w.previewExamID = nil
}

// ConfirmPicks merges the local selection into the pool as a batch and
// returns to the action choice, so the user can keep importing. The
// returned slice is the confirmed batch.
func (w *Workflow) ConfirmPicks() ([]model.Question, error) {
	if !w.picking() {
		return nil, ErrNotPicking
	}
	batch := w.picks.Confirm()
	w.pool = append(w.pool, batch...)
	w.picks.MergePermanent(batch)
	w.previewExamID = nil
	w.state = StateChooseAction
	return batch, nil
}

// Back steps the wizard one level toward the lecture choice, mirroring the
// modal's back arrow. Unconfirmed picks survive a back step; only Close
// discards them.
func (w *Workflow) Back() error {
	switch w.state {
	case StateChooseAction:
		w.lecture = nil
		w.state = StatePickLecture
	case StateCreateNew, StatePickFromLecture, StatePickFromExam:
		w.previewExamID = nil
		if w.lecture != nil {
			w.state = StateChooseAction
		} else {
			w.state = StatePickLecture
		}
	default:
		return ErrInvalidTransition
	}
	return nil
}

// Close abandons the wizard: unconfirmed picks are discarded and the state
// returns to the beginning. The committed pool is untouched.
func (w *Workflow) Close() {
	w.picks.Clear()
	w.reset()
}

// RemoveFromPool drops the pool entry at index (the host page's remove
// button). Call only while no picking sub-session is active.
func (w *Workflow) RemoveFromPool(index int) error {
	if index < 0 || index >= len(w.pool) {
		return errors.New("pool index out of range")
	}
	w.pool = append(w.pool[:index], w.pool[index+1:]...)
	// Rebuild the selection set so the removed question becomes pickable
	// again in later sub-sessions.
	w.picks = selection.New(w.pool, w.log)
	return nil
}

func (w *Workflow) reset() {
	w.state = StatePickLecture
	w.lecture = nil
	w.previewExamID = nil
}

func (w *Workflow) picking() bool {
	return w.state == StatePickFromLecture || w.state == StatePickFromExam
}

func (w *Workflow) committed(id int64) bool {
	for i := range w.pool {
		if poolID, ok := w.pool[i].Identity(); ok && poolID == id {
			return true
		}
	}
	return false
}

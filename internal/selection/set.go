// Package selection tracks the questions picked during one browse-and-pick
// sub-session of exam composition. A Set answers membership against both
// its own local picks and the caller-owned permanent pool, but local
// operations never touch the permanent side.
package selection

import (
	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/model"
)

// Set is the modal-local selection set for a single picking session.
type Set struct {
	permanent map[int64]struct{}
	local     map[int64]model.Question
	order     []int64 // insertion order of local picks, for stable snapshots
	log       zerolog.Logger
}

// New creates a Set whose permanent side is seeded from the questions
// already committed to the exam being built. Questions without resolvable
// identity cannot be part of the permanent set and are skipped.
func New(permanent []model.Question, log zerolog.Logger) *Set {
	s := &Set{
		permanent: make(map[int64]struct{}),
		local:     make(map[int64]model.Question),
		log:       log.With().Str("component", "selection_set").Logger(),
	}
	s.MergePermanent(permanent)
	return s
}

// MergePermanent records additional questions as committed. Called by the
// set's owner after it merges a confirmed snapshot into its pool; local
// operations never invoke this.
func (s *Set) MergePermanent(list []model.Question) {
	for i := range list {
		if id, ok := list[i].Identity(); ok {
			s.permanent[id] = struct{}{}
		}
	}
}

// Toggle adds the question to the local set (tagged existing) or removes it
// if already picked. A question without resolvable identity cannot be
// selected; the call logs and does nothing.
func (s *Set) Toggle(q model.Question) {
	id, ok := q.Identity()
	if !ok {
		s.log.Warn().Str("question", q.Question).Msg("Toggle ignored: question has no resolvable identity")
		return
	}
	if _, picked := s.local[id]; picked {
		delete(s.local, id)
		s.dropFromOrder(id)
		return
	}
	q.IsExisting = true
	s.local[id] = q
	s.order = append(s.order, id)
}

// IsSelected reports membership in the local set or the permanent pool.
// Permanent membership always counts as selected.
func (s *Set) IsSelected(q model.Question) bool {
	id, ok := q.Identity()
	if !ok {
		return false
	}
	if _, picked := s.local[id]; picked {
		return true
	}
	_, committed := s.permanent[id]
	return committed
}

// BulkAdd unions list into the local set, skipping anything already picked
// locally, already committed permanently, or lacking identity. Duplicate
// identities inside list collapse to one entry.
func (s *Set) BulkAdd(list []model.Question) {
	for _, q := range list {
		id, ok := q.Identity()
		if !ok {
			s.log.Warn().Str("question", q.Question).Msg("BulkAdd skipped identity-less question")
			continue
		}
		if _, picked := s.local[id]; picked {
			continue
		}
		if _, committed := s.permanent[id]; committed {
			continue
		}
		q.IsExisting = true
		s.local[id] = q
		s.order = append(s.order, id)
	}
}

// BulkToggle is the select-all / deselect-all affordance over a source
// list. When every identifiable entry is already selected it removes the
// local ones (permanent entries stay, they are not removable from here);
// otherwise it behaves as BulkAdd. The "all selected" predicate is
// evaluated fresh on every call.
func (s *Set) BulkToggle(list []model.Question) {
	all := false
	for _, q := range list {
		if _, ok := q.Identity(); !ok {
			continue
		}
		if !s.IsSelected(q) {
			all = false
			break
		}
		all = true
	}

	if !all {
		s.BulkAdd(list)
		return
	}
	for _, q := range list {
		id, ok := q.Identity()
		if !ok {
			continue
		}
		if _, picked := s.local[id]; picked {
			delete(s.local, id)
			s.dropFromOrder(id)
		}
	}
}

// Clear empties the local set. The permanent pool is untouched.
func (s *Set) Clear() {
	s.local = make(map[int64]model.Question)
	s.order = nil
}

// Confirm returns a snapshot of the local picks in insertion order and
// clears the local set. Merging the snapshot into the permanent pool is
// the caller's job.
func (s *Set) Confirm() []model.Question {
	snapshot := make([]model.Question, 0, len(s.local))
	for _, id := range s.order {
		if q, ok := s.local[id]; ok {
			snapshot = append(snapshot, q)
		}
	}
	s.Clear()
	return snapshot
}

// Len returns the number of local (not yet confirmed) picks.
func (s *Set) Len() int { return len(s.local) }

func (s *Set) dropFromOrder(id int64) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

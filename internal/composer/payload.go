package composer

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/model"
)

// BuildPayload shapes the final exam-creation request from a finished
// pool. Questions imported by reference are submitted as bare numeric ids;
// freshly authored ones go up as full objects with degree defaulted to 1.
//
// A question flagged existing but lacking identity is a data-integrity
// violation: submitting it as a full object would silently duplicate its
// content server-side. Policy here is to refuse — the entry is logged and
// excluded from the payload.
func BuildPayload(title string, subjectID int64, settings model.ExamSettings, pool []model.Question, log zerolog.Logger) model.CreateExamPayload {
	questions := make([]any, 0, len(pool))
	for i := range pool {
		q := pool[i]
		id, ok := q.Identity()
		if q.IsExisting {
			if !ok {
				log.Error().
					Int("pool_index", i).
					Str("question", q.Question).
					Msg("Question flagged existing without resolvable identity; excluded from payload")
				continue
			}
			questions = append(questions, id)
			continue
		}
		questions = append(questions, q.Payload())
	}

	return model.CreateExamPayload{
		Title:     strings.TrimSpace(title),
		SubjectID: subjectID,
		Questions: questions,
		Settings:  normalizeSettings(settings),
	}
}

// normalizeSettings pads datetime-local values (16 chars, minute
// precision) with seconds so the upstream parser accepts them.
func normalizeSettings(s model.ExamSettings) model.ExamSettings {
	s.StartAt = padSeconds(s.StartAt)
	s.EndAt = padSeconds(s.EndAt)
	return s
}

func padSeconds(ts string) string {
	if len(ts) == 16 {
		return ts + ":00"
	}
	return ts
}

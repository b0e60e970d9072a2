package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/config"
	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/upstream"
)

// CatalogService serves the Year → Term → Subject → Lecture → Question
// hierarchy plus exam listings, with a Redis read-through cache in front
// of the upstream API. The cache is keyed by resource, not by caller: the
// catalog is the same for everyone the upstream lets in.
//
// A nil Redis client disables caching; every read then goes upstream.
type CatalogService struct {
	api *upstream.Client
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(api *upstream.Client, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		api: api,
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "catalog_service").Logger(),
	}
}

// ─── Reads ──────────────────────────────────────────────────────────

// Years lists academic years.
func (s *CatalogService) Years(ctx context.Context, token string) ([]model.Year, error) {
	return cachedList(ctx, s, config.CacheKey.YearsKey(), func() ([]model.Year, error) {
		return s.api.Years(ctx, token)
	})
}

// Terms lists terms under a year.
func (s *CatalogService) Terms(ctx context.Context, token string, yearID int64) ([]model.Term, error) {
	return cachedList(ctx, s, config.CacheKey.TermsKey(yearID), func() ([]model.Term, error) {
		return s.api.Terms(ctx, token, yearID)
	})
}

// Subjects lists subjects under a term.
func (s *CatalogService) Subjects(ctx context.Context, token string, termID int64) ([]model.Subject, error) {
	return cachedList(ctx, s, config.CacheKey.SubjectsKey(termID), func() ([]model.Subject, error) {
		return s.api.Subjects(ctx, token, termID)
	})
}

// Lectures lists lectures under a subject.
func (s *CatalogService) Lectures(ctx context.Context, token string, subjectID int64) ([]model.Lecture, error) {
	return cachedList(ctx, s, config.CacheKey.LecturesKey(subjectID), func() ([]model.Lecture, error) {
		return s.api.Lectures(ctx, token, subjectID)
	})
}

// Questions lists a lecture's questions.
func (s *CatalogService) Questions(ctx context.Context, token string, lectureID int64) ([]model.Question, error) {
	return cachedList(ctx, s, config.CacheKey.QuestionsKey(lectureID), func() ([]model.Question, error) {
		return s.api.Questions(ctx, token, lectureID)
	})
}

// Exams lists exam summaries.
func (s *CatalogService) Exams(ctx context.Context, token string) ([]model.ExamSummary, error) {
	return cachedList(ctx, s, config.CacheKey.ExamsKey(), func() ([]model.ExamSummary, error) {
		return s.api.Exams(ctx, token)
	})
}

// ExamQuestions lists one exam's questions for preview.
func (s *CatalogService) ExamQuestions(ctx context.Context, token string, examID int64) ([]model.Question, error) {
	return cachedList(ctx, s, config.CacheKey.ExamQuestionsKey(examID), func() ([]model.Question, error) {
		return s.api.ExamQuestions(ctx, token, examID)
	})
}

// ─── Writes ─────────────────────────────────────────────────────────

// CreateYear creates a year and drops the stale listing.
func (s *CatalogService) CreateYear(ctx context.Context, token string, req model.CreateYearRequest) error {
	if err := s.api.CreateYear(ctx, token, req); err != nil {
		return err
	}
	s.invalidate(ctx, config.CacheKey.YearsKey())
	return nil
}

// CreateTerm creates a term and drops the year's stale term listing.
func (s *CatalogService) CreateTerm(ctx context.Context, token string, req model.CreateTermRequest) error {
	if err := s.api.CreateTerm(ctx, token, req); err != nil {
		return err
	}
	s.invalidate(ctx, config.CacheKey.TermsKey(req.YearID))
	return nil
}

// CreateSubject creates a subject and drops the term's stale listing.
func (s *CatalogService) CreateSubject(ctx context.Context, token string, req model.CreateSubjectRequest) error {
	if err := s.api.CreateSubject(ctx, token, req); err != nil {
		return err
	}
	s.invalidate(ctx, config.CacheKey.SubjectsKey(req.TermID))
	return nil
}

// CreateLecture creates a lecture and drops the subject's stale listing.
func (s *CatalogService) CreateLecture(ctx context.Context, token string, req model.CreateLectureRequest) error {
	if err := s.api.CreateLecture(ctx, token, req); err != nil {
		return err
	}
	s.invalidate(ctx, config.CacheKey.LecturesKey(req.SubjectID))
	return nil
}

// CreateQuestion stores a standalone question and drops the lecture's
// stale question listing.
func (s *CatalogService) CreateQuestion(ctx context.Context, token string, q model.Question) error {
	if err := s.api.CreateQuestion(ctx, token, q); err != nil {
		return err
	}
	if q.LectureID != nil {
		s.invalidate(ctx, config.CacheKey.QuestionsKey(*q.LectureID))
	}
	return nil
}

// InvalidateExams drops the cached exam listing, e.g. after a new exam
// is created through a composition session.
func (s *CatalogService) InvalidateExams(ctx context.Context) {
	s.invalidate(ctx, config.CacheKey.ExamsKey())
}

// ─── Cache plumbing ─────────────────────────────────────────────────

// cachedList reads a listing through the Redis cache. Cache failures are
// logged and degrade to a direct upstream read; a cache problem must
// never take the catalog down.
func cachedList[T any](ctx context.Context, s *CatalogService, key string, fetch func() ([]T, error)) ([]T, error) {
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var out []T
			if jsonErr := json.Unmarshal(data, &out); jsonErr == nil {
				return out, nil
			}
			s.log.Warn().Str("key", key).Msg("Corrupt cache entry; refetching")
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
	}

	out, err := fetch()
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
			}
		}
	}
	return out, nil
}

func (s *CatalogService) invalidate(ctx context.Context, key string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache invalidation failed")
	}
}

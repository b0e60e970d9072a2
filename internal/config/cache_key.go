package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// YearsKey returns the cache key for the academic years collection
func (r *CacheKeyStruct) YearsKey() string {
	return "catalog:years"
}

// TermsKey returns the cache key for the terms under one year
func (r *CacheKeyStruct) TermsKey(yearID int64) string {
	return fmt.Sprintf("catalog:year:%d:terms", yearID)
}

// SubjectsKey returns the cache key for the subjects under one term
func (r *CacheKeyStruct) SubjectsKey(termID int64) string {
	return fmt.Sprintf("catalog:term:%d:subjects", termID)
}

// LecturesKey returns the cache key for the lectures under one subject
func (r *CacheKeyStruct) LecturesKey(subjectID int64) string {
	return fmt.Sprintf("catalog:subject:%d:lectures", subjectID)
}

// QuestionsKey returns the cache key for the questions under one lecture
func (r *CacheKeyStruct) QuestionsKey(lectureID int64) string {
	return fmt.Sprintf("catalog:lecture:%d:questions", lectureID)
}

// ExamsKey returns the cache key for the exam summaries collection
func (r *CacheKeyStruct) ExamsKey() string {
	return "catalog:exams"
}

// ExamQuestionsKey returns the cache key for one exam's question list
func (r *CacheKeyStruct) ExamQuestionsKey(examID int64) string {
	return fmt.Sprintf("catalog:exam:%d:questions", examID)
}

var CacheKey = NewCacheKeyStruct()

package model

// The catalog hierarchy is strict: Year → Term → Subject → Lecture →
// Question. Field names mirror the upstream API's JSON.

type Year struct {
	ID   int64  `json:"ID"`
	Name string `json:"Name"`
}

type Term struct {
	ID     int64  `json:"ID"`
	Name   string `json:"Name"`
	YearID int64  `json:"Year_id"`
}

type Subject struct {
	ID     int64  `json:"ID"`
	Name   string `json:"Name"`
	TermID int64  `json:"Term_id"`
}

type Lecture struct {
	ID        int64  `json:"ID"`
	Name      string `json:"Name"`
	SubjectID int64  `json:"Subject_id"`
}

// Breadcrumb is the navigation context a composition session was opened
// under. Display-only; the ids that matter travel separately.
type Breadcrumb struct {
	YearName    string `json:"year_name,omitempty"`
	TermName    string `json:"term_name,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
}

// CreateYearRequest is the payload for creating an academic year.
type CreateYearRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateTermRequest is the payload for creating a term under a year.
type CreateTermRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	YearID int64  `json:"year_id" binding:"required"`
}

// CreateSubjectRequest is the payload for creating a subject under a term.
type CreateSubjectRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	TermID int64  `json:"term_id" binding:"required"`
}

// CreateLectureRequest is the payload for creating a lecture under a subject.
type CreateLectureRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	SubjectID int64  `json:"subject_id" binding:"required"`
}

// CreateQuestionRequest is the payload for authoring a question, either
// standalone or inside a composition session. Question text is canonical
// form: $N attachment references, #$ for a literal dollar sign.
type CreateQuestionRequest struct {
	Question     string       `json:"question" binding:"required,min=1,max=4000"`
	QuestionType int          `json:"questionType" binding:"min=0,max=3"`
	Answers      string       `json:"answers" binding:"required"`
	Choices      []string     `json:"choices" binding:"omitempty,dive,max=500"`
	Ease         *int         `json:"ease" binding:"omitempty,min=0,max=2"`
	LectureID    *int64       `json:"lecture_id"`
	Attachments  []Attachment `json:"attachments" binding:"omitempty,dive"`
	SectionName  string       `json:"sectionName" binding:"omitempty,max=200"`
	Degree       *int         `json:"degree" binding:"omitempty,min=0"`
}

// ToQuestion converts the request into the domain entity. Freshly authored
// questions carry no identity and are never flagged existing.
func (r *CreateQuestionRequest) ToQuestion() Question {
	return Question{
		Question:     r.Question,
		QuestionType: r.QuestionType,
		Answers:      r.Answers,
		Choices:      r.Choices,
		Ease:         r.Ease,
		LectureID:    r.LectureID,
		Attachments:  r.Attachments,
		SectionName:  r.SectionName,
		Degree:       r.Degree,
	}
}

package model

// ExamSettings configures scheduling and security for a single exam.
// StartAt/EndAt are upstream-formatted timestamps; submission rejects
// a non-positive duration and an EndAt at or before StartAt.
type ExamSettings struct {
	Locations          []string `json:"Locations"`
	PassKey            string   `json:"PassKey"` // empty = no passkey
	PreventOtherTabs   bool     `json:"PreventOtherTabs"`
	DurationMin        int      `json:"Duration_min"`
	AutoCorrect        bool     `json:"AutoCorrect"`
	QuestionByQuestion bool     `json:"QuestionByQuestion"`
	ShareWith          int      `json:"ShareWith"`
	AllowDownload      bool     `json:"AllowDownload"`
	StartAt            string   `json:"StartAt"`
	EndAt              string   `json:"EndAt"`
}

// ExamSummary is the list form of an exam; the full question list is
// fetched separately by exam id.
type ExamSummary struct {
	ID                 int64   `json:"ID"`
	Title              string  `json:"Title"`
	CreatedAt          string  `json:"CreatedAt"`
	SubjectID          int64   `json:"Subject_id"`
	OwnerID            int64   `json:"Owner_id"`
	PreventOtherTabs   bool    `json:"PreventOtherTabs"`
	DurationMin        int     `json:"Duration_min"`
	AutoCorrect        bool    `json:"AutoCorrect"`
	QuestionByQuestion bool    `json:"QuestionByQuestion"`
	ShareWith          int     `json:"ShareWith"`
	AllowDownload      bool    `json:"AllowDownLoad"`
	StartAt            *string `json:"StartAt"`
	EndAt              *string `json:"EndAt"`
}

// CreateExamPayload is the exam-creation request sent upstream. Each
// Questions entry is either a bare numeric id (an existing question,
// submitted by reference) or a full QuestionPayload object.
type CreateExamPayload struct {
	Title     string       `json:"title"`
	SubjectID int64        `json:"subject_id"`
	Questions []any        `json:"questions"`
	Settings  ExamSettings `json:"settings"`
}

// SubmitExamRequest is the console-side request that finalizes a
// composition session into an exam.
type SubmitExamRequest struct {
	Title    string       `json:"title" binding:"required"`
	Settings ExamSettings `json:"settings"`
}

package model

// Question type ordinals, matching the stored representation.
const (
	QuestionTypeMCQSingle = 0
	QuestionTypeMCQMulti  = 1
	QuestionTypeWritten   = 2
	QuestionTypeComplex   = 3
)

// Difficulty ordinals. The canonical scheme is 0-indexed; 1-indexed values
// from legacy producers are mapped down at the upstream boundary (see
// NormalizeLegacyEase).
const (
	EaseEasy   = 0
	EaseMedium = 1
	EaseHard   = 2
)

// Attachment is a typed external resource referenced positionally from
// question text ($0, $1, ...).
type Attachment struct {
	Type      string `json:"type"` // img, video, audio, youtube, link
	Link      string `json:"link"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// AttachmentTypes lists the valid Attachment.Type values.
var AttachmentTypes = []string{"img", "video", "audio", "youtube", "link"}

// ValidAttachmentType reports whether t is a known attachment type.
func ValidAttachmentType(t string) bool {
	for _, known := range AttachmentTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Question is the atomic content unit.
//
// LegacyID and RowID are the two historical spellings of the same numeric
// identity. Resolve through Identity(); nothing outside this file should
// read the alias fields directly.
type Question struct {
	LegacyID     *int64       `json:"ID,omitempty"`
	RowID        *int64       `json:"id,omitempty"`
	Question     string       `json:"question"`
	QuestionType int          `json:"questionType"`
	Answers      string       `json:"answers"`
	Choices      []string     `json:"choices,omitempty"`
	Ease         *int         `json:"ease,omitempty"`
	LectureID    *int64       `json:"lecture_id"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	SectionName  string       `json:"sectionName,omitempty"`
	Degree       *int         `json:"degree,omitempty"`
	// IsExisting marks a question imported by reference from another
	// lecture or exam during a composition session. It is never part of
	// the entity's own truth and is stripped from upstream payloads.
	IsExisting bool `json:"isExisting,omitempty"`
}

// Identity resolves the question's canonical identity: the first present of
// the two alias fields. The second return value is false when neither alias
// is set.
func (q *Question) Identity() (int64, bool) {
	if q.LegacyID != nil {
		return *q.LegacyID, true
	}
	if q.RowID != nil {
		return *q.RowID, true
	}
	return 0, false
}

// SameIdentity reports whether a and b resolve to the same identity.
// Questions without a resolvable identity are never equal, not even to
// themselves — absence is not a wildcard.
func SameIdentity(a, b *Question) bool {
	aid, ok := a.Identity()
	if !ok {
		return false
	}
	bid, ok := b.Identity()
	if !ok {
		return false
	}
	return aid == bid
}

// DegreeOrDefault returns the question's point value, defaulting to 1.
func (q *Question) DegreeOrDefault() int {
	if q.Degree == nil {
		return 1
	}
	return *q.Degree
}

// QuestionPayload is the wire form of a freshly authored question inside an
// exam-creation request. Identity aliases and the IsExisting flag are
// composition-session artifacts and are stripped; degree defaults to 1.
type QuestionPayload struct {
	Question     string       `json:"question"`
	QuestionType int          `json:"questionType"`
	Answers      string       `json:"answers"`
	Choices      []string     `json:"choices,omitempty"`
	Ease         *int         `json:"ease,omitempty"`
	LectureID    *int64       `json:"lecture_id"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	SectionName  string       `json:"sectionName,omitempty"`
	Degree       int          `json:"degree"`
}

// Payload builds the QuestionPayload wire form for q.
func (q *Question) Payload() QuestionPayload {
	return QuestionPayload{
		Question:     q.Question,
		QuestionType: q.QuestionType,
		Answers:      q.Answers,
		Choices:      q.Choices,
		Ease:         q.Ease,
		LectureID:    q.LectureID,
		Attachments:  q.Attachments,
		SectionName:  q.SectionName,
		Degree:       q.DegreeOrDefault(),
	}
}

// NormalizeLegacyEase maps a 1-indexed difficulty ordinal (1 Easy / 2 Medium
// / 3 Hard) onto the canonical 0-indexed scheme, clamping out-of-range
// input. Apply only at boundaries known to speak the legacy base.
func NormalizeLegacyEase(v int) int {
	if v <= 1 {
		return EaseEasy
	}
	if v >= 3 {
		return EaseHard
	}
	return EaseMedium
}

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeDropdown       QuestionType = "dropdown"
)

// Quiz represents a quiz entity. Questions are stored as a JSONB document on
// the quiz row, so the whole bank travels with the quiz.
type Quiz struct {
	ID                  int        `json:"id"`
	CourseID            int        `json:"course_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Questions           []Question `json:"questions"`
	PassingScore        int        `json:"passing_score"`
	TotalPoints         int        `json:"total_points"`
	TimeLimitMinutes    int        `json:"time_limit"`
	Attempts            int        `json:"attempts"`
	RandomizeQuestions  bool       `json:"randomize_questions"`
	AllowRetake         bool       `json:"allow_retake"`
	RetakeCooldownHours int        `json:"retake_cooldown_hours"`
	IsActive            bool       `json:"is_active"`
	CreatedByID         int        `json:"created_by_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// RecomputeTotalPoints recalculates the quiz's total point value from its
// question list. Must be called whenever the question list changes.
func (q *Quiz) RecomputeTotalPoints() {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].PointValue()
	}
	q.TotalPoints = total
}

// Question is a single entry in a quiz's question bank.
type Question struct {
	ID               int          `json:"id"`
	Type             QuestionType `json:"type"`
	Question         string       `json:"question"`
	Options          []Option     `json:"options"`
	CorrectAnswer    AnswerKey    `json:"correctAnswer"`
	Points           int          `json:"points"`
	TimeLimitSeconds int          `json:"timeLimit"`
	Order            int          `json:"order"`
}

// PointValue returns the question's point value, defaulting to 1 when unset.
func (q *Question) PointValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Option is one answer choice. Persisted quizzes carry options either as bare
// strings or as {"text": ..., "isCorrect": ...} objects; both decode here.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect,omitempty"`

	null bool
}

// IsNull reports whether the option decoded from a JSON null. Malformed banks
// occasionally carry null entries; display filters them out, grading walks
// the array as stored.
func (o *Option) IsNull() bool { return o.null }

func (o *Option) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		o.null = true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Text = s
		return nil
	}
	type alias Option
	var obj alias
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("option must be a string or an object: %w", err)
	}
	*o = Option(obj)
	return nil
}

// AnswerKey is a question's stored correct answer. Historically it was
// persisted either as an option index (JSON number) or as the option's
// literal text (JSON string); both representations must keep grading.
type AnswerKey struct {
	index *int
	text  *string
}

// IndexKey builds an AnswerKey holding an option index.
func IndexKey(i int) AnswerKey { return AnswerKey{index: &i} }

// TextKey builds an AnswerKey holding an option's literal text.
func TextKey(s string) AnswerKey { return AnswerKey{text: &s} }

func (k *AnswerKey) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		k.index = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		k.text = &s
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	return fmt.Errorf("correct answer must be an index or option text, got %s", b)
}

func (k AnswerKey) MarshalJSON() ([]byte, error) {
	switch {
	case k.index != nil:
		return json.Marshal(*k.index)
	case k.text != nil:
		return json.Marshal(*k.text)
	default:
		return []byte("null"), nil
	}
}

// ResolveIndex returns the option index this key designates. A numeric key
// is returned directly; a textual key is located within the option list.
// ok is false when the key is empty or the text matches no option.
func (k AnswerKey) ResolveIndex(options []Option) (idx int, ok bool) {
	if k.index != nil {
		return *k.index, true
	}
	if k.text != nil {
		for i, opt := range options {
			if opt.Text == *k.text {
				return i, true
			}
		}
	}
	return 0, false
}

// IsZero reports whether no correct answer was stored at all.
func (k AnswerKey) IsZero() bool { return k.index == nil && k.text == nil }

// Display types are what a quiz-taking client receives: correct answers are
// stripped and options are normalized so the client never renders a broken
// control.

// DisplayQuiz is the answer-free rendering of a quiz sent to students.
type DisplayQuiz struct {
	ID           int               `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	TimeLimit    int               `json:"time_limit"`
	TotalPoints  int               `json:"total_points"`
	PassingScore int               `json:"passing_score"`
	Attempts     int               `json:"attempts"`
	Questions    []DisplayQuestion `json:"questions"`
}

// DisplayQuestion is a question without its correct answer.
type DisplayQuestion struct {
	ID            string          `json:"id"`
	OriginalIndex int             `json:"original_index"`
	DisplayIndex  int             `json:"display_index"`
	Question      string          `json:"question"`
	Type          QuestionType    `json:"type"`
	Options       []DisplayOption `json:"options"`
	TimeLimit     int             `json:"time_limit"`
	Points        int             `json:"points"`
}

// DisplayOption is a normalized answer choice.
type DisplayOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
	Index int    `json:"index"`
}

// QuestionInput is one question in a quiz create/update payload.
type QuestionInput struct {
	ID               int       `json:"id" binding:"omitempty,min=1"`
	Type             string    `json:"type" binding:"required,oneof=multiple-choice true-false dropdown"`
	Question         string    `json:"question" binding:"required,min=1,max=2000"`
	Options          []Option  `json:"options" binding:"omitempty"`
	CorrectAnswer    AnswerKey `json:"correctAnswer"`
	Points           int       `json:"points" binding:"omitempty,min=1"`
	TimeLimitSeconds int       `json:"timeLimit" binding:"omitempty,min=5"`
	Order            int       `json:"order" binding:"min=0"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	CourseID            int             `json:"course_id" binding:"required,min=1"`
	Title               string          `json:"title" binding:"required,min=1,max=100"`
	Description         string          `json:"description" binding:"max=500"`
	Questions           []QuestionInput `json:"questions" binding:"dive"`
	PassingScore        int             `json:"passing_score" binding:"min=0,max=100"`
	TimeLimitMinutes    int             `json:"time_limit" binding:"required,min=5"`
	Attempts            int             `json:"attempts" binding:"required,min=1"`
	RandomizeQuestions  bool            `json:"randomize_questions"`
	AllowRetake         bool            `json:"allow_retake"`
	RetakeCooldownHours int             `json:"retake_cooldown_hours" binding:"omitempty,min=1,max=8760"`
}

// UpdateQuizRequest is the payload for updating an existing quiz.
// Nil pointers leave the corresponding field unchanged.
type UpdateQuizRequest struct {
	Title               *string          `json:"title" binding:"omitempty,min=1,max=100"`
	Description         *string          `json:"description" binding:"omitempty,max=500"`
	Questions           *[]QuestionInput `json:"questions" binding:"omitempty,dive"`
	PassingScore        *int             `json:"passing_score" binding:"omitempty,min=0,max=100"`
	TimeLimitMinutes    *int             `json:"time_limit" binding:"omitempty,min=5"`
	Attempts            *int             `json:"attempts" binding:"omitempty,min=1"`
	RandomizeQuestions  *bool            `json:"randomize_questions"`
	AllowRetake         *bool            `json:"allow_retake"`
	RetakeCooldownHours *int             `json:"retake_cooldown_hours" binding:"omitempty,min=1,max=8760"`
	IsActive            *bool            `json:"is_active"`
}

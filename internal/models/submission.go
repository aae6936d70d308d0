package models

import (
	"encoding/json"
	"math"
	"time"
)

// AnswerSet maps question ids to a submitted answer: a choice index for
// multiple-choice questions or free text for essays. Values arrive through
// JSON, so numbers show up as float64 and need coercion on read.
type AnswerSet map[string]interface{}

// ChoiceIndex returns the submitted choice index for a question, if a numeric
// answer was given. Non-integral numbers and strings are not choice indexes.
func (a AnswerSet) ChoiceIndex(questionID string) (int, bool) {
	v, ok := a[questionID]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// EssayText returns the submitted essay text for a question, if any.
func (a AnswerSet) EssayText(questionID string) (string, bool) {
	v, ok := a[questionID]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Submission is one student's answer set for one homework. There is at most
// one per (homework, student) pair; resubmitting overwrites the stored record.
type Submission struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	HomeworkID       string    `bson:"homework_id" json:"homework_id"`
	StudentID        string    `bson:"student_id" json:"student_id"`
	Answers          AnswerSet `bson:"answers" json:"answers"`
	Score            int       `bson:"score" json:"score"`
	TotalQuestions   int       `bson:"total_questions" json:"total_questions"`
	TimeSpentMinutes int       `bson:"time_spent_minutes,omitempty" json:"time_spent_minutes,omitempty"`
	SubmittedAt      time.Time `bson:"submitted_at" json:"submitted_at"`
}

package models

import (
	"fmt"
	"strings"
)

const (
	QuestionTypeMultipleChoice = "multiple_choices"
	QuestionTypeEssay          = "essay"
)

// A materialized question set always holds exactly this shape.
const (
	MultipleChoiceCount = 10
	EssayCount          = 3
	QuestionSetSize     = MultipleChoiceCount + EssayCount
)

// Question is a tagged union over Type: multiple-choice questions carry
// Choices and the zero-based Answer index, essay questions carry the
// PromptAnswer grading guideline instead.
type Question struct {
	ID           string   `bson:"id" json:"id"`
	Type         string   `bson:"type" json:"type"`
	QuestionText string   `bson:"question_text" json:"questionText"`
	Choices      []string `bson:"choices,omitempty" json:"choices,omitempty"`
	Answer       int      `bson:"answer" json:"answer"`
	PromptAnswer string   `bson:"prompt_answer,omitempty" json:"promptAnswer,omitempty"`
}

// ValidateQuestion checks a single question independent of its position in a set.
func ValidateQuestion(q Question) error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return fmt.Errorf("question %s has empty text", q.ID)
	}
	switch q.Type {
	case QuestionTypeMultipleChoice:
		if len(q.Choices) < 2 {
			return fmt.Errorf("question %s has %d choices, need at least 2", q.ID, len(q.Choices))
		}
		if q.Answer < 0 || q.Answer >= len(q.Choices) {
			return fmt.Errorf("question %s answer index %d out of range [0,%d)", q.ID, q.Answer, len(q.Choices))
		}
	case QuestionTypeEssay:
		// No extra constraints; an empty grading guideline is tolerated.
	default:
		return fmt.Errorf("question %s has unknown type %q", q.ID, q.Type)
	}
	return nil
}

// ValidateQuestionSet checks that questions form a complete materialized set:
// exactly 10 multiple-choice and 3 essay questions with unique ids, every
// question individually well-formed.
func ValidateQuestionSet(questions []Question) error {
	seen := make(map[string]bool, len(questions))
	var multipleChoice, essays int

	for _, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return err
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true

		switch q.Type {
		case QuestionTypeMultipleChoice:
			multipleChoice++
		case QuestionTypeEssay:
			essays++
		}
	}

	if multipleChoice != MultipleChoiceCount || essays != EssayCount {
		return fmt.Errorf("question set has %d multiple-choice and %d essay questions, want %d and %d",
			multipleChoice, essays, MultipleChoiceCount, EssayCount)
	}
	return nil
}

// StudentView strips grading data (the correct answer index and the essay
// grading guideline) from a question set before it is sent to a student.
func StudentView(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Answer = 0
		q.PromptAnswer = ""
		out[i] = q
	}
	return out
}

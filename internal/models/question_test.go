package models

import (
	"fmt"
	"testing"
)

func validSet() []Question {
	questions := make([]Question, 0, QuestionSetSize)
	for i := 0; i < MultipleChoiceCount; i++ {
		questions = append(questions, Question{
			ID:           fmt.Sprintf("mc_%d", i),
			Type:         QuestionTypeMultipleChoice,
			QuestionText: fmt.Sprintf("Multiple choice question %d?", i),
			Choices:      []string{"A", "B", "C", "D"},
			Answer:       i % 4,
		})
	}
	for i := 0; i < EssayCount; i++ {
		questions = append(questions, Question{
			ID:           fmt.Sprintf("essay_%d", i),
			Type:         QuestionTypeEssay,
			QuestionText: fmt.Sprintf("Essay question %d?", i),
			PromptAnswer: "Discuss the main ideas.",
		})
	}
	return questions
}

func TestValidateQuestionSet_Valid(t *testing.T) {
	if err := ValidateQuestionSet(validSet()); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}
}

func TestValidateQuestion_Rejections(t *testing.T) {
	cases := []struct {
		name string
		q    Question
	}{
		{"missing id", Question{Type: QuestionTypeEssay, QuestionText: "x"}},
		{"blank text", Question{ID: "q1", Type: QuestionTypeEssay, QuestionText: "   "}},
		{"unknown type", Question{ID: "q1", Type: "true_false", QuestionText: "x"}},
		{"too few choices", Question{ID: "q1", Type: QuestionTypeMultipleChoice, QuestionText: "x", Choices: []string{"only"}}},
		{"answer below range", Question{ID: "q1", Type: QuestionTypeMultipleChoice, QuestionText: "x", Choices: []string{"a", "b"}, Answer: -1}},
		{"answer above range", Question{ID: "q1", Type: QuestionTypeMultipleChoice, QuestionText: "x", Choices: []string{"a", "b"}, Answer: 2}},
	}
	for _, tc := range cases {
		if err := ValidateQuestion(tc.q); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateQuestionSet_DuplicateID(t *testing.T) {
	set := validSet()
	set[1].ID = set[0].ID
	if err := ValidateQuestionSet(set); err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestValidateQuestionSet_WrongShape(t *testing.T) {
	set := validSet()
	// Swap one multiple-choice question for a fourth essay.
	set[0] = Question{ID: "extra_essay", Type: QuestionTypeEssay, QuestionText: "extra"}
	if err := ValidateQuestionSet(set); err == nil {
		t.Fatal("expected 9+4 shape to be rejected")
	}

	if err := ValidateQuestionSet(validSet()[:QuestionSetSize-1]); err == nil {
		t.Fatal("expected short set to be rejected")
	}
}

func TestStudentView_StripsGradingData(t *testing.T) {
	set := validSet()
	set[0].Answer = 3
	view := StudentView(set)

	for i, q := range view {
		if q.Answer != 0 {
			t.Errorf("question %d: answer leaked to student view", i)
		}
		if q.PromptAnswer != "" {
			t.Errorf("question %d: grading guideline leaked to student view", i)
		}
	}
	// Original set is untouched.
	if set[0].Answer != 3 {
		t.Error("StudentView mutated the source set")
	}
	if set[QuestionSetSize-1].PromptAnswer == "" {
		t.Error("StudentView mutated the source set")
	}
}

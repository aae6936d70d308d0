package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"homework-service/internal/llm"
	"homework-service/internal/models"

	"github.com/google/uuid"
)

// Generator produces a complete question set from subject-matter text and an
// optional student profile. Generate never fails: whatever the backend does,
// the caller always receives exactly 10 multiple-choice and 3 essay questions.
// Callers that need at-most-once generation per homework enforce that with a
// storage-level guard, not here.
type Generator struct {
	client llm.ChatClient
}

func New(client llm.ChatClient) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, subjectMatter string, profile *models.StudentProfile) []models.Question {
	return fillQuestionSet(g.fromBackend(ctx, subjectMatter, profile))
}

// fromBackend returns whatever usable questions the backend produced, which
// may be none. Every failure is logged and degrades to an empty result.
func (g *Generator) fromBackend(ctx context.Context, subjectMatter string, profile *models.StudentProfile) []models.Question {
	if g.client == nil {
		return nil
	}

	raw, err := g.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(subjectMatter, profile)},
	})
	if err != nil {
		log.Printf("question generation degraded, backend call failed: %v", err)
		return nil
	}

	payload, ok := llm.FirstJSONArray(raw)
	if !ok {
		log.Printf("question generation degraded, no JSON array in backend response")
		return nil
	}

	var questions []models.Question
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		log.Printf("question generation degraded, backend response did not decode: %v", err)
		return nil
	}
	return questions
}

// fillQuestionSet keeps the well-formed candidates, drops the rest, and pads
// with synthetic filler questions until the set has exactly the required
// shape. The result always passes ValidateQuestionSet.
func fillQuestionSet(candidates []models.Question) []models.Question {
	seen := make(map[string]bool, models.QuestionSetSize)
	multipleChoice := make([]models.Question, 0, models.MultipleChoiceCount)
	essays := make([]models.Question, 0, models.EssayCount)

	for _, q := range candidates {
		if err := models.ValidateQuestion(q); err != nil {
			log.Printf("dropping malformed generated question: %v", err)
			continue
		}
		if seen[q.ID] {
			continue
		}
		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			if len(multipleChoice) < models.MultipleChoiceCount {
				multipleChoice = append(multipleChoice, q)
				seen[q.ID] = true
			}
		case models.QuestionTypeEssay:
			if len(essays) < models.EssayCount {
				essays = append(essays, q)
				seen[q.ID] = true
			}
		}
	}

	for i := len(multipleChoice); i < models.MultipleChoiceCount; i++ {
		multipleChoice = append(multipleChoice, fallbackMultipleChoice(i+1))
	}
	for i := len(essays); i < models.EssayCount; i++ {
		essays = append(essays, fallbackEssay(i+1))
	}

	return append(multipleChoice, essays...)
}

func fallbackMultipleChoice(num int) models.Question {
	return models.Question{
		ID:           "mc_" + uuid.NewString(),
		Type:         models.QuestionTypeMultipleChoice,
		QuestionText: fmt.Sprintf("Based on the subject matter, what is the correct answer to question %d?", num),
		Choices: []string{
			"First possible answer",
			"Second possible answer",
			"Third possible answer",
			"Fourth possible answer",
		},
		Answer: 0,
	}
}

func fallbackEssay(num int) models.Question {
	return models.Question{
		ID:           "essay_" + uuid.NewString(),
		Type:         models.QuestionTypeEssay,
		QuestionText: fmt.Sprintf("Essay question %d: Explain your understanding of the key concepts discussed in the subject matter.", num),
		PromptAnswer: "Students should demonstrate understanding of the main concepts and provide examples.",
	}
}

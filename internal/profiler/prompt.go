package profiler

import (
	"fmt"
	"strings"

	"homework-service/internal/models"
)

const assessmentSystemPrompt = "You are an educational psychologist AI that analyzes student responses to determine learning styles and intellectual strengths. Always respond with valid JSON only."

func buildAssessmentPrompt(questions []models.Question, answers models.AnswerSet) string {
	var b strings.Builder

	b.WriteString("Analyze the following student responses and generate a personality assessment:\n\nQuestions and Answers:\n")

	for i, q := range questions {
		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			chosen := "N/A"
			if idx, ok := answers.ChoiceIndex(q.ID); ok && idx >= 0 && idx < len(q.Choices) {
				chosen = q.Choices[idx]
			}
			fmt.Fprintf(&b, "Q%d: %s\nAnswer: %s\n\n", i+1, q.QuestionText, chosen)
		case models.QuestionTypeEssay:
			text, ok := answers.EssayText(q.ID)
			if !ok || strings.TrimSpace(text) == "" {
				text = "No answer provided"
			}
			fmt.Fprintf(&b, "Q%d: %s\nAnswer: %s\n\n", i+1, q.QuestionText, text)
		}
	}

	b.WriteString(`Based on these responses, provide a personality assessment in the following JSON format:
{
  "personalityType": "A brief personality type (e.g., 'Analytical Thinker', 'Creative Problem Solver')",
  "strengthDescription": "Detailed description of the student's intellectual strengths and learning preferences",
  "learningStyle": "How this student learns best (visual, auditory, kinesthetic, etc.)",
  "mathScore": 85,
  "logicalScore": 78,
  "creativityScore": 92,
  "comprehensionScore": 88
}

Provide scores from 0-100 based on their demonstrated abilities in the responses.`)

	return b.String()
}

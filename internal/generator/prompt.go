package generator

import (
	"fmt"
	"strings"

	"homework-service/internal/models"
)

const systemPrompt = "You are an educational AI assistant that creates personalized questions based on student learning profiles. Always respond with valid JSON only."

func buildPrompt(subjectMatter string, profile *models.StudentProfile) string {
	var b strings.Builder

	if profile != nil {
		fmt.Fprintf(&b, `The student has the following learning profile:
- Personality Type: %s
- Learning Style: %s
- Strengths: %s
- Math Score: %d/100
- Logical Thinking Score: %d/100
- Creativity Score: %d/100
- Reading Comprehension Score: %d/100

Please tailor the questions to match their learning style and strengthen their weaker areas.

`,
			profile.PersonalityType,
			profile.LearningStyle,
			profile.StrengthDescription,
			profile.MathScore,
			profile.LogicalScore,
			profile.CreativityScore,
			profile.ComprehensionScore,
		)
	}

	fmt.Fprintf(&b, `Based on the following subject matter, generate exactly %d multiple choice questions and %d essay questions.

Subject Matter:
%s

Please respond with a valid JSON array containing %d questions total. Each question should have this structure:

For multiple choice questions:
{
  "id": "unique_id",
  "type": "multiple_choices",
  "questionText": "The question text",
  "choices": ["Option A", "Option B", "Option C", "Option D"],
  "answer": 0
}

The "answer" field is the zero-based index of the correct choice.

For essay questions:
{
  "id": "unique_id",
  "type": "essay",
  "questionText": "The essay question text",
  "promptAnswer": "Expected answer guidelines for grading"
}

Make sure the questions test understanding, application, and critical thinking about the subject matter.`,
		models.MultipleChoiceCount,
		models.EssayCount,
		subjectMatter,
		models.QuestionSetSize,
	)

	return b.String()
}

package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"homework-service/internal/models"
)

// PointsPerQuestion is the fixed value of every question regardless of type.
const PointsPerQuestion = 10

// EssayStrategy grades one essay answer into [0, PointsPerQuestion]. The
// answer is known to be present; unanswered questions never reach a strategy.
type EssayStrategy interface {
	Score(question models.Question, answer string) float64
}

// LengthHeuristic awards min(10, max(5, characters/20)) for any non-blank
// answer. A crude stand-in for real grading, kept because downstream score
// ranges depend on it.
type LengthHeuristic struct{}

func (LengthHeuristic) Score(_ models.Question, answer string) float64 {
	if strings.TrimSpace(answer) == "" {
		return 0
	}
	points := float64(utf8.RuneCountInString(answer)) / 20
	if points < 5 {
		points = 5
	}
	if points > PointsPerQuestion {
		points = PointsPerQuestion
	}
	return points
}

// Result is the outcome of scoring one submission. Score is the rounded
// point total that gets persisted.
type Result struct {
	Points         float64 `json:"points"`
	Score          int     `json:"score"`
	MaxPoints      int     `json:"max_points"`
	Percentage     int     `json:"percentage"`
	Grade          string  `json:"grade"`
	TotalQuestions int     `json:"total_questions"`
}

type Engine struct {
	essay EssayStrategy
}

// NewEngine builds a scoring engine; a nil strategy selects LengthHeuristic.
func NewEngine(essay EssayStrategy) *Engine {
	if essay == nil {
		essay = LengthHeuristic{}
	}
	return &Engine{essay: essay}
}

// Score grades answers against a question set. Missing answers earn zero;
// max points always counts every question.
func (e *Engine) Score(questions []models.Question, answers models.AnswerSet) Result {
	var points float64
	for _, q := range questions {
		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			if idx, ok := answers.ChoiceIndex(q.ID); ok && idx == q.Answer {
				points += PointsPerQuestion
			}
		case models.QuestionTypeEssay:
			if text, ok := answers.EssayText(q.ID); ok {
				points += e.essay.Score(q, text)
			}
		}
	}

	maxPoints := PointsPerQuestion * len(questions)
	percentage := 0
	if maxPoints > 0 {
		percentage = int(math.Round(points / float64(maxPoints) * 100))
	}

	return Result{
		Points:         points,
		Score:          int(math.Round(points)),
		MaxPoints:      maxPoints,
		Percentage:     percentage,
		Grade:          LetterGrade(percentage),
		TotalQuestions: len(questions),
	}
}

// LetterGrade maps a percentage to the platform's grade bands.
func LetterGrade(percentage int) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

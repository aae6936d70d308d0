package profiler

import (
	"context"
	"encoding/json"
	"log"
	"math"

	"homework-service/internal/llm"
	"homework-service/internal/models"
)

// Updater derives an updated learning-style profile from a scored
// submission. Derive never fails: a degraded backend yields the neutral
// fallback profile so the personalization loop keeps running.
type Updater struct {
	client llm.ChatClient
	merge  MergeStrategy
}

// NewUpdater builds a profile updater; a nil strategy selects LatestWins.
func NewUpdater(client llm.ChatClient, merge MergeStrategy) *Updater {
	if merge == nil {
		merge = LatestWins{}
	}
	return &Updater{client: client, merge: merge}
}

// assessment is the exact shape the backend is asked to produce.
type assessment struct {
	PersonalityType     string `json:"personalityType"`
	StrengthDescription string `json:"strengthDescription"`
	LearningStyle       string `json:"learningStyle"`
	MathScore           int    `json:"mathScore"`
	LogicalScore        int    `json:"logicalScore"`
	CreativityScore     int    `json:"creativityScore"`
	ComprehensionScore  int    `json:"comprehensionScore"`
}

// Derive produces a fresh profile from question/answer pairs. The caller sets
// StudentID before persisting.
func (u *Updater) Derive(ctx context.Context, questions []models.Question, answers models.AnswerSet) models.StudentProfile {
	if u.client == nil {
		return models.NeutralProfile()
	}

	raw, err := u.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: assessmentSystemPrompt},
		{Role: "user", Content: buildAssessmentPrompt(questions, answers)},
	})
	if err != nil {
		log.Printf("profile assessment degraded, backend call failed: %v", err)
		return models.NeutralProfile()
	}

	payload, ok := llm.FirstJSONObject(raw)
	if !ok {
		log.Printf("profile assessment degraded, no JSON object in backend response")
		return models.NeutralProfile()
	}

	var parsed assessment
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		log.Printf("profile assessment degraded, backend response did not decode: %v", err)
		return models.NeutralProfile()
	}
	if parsed.PersonalityType == "" || parsed.LearningStyle == "" {
		log.Printf("profile assessment degraded, backend response missing narrative fields")
		return models.NeutralProfile()
	}

	profile := models.StudentProfile{
		PersonalityType:     parsed.PersonalityType,
		StrengthDescription: parsed.StrengthDescription,
		LearningStyle:       parsed.LearningStyle,
		MathScore:           parsed.MathScore,
		LogicalScore:        parsed.LogicalScore,
		CreativityScore:     parsed.CreativityScore,
		ComprehensionScore:  parsed.ComprehensionScore,
	}
	profile.ClampScores()
	return profile
}

// Apply combines the previous stored profile (nil when the student has never
// been assessed) with the latest derivation using the configured strategy.
func (u *Updater) Apply(previous *models.StudentProfile, latest models.StudentProfile) models.StudentProfile {
	return u.merge.Merge(previous, latest)
}

// MergeStrategy decides how a freshly derived profile combines with the
// stored one.
type MergeStrategy interface {
	Merge(previous *models.StudentProfile, latest models.StudentProfile) models.StudentProfile
}

// LatestWins replaces the stored profile wholesale with the newest
// assessment. This is the platform's default behavior.
type LatestWins struct{}

func (LatestWins) Merge(_ *models.StudentProfile, latest models.StudentProfile) models.StudentProfile {
	return latest
}

// MovingAverage keeps the newest narrative fields but blends scores with the
// stored profile, weighting the latest sample by Weight in (0,1].
type MovingAverage struct {
	Weight float64
}

func (m MovingAverage) Merge(previous *models.StudentProfile, latest models.StudentProfile) models.StudentProfile {
	if previous == nil {
		return latest
	}
	w := m.Weight
	if w <= 0 || w > 1 {
		w = 0.5
	}
	out := latest
	out.MathScore = blend(previous.MathScore, latest.MathScore, w)
	out.LogicalScore = blend(previous.LogicalScore, latest.LogicalScore, w)
	out.CreativityScore = blend(previous.CreativityScore, latest.CreativityScore, w)
	out.ComprehensionScore = blend(previous.ComprehensionScore, latest.ComprehensionScore, w)
	return out
}

func blend(previous, latest int, weight float64) int {
	return int(math.Round(float64(previous)*(1-weight) + float64(latest)*weight))
}

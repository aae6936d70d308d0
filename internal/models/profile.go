package models

import "time"

// NeutralScore is the default for every dimension before (or instead of) a
// real AI assessment.
const NeutralScore = 75

// StudentProfile is the evolving learning-style record for one student, keyed
// by StudentID (one profile per student). Narrative fields and scores are
// replaced wholesale on update; nothing is merged by default.
type StudentProfile struct {
	ID                  string    `bson:"_id,omitempty" json:"id"`
	StudentID           string    `bson:"student_id" json:"student_id"`
	PersonalityType     string    `bson:"personality_type" json:"personality_type"`
	StrengthDescription string    `bson:"strength_description" json:"strength_description"`
	LearningStyle       string    `bson:"learning_style" json:"learning_style"`
	MathScore           int       `bson:"math_score" json:"math_score"`
	LogicalScore        int       `bson:"logical_score" json:"logical_score"`
	CreativityScore     int       `bson:"creativity_score" json:"creativity_score"`
	ComprehensionScore  int       `bson:"comprehension_score" json:"comprehension_score"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updated_at"`
}

// NeutralProfile is the fallback assessment used when the AI backend is
// degraded or a student has not been assessed yet.
func NeutralProfile() StudentProfile {
	return StudentProfile{
		PersonalityType:     "Balanced Learner",
		StrengthDescription: "Shows a well-rounded approach to learning with balanced analytical and creative thinking abilities.",
		LearningStyle:       "Multimodal learner who benefits from various teaching approaches including visual, auditory, and hands-on activities.",
		MathScore:           NeutralScore,
		LogicalScore:        NeutralScore,
		CreativityScore:     NeutralScore,
		ComprehensionScore:  NeutralScore,
	}
}

// ClampScores forces every score into [0,100].
func (p *StudentProfile) ClampScores() {
	p.MathScore = clampScore(p.MathScore)
	p.LogicalScore = clampScore(p.LogicalScore)
	p.CreativityScore = clampScore(p.CreativityScore)
	p.ComprehensionScore = clampScore(p.ComprehensionScore)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

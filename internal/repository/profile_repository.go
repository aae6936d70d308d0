package repository

import (
	"context"
	"log"
	"time"

	"homework-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProfileRepository struct {
	Col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{Col: db.Collection("student_profiles")}
}

func (r *ProfileRepository) EnsureIndexes(ctx context.Context) {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Warning: failed to create profile index: %v", err)
	}
}

func (r *ProfileRepository) Get(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	err := r.Col.FindOne(ctx, bson.M{"student_id": studentID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert stores the profile keyed by student id, replacing all assessment
// fields. Each student has exactly one profile document.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.StudentProfile) error {
	now := time.Now()
	filter := bson.M{"student_id": profile.StudentID}
	update := bson.M{
		"$set": bson.M{
			"personality_type":     profile.PersonalityType,
			"strength_description": profile.StrengthDescription,
			"learning_style":       profile.LearningStyle,
			"math_score":           profile.MathScore,
			"logical_score":        profile.LogicalScore,
			"creativity_score":     profile.CreativityScore,
			"comprehension_score":  profile.ComprehensionScore,
			"updated_at":           now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID().Hex(),
			"student_id": profile.StudentID,
			"created_at": now,
		},
	}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

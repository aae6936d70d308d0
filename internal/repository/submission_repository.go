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

type SubmissionRepository struct {
	Col *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{Col: db.Collection("submissions")}
}

func (r *SubmissionRepository) EnsureIndexes(ctx context.Context) {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "homework_id", Value: 1},
			{Key: "student_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Warning: failed to create submission index: %v", err)
	}
}

// Upsert writes the submission keyed by (homework_id, student_id). A resubmit
// replaces the previous answers and score for the same pair.
func (r *SubmissionRepository) Upsert(ctx context.Context, sub *models.Submission) error {
	sub.SubmittedAt = time.Now()
	filter := bson.M{"homework_id": sub.HomeworkID, "student_id": sub.StudentID}
	update := bson.M{
		"$set": bson.M{
			"answers":            sub.Answers,
			"score":              sub.Score,
			"total_questions":    sub.TotalQuestions,
			"time_spent_minutes": sub.TimeSpentMinutes,
			"submitted_at":       sub.SubmittedAt,
		},
		"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID().Hex(),
			"homework_id": sub.HomeworkID,
			"student_id":  sub.StudentID,
		},
	}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *SubmissionRepository) FindByHomeworkAndStudent(ctx context.Context, homeworkID, studentID string) (*models.Submission, error) {
	var sub models.Submission
	err := r.Col.FindOne(ctx, bson.M{"homework_id": homeworkID, "student_id": studentID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) FindByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cursor, err := r.Col.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubmissionRepository) FindByHomework(ctx context.Context, homeworkID string) ([]models.Submission, error) {
	cursor, err := r.Col.Find(ctx, bson.M{"homework_id": homeworkID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

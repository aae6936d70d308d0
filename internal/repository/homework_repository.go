package repository

import (
	"context"
	"time"

	"homework-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type HomeworkRepository struct {
	Col *mongo.Collection
}

func NewHomeworkRepository(db *mongo.Database) *HomeworkRepository {
	return &HomeworkRepository{Col: db.Collection("homeworks")}
}

func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	now := time.Now()
	hw.ID = primitive.NewObjectID().Hex()
	hw.CreatedAt = now
	hw.UpdatedAt = now
	if hw.Questions == nil {
		hw.Questions = []models.Question{}
	}
	_, err := r.Col.InsertOne(ctx, hw)
	return err
}

func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	var hw models.Homework
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&hw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *HomeworkRepository) FindByClassroom(ctx context.Context, classroomID string) ([]models.Homework, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Col.Find(ctx, bson.M{"classroom_id": classroomID, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var homeworks []models.Homework
	if err := cursor.All(ctx, &homeworks); err != nil {
		return nil, err
	}
	return homeworks, nil
}

// MaterializeQuestions installs the question set only if the homework still
// has none, so concurrent writers cannot overwrite each other. It reports
// whether this caller's set was the one persisted.
func (r *HomeworkRepository) MaterializeQuestions(ctx context.Context, id string, questions []models.Question) (bool, error) {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": id, "questions": bson.M{"$size": 0}},
		bson.M{"$set": bson.M{"questions": questions, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ReplaceQuestions overwrites the question set unconditionally. Used for
// teacher-initiated regeneration.
func (r *HomeworkRepository) ReplaceQuestions(ctx context.Context, id string, questions []models.Question) error {
	_, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"questions": questions, "updated_at": time.Now()}},
	)
	return err
}

func (r *HomeworkRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

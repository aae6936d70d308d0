package repository

import (
	"context"

	"homework-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ClassroomRepository struct {
	Col *mongo.Collection
}

func NewClassroomRepository(db *mongo.Database) *ClassroomRepository {
	return &ClassroomRepository{Col: db.Collection("classrooms")}
}

func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	var classroom models.Classroom
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&classroom)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *ClassroomRepository) FindByStudent(ctx context.Context, studentID string) ([]models.Classroom, error) {
	cursor, err := r.Col.Find(ctx, bson.M{"student_ids": studentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var classrooms []models.Classroom
	if err := cursor.All(ctx, &classrooms); err != nil {
		return nil, err
	}
	return classrooms, nil
}

package models

import "time"

// Homework is one assignment scoped to a classroom. Questions stays an empty
// array until the set is materialized on first student access; after that it
// only changes through an explicit teacher-triggered regeneration.
type Homework struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	ClassroomID string     `bson:"classroom_id" json:"classroom_id"`
	TeacherID   string     `bson:"teacher_id" json:"teacher_id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Subject     string     `bson:"subject" json:"subject"`
	Difficulty  string     `bson:"difficulty" json:"difficulty"`
	Questions   []Question `bson:"questions" json:"questions"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	IsActive    bool       `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

func (h *Homework) Materialized() bool {
	return len(h.Questions) > 0
}

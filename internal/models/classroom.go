package models

import (
	"slices"
	"time"
)

// Classroom is read here only for authorization and enrollment checks;
// membership management lives in another service.
type Classroom struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Grade      string    `bson:"grade" json:"grade"`
	ShareCode  string    `bson:"share_code" json:"share_code"`
	TeacherID  string    `bson:"teacher_id" json:"teacher_id"`
	AdminIDs   []string  `bson:"admin_ids" json:"admin_ids"`
	StudentIDs []string  `bson:"student_ids" json:"student_ids"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// CanManage reports whether userID may create or modify homework in this
// classroom: the owning teacher or any listed admin.
func (c *Classroom) CanManage(userID string) bool {
	return userID == c.TeacherID || slices.Contains(c.AdminIDs, userID)
}

func (c *Classroom) HasStudent(studentID string) bool {
	return slices.Contains(c.StudentIDs, studentID)
}

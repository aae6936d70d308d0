package handlers

import (
	"errors"
	"net/http"

	"homework-service/internal/event"
	"homework-service/internal/middleware"
	"homework-service/internal/models"
	"homework-service/internal/service"

	"github.com/gin-gonic/gin"
)

type HomeworkHandler struct {
	service   *service.HomeworkService
	publisher *event.EventPublisher
}

func NewHomeworkHandler(svc *service.HomeworkService, publisher *event.EventPublisher) *HomeworkHandler {
	return &HomeworkHandler{service: svc, publisher: publisher}
}

func (h *HomeworkHandler) publish(eventType string, payload interface{}) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(eventType, payload); err != nil {
		// Events are best-effort; the request already succeeded.
		return
	}
}

func writeServiceError(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason, "code": "INVALID_REQUEST"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Homework not found", "code": "HOMEWORK_NOT_FOUND"})
	case errors.Is(err, service.ErrClassroomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Classroom not found", "code": "CLASSROOM_NOT_FOUND"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed", "code": "FORBIDDEN"})
	case errors.Is(err, service.ErrInactive):
		c.JSON(http.StatusGone, gin.H{"error": "Homework is no longer active", "code": "HOMEWORK_INACTIVE"})
	case errors.Is(err, service.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "Questions are not ready yet, try again", "code": "QUESTIONS_NOT_READY"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL_ERROR"})
	}
}

// CreateHomework handles POST /protected/homeworks.
func (h *HomeworkHandler) CreateHomework(c *gin.Context) {
	var input service.CreateHomeworkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	hw, err := h.service.CreateHomework(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.publish("homework.created", gin.H{
		"homework_id":  hw.ID,
		"classroom_id": hw.ClassroomID,
		"teacher_id":   hw.TeacherID,
	})
	c.JSON(http.StatusCreated, hw)
}

// GetHomework handles GET /protected/homeworks/:id. Managers see the full
// document; everyone else sees questions without grading data.
func (h *HomeworkHandler) GetHomework(c *gin.Context) {
	hw, err := h.service.GetHomework(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if middleware.UserID(c) != hw.TeacherID {
		hw.Questions = models.StudentView(hw.Questions)
	}
	c.JSON(http.StatusOK, hw)
}

// StartHomework handles GET /protected/homeworks/:id/questions. First access
// materializes the question set, personalized by the student's profile.
func (h *HomeworkHandler) StartHomework(c *gin.Context) {
	studentID := middleware.UserID(c)
	hw, err := h.service.EnsureQuestions(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"homework_id": hw.ID,
		"title":       hw.Title,
		"subject":     hw.Subject,
		"due_date":    hw.DueDate,
		"questions":   models.StudentView(hw.Questions),
	})
}

// SubmitHomework handles POST /protected/homeworks/:id/submit.
func (h *HomeworkHandler) SubmitHomework(c *gin.Context) {
	var input service.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	studentID := middleware.UserID(c)
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), studentID, input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.publish("homework.submitted", gin.H{
		"homework_id": result.Submission.HomeworkID,
		"student_id":  studentID,
		"score":       result.Submission.Score,
	})
	c.JSON(http.StatusOK, result)
}

// RegenerateQuestions handles POST /protected/homeworks/:id/regenerate.
func (h *HomeworkHandler) RegenerateQuestions(c *gin.Context) {
	hw, err := h.service.RegenerateQuestions(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, hw)
}

// DeleteHomework handles DELETE /protected/homeworks/:id (soft delete).
func (h *HomeworkHandler) DeleteHomework(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	h.publish("homework.deactivated", gin.H{"homework_id": c.Param("id")})
	c.JSON(http.StatusOK, gin.H{"message": "Homework deactivated"})
}

// GetSubmission handles GET /protected/homeworks/:id/submission.
func (h *HomeworkHandler) GetSubmission(c *gin.Context) {
	sub, err := h.service.GetSubmission(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found", "code": "SUBMISSION_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListClassroomHomework handles GET /protected/classrooms/:id/homeworks for
// teachers and admins.
func (h *HomeworkHandler) ListClassroomHomework(c *gin.Context) {
	homeworks, err := h.service.ListClassroomHomework(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"homeworks": homeworks, "count": len(homeworks)})
}

// ListStudentHomework handles GET /protected/classrooms/:id/homeworks/me,
// annotating each entry with the caller's submission state.
func (h *HomeworkHandler) ListStudentHomework(c *gin.Context) {
	entries, err := h.service.ListStudentHomework(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	for i := range entries {
		entries[i].Questions = models.StudentView(entries[i].Questions)
	}
	c.JSON(http.StatusOK, gin.H{"homeworks": entries, "count": len(entries)})
}

// GetMyGrades handles GET /protected/students/me/grades.
func (h *HomeworkHandler) GetMyGrades(c *gin.Context) {
	grades, err := h.service.StudentGrades(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grades": grades, "count": len(grades)})
}

// GetMyProfile handles GET /protected/students/me/profile.
func (h *HomeworkHandler) GetMyProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
